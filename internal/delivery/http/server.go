package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
	"github.com/talhao-editor/internal/delivery/http/handler"
	"github.com/talhao-editor/internal/delivery/http/middleware"
	"github.com/talhao-editor/internal/pkg/errors"
	"github.com/talhao-editor/internal/pkg/utils"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	sessionHandler *handler.SessionHandler
	farmHandler    *handler.FarmHandler
	statsHandler   *handler.StatsHandler
	gatherer       prometheus.Gatherer
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	farmHandler *handler.FarmHandler,
	statsHandler *handler.StatsHandler,
	gatherer prometheus.Gatherer,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Talhao Editor",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    cfg.MaxUploadBytes(),
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		sessionHandler: sessionHandler,
		farmHandler:    farmHandler,
		statsHandler:   statsHandler,
		gatherer:       gatherer,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение (для тестов через app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	if s.gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Editor sessions
	sessions := api.Group("/sessions")
	sessions.Post("/", s.sessionHandler.Create)
	sessions.Get("/:id", s.sessionHandler.Get)
	sessions.Delete("/:id", s.sessionHandler.Close)
	sessions.Post("/:id/import", s.sessionHandler.Import)
	sessions.Post("/:id/commands", s.sessionHandler.Command)
	sessions.Get("/:id/scene", s.sessionHandler.Scene)
	sessions.Get("/:id/summary", s.sessionHandler.Summary)
	sessions.Post("/:id/save", s.sessionHandler.Save)
	sessions.Post("/:id/draft", s.sessionHandler.NewDraft)
	sessions.Post("/:id/load/:farmId", s.sessionHandler.Load)

	// Farms
	api.Get("/farms", s.farmHandler.List)
	api.Get("/farms/:id", s.farmHandler.Get)

	// Stats
	api.Get("/stats/owners", s.statsHandler.GetOwnerStats)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		if code != fiber.StatusInternalServerError {
			return c.Status(code).JSON(utils.ErrorResponse{
				Error: errors.New("HTTP_ERROR", err.Error(), code),
			})
		}
		return utils.SendError(c, errors.ErrInternalServer)
	}
}
