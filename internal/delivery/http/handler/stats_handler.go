package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/pkg/utils"
	"github.com/talhao-editor/internal/usecase"
)

// StatsHandler обрабатывает запросы для статистики
type StatsHandler struct {
	statsUC *usecase.StatsUseCase
	logger  *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler
func NewStatsHandler(statsUC *usecase.StatsUseCase, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetOwnerStats - топ владельцев по площади и агрегат "Outros"
func (h *StatsHandler) GetOwnerStats(c *fiber.Ctx) error {
	h.logger.Debug("Handling owner stats request")

	stats, err := h.statsUC.GetOwnerStats(c.Context())
	if err != nil {
		h.logger.Error("Failed to get owner stats", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, &utils.Meta{
		Total:   stats.FarmCount,
		TotalHa: stats.TotalHa,
	})
}
