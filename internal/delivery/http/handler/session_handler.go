package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/pkg/errors"
	"github.com/talhao-editor/internal/pkg/utils"
	"github.com/talhao-editor/internal/usecase"
	"github.com/talhao-editor/internal/usecase/dto"
)

// SessionHandler - обработчик сессий редактора талханов
type SessionHandler struct {
	editorUC *usecase.EditorUseCase
	logger   *zap.Logger
}

// NewSessionHandler - создание нового SessionHandler
func NewSessionHandler(editorUC *usecase.EditorUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		editorUC: editorUC,
		logger:   logger,
	}
}

// Create - открыть сессию. С farm_id ферма сразу загружается в режиме mode.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, invalidBody())
		}
	}
	if err := validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	session := h.editorUC.CreateSession()
	if req.FarmID == nil {
		return utils.SendCreated(c, session)
	}

	mode := req.Mode
	if mode == "draft" || mode == "" {
		mode = "edit"
	}
	loaded, err := h.editorUC.LoadFarm(c.Context(), session.ID, dto.LoadFarmRequest{FarmID: *req.FarmID, Mode: mode})
	if err != nil {
		_ = h.editorUC.CloseSession(session.ID)
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, loaded)
}

// Get - состояние сессии
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	session, err := h.editorUC.GetSession(id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, session, nil)
}

// Import - загрузка файла (multipart, поле file)
func (h *SessionHandler) Import(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"file": "required",
		}))
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}

	report, err := h.editorUC.Import(c.Context(), id, fh.Filename, data)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, report, &utils.Meta{
		Total:   report.Imported,
		TotalHa: report.TotalHa,
		Skipped: report.Skipped,
	})
}

// Command - событие карты: создание, правка, атрибуты, удаление
func (h *SessionHandler) Command(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody())
	}
	if err := validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	cmd, err := req.ToCommand()
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage(err.Error()))
	}

	result, err := h.editorUC.Dispatch(id, cmd)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// Scene - оверлеи сессии
func (h *SessionHandler) Scene(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	scene, err := h.editorUC.Scene(id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, scene, &utils.Meta{Total: len(scene.Overlays.Features)})
}

// Summary - таблица талханов перед сохранением
func (h *SessionHandler) Summary(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	summary, err := h.editorUC.Summary(id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, summary, &utils.Meta{
		Total:   len(summary.Rows),
		TotalHa: summary.TotalHa,
	})
}

// Save - сохранить черновик как ферму
func (h *SessionHandler) Save(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SaveFarmRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody())
	}
	if err := validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.editorUC.Save(c.Context(), id, &req)
	if err != nil {
		return utils.SendError(c, err)
	}
	if result.Updated {
		return utils.SendSuccess(c, result, nil)
	}
	return utils.SendCreated(c, result)
}

// Load - открыть сохранённую ферму (?mode=edit|view)
func (h *SessionHandler) Load(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	farmID, err := int64Param(c, "farmId")
	if err != nil {
		return utils.SendError(c, err)
	}

	req := dto.LoadFarmRequest{FarmID: farmID, Mode: c.Query("mode", "view")}
	if err := validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	session, err := h.editorUC.LoadFarm(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, session, nil)
}

// NewDraft - начать новый пустой черновик в той же сессии
func (h *SessionHandler) NewDraft(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	session, err := h.editorUC.StartDraft(id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, session, nil)
}

// Close - отмена: все оверлеи снимаются, сессия удаляется
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.editorUC.CloseSession(id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendNoContent(c)
}
