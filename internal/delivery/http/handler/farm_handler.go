package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/pkg/errors"
	"github.com/talhao-editor/internal/pkg/utils"
	"github.com/talhao-editor/internal/usecase"
	"github.com/talhao-editor/internal/usecase/dto"
)

// FarmHandler - обработчик сохранённых ферм
type FarmHandler struct {
	farmUC *usecase.FarmUseCase
	logger *zap.Logger
}

// NewFarmHandler - создание нового FarmHandler
func NewFarmHandler(farmUC *usecase.FarmUseCase, logger *zap.Logger) *FarmHandler {
	return &FarmHandler{
		farmUC: farmUC,
		logger: logger,
	}
}

// List - список ферм с фильтром по коду, имени и владельцу
func (h *FarmHandler) List(c *fiber.Ctx) error {
	var req dto.ListFarmsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, invalidBody())
	}
	if err := validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	farms, err := h.farmUC.ListFarms(c.Context(), req.Filter())
	if err != nil {
		h.logger.Error("Failed to list farms", zap.Error(err))
		return utils.SendError(c, err)
	}

	total := 0.0
	for _, f := range farms {
		total += f.AreaHa
	}
	return utils.SendSuccess(c, fiber.Map{
		"farms": farms,
	}, &utils.Meta{
		Total:   len(farms),
		TotalHa: total,
	})
}

// Get - ферма с талханами в виде FeatureCollection
func (h *FarmHandler) Get(c *fiber.Ctx) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	farm, err := h.farmUC.GetFarm(c.Context(), id)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			h.logger.Error("Failed to get farm", zap.Int64("id", id), zap.Error(err))
		}
		return utils.SendError(c, err)
	}

	resp := dto.FarmResponse{Farm: *farm, Parcels: dto.ParcelCollection(farm.Features)}
	return utils.SendSuccess(c, resp, &utils.Meta{
		Total:   len(farm.Features),
		TotalHa: farm.AreaHa,
	})
}
