package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talhao-editor/internal/pkg/errors"
)

// SuccessResponse - конверт успешного ответа API
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - сводка к ответу: число элементов, суммарная площадь, пропущенные при импорте
type Meta struct {
	Total   int     `json:"total,omitempty"`
	TotalHa float64 `json:"total_ha,omitempty"`
	Skipped int     `json:"skipped,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{Data: data, Meta: meta})
}

func SendCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Data: data})
}

func SendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// SendError отдаёт AppError как есть, всё остальное скрывается за 500
func SendError(c *fiber.Ctx, err error) error {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.ErrInternalServer
	}
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{Error: appErr})
}
