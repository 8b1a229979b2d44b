package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/talhao-editor/internal/pkg/errors"
	"github.com/talhao-editor/internal/pkg/validator"
)

// sessionID разбирает :id сессии из пути
func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"id": "uuid",
		})
	}
	return id, nil
}

// int64Param разбирает положительный числовой параметр пути
func int64Param(c *fiber.Ctx, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			name: "gt=0",
		})
	}
	return v, nil
}

// validate проверяет запрос и переводит ошибки в ErrInvalidRequest
func validate(req interface{}) error {
	if err := validator.Validate(req); err != nil {
		return errors.ErrInvalidRequest.WithDetails(validator.Details(err))
	}
	return nil
}

func invalidBody() error {
	return errors.ErrInvalidRequest.WithMessage("Invalid request body")
}
