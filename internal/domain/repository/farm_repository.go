package repository

import (
	"context"

	"github.com/talhao-editor/internal/domain"
)

// FarmRepository - постоянное хранилище ферм
type FarmRepository interface {
	// Create сохраняет новую ферму и возвращает её id
	Create(ctx context.Context, draft *domain.FarmDraft) (int64, error)

	// Update заменяет реквизиты и талханы существующей фермы
	Update(ctx context.Context, id int64, draft *domain.FarmDraft) error

	// GetByID загружает ферму вместе с талханами
	GetByID(ctx context.Context, id int64) (*domain.Farm, error)

	// List возвращает фермы без геометрии, отфильтрованные по подстроке
	List(ctx context.Context, filter domain.FarmFilter) ([]domain.FarmSummary, error)
}
