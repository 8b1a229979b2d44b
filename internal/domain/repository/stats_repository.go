package repository

import (
	"context"

	"github.com/talhao-editor/internal/domain"
)

// StatsRepository интерфейс для агрегатов по фермам
type StatsRepository interface {
	// AreaByOwner возвращает суммарную площадь и число ферм по владельцам,
	// по убыванию площади
	AreaByOwner(ctx context.Context) ([]domain.OwnerArea, error)
}
