package testhelpers

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

// Square - квадратный талхан со стороной d градусов
func Square(x, y, d float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + d, y}, {x + d, y + d}, {x, y + d}, {x, y}}}
}

// FarmFixture - черновик фермы с n талханами
func FarmFixture(code, name, owner string, areaHa float64, n int) *domain.FarmDraft {
	draft := &domain.FarmDraft{Code: code, Name: name, Owner: owner, AreaHa: areaHa}
	for i := 0; i < n; i++ {
		draft.Features = append(draft.Features, domain.Feature{
			Geometry:   Square(-39-float64(i)*0.01, -18, 0.001),
			Properties: domain.Properties{Label: domain.PropertyString(i + 1)},
		})
	}
	return draft
}

// LoadFarms сохраняет фикстуры и возвращает их id в том же порядке
func LoadFarms(ctx context.Context, repo repository.FarmRepository, drafts ...*domain.FarmDraft) ([]int64, error) {
	ids := make([]int64, 0, len(drafts))
	for _, d := range drafts {
		id, err := repo.Create(ctx, d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
