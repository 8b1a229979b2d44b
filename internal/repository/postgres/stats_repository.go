package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

type statsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStatsRepository создает новый экземпляр stats repository
func NewStatsRepository(db *DB, logger *zap.Logger) repository.StatsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

// AreaByOwner - суммарная площадь ферм по владельцам, по убыванию
func (r *statsRepository) AreaByOwner(ctx context.Context) ([]domain.OwnerArea, error) {
	query := `
		SELECT
			COALESCE(NULLIF(TRIM(owner), ''), 'N/D') AS owner,
			COALESCE(SUM(area_ha), 0) AS area_ha,
			COUNT(*) AS farms
		FROM farms
		GROUP BY 1
		ORDER BY area_ha DESC, owner
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query owner stats", zap.Error(err))
		return nil, fmt.Errorf("query owner stats: %w", err)
	}
	defer rows.Close()

	var out []domain.OwnerArea
	for rows.Next() {
		var oa domain.OwnerArea
		if err := rows.Scan(&oa.Owner, &oa.AreaHa, &oa.Farms); err != nil {
			return nil, fmt.Errorf("scan owner stats: %w", err)
		}
		out = append(out, oa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("owner stats rows error: %w", err)
	}
	return out, nil
}
