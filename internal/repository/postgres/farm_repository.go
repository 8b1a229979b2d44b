package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
	"github.com/talhao-editor/internal/pkg/errors"
)

type farmRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFarmRepository создает репозиторий ферм
func NewFarmRepository(db *DB) repository.FarmRepository {
	return &farmRepository{
		db:     db,
		logger: db.logger,
	}
}

// farmRow - строка таблицы farms с сырой геометрией
type farmRow struct {
	domain.Farm
	GeoJSON []byte `db:"geojson"`
}

func (r *farmRepository) Create(ctx context.Context, draft *domain.FarmDraft) (int64, error) {
	raw, err := domain.EncodeFeatures(draft.Features)
	if err != nil {
		return 0, fmt.Errorf("encode farm features: %w", err)
	}

	query := `
		INSERT INTO farms (cod_fazenda, name, owner, area_ha, geojson)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		draft.Code, draft.Name, draft.Owner, draft.AreaHa, raw,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert farm",
			zap.String("cod_fazenda", draft.Code),
			zap.Error(err))
		return 0, dbError(err)
	}

	r.logger.Info("Farm created",
		zap.Int64("id", id),
		zap.String("cod_fazenda", draft.Code),
		zap.Int("parcels", len(draft.Features)),
		zap.Float64("area_ha", draft.AreaHa))
	return id, nil
}

func (r *farmRepository) Update(ctx context.Context, id int64, draft *domain.FarmDraft) error {
	raw, err := domain.EncodeFeatures(draft.Features)
	if err != nil {
		return fmt.Errorf("encode farm features: %w", err)
	}

	query := `
		UPDATE farms
		SET cod_fazenda = $2,
		    name = $3,
		    owner = $4,
		    area_ha = $5,
		    geojson = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, draft.Code, draft.Name, draft.Owner, draft.AreaHa, raw)
	if err != nil {
		r.logger.Error("Failed to update farm", zap.Int64("id", id), zap.Error(err))
		return dbError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if affected == 0 {
		return errors.ErrFarmNotFound
	}

	r.logger.Info("Farm updated",
		zap.Int64("id", id),
		zap.Int("parcels", len(draft.Features)),
		zap.Float64("area_ha", draft.AreaHa))
	return nil
}

func (r *farmRepository) GetByID(ctx context.Context, id int64) (*domain.Farm, error) {
	query := `
		SELECT id, cod_fazenda, name, owner, area_ha, geojson, created_at, updated_at
		FROM farms
		WHERE id = $1
	`

	var row farmRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrFarmNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get farm by ID", zap.Int64("id", id), zap.Error(err))
		return nil, dbError(err)
	}

	farm := row.Farm
	if len(row.GeoJSON) > 0 {
		features, err := domain.DecodeFeatures(row.GeoJSON)
		if err != nil {
			r.logger.Error("Stored farm geometry is unreadable", zap.Int64("id", id), zap.Error(err))
			return nil, dbError(err)
		}
		farm.Features = features
	}
	return &farm, nil
}

func (r *farmRepository) List(ctx context.Context, filter domain.FarmFilter) ([]domain.FarmSummary, error) {
	query := `
		SELECT id, cod_fazenda, name, owner, area_ha
		FROM farms
	`

	var (
		conds []string
		args  []interface{}
	)
	add := func(column, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		args = append(args, "%"+escapeLike(value)+"%")
		conds = append(conds, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	add("cod_fazenda", filter.Code)
	add("name", filter.Name)
	add("owner", filter.Owner)

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name, id"

	farms := []domain.FarmSummary{}
	if err := r.db.SelectContext(ctx, &farms, query, args...); err != nil {
		r.logger.Error("Failed to list farms", zap.Error(err))
		return nil, dbError(err)
	}
	return farms, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func dbError(err error) error {
	return errors.ErrDatabaseError.WithDetails(map[string]interface{}{"cause": err.Error()})
}
