package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

type CropRepository struct {
	db *sql.DB
}

func NewCropRepository(db *sql.DB) *CropRepository {
	return &CropRepository{db: db}
}

func (r *CropRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS crops (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	scientific_name TEXT,
	description TEXT,
	seasons TEXT[] NOT NULL DEFAULT '{}',
	climates TEXT[] NOT NULL DEFAULT '{}',
	soils TEXT[] NOT NULL DEFAULT '{}',
	water_requirement TEXT,
	growth_duration TEXT,
	average_yield TEXT,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_document TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crops_created_at ON crops(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CropRepository) Insert(ctx context.Context, crop *domain.Crop) (string, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO crops (
	id, name, scientific_name, description, seasons, climates, soils,
	water_requirement, growth_duration, average_yield, confidence, source_document, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		crop.ID, crop.Name, crop.ScientificName, crop.Description,
		textArray(crop.Seasons), textArray(crop.Climates), textArray(crop.Soils),
		crop.WaterRequirement, crop.GrowthDuration, crop.AverageYield,
		crop.Confidence, crop.SourceDocument, crop.CreatedAt, crop.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", domain.WrapError(domain.ErrCropConflict, "insert crop", fmt.Errorf("name %q", crop.Name))
		}
		return "", fmt.Errorf("insert crop: %w", err)
	}
	return crop.ID, nil
}

const cropColumns = `id, name, scientific_name, description, seasons, climates, soils, water_requirement, growth_duration, average_yield, confidence, source_document, created_at, updated_at`

func (r *CropRepository) GetByID(ctx context.Context, id string) (*domain.Crop, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+cropColumns+`
FROM crops
WHERE id = $1
`, id)

	crop, err := scanCrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCropNotFound, "get crop", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return crop, nil
}

func (r *CropRepository) List(ctx context.Context, limit int) ([]*domain.Crop, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+cropColumns+`
FROM crops
ORDER BY name ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var crops []*domain.Crop
	for rows.Next() {
		crop, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		crops = append(crops, crop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crops: %w", err)
	}
	return crops, nil
}

func scanCrop(row rowScanner) (*domain.Crop, error) {
	var (
		crop                     domain.Crop
		seasons, climates, soils pgTextArray
	)
	err := row.Scan(
		&crop.ID, &crop.Name, &crop.ScientificName, &crop.Description,
		&seasons, &climates, &soils,
		&crop.WaterRequirement, &crop.GrowthDuration, &crop.AverageYield,
		&crop.Confidence, &crop.SourceDocument, &crop.CreatedAt, &crop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	crop.Seasons = seasons
	crop.Climates = climates
	crop.Soils = soils
	return &crop, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
