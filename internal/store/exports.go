package store

import (
	"context"
	"database/sql"
	"fmt"

	"report-service/internal/models"
)

// CreateExport records one export run in the history
func (s *Store) CreateExport(ctx context.Context, export *models.Export) error {
	query := `
		INSERT INTO exports (filename, path, range_start, range_end, pages, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, export, query,
		export.Filename, export.Path, export.RangeStart, export.RangeEnd,
		export.Pages, export.Status)
}

// GetExportByID retrieves an export by ID
func (s *Store) GetExportByID(ctx context.Context, id int64) (*models.Export, error) {
	var export models.Export
	err := s.db.GetContext(ctx, &export, "SELECT * FROM exports WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("export not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &export, nil
}

// ListExports retrieves the most recent exports, newest first
func (s *Store) ListExports(ctx context.Context, limit int) ([]models.Export, error) {
	if limit <= 0 {
		limit = 50
	}
	var exports []models.Export
	err := s.db.SelectContext(ctx, &exports,
		"SELECT * FROM exports ORDER BY created_at DESC LIMIT $1", limit)
	return exports, err
}
