package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
)

const modelColumns = `id, name, file_url, file_type, file_size, uploaded_by, uploaded_at`

// CreateModel inserts a model record. The id (a random UUID) and uploaded_at
// are assigned here; nothing in the insert shape can set them.
func (db *DB) CreateModel(ctx context.Context, in model.InsertModel) (*model.Model, error) {
	m := &model.Model{
		ID:         uuid.NewString(),
		Name:       in.Name,
		FileURL:    in.FileURL,
		FileType:   in.FileType,
		FileSize:   in.FileSize,
		UploadedBy: in.UploadedBy,
		UploadedAt: now(),
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO models (`+modelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Name,
		m.FileURL,
		m.FileType,
		m.FileSize,
		m.UploadedBy,
		m.UploadedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting model %q: %w", in.Name, err)
	}

	return m, nil
}

// GetModelByID returns apperror.ErrNotFound if no model has that id.
func (db *DB) GetModelByID(ctx context.Context, id string) (*model.Model, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE id = ?`,
		id,
	)

	m, err := scanModel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("model", id)
		}
		return nil, fmt.Errorf("sqlite: getting model %s: %w", id, err)
	}

	return m, nil
}

// ListModels returns models newest first.
func (db *DB) ListModels(ctx context.Context, opts repository.ListOptions) ([]model.Model, error) {
	opts = opts.Clamp()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+modelColumns+`
		 FROM models
		 ORDER BY uploaded_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing models: %w", err)
	}
	defer rows.Close()

	models := make([]model.Model, 0, opts.Limit)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning model row: %w", err)
		}
		models = append(models, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating models: %w", err)
	}

	return models, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanModel(s scanner) (*model.Model, error) {
	var m model.Model
	if err := s.Scan(
		&m.ID,
		&m.Name,
		&m.FileURL,
		&m.FileType,
		&m.FileSize,
		&m.UploadedBy,
		&m.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// now returns the insert timestamp: UTC, truncated to the microsecond
// precision Postgres keeps, so both stores return identical values.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
