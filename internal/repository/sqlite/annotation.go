package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
)

const annotationColumns = `id, room_id, title, description, position, created_by, created_at`

// CreateAnnotation inserts an annotation. The id and created_at are assigned here.
// Position is stored as JSON text.
func (db *DB) CreateAnnotation(ctx context.Context, in model.InsertAnnotation) (*model.Annotation, error) {
	a := &model.Annotation{
		ID:          uuid.NewString(),
		RoomID:      in.RoomID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now(),
	}

	var description sql.NullString
	if a.Description != nil {
		description = sql.NullString{String: *a.Description, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO annotations (`+annotationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.RoomID,
		a.Title,
		description,
		string(a.Position),
		a.CreatedBy,
		a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting annotation in room %s: %w", in.RoomID, err)
	}

	return a, nil
}

// GetAnnotationByID returns apperror.ErrNotFound if no annotation has that id.
func (db *DB) GetAnnotationByID(ctx context.Context, id string) (*model.Annotation, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE id = ?`,
		id,
	)

	a, err := scanAnnotation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("annotation", id)
		}
		return nil, fmt.Errorf("sqlite: getting annotation %s: %w", id, err)
	}

	return a, nil
}

// ListAnnotationsByRoom returns the annotations of one room, newest first.
// An unknown room yields an empty slice, not an error: rooms are not stored here.
func (db *DB) ListAnnotationsByRoom(ctx context.Context, roomID string, opts repository.ListOptions) ([]model.Annotation, error) {
	opts = opts.Clamp()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations
		 WHERE room_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		roomID,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing annotations for room %s: %w", roomID, err)
	}
	defer rows.Close()

	annotations := make([]model.Annotation, 0, opts.Limit)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning annotation row: %w", err)
		}
		annotations = append(annotations, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating annotations: %w", err)
	}

	return annotations, nil
}

func scanAnnotation(s scanner) (*model.Annotation, error) {
	var (
		a           model.Annotation
		description sql.NullString
		position    string
	)
	if err := s.Scan(
		&a.ID,
		&a.RoomID,
		&a.Title,
		&description,
		&position,
		&a.CreatedBy,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		a.Description = &description.String
	}
	a.Position = json.RawMessage(position)
	return &a, nil
}
