package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
)

// CreateUser stores the user as given.
// Returns apperror.ErrConflict if the username is already registered.
func (db *DB) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	row := userRow{Username: in.Username, Password: in.Password}

	if err := db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user", in.Username)
		}
		return nil, fmt.Errorf("postgres: inserting user %s: %w", in.Username, err)
	}

	return row.toModel(), nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	err := db.gorm.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", username, err)
	}
	return row.toModel(), nil
}

// CreateModel assigns the id and uploaded_at before inserting.
func (db *DB) CreateModel(ctx context.Context, in model.InsertModel) (*model.Model, error) {
	row := modelRow{
		ID:         uuid.NewString(),
		Name:       in.Name,
		FileURL:    in.FileURL,
		FileType:   in.FileType,
		FileSize:   in.FileSize,
		UploadedBy: in.UploadedBy,
		UploadedAt: now(),
	}

	if err := db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("postgres: inserting model %q: %w", in.Name, err)
	}

	return row.toModel(), nil
}

func (db *DB) GetModelByID(ctx context.Context, id string) (*model.Model, error) {
	var row modelRow
	err := db.gorm.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("model", id)
		}
		return nil, fmt.Errorf("postgres: getting model %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (db *DB) ListModels(ctx context.Context, opts repository.ListOptions) ([]model.Model, error) {
	opts = opts.Clamp()

	var rows []modelRow
	err := db.gorm.WithContext(ctx).
		Order("uploaded_at DESC").
		// Postgres has no rowid; ids are random, so ties are stable but not
		// in insertion order.
		Order("id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing models: %w", err)
	}

	models := make([]model.Model, 0, len(rows))
	for _, r := range rows {
		models = append(models, *r.toModel())
	}
	return models, nil
}

// CreateAnnotation assigns the id and created_at before inserting.
func (db *DB) CreateAnnotation(ctx context.Context, in model.InsertAnnotation) (*model.Annotation, error) {
	row := annotationRow{
		ID:          uuid.NewString(),
		RoomID:      in.RoomID,
		Title:       in.Title,
		Description: in.Description,
		Position:    datatypes.JSON(in.Position),
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now(),
	}

	if err := db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("postgres: inserting annotation in room %s: %w", in.RoomID, err)
	}

	return row.toModel(), nil
}

func (db *DB) GetAnnotationByID(ctx context.Context, id string) (*model.Annotation, error) {
	var row annotationRow
	err := db.gorm.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("annotation", id)
		}
		return nil, fmt.Errorf("postgres: getting annotation %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (db *DB) ListAnnotationsByRoom(ctx context.Context, roomID string, opts repository.ListOptions) ([]model.Annotation, error) {
	opts = opts.Clamp()

	var rows []annotationRow
	err := db.gorm.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing annotations for room %s: %w", roomID, err)
	}

	annotations := make([]model.Annotation, 0, len(rows))
	for _, r := range rows {
		annotations = append(annotations, *r.toModel())
	}
	return annotations, nil
}
