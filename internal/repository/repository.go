// Package repository declares the storage contracts the service layer depends on.
// Implementations live in the sqlite and postgres sub-packages.
//
// Every Create method takes an insert shape and returns the stored record.
// The implementation assigns ids and timestamps; callers never supply them.
package repository

import (
	"context"

	"github.com/sakif/roomview/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Clamp applies the default page size and bounds the limit and offset.
func (o ListOptions) Clamp() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// UserRepository stores user accounts.
// CreateUser returns an apperror Conflict when the username is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type ModelRepository interface {
	CreateModel(ctx context.Context, in model.InsertModel) (*model.Model, error)
	GetModelByID(ctx context.Context, id string) (*model.Model, error)
	ListModels(ctx context.Context, opts ListOptions) ([]model.Model, error)
}

type AnnotationRepository interface {
	CreateAnnotation(ctx context.Context, in model.InsertAnnotation) (*model.Annotation, error)
	GetAnnotationByID(ctx context.Context, id string) (*model.Annotation, error)
	ListAnnotationsByRoom(ctx context.Context, roomID string, opts ListOptions) ([]model.Annotation, error)
}

// Store is a complete storage backend.
type Store interface {
	UserRepository
	ModelRepository
	AnnotationRepository
	Close() error
}
