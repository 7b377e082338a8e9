package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
	"github.com/sakif/roomview/internal/schema"
)

// ModelService records metadata for uploaded 3D models.
type ModelService struct {
	repo    repository.ModelRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewModelService(repo repository.ModelRepository, m *metrics.Metrics, logger *slog.Logger) *ModelService {
	return &ModelService{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Create stores a model on behalf of actor, the authenticated username.
//
// Rules on top of schema.InsertModel:
//   - fileSize must not be negative
//   - uploadedBy must be actor; nobody uploads in someone else's name
func (s *ModelService) Create(ctx context.Context, actor string, in model.InsertModel) (*model.Model, error) {
	if err := schema.InsertModel.Check(in); err != nil {
		s.metrics.RecordValidationFailure(schema.Models.Name)
		return nil, err
	}
	if in.FileSize < 0 {
		s.metrics.RecordValidationFailure(schema.Models.Name)
		return nil, apperror.ValidationFailed("fileSize", "fileSize must be zero or greater")
	}
	if in.UploadedBy != actor {
		return nil, apperror.Forbidden("uploadedBy must be the authenticated user")
	}

	m, err := s.repo.CreateModel(ctx, in)
	if err != nil {
		s.logger.Error("failed to create model",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/model: creating model: %w", err)
	}

	s.metrics.RecordInsert(schema.Models.Name)
	s.logger.Info("model created",
		slog.String("id", m.ID),
		slog.String("name", m.Name),
		slog.String("uploadedBy", m.UploadedBy),
	)

	return m, nil
}

func (s *ModelService) Get(ctx context.Context, id string) (*model.Model, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "model ID is required")
	}

	m, err := s.repo.GetModelByID(ctx, id)
	if err != nil {
		return nil, err // already an apperror
	}
	return m, nil
}

// List returns models newest first. Out-of-range paging is clamped, not
// rejected.
func (s *ModelService) List(ctx context.Context, opts repository.ListOptions) ([]model.Model, error) {
	models, err := s.repo.ListModels(ctx, opts.Clamp())
	if err != nil {
		s.logger.Error("failed to list models", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/model: listing models: %w", err)
	}
	return models, nil
}
