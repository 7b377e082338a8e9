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

// AnnotationService manages spatial notes pinned inside rooms.
type AnnotationService struct {
	repo    repository.AnnotationRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAnnotationService(repo repository.AnnotationRepository, m *metrics.Metrics, logger *slog.Logger) *AnnotationService {
	return &AnnotationService{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Create stores an annotation on behalf of actor. createdBy must be actor.
// position is stored verbatim; any JSON value is accepted.
func (s *AnnotationService) Create(ctx context.Context, actor string, in model.InsertAnnotation) (*model.Annotation, error) {
	if err := schema.InsertAnnotation.Check(in); err != nil {
		s.metrics.RecordValidationFailure(schema.Annotations.Name)
		return nil, err
	}
	if in.CreatedBy != actor {
		return nil, apperror.Forbidden("createdBy must be the authenticated user")
	}

	a, err := s.repo.CreateAnnotation(ctx, in)
	if err != nil {
		s.logger.Error("failed to create annotation",
			slog.String("roomID", in.RoomID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/annotation: creating annotation: %w", err)
	}

	s.metrics.RecordInsert(schema.Annotations.Name)
	s.logger.Info("annotation created",
		slog.String("id", a.ID),
		slog.String("roomID", a.RoomID),
		slog.String("createdBy", a.CreatedBy),
	)

	return a, nil
}

func (s *AnnotationService) Get(ctx context.Context, id string) (*model.Annotation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "annotation ID is required")
	}

	a, err := s.repo.GetAnnotationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByRoom returns a room's annotations, newest first.
func (s *AnnotationService) ListByRoom(ctx context.Context, roomID string, opts repository.ListOptions) ([]model.Annotation, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperror.ValidationFailed("roomId", "room ID is required")
	}

	annotations, err := s.repo.ListAnnotationsByRoom(ctx, roomID, opts.Clamp())
	if err != nil {
		s.logger.Error("failed to list annotations",
			slog.String("roomID", roomID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/annotation: listing annotations for room %s: %w", roomID, err)
	}
	return annotations, nil
}
