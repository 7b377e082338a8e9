package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/schema"
	"github.com/sakif/roomview/internal/service"
)

type AnnotationHandler struct {
	annotations *service.AnnotationService
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewAnnotationHandler(annotations *service.AnnotationService, m *metrics.Metrics, logger *slog.Logger) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations, metrics: m, logger: logger}
}

// HandleCreate pins an annotation in a room.
//
// HTTP: POST /api/annotations (behind RequireAuth)
// Body: schema.InsertAnnotation; id and createdAt are rejected.
func (h *AnnotationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.InsertAnnotation
	if err := decodeInsert(w, r, schema.InsertAnnotation, h.metrics, &in); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.annotations.Create(r.Context(), username, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// HandleGet: GET /api/annotations/{id}
func (h *AnnotationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.annotations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleListByRoom: GET /api/rooms/{roomID}/annotations?limit=&offset=
func (h *AnnotationHandler) HandleListByRoom(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	annotations, err := h.annotations.ListByRoom(r.Context(), chi.URLParam(r, "roomID"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if annotations == nil {
		annotations = []model.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotations)
}
