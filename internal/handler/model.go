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

type ModelHandler struct {
	models  *service.ModelService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewModelHandler(models *service.ModelService, m *metrics.Metrics, logger *slog.Logger) *ModelHandler {
	return &ModelHandler{models: models, metrics: m, logger: logger}
}

// HandleCreate registers an uploaded model.
//
// HTTP: POST /api/models (behind RequireAuth)
// Body: schema.InsertModel; id and uploadedAt are rejected.
func (h *ModelHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.InsertModel
	if err := decodeInsert(w, r, schema.InsertModel, h.metrics, &in); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.models.Create(r.Context(), username, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// HandleGet: GET /api/models/{id}
func (h *ModelHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.models.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleList: GET /api/models?limit=&offset=
func (h *ModelHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	models, err := h.models.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if models == nil {
		models = []model.Model{} // [] rather than null
	}
	writeJSON(w, http.StatusOK, models)
}
