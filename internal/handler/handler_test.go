package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/roomview/internal/auth"
	"github.com/sakif/roomview/internal/handler"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/model"
	sqliteRepo "github.com/sakif/roomview/internal/repository/sqlite"
	"github.com/sakif/roomview/internal/service"
)

// =========================================================================
// HARNESS
// =========================================================================

// testEnv is a router over real services and an in-memory SQLite store,
// with the same route layout the server uses. Logs at Warn and above are
// captured in logs.
type testEnv struct {
	router http.Handler
	db     *sqliteRepo.DB
	tokens *auth.TokenService
	reg    *prometheus.Registry
	logs   *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	authHandler := handler.NewAuthHandler(
		service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), m, logger), m, logger)
	modelHandler := handler.NewModelHandler(service.NewModelService(db, m, logger), m, logger)
	annotationHandler := handler.NewAnnotationHandler(service.NewAnnotationService(db, m, logger), m, logger)

	r := chi.NewRouter()
	r.Get("/healthz", handler.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/schema", handler.HandleSchema)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Get("/models", modelHandler.HandleList)
		r.Get("/models/{id}", modelHandler.HandleGet)
		r.Get("/annotations/{id}", annotationHandler.HandleGet)
		r.Get("/rooms/{roomID}/annotations", annotationHandler.HandleListByRoom)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/models", modelHandler.HandleCreate)
			r.Post("/annotations", annotationHandler.HandleCreate)
		})
	})

	return &testEnv{router: r, db: db, tokens: tokens, reg: reg, logs: logs}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestEnv(t).router
}

// validationFailures reads roomview_validation_failures_total for one table.
func validationFailures(t *testing.T, reg *prometheus.Registry, table string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "roomview_validation_failures_total" {
			continue
		}
		for _, series := range f.GetMetric() {
			for _, l := range series.GetLabel() {
				if l.GetName() == "table" && l.GetValue() == table {
					return series.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// register creates a user and returns its token.
func register(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/auth/register",
		`{"username":"`+username+`","password":"hunter22"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res service.AuthResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res.Token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

const modelBody = `{"name":"chair.glb","fileUrl":"https://cdn/chair.glb","fileType":"model/gltf-binary","fileSize":2048,"uploadedBy":"alice"}`

// =========================================================================
// AUTH
// =========================================================================

func TestAuthHandler(t *testing.T) {
	t.Run("register sets cookie and hides password", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"hunter22"}`, "")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotContains(t, rr.Body.String(), "hunter22")
		assert.NotContains(t, rr.Body.String(), "password")

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.TokenCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("register rejects extra fields", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw","admin":true}`, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, "validation_error", res.Error)
		assert.Equal(t, "unknown_field", res.Fields["admin"])
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		h := newTestRouter(t)
		register(t, h, "alice")

		rr := do(t, h, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"other"}`, "")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("login", func(t *testing.T) {
		h := newTestRouter(t)
		register(t, h, "alice")

		ok := do(t, h, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"hunter22"}`, "")
		assert.Equal(t, http.StatusOK, ok.Code)

		bad := do(t, h, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, bad.Code)
		assert.Equal(t, "unauthorized", decodeError(t, bad).Error)

		garbage := do(t, h, http.MethodPost, "/api/auth/login", `{"username":`, "")
		assert.Equal(t, http.StatusBadRequest, garbage.Code)
	})

	t.Run("me", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		rr := do(t, h, http.MethodGet, "/api/me", "", token)
		assert.Equal(t, http.StatusOK, rr.Code)

		var user model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, "alice", user.Username)

		anon := do(t, h, http.MethodGet, "/api/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, anon.Code)
	})

	t.Run("me logs unknown users as a warning", func(t *testing.T) {
		env := newTestEnv(t)
		token, err := env.tokens.Generate("ghost")
		require.NoError(t, err)

		rr := do(t, env.router, http.MethodGet, "/api/me", "", token)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, env.logs.String(), "token for unknown user")
	})

	t.Run("me logs storage failures as errors", func(t *testing.T) {
		env := newTestEnv(t)
		token := register(t, env.router, "alice")
		require.NoError(t, env.db.Close())

		rr := do(t, env.router, http.MethodGet, "/api/me", "", token)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		logs := env.logs.String()
		assert.Contains(t, logs, "loading user failed")
		assert.Contains(t, logs, "level=ERROR")
		assert.NotContains(t, logs, "unknown user")
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodPost, "/api/auth/logout", "", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

// =========================================================================
// MODELS
// =========================================================================

func TestModelHandler(t *testing.T) {
	t.Run("create and fetch", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		rr := do(t, h, http.MethodPost, "/api/models", modelBody, token)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var created model.Model
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.UploadedAt.IsZero())
		assert.Equal(t, "chair.glb", created.Name)

		got := do(t, h, http.MethodGet, "/api/models/"+created.ID, "", "")
		require.Equal(t, http.StatusOK, got.Code)

		var fetched model.Model
		require.NoError(t, json.NewDecoder(got.Body).Decode(&fetched))
		assert.Equal(t, created.ID, fetched.ID)
		assert.True(t, created.UploadedAt.Equal(fetched.UploadedAt))
	})

	t.Run("requires auth", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodPost, "/api/models", modelBody, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects system-assigned fields", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		body := strings.Replace(modelBody, `{`, `{"id":"mine","uploadedAt":"2024-01-01T00:00:00Z",`, 1)
		rr := do(t, h, http.MethodPost, "/api/models", body, token)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, "not_allowed", res.Fields["id"])
		assert.Equal(t, "not_allowed", res.Fields["uploadedAt"])
	})

	t.Run("reports every missing field", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		rr := do(t, h, http.MethodPost, "/api/models", `{"name":"chair"}`, token)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, map[string]string{
			"fileUrl":    "required",
			"fileType":   "required",
			"fileSize":   "required",
			"uploadedBy": "required",
		}, res.Fields)
	})

	t.Run("uploading as someone else is forbidden", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "bob")

		rr := do(t, h, http.MethodPost, "/api/models", modelBody, token)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodGet, "/api/models/does-not-exist", "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("list paginates newest first", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		for _, name := range []string{"one", "two", "three"} {
			body := strings.Replace(modelBody, "chair.glb", name, 1)
			require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/models", body, token).Code)
		}

		rr := do(t, h, http.MethodGet, "/api/models?limit=2", "", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var models []model.Model
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&models))
		require.Len(t, models, 2)
		assert.Equal(t, "three", models[0].Name)
		assert.Equal(t, "two", models[1].Name)

		bad := do(t, h, http.MethodGet, "/api/models?limit=ten", "", "")
		assert.Equal(t, http.StatusBadRequest, bad.Code)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		h := newTestRouter(t)

		rr := do(t, h, http.MethodGet, "/api/models", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]\n", rr.Body.String())
	})
}

// =========================================================================
// ANNOTATIONS
// =========================================================================

func TestAnnotationHandler(t *testing.T) {
	const body = `{"roomId":"room-7","title":"Loose cable","position":{"x":1,"y":2,"z":3},"createdBy":"alice"}`

	t.Run("create, fetch and list by room", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		rr := do(t, h, http.MethodPost, "/api/annotations", body, token)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var created model.Annotation
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
		assert.Nil(t, created.Description)
		assert.JSONEq(t, `{"x":1,"y":2,"z":3}`, string(created.Position))

		got := do(t, h, http.MethodGet, "/api/annotations/"+created.ID, "", "")
		assert.Equal(t, http.StatusOK, got.Code)

		list := do(t, h, http.MethodGet, "/api/rooms/room-7/annotations", "", "")
		require.Equal(t, http.StatusOK, list.Code)
		var annotations []model.Annotation
		require.NoError(t, json.NewDecoder(list.Body).Decode(&annotations))
		require.Len(t, annotations, 1)
		assert.Equal(t, created.ID, annotations[0].ID)

		other := do(t, h, http.MethodGet, "/api/rooms/room-8/annotations", "", "")
		assert.Equal(t, "[]\n", other.Body.String())
	})

	t.Run("rejects createdAt", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		withTime := strings.Replace(body, `{`, `{"createdAt":"2024-01-01T00:00:00Z",`, 1)
		rr := do(t, h, http.MethodPost, "/api/annotations", withTime, token)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "not_allowed", decodeError(t, rr).Fields["createdAt"])
	})

	t.Run("body must be an object", func(t *testing.T) {
		h := newTestRouter(t)
		token := register(t, h, "alice")

		rr := do(t, h, http.MethodPost, "/api/annotations", `[1,2,3]`, token)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// =========================================================================
// VALIDATION METRICS
// =========================================================================

func TestRejectedPayloadsAreCounted(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"password":"x"}`,
		`{"username":"bob","password":"x","id":"1"}`,
		`not json`,
	} {
		rr := do(t, env.router, http.MethodPost, "/api/auth/register", body, "")
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Equal(t, 3.0, validationFailures(t, env.reg, "users"))

	token := register(t, env.router, "alice")
	rr := do(t, env.router, http.MethodPost, "/api/models", `{"name":"chair"}`, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1.0, validationFailures(t, env.reg, "models"))

	rr = do(t, env.router, http.MethodPost, "/api/annotations", `{"roomId":"r","createdAt":"2024-01-01T00:00:00Z"}`, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1.0, validationFailures(t, env.reg, "annotations"))

	// accepted payloads are not counted
	require.Equal(t, http.StatusCreated, do(t, env.router, http.MethodPost, "/api/models", modelBody, token).Code)
	assert.Equal(t, 1.0, validationFailures(t, env.reg, "models"))
	assert.Equal(t, 3.0, validationFailures(t, env.reg, "users"))
}

func TestSchemaContractMarksNonBlankFields(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/schema", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]handler.SchemaContract
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))

	nonBlank := map[string]bool{}
	for _, f := range res["insertAnnotation"].Fields {
		nonBlank[f.Key] = f.NonBlank
	}
	assert.True(t, nonBlank["title"])
	assert.False(t, nonBlank["description"])
	assert.False(t, nonBlank["position"])
}

// =========================================================================
// SCHEMA / HEALTH
// =========================================================================

func TestHandleSchema(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/schema", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]handler.SchemaContract
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))

	require.Contains(t, res, "insertModel")
	assert.Equal(t, "models", res["insertModel"].Table)

	keys := make([]string, 0, len(res["insertModel"].Fields))
	for _, f := range res["insertModel"].Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"name", "fileUrl", "fileType", "fileSize", "uploadedBy"}, keys)
	assert.Len(t, res["insertUser"].Fields, 2)
	assert.Len(t, res["insertAnnotation"].Fields, 5)
}

func TestHandleHealth(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
