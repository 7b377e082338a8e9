package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/auth"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/schema"
	"github.com/sakif/roomview/internal/service"
)

// AuthHandler serves registration, login, logout and the current user.
//
// Successful register and login both set the token as an HttpOnly cookie for
// browsers and return it in the body for API clients.
type AuthHandler struct {
	auth    *service.AuthService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    authService,
		metrics: m,
		logger:  logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a user account.
//
// HTTP: POST /api/auth/register
// Body: {"username": "...", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in model.InsertUser
	if err := decodeInsert(w, r, schema.InsertUser, h.metrics, &in); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result)
}

// HandleLogin exchanges a username and password for a token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body must be a JSON object"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result)
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so one already copied elsewhere stays valid until it
// expires (auth.TokenTTL).
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.GetUser(r.Context(), username)
	if err != nil {
		// A valid token can outlive its user only if the user row is gone;
		// anything else is a storage failure.
		if errors.Is(err, apperror.ErrNotFound) {
			h.logger.Warn("HandleMe: token for unknown user", slog.String("username", username))
		} else {
			h.logger.Error("HandleMe: loading user failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func setTokenCookie(w http.ResponseWriter, token string) {
	// Secure is left off so the cookie works over plain HTTP in development.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// actor returns the authenticated username or an Unauthorized error.
func actor(r *http.Request) (string, error) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("valid authentication required")
	}
	return username, nil
}
