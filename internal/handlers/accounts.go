package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/accounts"
	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/session"
)

const loginPath = "/"

type HealthReporter interface {
	Last() app.ProbeResult
}

type AccountHandler struct {
	accounts  *accounts.Service
	sessions  *session.Manager
	health    HealthReporter
	staticDir string
}

func NewAccountHandler(service *app.Service) *AccountHandler {
	return &AccountHandler{
		accounts:  service.Accounts,
		sessions:  service.Sessions,
		health:    service.Probe,
		staticDir: service.Config.Server.StaticDir,
	}
}

// Register mounts every route on mux.
func (h *AccountHandler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /{$}", h.HandleIndex},
		{"POST /api/v1/login", h.HandleLogin},
		{"POST /api/v1/signup", h.HandleSignup},
		{"POST /api/v1/logout", h.HandleLogout},
		{"GET /api/v1/dashboard", h.sessions.RequireSession(loginPath, h.HandleDashboard)},
		{"GET /api/v1/profile", h.sessions.RequireSession(loginPath, h.HandleProfile)},
		{"POST /api/v1/profile", h.sessions.RequireSession(loginPath, h.HandleProfileUpdate)},
		{"GET /api/v1/grades", h.sessions.RequireSession(loginPath, h.HandleGrades)},
		{"GET /health", h.HandleHealth},
	}
	for _, route := range routes {
		mux.HandleFunc(route.pattern, instrument(route.pattern, route.handler))
	}
}

func (h *AccountHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		http.ServeFile(w, r, index)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "POST /api/v1/login with username and password to sign in",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if _, err := h.sessions.Establish(w, r, identity); err != nil {
		logger.Error.Printf("Failed to establish session: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Could not start a session, try again later")
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.accounts.Signup(r.Context(), req)
	var validationErr *accounts.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Reason)
		return
	case errors.Is(err, accounts.ErrConflict):
		writeError(w, http.StatusConflict, "Username already exists")
		return
	default:
		logger.Error.Printf("Signup failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Registration is unavailable, try again later")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful, please log in",
		"user":    identity,
	})
}

func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		logger.Error.Printf("Failed to clear session: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AccountHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	state, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"username": state.Username})
}

func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	state, _ := session.FromContext(r.Context())

	profile, err := h.accounts.GetProfile(r.Context(), state.Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AccountHandler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	state, _ := session.FromContext(r.Context())

	var upd models.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.accounts.UpdateProfile(r.Context(), state.Username, upd)
	var validationErr *accounts.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
	default:
		logger.Error.Printf("Profile update for %s failed: %v", state.Username, err)
		writeError(w, http.StatusServiceUnavailable, "Profile could not be updated")
	}
}

func (h *AccountHandler) HandleGrades(w http.ResponseWriter, r *http.Request) {
	state, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.accounts.ListGrades(r.Context(), state.Username))
}

func (h *AccountHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if h.health != nil {
		body["relational_store"] = h.health.Last()
	}
	writeJSON(w, http.StatusOK, body)
}
