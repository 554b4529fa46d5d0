// Package api exposes HTTP handlers for the activity registration service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"example.com/mergington/internal/domain"
)

// IndexPath is where the root URL redirects to.
const IndexPath = "/static/index.html"

// Handler coordinates HTTP requests with the activity registry.
type Handler struct {
	registry  *domain.Registry
	staticDir string
	logger    *zap.Logger
}

// NewHandler builds a Handler. An empty staticDir disables the /static/ route.
func NewHandler(registry *domain.Registry, staticDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, staticDir: staticDir, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", rootRedirect)
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("POST /activities/{activity_name}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{activity_name}/participants", h.removeParticipant)
	mux.HandleFunc("GET /healthz", healthz)
	if h.staticDir != "" {
		mux.HandleFunc("GET "+IndexPath, h.serveIndex)
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	}
}

// serveIndex answers IndexPath itself. http.FileServer would redirect
// .../index.html to the directory.
func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(h.staticDir, "index.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("stat index page", zap.Error(err))
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func rootRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List(r.Context()))
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("activity_name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	conf, err := h.registry.Signup(r.Context(), name, email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.logger.Info("participant signed up", zap.String("activity", name), zap.String("email", conf.Email))
	writeJSON(w, http.StatusOK, MessageResponse{Message: conf.Message()})
}

func (h *Handler) removeParticipant(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("activity_name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	conf, err := h.registry.RemoveParticipant(r.Context(), name, email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.logger.Info("participant removed", zap.String("activity", name), zap.String("email", conf.Email))
	writeJSON(w, http.StatusOK, MessageResponse{Message: conf.Message()})
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "email query parameter is required")
		return "", false
	}
	return email, true
}

// writeDomainError maps registry failures onto fixed status codes and details.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Activity not found")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "already_registered", "Student already signed up for this activity")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_registered", "Student not registered for this activity")
	case errors.Is(err, domain.ErrEmailRequired):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "email query parameter is required")
	default:
		h.logger.Error("registry operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// MessageResponse is the body returned by successful signup and removal.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Type: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
