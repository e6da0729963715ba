// Package api provides the HTTP handlers for the console pages.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/iwe-console/internal/config"
	"github.com/ashureev/iwe-console/internal/sidebar"
	"github.com/ashureev/iwe-console/web"
)

// Handler provides common handler utilities.
type Handler struct {
	cfg    *config.Config
	pages  *web.Renderer
	logger *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(cfg *config.Config, pages *web.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, pages: pages, logger: logger}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// render writes a page with the sidebar state taken from the request.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page web.Page) {
	page.Sidebar = sidebar.FromQuery(r.URL.Query(), r.URL.Path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.Render(w, name, page); err != nil {
		h.logger.Error("Failed to render page", "error", err, "page", name, "path", r.URL.Path)
	}
}

func (h *Handler) secure() bool {
	return h.cfg.SecureCookies()
}
