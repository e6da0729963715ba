package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/ashureev/iwe-console/internal/session"
	"github.com/ashureev/iwe-console/web"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the page, config and asset routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get(session.LoginPath, h.LoginForm)
	r.Post(session.LoginPath, h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(session.RequireSession(h.secure(), h.logger))
		r.Get(session.DashboardPath, h.Dashboard)
		r.Get("/profile", h.Profile)
		r.Get("/settings", h.Settings)
	})

	r.Get("/api/ws-config", h.WSConfig)
	r.Handle("/static/*", http.StripPrefix("/static", web.StaticHandler()))
}

// Home renders the public landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PagePlain, web.Page{
		Title:   "IWE Console",
		Heading: "Home",
		Body:    "Log in to open your dashboard.",
	})
}

// LoginForm renders the empty login form.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageLogin, web.Page{Title: "Login"})
}

// Login checks the submitted credentials and, on success, redirects to the
// dashboard after the configured delay.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		Error(w, http.StatusBadRequest, "invalid form")
		return
	}
	username := r.PostForm.Get("username")

	host, _ := session.NewHTTPHost(w, r, h.secure(), h.logger)
	host.RedirectDelay = h.cfg.LoginRedirectDelay

	err := host.Login(r.Context(), username, r.PostForm.Get("password"))
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		h.render(w, r, http.StatusUnauthorized, web.PageLogin, web.Page{
			Title:    "Login",
			Error:    session.InvalidCredentialsMessage,
			Username: username,
		})
	case err != nil:
		h.logger.Error("Login failed", "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
	}
}

// Logout clears the session and sends the client back to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	host, _ := session.NewHTTPHost(w, r, h.secure(), h.logger)
	if err := host.Logout(r.Context()); err != nil {
		h.logger.Error("Logout failed", "error", err)
		Error(w, http.StatusInternalServerError, "logout failed")
	}
}

// Dashboard renders the protected dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageDashboard, web.Page{Title: "Dashboard"})
}

// Profile renders the protected profile placeholder.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PagePlain, web.Page{
		Title:   "Profile",
		Heading: "Profile",
		Body:    "Profile settings are not available yet.",
	})
}

// Settings renders the protected settings placeholder.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PagePlain, web.Page{
		Title:   "Settings",
		Heading: "Settings",
		Body:    "Application settings are not available yet.",
	})
}

// WSConfig describes the WebSocket endpoint this client should use. The
// development token comes from the client's own storage cookies.
func (h *Handler) WSConfig(w http.ResponseWriter, r *http.Request) {
	tokens := endpoint.StorageTokens{Store: session.NewCookieStorage(w, r, h.secure())}
	resolver := endpoint.NewResolver(h.cfg.Endpoint(), tokens, h.logger)

	url, err := resolver.URL(r.Context())
	if err != nil {
		h.logger.Error("Failed to resolve WebSocket URL", "error", err)
		Error(w, http.StatusInternalServerError, "failed to resolve websocket url")
		return
	}
	mode, err := resolver.Mode(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to resolve websocket url")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"mode":                   mode,
		"base":                   resolver.Base(),
		"url":                    url,
		"production":             resolver.IsProduction(),
		"reconnect_interval_ms":  h.cfg.WebSocket.ReconnectInterval.Milliseconds(),
		"max_reconnect_attempts": h.cfg.WebSocket.MaxReconnectAttempts,
	})
}
