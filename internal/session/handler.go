package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"sessiond/internal/platform/web"
	"sessiond/internal/vault"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/session/signin", web.Handler(h.handleSignIn))
	mux.Handle("GET /api/session/state", web.Handler(h.handleState))
	mux.Handle("POST /api/session/refresh", web.Handler(h.handleRefresh))
	mux.Handle("POST /api/session/logout", web.Handler(h.handleLogout))
	mux.Handle("GET /api/session/user", web.Handler(h.handleUser))
}

type signInRequest struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *vault.Profile `json:"user,omitempty"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) *web.Error {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		return &web.Error{Code: http.StatusBadRequest, Message: "Both access_token and refresh_token are required"}
	}

	if err := h.manager.SignIn(r.Context(), req.AccessToken, req.RefreshToken, req.User); err != nil {
		if errors.Is(err, ErrUnreadableToken) || errors.Is(err, vault.ErrIncompletePair) {
			return &web.Error{Code: http.StatusBadRequest, Message: "Unusable token pair", Err: err}
		}
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to store session", Err: err}
	}

	return web.WriteJSON(w, http.StatusOK, h.manager.State(r.Context()))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) *web.Error {
	return web.WriteJSON(w, http.StatusOK, h.manager.State(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) *web.Error {
	if _, err := h.manager.Refresh(r.Context()); err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return &web.Error{Code: http.StatusUnauthorized, Message: "no_session", Err: err}
		case errors.Is(err, ErrRefreshFailed):
			return &web.Error{Code: http.StatusUnauthorized, Message: "refresh_failed", Err: err}
		default:
			return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to refresh session", Err: err}
		}
	}

	return web.WriteJSON(w, http.StatusOK, h.manager.State(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) *web.Error {
	if err := h.manager.Logout(r.Context()); err != nil {
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to clear session", Err: err}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) *web.Error {
	profile := h.manager.User(r.Context())
	if profile == nil {
		return &web.Error{Code: http.StatusNotFound, Message: "No user profile"}
	}
	return web.WriteJSON(w, http.StatusOK, profile)
}
