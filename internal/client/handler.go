package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"sessiond/internal/platform/web"
	"sessiond/internal/session"
)

// Handler exposes the wrapper to local consumers that are not Go
// processes: they describe the upstream call, the relay performs it with
// the session's credentials and proxies the upstream response back.
type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/relay", web.Handler(h.handleRelay))
}

type relayRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

func (h *Handler) handleRelay(w http.ResponseWriter, r *http.Request) *web.Error {
	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if req.URL == "" {
		return &web.Error{Code: http.StatusBadRequest, Message: "url is required"}
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	upstream, err := http.NewRequestWithContext(r.Context(), req.Method, req.URL, strings.NewReader(req.Body))
	if err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid relay target", Err: err}
	}
	for name, value := range req.Headers {
		upstream.Header.Set(name, value)
	}

	resp, err := h.client.Do(upstream)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession):
			return &web.Error{Code: http.StatusUnauthorized, Message: "no_session", Err: err}
		case errors.Is(err, session.ErrSessionInvalid):
			return &web.Error{Code: http.StatusUnauthorized, Message: "session_invalid", Err: err}
		case errors.Is(err, session.ErrRefreshFailed):
			return &web.Error{Code: http.StatusUnauthorized, Message: "session_invalid", Err: err}
		default:
			return &web.Error{Code: http.StatusBadGateway, Message: "Relay request failed", Err: err}
		}
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		return &web.Error{Code: http.StatusBadGateway, Message: "Failed to relay response", Err: err}
	}
	return nil
}
