// Package client wraps outbound HTTP calls with the session's credentials.
// It is the single entry point consumers use for authenticated traffic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"sessiond/internal/session"
)

type Client struct {
	session *session.Manager
	http    *http.Client
}

func New(manager *session.Manager, timeout time.Duration) *Client {
	return &Client{
		session: manager,
		http:    &http.Client{Timeout: timeout},
	}
}

// Do issues req with a bearer token for the current session.
//
// An unauthenticated session fails up front with ErrNoSession. An access
// token near or past expiry is refreshed before the call. If the server
// rejects a locally valid token anyway (clock skew, revocation), the call
// is retried after exactly one refresh; a second rejection is terminal and
// logs the session out.
//
// Requests with a body must be replayable (http.NewRequest sets GetBody
// for the common body types).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var access string
	switch state := c.session.State(ctx); state.Status {
	case session.StatusUnauthenticated:
		return nil, session.ErrNoSession
	case session.StatusValid:
		pair := c.session.Tokens(ctx)
		if pair == nil {
			// Logged out between the state check and the token read.
			return nil, session.ErrNoSession
		}
		access = pair.AccessToken
	default:
		// Expiring, expired or already refreshing: join the refresh and
		// use its outcome.
		pair, err := c.session.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		access = pair.AccessToken
	}

	resp, err := c.send(req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	pair, err := c.session.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(req, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err := c.session.Logout(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		return nil, session.ErrSessionInvalid
	}
	return resp, nil
}

// JSON issues a request with a JSON payload through Do.
func (c *Client) JSON(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Do(req)
}

// send clones req so the original stays replayable for the retry pass.
func (c *Client) send(req *http.Request, access string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", "Bearer "+access)
	return c.http.Do(clone)
}
