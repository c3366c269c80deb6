package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"sessiond/internal/vault"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *vault.Profile `json:"user,omitempty"`
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers
// join the in-flight exchange and all receive its outcome; at most one
// network call is ever underway.
//
// A failed exchange is terminal: the credentials are no longer
// trustworthy, so the session is torn down before ErrRefreshFailed is
// returned to the waiters.
func (m *Manager) Refresh(ctx context.Context) (*vault.TokenPair, error) {
	pair := m.vault.Tokens(ctx)
	if pair == nil || pair.RefreshToken == "" {
		return nil, ErrNoSession
	}

	v, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.doRefresh(pair.RefreshToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*vault.TokenPair), nil
}

// doRefresh runs at most once per in-flight exchange. The network call is
// deliberately not bound to any caller's context: joiners must not be able
// to cancel an exchange others are waiting on. Only its effect is guarded,
// by the epoch check, so a result landing after logout is discarded.
func (m *Manager) doRefresh(refreshToken string) (*vault.TokenPair, error) {
	m.mu.Lock()
	start := m.epoch
	m.refreshing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.refreshing = false
		m.mu.Unlock()
	}()

	result, err := m.exchange(refreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh failed, clearing session")
		m.failRefresh(start)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// Holding applyMu from the epoch check through the vault writes keeps
	// a concurrent Logout from being overwritten by this result.
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if m.epoch != start {
		m.mu.Unlock()
		log.Debug().Msg("discarding refresh result for a replaced session")
		return nil, ErrNoSession
	}
	m.mu.Unlock()

	ctx := context.Background()
	if err := m.vault.SetTokens(ctx, result.AccessToken, result.RefreshToken); err != nil {
		return nil, err
	}
	if result.User != nil {
		if err := m.vault.SetUser(ctx, result.User); err != nil {
			return nil, err
		}
	}

	m.rearm()
	log.Info().Msg("token pair refreshed")
	return &vault.TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

func (m *Manager) exchange(refreshToken string) (*refreshResponse, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, m.config.RefreshURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}

	var result refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return nil, fmt.Errorf("refresh endpoint returned an incomplete token pair")
	}
	return &result, nil
}

// failRefresh tears the session down after a terminal refresh failure,
// unless the session was already replaced while the exchange ran.
func (m *Manager) failRefresh(start uint64) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if m.epoch != start {
		m.mu.Unlock()
		return
	}
	m.epoch++
	m.loginAt = time.Time{}
	m.stopTimersLocked()
	m.mu.Unlock()

	if err := m.vault.Clear(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to clear vault after refresh failure")
	}
}
