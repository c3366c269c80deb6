package session

import (
	"context"

	"sessiond/internal/token"
)

// State classifies the session right now. It is side-effect free: it never
// triggers a refresh, it only tells callers whether they should.
func (m *Manager) State(ctx context.Context) AuthState {
	m.mu.Lock()
	refreshing := m.refreshing
	m.mu.Unlock()
	if refreshing {
		return AuthState{Status: StatusRefreshing}
	}

	pair := m.vault.Tokens(ctx)
	if pair == nil {
		return AuthState{Status: StatusUnauthenticated}
	}

	// A dead refresh token means no recovery is possible without a fresh
	// sign-in, regardless of what the access token claims.
	if token.Expired(pair.RefreshToken) {
		return AuthState{Status: StatusUnauthenticated}
	}

	exp, ok := token.Expiry(pair.AccessToken)
	if !ok || token.Expired(pair.AccessToken) {
		return AuthState{Status: StatusExpired}
	}
	if token.ExpiringSoon(pair.AccessToken, m.config.ExpiringSoonThreshold) {
		return AuthState{Status: StatusExpiringSoon, ExpiresAt: exp}
	}
	return AuthState{Status: StatusValid, ExpiresAt: exp}
}
