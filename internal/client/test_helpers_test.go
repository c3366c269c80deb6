package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sessiond/internal/client"
	"sessiond/internal/session"
	"sessiond/internal/vault"
)

type memoryMedium struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryMedium() *memoryMedium {
	return &memoryMedium{entries: map[string]string{}}
}

func (m *memoryMedium) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return "", vault.ErrNotFound
	}
	return value, nil
}

func (m *memoryMedium) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryMedium) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// testEnv wires a manager, its refresh endpoint and the wrapped client the
// way main does, with every upstream under test control.
type testEnv struct {
	manager      *session.Manager
	client       *client.Client
	vault        *vault.Vault
	refreshCalls atomic.Int64
	newAccess    string
	newRefresh   string
}

func setupClient(t *testing.T) *testEnv {
	t.Helper()

	// Expiries distinct from anything the tests sign in with, so the
	// refreshed pair never collides with an installed one.
	env := &testEnv{
		newAccess:  mintToken(t, time.Now().Add(2*time.Hour)),
		newRefresh: mintToken(t, time.Now().Add(48*time.Hour)),
	}

	refreshServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  env.newAccess,
			"refresh_token": env.newRefresh,
		})
	}))
	t.Cleanup(refreshServer.Close)

	v, err := vault.New(vault.Config{Secret: "client-test-secret-0123456789"}, newMemoryMedium())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	env.vault = v

	env.manager = session.NewManager(v, session.Config{
		RefreshURL:            refreshServer.URL,
		ExpiringSoonThreshold: 2 * time.Minute,
		LogoutGrace:           30 * time.Second,
		MaxSessionAge:         12 * time.Hour,
		RequestTimeout:        5 * time.Second,
	})
	t.Cleanup(env.manager.Close)

	env.client = client.New(env.manager, 5*time.Second)
	return env
}

func (env *testEnv) signIn(t *testing.T, accessExp time.Time) {
	t.Helper()

	access := mintToken(t, accessExp)
	refresh := mintToken(t, time.Now().Add(24*time.Hour))
	if err := env.manager.SignIn(context.Background(), access, refresh, nil); err != nil {
		t.Fatalf("sign in: %v", err)
	}
}

func clientFor(manager *session.Manager) *client.Client {
	return client.New(manager, 5*time.Second)
}

func (env *testEnv) accessToken(t *testing.T) string {
	t.Helper()

	pair := env.vault.Tokens(context.Background())
	if pair == nil {
		t.Fatal("expected tokens in vault")
	}
	return pair.AccessToken
}
