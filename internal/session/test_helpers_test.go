package session_test

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

	"sessiond/internal/session"
	"sessiond/internal/vault"
)

const testVaultSecret = "session-test-secret-0123456789"

// The jwt parser truncates numeric dates to TimePrecision (a second by
// default), which would round the sub-second expiries minted here into
// the past. Millisecond precision lets them survive the round-trip.
func init() {
	jwt.TimePrecision = time.Millisecond
}

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

	claims := jwt.MapClaims{"sub": "user-1", "exp": float64(exp.UnixNano()) / float64(time.Second)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func setupManager(t *testing.T, config session.Config) (*session.Manager, *vault.Vault) {
	t.Helper()

	if config.ExpiringSoonThreshold == 0 {
		config.ExpiringSoonThreshold = 2 * time.Minute
	}
	if config.LogoutGrace == 0 {
		config.LogoutGrace = 30 * time.Second
	}
	if config.MaxSessionAge == 0 {
		config.MaxSessionAge = 12 * time.Hour
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 5 * time.Second
	}

	v, err := vault.New(vault.Config{Secret: testVaultSecret}, newMemoryMedium())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	manager := session.NewManager(v, config)
	t.Cleanup(manager.Close)
	return manager, v
}

// newRefreshServer serves the refresh endpoint contract: one JSON POST in,
// a fresh pair out. Every handled call increments calls.
func newRefreshServer(t *testing.T, calls *atomic.Int64, delay time.Duration, pair func() (string, string)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}

		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		access, refresh := pair()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  access,
			"refresh_token": refresh,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func signIn(t *testing.T, manager *session.Manager, accessExp, refreshExp time.Time) {
	t.Helper()

	err := manager.SignIn(context.Background(), mintToken(t, accessExp), mintToken(t, refreshExp), nil)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
}
