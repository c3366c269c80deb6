package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"sessiond/internal/token"
	"sessiond/internal/vault"
)

// Manager owns the session lifecycle: the vault contents, the refresh
// coordinator and the auto-logout timers. Construct one per vault;
// everything else in the process goes through it.
type Manager struct {
	vault  *vault.Vault
	config Config
	http   *http.Client

	group singleflight.Group

	// applyMu orders every epoch change together with its vault writes.
	// Whoever holds it sees the vault and the epoch in agreement, so a
	// refresh result can never land over a logout that already won.
	// Lock order: applyMu before mu, never the reverse.
	applyMu sync.Mutex

	mu           sync.Mutex
	epoch        uint64
	refreshing   bool
	loginAt      time.Time
	onLogout     func(LogoutReason)
	expiryTimer  *time.Timer
	ceilingTimer *time.Timer
}

func NewManager(v *vault.Vault, config Config) *Manager {
	return &Manager{
		vault:  v,
		config: config,
		http:   &http.Client{Timeout: config.RequestTimeout},
	}
}

// SignIn installs a token pair obtained from the consumer's own sign-in
// call and starts a new session epoch. Both tokens must at least decode;
// a pair whose expiry cannot be read can never be refreshed on schedule.
func (m *Manager) SignIn(ctx context.Context, access, refresh string, profile *vault.Profile) error {
	if _, ok := token.Expiry(access); !ok {
		return ErrUnreadableToken
	}
	if _, ok := token.Expiry(refresh); !ok {
		return ErrUnreadableToken
	}

	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	if err := m.vault.SetTokens(ctx, access, refresh); err != nil {
		return err
	}
	if profile != nil {
		if err := m.vault.SetUser(ctx, profile); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.epoch++
	m.loginAt = time.Now()
	m.mu.Unlock()

	m.rearm()
	log.Info().Msg("session started")
	return nil
}

// Logout clears the session: timers off, vault empty. Any refresh still in
// flight belongs to the old epoch and its result will be discarded.
func (m *Manager) Logout(ctx context.Context) error {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	m.epoch++
	m.loginAt = time.Time{}
	m.stopTimersLocked()
	m.mu.Unlock()

	log.Info().Msg("session cleared")
	return m.vault.Clear(ctx)
}

// Tokens returns the current pair, or nil without a usable session.
func (m *Manager) Tokens(ctx context.Context) *vault.TokenPair {
	return m.vault.Tokens(ctx)
}

func (m *Manager) User(ctx context.Context) *vault.Profile {
	return m.vault.User(ctx)
}

// Close cancels pending timers and drops the logout callback. The vault is
// left as is; Close is teardown, not logout.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTimersLocked()
	m.onLogout = nil
	m.mu.Unlock()
}
