package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sessiond/internal/token"
)

// Start arms the auto-logout timers and registers the callback invoked
// when one fires. Calling Start again replaces the callback and re-arms;
// timers never accumulate.
func (m *Manager) Start(onLogout func(LogoutReason)) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	m.onLogout = onLogout
	if m.loginAt.IsZero() {
		// Session age is unknown after a restart; the ceiling counts from
		// the moment the keeper picked the session back up.
		m.loginAt = time.Now()
	}
	m.mu.Unlock()

	m.rearm()
}

// rearm replaces both timers from the current vault contents: one at
// access-token expiry plus grace, one at the absolute session ceiling.
// Without a session it leaves no timers pending. Callers hold applyMu,
// so the pair read here belongs to the current epoch.
func (m *Manager) rearm() {
	pair := m.vault.Tokens(context.Background())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	if m.onLogout == nil || pair == nil {
		return
	}

	epoch := m.epoch

	if exp, ok := token.Expiry(pair.AccessToken); ok {
		d := time.Until(exp.Add(m.config.LogoutGrace))
		if d < 0 {
			d = 0
		}
		m.expiryTimer = time.AfterFunc(d, func() {
			m.fire(epoch, ReasonTokenExpired)
		})
	}

	d := time.Until(m.loginAt.Add(m.config.MaxSessionAge))
	if d < 0 {
		d = 0
	}
	m.ceilingTimer = time.AfterFunc(d, func() {
		m.fire(epoch, ReasonSessionTimeout)
	})
}

// fire delivers the logout exactly once per trigger. A timer armed for an
// earlier epoch finds the epoch moved on and does nothing, so a stale
// timer can never log out a fresh session.
func (m *Manager) fire(epoch uint64, reason LogoutReason) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.epoch++
	m.loginAt = time.Time{}
	m.stopTimersLocked()
	onLogout := m.onLogout
	m.mu.Unlock()

	log.Info().Str("reason", string(reason)).Msg("auto logout")
	if onLogout != nil {
		onLogout(reason)
	}
	if err := m.vault.Clear(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to clear vault on auto logout")
	}
}

func (m *Manager) stopTimersLocked() {
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
	if m.ceilingTimer != nil {
		m.ceilingTimer.Stop()
		m.ceilingTimer = nil
	}
}
