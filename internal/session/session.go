package session

import (
	"errors"
	"time"
)

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusValid           Status = "valid"
	StatusExpiringSoon    Status = "expiring_soon"
	StatusExpired         Status = "expired"
	StatusRefreshing      Status = "refreshing"
)

// AuthState is a point-in-time classification of the session. It is
// computed per call and must not be cached; wall-clock time invalidates it.
type AuthState struct {
	Status    Status    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// LogoutReason is surfaced to consumers for messaging only, never for
// control flow.
type LogoutReason string

const (
	ReasonTokenExpired   LogoutReason = "token_expired"
	ReasonSessionTimeout LogoutReason = "session_timeout"
)

var (
	ErrNoSession       = errors.New("no session")
	ErrRefreshFailed   = errors.New("token refresh failed")
	ErrSessionInvalid  = errors.New("session invalid")
	ErrUnreadableToken = errors.New("token is not a readable JWT")
)

type Config struct {
	RefreshURL            string
	ExpiringSoonThreshold time.Duration
	LogoutGrace           time.Duration
	MaxSessionAge         time.Duration
	RequestTimeout        time.Duration
}
