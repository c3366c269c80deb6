package vault

import (
	"context"
	"errors"
)

// Logical entry names. The storage medium only ever sees their keyed
// hashes, never these strings.
const (
	entryAccess  = "access"
	entryRefresh = "refresh"
	entryUser    = "user"
)

var (
	ErrNotFound       = errors.New("vault entry not found")
	ErrMissingSecret  = errors.New("vault secret is not configured")
	ErrIncompletePair = errors.New("token pair requires both access and refresh tokens")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Profile is the persisted user record. Opaque to every component except
// the vault; read-only to callers.
type Profile struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	KYCVerified   bool   `json:"kycVerified"`
	PhoneVerified bool   `json:"phoneVerified"`
}

type Config struct {
	Secret string
}

// Medium is the raw key/value storage under the vault. Implementations
// return ErrNotFound for absent keys.
type Medium interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
