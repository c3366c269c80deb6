package vault

import (
	"context"
	"crypto/cipher"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

type Vault struct {
	medium Medium
	aead   cipher.AEAD
	macKey []byte
}

func New(config Config, medium Medium) (*Vault, error) {
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}

	aead, err := newAEAD(deriveKey(config.Secret, cipherKeySalt))
	if err != nil {
		return nil, err
	}

	return &Vault{
		medium: medium,
		aead:   aead,
		macKey: deriveKey(config.Secret, entryKeySalt),
	}, nil
}

func (v *Vault) SetTokens(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrIncompletePair
	}
	if err := v.put(ctx, entryAccess, access); err != nil {
		return err
	}
	return v.put(ctx, entryRefresh, refresh)
}

// Tokens returns the stored pair, or nil when the vault holds no usable
// pair. A lone access token counts as corrupt state, not a session.
func (v *Vault) Tokens(ctx context.Context) *TokenPair {
	var access, refresh string
	okAccess := v.get(ctx, entryAccess, &access)
	okRefresh := v.get(ctx, entryRefresh, &refresh)
	if !okAccess || !okRefresh || access == "" || refresh == "" {
		return nil
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}
}

func (v *Vault) SetUser(ctx context.Context, profile *Profile) error {
	return v.put(ctx, entryUser, profile)
}

func (v *Vault) User(ctx context.Context) *Profile {
	var profile Profile
	if !v.get(ctx, entryUser, &profile) {
		return nil
	}
	return &profile
}

// Clear removes all vault entries. Safe to call on an empty vault.
func (v *Vault) Clear(ctx context.Context) error {
	var firstErr error
	for _, name := range []string{entryAccess, entryRefresh, entryUser} {
		if err := v.medium.Delete(ctx, hashEntryKey(v.macKey, name)); err != nil && !errors.Is(err, ErrNotFound) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (v *Vault) put(ctx context.Context, name string, value any) error {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ciphertext, err := seal(v.aead, plaintext)
	if err != nil {
		return err
	}
	return v.medium.Put(ctx, hashEntryKey(v.macKey, name), ciphertext)
}

// get decrypts an entry into dst. Every failure mode (missing entry,
// storage error, tampered ciphertext, bad JSON) degrades to "absent".
func (v *Vault) get(ctx context.Context, name string, dst any) bool {
	ciphertext, err := v.medium.Get(ctx, hashEntryKey(v.macKey, name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Debug().Err(err).Msg("vault read failed, treating entry as absent")
		}
		return false
	}

	plaintext, err := open(v.aead, ciphertext)
	if err != nil {
		log.Debug().Err(err).Msg("vault entry unreadable, treating as absent")
		return false
	}

	if err := json.Unmarshal(plaintext, dst); err != nil {
		log.Debug().Err(err).Msg("vault entry undecodable, treating as absent")
		return false
	}
	return true
}
