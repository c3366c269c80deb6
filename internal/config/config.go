package config

import "errors"

var (
	ErrMissingSecret     = errors.New("vault.secret is required")
	ErrWeakSecret        = errors.New("vault.secret must be at least 16 bytes")
	ErrMissingRefreshURL = errors.New("session.refresh_url is required")
)
