// Package token reads scheduling hints out of JWTs. It never verifies
// signatures; the server stays the sole authority on token validity, this
// package only answers "when does the server say this expires".
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

// Expiry returns the exp claim of the token. The second return is false
// for any malformed token or a token without an exp claim.
func Expiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token is unreadable or past its expiry.
func Expired(raw string) bool {
	exp, ok := Expiry(raw)
	if !ok {
		return true
	}
	return !exp.After(time.Now())
}

// ExpiringSoon reports whether the token is still valid but within
// threshold of its expiry.
func ExpiringSoon(raw string, threshold time.Duration) bool {
	exp, ok := Expiry(raw)
	if !ok {
		return false
	}
	remaining := time.Until(exp)
	return remaining > 0 && remaining <= threshold
}
