package vault

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Derivation salts are versioned so a future parameter change can rotate
// the whole vault instead of corrupting old entries in place.
var (
	cipherKeySalt = []byte("sessiond/vault/cipher/v1")
	entryKeySalt  = []byte("sessiond/vault/entry-key/v1")
)

var errCiphertext = errors.New("malformed ciphertext")

func deriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
}

// hashEntryKey maps a logical entry name to the opaque storage key, so the
// medium reveals neither field names nor values.
func hashEntryKey(macKey []byte, name string) string {
	mac := hmac.New(sha256.New, macKey)
	mac.Write([]byte(name))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	return chacha20poly1305.NewX(key)
}

func seal(aead cipher.AEAD, plaintext []byte) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func open(aead cipher.AEAD, ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, errCiphertext
	}
	if len(raw) < aead.NonceSize() {
		return nil, errCiphertext
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errCiphertext
	}
	return plaintext, nil
}
