// Package hasher provides keyed password hashing.
package hasher

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/savlev/go-savings/internal/config"
)

// Hasher computes deterministic HMAC-SHA512 digests keyed with the process-wide
// secret. Determinism is intentional: verification is a recomputation, there is
// no per-user salt in this scheme.
type Hasher struct {
	secret []byte
}

// NewHasher initializes a Hasher. An empty secret is a fatal configuration
// error for the caller, never a usable key.
func NewHasher(cfg *config.SecretConfig) (*Hasher, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("refusing to hash with an empty secret key")
	}
	return &Hasher{secret: []byte(cfg.SecretKey)}, nil
}

// Hash computes a hex-encoded digest of a password.
func (h *Hasher) Hash(password string) string {
	mac := hmac.New(sha512.New, h.secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether a password recomputes to the stored digest using a
// constant-time comparison.
func (h *Hasher) Verify(password, digest string) bool {
	computed := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
