// Package guard validates cache keys and payloads before they are stored.
package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Sentinel errors for rejected keys and payloads.
var (
	// ErrInvalidKey indicates an empty, oversized or credential-looking key.
	ErrInvalidKey = errors.New("ajo: invalid cache key")

	// ErrPayloadTooLarge indicates a serialized value above the size limit.
	ErrPayloadTooLarge = errors.New("ajo: payload too large")

	// ErrSensitiveData indicates a value that looks like credential material.
	ErrSensitiveData = errors.New("ajo: sensitive data must not be cached")
)

// Default limits used when a Guard is built with zero values.
const (
	DefaultMaxKeyLength    = 256
	DefaultMaxPayloadBytes = 1 << 20 // 1 MiB
)

var (
	// sensitiveKeyRe rejects keys that look like credential storage.
	sensitiveKeyRe = regexp.MustCompile(`(?i)(password|passwd|secret|token|api[_-]?key|private[_-]?key|credential)`)

	// sensitiveFieldRe matches credential-looking field names in serialized JSON.
	sensitiveFieldRe = regexp.MustCompile(`(?i)"(password|passwd|secret|token|api[_-]?key|private[_-]?key|credential|mnemonic|seed[_-]?phrase)"\s*:`)

	// stellarSeedRe matches raw Stellar ed25519 secret seeds. Secret strkeys
	// are 56 base32 characters starting with S; public keys start with G and
	// are allowed through.
	stellarSeedRe = regexp.MustCompile(`\bS[A-Z2-7]{55}\b`)
)

// Guard holds the validation limits and patterns for one store.
type Guard struct {
	maxKeyLength    int
	maxPayloadBytes int
	extra           []*regexp.Regexp
}

// New returns a Guard with the given limits. Non-positive limits fall back
// to the defaults. Extra patterns extend the sensitive-payload scan.
func New(maxKeyLength, maxPayloadBytes int, extra ...*regexp.Regexp) *Guard {
	if maxKeyLength <= 0 {
		maxKeyLength = DefaultMaxKeyLength
	}
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &Guard{
		maxKeyLength:    maxKeyLength,
		maxPayloadBytes: maxPayloadBytes,
		extra:           extra,
	}
}

// SanitizeKey strips characters that could be abused for injection when keys
// are echoed into logs or monitoring pages: angle brackets, quotes, backticks,
// ampersands and control characters. Surrounding whitespace is dropped.
// Lookups sanitize the same way, so a caller using the original literal key
// still finds its entry.
func SanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch r {
		case '<', '>', '"', '\'', '`', '&':
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// ValidateKey checks an already sanitized key against the configured limits.
// The returned error wraps ErrInvalidKey.
func (g *Guard) ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(key) > g.maxKeyLength {
		return fmt.Errorf("%w: length %d exceeds %d", ErrInvalidKey, len(key), g.maxKeyLength)
	}
	if sensitiveKeyRe.MatchString(key) {
		return fmt.Errorf("%w: %q looks like credential storage", ErrInvalidKey, key)
	}
	return nil
}

// CheckPayload validates the serialized form of a value. The returned error
// wraps ErrPayloadTooLarge or ErrSensitiveData.
func (g *Guard) CheckPayload(payload []byte) error {
	if len(payload) > g.maxPayloadBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), g.maxPayloadBytes)
	}
	if loc := sensitiveFieldRe.Find(payload); loc != nil {
		return fmt.Errorf("%w: field %s", ErrSensitiveData, loc)
	}
	if stellarSeedRe.Match(payload) {
		return fmt.Errorf("%w: raw Stellar secret seed", ErrSensitiveData)
	}
	for _, re := range g.extra {
		if re.Match(payload) {
			return fmt.Errorf("%w: matched pattern %s", ErrSensitiveData, re)
		}
	}
	return nil
}

// MaxPayloadBytes reports the configured payload limit.
func (g *Guard) MaxPayloadBytes() int {
	return g.maxPayloadBytes
}
