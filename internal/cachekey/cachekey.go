// Package cachekey canonicalizes free text into the stable keys shared by the
// translation and pronunciation caches.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims the text, collapses every run of Unicode whitespace to a
// single ASCII space and applies canonical composition (NFC).
//
// Normalize is idempotent.
func Normalize(text string) string {
	// Compose before collapsing so a second pass is a no-op.
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Hash returns the lowercase hex SHA-256 digest of the normalized text.
func Hash(text string) string {
	return HashNormalized(Normalize(text))
}

// HashNormalized hashes text that is already normalized.
func HashNormalized(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Key is a normalized text together with its digest.
type Key struct {
	Text string
	Hash string
}

// New normalizes text and computes its key.
func New(text string) Key {
	n := Normalize(text)
	return Key{Text: n, Hash: HashNormalized(n)}
}
