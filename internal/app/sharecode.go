package app

import (
	"crypto/rand"
	"strings"
)

// Share codes avoid 0/O and 1/I so they survive being read out loud on a
// pitch.
const shareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const shareCodeLength = 8

// NewShareCode returns a random uppercase lookup code. Uniqueness is
// enforced by the store; callers retry on collision.
func NewShareCode() string {
	b := make([]byte, shareCodeLength)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	for i := range b {
		b[i] = shareCodeAlphabet[int(b[i])%len(shareCodeAlphabet)]
	}
	return string(b)
}

// NormalizeShareCode uppercases a code so "abc1" and "ABC1" resolve to the
// same event.
func NormalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
