package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a random UUID, matching the id format the web client
// historically generated with crypto.randomUUID().
func NewID() string {
	return uuid.NewString()
}

// NewToken returns a hex-encoded random token of n bytes.
func NewToken(n int) string {
	bytes := make([]byte, n)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
