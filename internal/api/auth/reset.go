package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetToken is a password reset secret. Raw goes to the user, Digest and
// Expires are stored.
type ResetToken struct {
	Raw     string
	Digest  string
	Expires time.Time
}

func NewResetToken(now time.Time, ttl time.Duration) (ResetToken, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, fmt.Errorf("failed to generate reset token: %w", err)
	}
	raw := hex.EncodeToString(buf)
	return ResetToken{Raw: raw, Digest: HashResetToken(raw), Expires: now.Add(ttl)}, nil
}

func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
