package authn

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

const resetTokenBytes = 20

// ResetToken is a freshly generated password reset credential. Only Digest
// is stored; Token is sent to the user.
type ResetToken struct {
	Token     string
	Digest    string
	ExpiresAt time.Time
}

// NewResetToken draws a random token valid for ttl from now.
func NewResetToken(now time.Time, ttl time.Duration) (*ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(buf)
	return &ResetToken{
		Token:     token,
		Digest:    DigestResetToken(token),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// DigestResetToken returns the stored form of a reset token.
func DigestResetToken(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
