package token

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const codeSpace = 1_000_000

// NewVerificationCode returns a uniformly random six-digit code, zero padded (000000-999999).
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewTemporaryPassword returns an 8-character password cut from a random UUID.
func NewTemporaryPassword() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	return u.String()[:8], nil
}
