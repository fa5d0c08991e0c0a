package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOtp returns a random six digit passcode, zero padded.
func GenerateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
