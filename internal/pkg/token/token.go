package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOTP generates a 6-character one-time password from an alphabet without
// lookalike characters (no 0/O, 1/I).
func NewOTP() (string, error) {
	out := make([]byte, 6)
	max := big.NewInt(int64(len(otpAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		out[i] = otpAlphabet[n.Int64()]
	}
	return string(out), nil
}
