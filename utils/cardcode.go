package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Card codes are printed on physical NFC cards and embedded in their public
// URLs, so the alphabet skips characters that read ambiguously (0/O, 1/I/L).
const cardCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const CardCodeLength = 10

// GenerateCardCode returns a random, unguessable card code. Uniqueness is
// enforced by the database; callers retry on a collision.
func GenerateCardCode() (string, error) {
	return GenerateSecureRandomString(CardCodeLength)
}

func GenerateSecureRandomString(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(cardCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random card code: %w", err)
		}
		code[i] = cardCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
