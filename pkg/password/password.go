// Package password generates random passwords that satisfy the account
// password policy: at least one lowercase letter, one uppercase letter, one
// digit and one special character, minimum length 8.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"

	// MinLength is the shortest password Generate will produce.
	MinLength = 8

	// DefaultLength is used by GenerateDefault.
	DefaultLength = 12
)

var allChars = lowerChars + upperChars + digitChars + specialChars

// Generate returns a random password of the given length with at least one
// character from each required class. The randomness comes from crypto/rand.
func Generate(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("password length %d is below the minimum of %d", length, MinLength)
	}

	chars := make([]byte, length)

	// One guaranteed pick per class, the rest from the full set.
	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	for i, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}

	// Shuffle so the class-guaranteed characters are not always first.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

// GenerateDefault returns a random password of DefaultLength.
func GenerateDefault() (string, error) {
	return Generate(DefaultLength)
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random index: %w", err)
	}
	return set[n.Int64()], nil
}
