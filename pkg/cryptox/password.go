package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used for account passwords and for
// verification-link secrets. Bumping this only affects newly written hashes;
// existing ones keep the cost they were created with.
const HashCost = 10

// HashPassword hashes plaintext with bcrypt. The salt is embedded in the
// returned hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext against a stored bcrypt hash. A mismatch
// returns an error rather than a bool so callers can wrap or log it; it never
// panics on malformed input.
func VerifyPassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return fmt.Errorf("cryptox: password does not match: %w", err)
	}
	return nil
}

// passwordCharset is the alphabet used for generated temporary passwords.
const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_=+"

// GeneratePassword returns a random password of the given length drawn from
// an alphanumeric+symbol alphabet. Used by the forgot-password flow, where
// the plaintext is mailed to the user and only the hash is stored.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("cryptox: password length must be positive, got %d", length)
	}

	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate random password: %w", err)
		}
		password[i] = passwordCharset[n.Int64()]
	}
	return string(password), nil
}
