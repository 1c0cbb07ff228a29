package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher handles password hashing and verification. New hashes
// are always bcrypt; verification also accepts the salted and unsalted
// SHA256 formats still present in migrated agent rows.
type PasswordHasher struct{}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// HashPassword creates a bcrypt hash.
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks a password against a stored hash, detecting the
// hash format from its shape.
func (h *PasswordHasher) VerifyPassword(password, hashedPassword string) bool {
	// Bcrypt hashes start with $2a$, $2b$, or $2y$
	if strings.HasPrefix(hashedPassword, "$2a$") || strings.HasPrefix(hashedPassword, "$2b$") || strings.HasPrefix(hashedPassword, "$2y$") {
		err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
		return err == nil
	}

	// Salted SHA256 (format: sha256$salt$hash)
	parts := strings.Split(hashedPassword, "$")
	if len(parts) == 3 && parts[0] == "sha256" {
		salt := parts[1]
		expectedHash := parts[2]

		hash := sha256.Sum256([]byte(password + salt))
		return hex.EncodeToString(hash[:]) == expectedHash
	}

	// Unsalted SHA256 (legacy)
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:]) == hashedPassword
}
