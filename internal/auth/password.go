package auth

import (
	"fmt"
	"strings"

	"brimasouk/internal/apperror"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	passwordSpecials  = "@$!%*?&"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength accepts letters, digits and @$!%*?& only, and
// requires at least one of each class.
func ValidatePasswordStrength(password string) error {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return apperror.Validation("Password contains unsupported characters").With("field", "password")
		}
	}

	if len(password) < minPasswordLength || !lower || !upper || !digit || !special {
		return apperror.Validation("Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character").
			With("field", "password")
	}
	return nil
}
