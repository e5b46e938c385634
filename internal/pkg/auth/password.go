// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordManager handles password operations
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(bcryptCost int) *PasswordManager {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: bcryptCost}
}

// HashPassword validates a password and hashes it using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}
	return p.hash(password)
}

// HashUnchecked hashes a password without the strength policy
func (p *PasswordManager) HashUnchecked(password string) (string, error) {
	return p.hash(password)
}

func (p *PasswordManager) hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword validates password strength
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	if len(password) > 72 {
		return fmt.Errorf("password must be no more than 72 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return checkCommonPatterns(password)
}

var commonPasswords = []string{
	"password", "123456", "admin", "qwerty", "letmein",
	"welcome", "monkey", "dragon", "football",
}

// checkCommonPatterns checks for common weak password patterns
func checkCommonPatterns(password string) error {
	lower := strings.ToLower(password)

	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return fmt.Errorf("password is too common and easily guessable")
		}
	}

	// three identical characters in a row
	runes := []rune(password)
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return fmt.Errorf("password cannot contain more than 2 repeating characters")
		}
	}

	return nil
}

// GenerateTemporaryPassword returns a random password and its bcrypt hash.
// The plain value is only ever mailed to the user.
func (p *PasswordManager) GenerateTemporaryPassword() (plain, hash string, err error) {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	plain = "Tp" + raw[:12] + "!"

	hash, err = p.hash(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hash, nil
}
