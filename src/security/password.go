package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordMismatch = errors.New("invalid password")
)

// ValidatePassword enforces MIN_PASSWORD_LENGTH.
func ValidatePassword(password string) error {
	minLen := GetConfig().MinPasswordLength
	if len(password) < minLen {
		return fmt.Errorf("%w: at least %d characters required", ErrPasswordTooShort, minLen)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	cost := GetConfig().BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
