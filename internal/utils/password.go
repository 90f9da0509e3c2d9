package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds in bytes. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLen = 6
	MaxPasswordLen = 72
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// CheckPassword reports whether plain is acceptable for a new account.
func CheckPassword(plain string) error {
	switch {
	case len(plain) < MinPasswordLen:
		return ErrPasswordTooShort
	case len(plain) > MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword returns a bcrypt hash of plain. cost is clamped to the range
// bcrypt accepts.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash with a login attempt.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
