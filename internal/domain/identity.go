package domain

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidEmail is returned for email input that cannot identify a staff member.
var ErrInvalidEmail = errors.New("invalid email")

// Email is a case-folded, trimmed email address. Build it with NormalizeEmail.
type Email string

// NormalizeEmail validates the shape of raw and returns its canonical form.
func NormalizeEmail(raw string) (Email, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrInvalidEmail
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return "", ErrInvalidEmail
	}
	local, host, found := strings.Cut(value, "@")
	if !found || local == "" || host == "" || strings.Contains(host, "@") {
		return "", ErrInvalidEmail
	}
	return Email(value), nil
}

func (e Email) String() string {
	return string(e)
}

// Identity is the already-authenticated caller handed to the engine.
type Identity struct {
	Email Email
	Role  Role
	Name  string
}
