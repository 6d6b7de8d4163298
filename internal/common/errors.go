// Package common defines shared constants and sentinel errors used across
// the portal's layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrLocked             = errors.New("account locked")
	ErrPasswordSetup      = errors.New("password setup required")
	ErrInvalidArea        = errors.New("invalid area")
	ErrUserExists         = errors.New("user already exists")

	// Record mapping errors.
	ErrFieldType = errors.New("unexpected field type")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
)

// LockedError reports an account that is inside its lockout window.
// It matches ErrLocked via errors.Is.
type LockedError struct {
	RemainingMinutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d more minute(s)", e.RemainingMinutes)
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// PasswordSetupRequiredError is returned by login for a user that has no
// password yet. It carries what the client needs to continue to set-password.
type PasswordSetupRequiredError struct {
	Email string
	Name  string
}

func (e *PasswordSetupRequiredError) Error() string {
	return "password setup required for " + e.Email
}

func (e *PasswordSetupRequiredError) Unwrap() error { return ErrPasswordSetup }
