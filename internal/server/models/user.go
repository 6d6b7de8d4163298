package models

import (
	"strings"
	"time"
)

// User is one row of the user table, already mapped from the record store.
type User struct {
	RecordID       string
	ID             int
	Email          string
	PasswordHash   string
	FullName       string
	Notes          string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
}

// NeedsPassword reports the bootstrap-pending state: the user exists but has
// never set a password.
func (u *User) NeedsPassword() bool {
	return strings.TrimSpace(u.PasswordHash) == ""
}
