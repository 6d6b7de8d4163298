package common

import "time"

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "session"

// SessionValidity is the fixed lifetime of a session token.
const SessionValidity = 24 * time.Hour

// MinPasswordLength is enforced on password bootstrap.
const MinPasswordLength = 6

// DefaultDisplayName is embedded in sessions of users without a name.
const DefaultDisplayName = "Usuario"
