// Package auth holds the credential primitives of the portal: password
// hashing and verification, the lockout policy and the signed session token.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated identity carried by the session token.
type Session struct {
	UserID    string
	RecordID  string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Claims is the signed claim set. Field names are part of the cookie format.
type Claims struct {
	UserID       string `json:"userId"`
	UserRecordID string `json:"userRecordId"`
	Email        string `json:"email"`
	Nombre       string `json:"nombre"`
	// Expires mirrors exp as an ISO 8601 UTC string. Validation uses exp only.
	Expires string `json:"expiresAt"`
	jwt.RegisteredClaims
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Issuer mints and validates HS256 session tokens. It keeps no state beyond
// the secret: a token is valid iff its signature and expiry are.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewIssuer uses common.SessionValidity when validity is zero and time.Now
// when now is nil.
func NewIssuer(secret []byte, validity time.Duration, now func() time.Time) *Issuer {
	if validity <= 0 {
		validity = common.SessionValidity
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, validity: validity, now: now}
}

// Issue signs s with a fresh expiry. The returned time is the expiry as
// embedded in the token (second precision).
func (i *Issuer) Issue(s Session) (string, time.Time, error) {
	issued := jwt.NewNumericDate(i.now())
	expires := jwt.NewNumericDate(issued.Add(i.validity))

	name := s.Name
	if name == "" {
		name = common.DefaultDisplayName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:       s.UserID,
		UserRecordID: s.RecordID,
		Email:        s.Email,
		Nombre:       name,
		Expires:      expires.Time.UTC().Format(isoMillis),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  issued,
			ExpiresAt: expires,
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires.Time, nil
}

// Validate returns the session in a token, or false for any malformed,
// mis-signed, wrongly-algorithmed or expired token.
func (i *Issuer) Validate(tokenString string) (*Session, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, common.ErrInvalidToken
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	return &Session{
		UserID:    claims.UserID,
		RecordID:  claims.UserRecordID,
		Email:     claims.Email,
		Name:      claims.Nombre,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, true
}

// Renew re-issues s with a new validity window, keeping every other claim.
func (i *Issuer) Renew(s *Session) (string, time.Time, error) {
	if s == nil {
		return "", time.Time{}, common.ErrInvalidToken
	}
	return i.Issue(*s)
}
