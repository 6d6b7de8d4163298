// Package services contains the server-side business logic: the login and
// password-bootstrap flow, and the upload pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/repositories/users"
)

// CheckUserResult tells the client which step comes after the email.
type CheckUserResult struct {
	Email         string
	Name          string
	NeedsPassword bool
}

// LoginResult carries the authenticated user and the signed session token.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService runs the email check, password bootstrap and login steps.
// It holds no per-user state; the user record is the only source of truth.
type AuthService struct {
	users  users.Repository
	issuer *auth.Issuer
	hasher *auth.Hasher
	policy auth.Policy
	logger logging.Logger
	now    func() time.Time
}

func NewAuthService(repo users.Repository, issuer *auth.Issuer, hasher *auth.Hasher, policy auth.Policy, logger logging.Logger, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:  repo,
		issuer: issuer,
		hasher: hasher,
		policy: policy,
		logger: logger.With("module", "auth"),
		now:    now,
	}
}

// lookup maps a store failure to ErrorInternal and keeps ErrorNotFound.
func (s *AuthService) lookup(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorNotFound
	}
	s.logger.Error(ctx, "user lookup failed", "error", err)
	return nil, common.ErrorInternal
}

func (s *AuthService) lockError(u *models.User) error {
	d := s.policy.Check(u.LockedUntil, s.now())
	if !d.Blocked {
		return nil
	}
	return &common.LockedError{RemainingMinutes: d.RemainingMinutes}
}

func (s *AuthService) CheckUser(ctx context.Context, email string) (*CheckUserResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, common.ErrValidation
	}

	u, err := s.lookup(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.lockError(u); err != nil {
		return nil, err
	}

	return &CheckUserResult{Email: u.Email, Name: u.FullName, NeedsPassword: u.NeedsPassword()}, nil
}

// SetPassword stores the first password of a bootstrap-pending user. Users
// that already have one get ErrPasswordAlreadySet.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return common.ErrValidation
	}
	if utf8.RuneCountInString(password) < common.MinPasswordLength {
		return fmt.Errorf("%w: %w", common.ErrValidation, common.ErrPasswordTooShort)
	}

	u, err := s.lookup(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if !u.NeedsPassword() {
		return common.ErrPasswordAlreadySet
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, common.ErrValidation) {
		return err
	}
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.users.SetPassword(ctx, u.RecordID, hash); err != nil {
		s.logger.Error(ctx, "storing password failed", "record", u.RecordID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password created", "record", u.RecordID)
	return nil
}

// Login verifies credentials and issues a session. An unknown email and a
// wrong password produce the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.ErrValidation
	}

	u, err := s.lookup(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.lockError(u); err != nil {
		return nil, err
	}

	if u.NeedsPassword() {
		return nil, &common.PasswordSetupRequiredError{Email: u.Email, Name: u.FullName}
	}

	v := auth.Verify(password, u.PasswordHash)
	if v.Method == auth.MethodPlaintextFallback {
		s.logger.Warn(ctx, "stored password is not a bcrypt hash, compared as plaintext",
			"record", u.RecordID, "match", v.Match)
	}

	if !v.Match {
		// Best effort: the client gets 401 even if the counter cannot be written.
		if err := s.users.RecordFailedAttempt(ctx, u.RecordID, u.FailedAttempts); err != nil {
			s.logger.Warn(ctx, "recording failed attempt failed", "record", u.RecordID, "error", err)
		}
		return nil, common.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, u.RecordID); err != nil {
		s.logger.Warn(ctx, "updating last login failed", "record", u.RecordID, "error", err)
	}

	token, expires, err := s.issuer.Issue(sessionFor(u))
	if err != nil {
		s.logger.Error(ctx, "issuing session failed", "record", u.RecordID, "error", err)
		return nil, common.ErrorInternal
	}

	return &LoginResult{User: u, Token: token, ExpiresAt: expires}, nil
}

// CurrentSession resolves a token; ok is false for any invalid token.
func (s *AuthService) CurrentSession(token string) (*auth.Session, bool) {
	return s.issuer.Validate(token)
}

// RenewSession re-issues a valid token with a fresh validity window.
func (s *AuthService) RenewSession(ctx context.Context, token string) (*auth.Session, string, error) {
	sess, ok := s.issuer.Validate(token)
	if !ok {
		return nil, "", common.ErrorUnauthorized
	}

	renewed, expires, err := s.issuer.Renew(sess)
	if err != nil {
		s.logger.Error(ctx, "renewing session failed", "error", err)
		return nil, "", common.ErrorInternal
	}
	sess.ExpiresAt = expires
	return sess, renewed, nil
}

func sessionFor(u *models.User) auth.Session {
	return auth.Session{
		UserID:   strconv.Itoa(u.ID),
		RecordID: u.RecordID,
		Email:    u.Email,
		Name:     u.FullName,
	}
}

// Provision creates a user out of band. An empty password leaves the user
// bootstrap-pending; otherwise it must satisfy the same rules as SetPassword.
func (s *AuthService) Provision(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, common.ErrValidation
	}

	_, err := s.lookup(ctx, email)
	if err == nil {
		return nil, common.ErrUserExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	u := &models.User{Email: email, FullName: strings.TrimSpace(name)}
	if password != "" {
		if utf8.RuneCountInString(password) < common.MinPasswordLength {
			return nil, fmt.Errorf("%w: %w", common.ErrValidation, common.ErrPasswordTooShort)
		}
		if u.PasswordHash, err = s.hasher.Hash(password); err != nil {
			return nil, err
		}
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		s.logger.Error(ctx, "creating user failed", "error", err)
		return nil, common.ErrorInternal
	}
	s.logger.Info(ctx, "user provisioned", "record", created.RecordID, "pending", created.NeedsPassword())
	return created, nil
}
