package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
)

type RecordsRepository struct {
	store  records.Store
	table  string
	policy auth.Policy
	now    func() time.Time
}

func NewRecordsRepository(store records.Store, table string, policy auth.Policy, now func() time.Time) *RecordsRepository {
	if now == nil {
		now = time.Now
	}
	return &RecordsRepository{store: store, table: table, policy: policy, now: now}
}

var _ Repository = (*RecordsRepository)(nil)

func (r *RecordsRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	rows, err := r.store.Query(ctx, r.table, records.Equals(ColEmail, email, 1))
	if errors.Is(err, common.ErrorNotFound) {
		// A missing table or base is a store failure, not a missing user.
		return nil, fmt.Errorf("find user: %w: %v", common.ErrorInternal, err)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return toUser(&rows[0])
}

// Create inserts a new user row. Only provisioning uses it.
func (r *RecordsRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	fields := records.Fields{
		ColEmail:          user.Email,
		ColFullName:       user.FullName,
		ColFailedAttempts: 0,
	}
	if user.PasswordHash != "" {
		fields[ColPasswordHash] = user.PasswordHash
	}
	if user.Notes != "" {
		fields[ColNotes] = user.Notes
	}

	rec, err := r.store.Create(ctx, r.table, fields)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return toUser(rec)
}

// TouchLastLogin records a successful login and resets the failure counter.
func (r *RecordsRepository) TouchLastLogin(ctx context.Context, recordID string) error {
	_, err := r.store.Update(ctx, r.table, recordID, records.Fields{
		ColLastLogin:      records.FormatTime(r.now()),
		ColFailedAttempts: 0,
	})
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// RecordFailedAttempt writes current+1 and starts a lock when that reaches the
// policy threshold. The read-modify-write is not atomic: two concurrent
// failures may both write the same count.
func (r *RecordsRepository) RecordFailedAttempt(ctx context.Context, recordID string, current int) error {
	count, lockedUntil := r.policy.Next(current, r.now())

	fields := records.Fields{ColFailedAttempts: count}
	if lockedUntil != nil {
		fields[ColLockedUntil] = records.FormatTime(*lockedUntil)
	}

	if _, err := r.store.Update(ctx, r.table, recordID, fields); err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}
	return nil
}

func (r *RecordsRepository) SetPassword(ctx context.Context, recordID string, hash string) error {
	if _, err := r.store.Update(ctx, r.table, recordID, records.Fields{ColPasswordHash: hash}); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func toUser(rec *records.Record) (*models.User, error) {
	u := &models.User{RecordID: rec.ID}
	var err error

	if u.ID, err = rec.Int(ColID); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.Email, err = rec.String(ColEmail); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.PasswordHash, err = rec.String(ColPasswordHash); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.FullName, err = rec.String(ColFullName); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.Notes, err = rec.String(ColNotes); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.FailedAttempts, err = rec.Int(ColFailedAttempts); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.LockedUntil, err = rec.Time(ColLockedUntil); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}
	if u.LastLogin, err = rec.Time(ColLastLogin); err != nil {
		return nil, fmt.Errorf("map user %s: %w", rec.ID, err)
	}

	return u, nil
}
