package auth

import "time"

// Policy decides whether a user may authenticate and when a new lock starts.
// The lock state itself lives in the user record; Policy only does arithmetic.
type Policy struct {
	Threshold int
	Window    time.Duration
}

// DefaultPolicy locks an account for 30 minutes after 5 failed attempts.
var DefaultPolicy = Policy{Threshold: 5, Window: 30 * time.Minute}

type Decision struct {
	Blocked          bool
	RemainingMinutes int
}

// Check reports a block while lockedUntil is in the future. The attempt
// counter is ignored here: a lock only exists once it has been stored.
func (p Policy) Check(lockedUntil *time.Time, now time.Time) Decision {
	if lockedUntil == nil || !lockedUntil.After(now) {
		return Decision{}
	}
	remaining := lockedUntil.Sub(now)
	return Decision{
		Blocked:          true,
		RemainingMinutes: int((remaining + time.Minute - 1) / time.Minute),
	}
}

// Next returns the counter to store after one more failure, and the lock
// expiry when that failure reaches the threshold.
func (p Policy) Next(failedAttempts int, now time.Time) (int, *time.Time) {
	if failedAttempts < 0 {
		failedAttempts = 0
	}
	count := failedAttempts + 1
	if count < p.Threshold {
		return count, nil
	}
	until := now.Add(p.Window)
	return count, &until
}
