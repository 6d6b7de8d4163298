package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// Method tells which comparison produced a Verification.
type Method int

const (
	MethodHash Method = iota
	// MethodPlaintextFallback is used when the stored value is not a bcrypt
	// hash at all, i.e. a password stored before hashing was introduced.
	MethodPlaintextFallback
)

func (m Method) String() string {
	switch m {
	case MethodHash:
		return "hash"
	case MethodPlaintextFallback:
		return "plaintext_fallback"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

type Verification struct {
	Match  bool
	Method Method
}

// Verify compares plain against a stored bcrypt hash. Only a malformed hash
// switches to constant-time plaintext equality; a mismatch never does.
func Verify(plain, stored string) Verification {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
	if err == nil {
		return Verification{Match: true, Method: MethodHash}
	}
	if !isHashFormatError(err) {
		return Verification{Method: MethodHash}
	}
	match := subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
	return Verification{Match: match, Method: MethodPlaintextFallback}
}

func isHashFormatError(err error) bool {
	if errors.Is(err, bcrypt.ErrHashTooShort) {
		return true
	}
	var prefix bcrypt.InvalidHashPrefixError
	var cost bcrypt.InvalidCostError
	var version bcrypt.HashVersionTooNewError
	// bcrypt returns the bare strconv error for a non-numeric cost field.
	var num *strconv.NumError
	return errors.As(err, &prefix) || errors.As(err, &cost) || errors.As(err, &version) || errors.As(err, &num)
}

type Hasher struct {
	cost int
}

// NewHasher falls back to bcrypt.DefaultCost for out-of-range costs.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", fmt.Errorf("%w: %w", common.ErrValidation, common.ErrPasswordTooLong)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
