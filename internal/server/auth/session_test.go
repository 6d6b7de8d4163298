package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestIssuer(secret string) (*Issuer, *clock) {
	c := &clock{t: now}
	return NewIssuer([]byte(secret), 0, c.Now), c
}

func sampleSession() Session {
	return Session{UserID: "7", RecordID: "recABC", Email: "a@x.com", Name: "Ana Pérez"}
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	iss, _ := newTestIssuer("s3cret")

	tok, exp, err := iss.Issue(sampleSession())
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	got, ok := iss.Validate(tok)
	require.True(t, ok)
	want := sampleSession()
	want.ExpiresAt = exp
	assert.Equal(t, want, *got)
}

func TestIssuer_ExpiryWindow(t *testing.T) {
	iss, c := newTestIssuer("s3cret")

	tok, _, err := iss.Issue(sampleSession())
	require.NoError(t, err)

	c.t = now.Add(23*time.Hour + 59*time.Minute)
	_, ok := iss.Validate(tok)
	assert.True(t, ok, "valid at T+23h59m")

	c.t = now.Add(24*time.Hour + time.Minute)
	_, ok = iss.Validate(tok)
	assert.False(t, ok, "invalid at T+24h01m")
}

func TestIssuer_DefaultName(t *testing.T) {
	iss, _ := newTestIssuer("s3cret")

	s := sampleSession()
	s.Name = ""
	tok, _, err := iss.Issue(s)
	require.NoError(t, err)

	got, ok := iss.Validate(tok)
	require.True(t, ok)
	assert.Equal(t, "Usuario", got.Name)
}

func TestIssuer_ClaimNames(t *testing.T) {
	iss, _ := newTestIssuer("s3cret")
	tok, _, err := iss.Issue(sampleSession())
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, raw)
	require.NoError(t, err)
	for _, k := range []string{"userId", "userRecordId", "email", "nombre", "expiresAt", "exp", "iat"} {
		assert.Contains(t, raw, k)
	}

	exp, err := raw.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02T12:00:00.000Z", raw["expiresAt"])
	assert.Equal(t, now.Add(24*time.Hour).Unix(), exp.Unix())
}

func TestIssuer_Rejects(t *testing.T) {
	iss, _ := newTestIssuer("s3cret")
	other, _ := newTestIssuer("other")

	foreign, _, err := other.Issue(sampleSession())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "7",
		"exp":    now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"userId": "7",
		"exp":    now.Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "7",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"alg none":      unsigned,
		"wrong alg":     hs512,
		"no expiration": noExp,
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := iss.Validate(tok)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestIssuer_Renew(t *testing.T) {
	iss, c := newTestIssuer("s3cret")

	tok, _, err := iss.Issue(sampleSession())
	require.NoError(t, err)

	c.t = now.Add(20 * time.Hour)
	s, ok := iss.Validate(tok)
	require.True(t, ok)

	renewed, exp, err := iss.Renew(s)
	require.NoError(t, err)
	assert.Equal(t, now.Add(44*time.Hour), exp)

	c.t = now.Add(30 * time.Hour)
	_, ok = iss.Validate(tok)
	assert.False(t, ok, "old token expired")
	got, ok := iss.Validate(renewed)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", got.Email)

	_, _, err = iss.Renew(nil)
	assert.Error(t, err)
}
