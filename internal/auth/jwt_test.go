package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
	}{
		{name: "valid", secret: "this-is-16-chars", ttl: time.Minute},
		{name: "short secret", secret: "short", ttl: time.Minute, wantErr: true},
		{name: "zero ttl", secret: testSecret, ttl: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.ttl)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-abc-123")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "header.payload.signature")

	got, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc-123", got)
}

func TestGenerate_UsesTTL(t *testing.T) {
	ts, err := NewTokenService(testSecret, 2*time.Hour)
	require.NoError(t, err)

	token, err := ts.Generate("user-1")
	require.NoError(t, err)

	var c claims
	_, _, err = jwt.NewParser().ParseUnverified(token, &c)
	require.NoError(t, err)
	assert.Equal(t, "codelab", c.Issuer)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), c.ExpiresAt.Time, time.Minute)
}

func TestGenerate_RequiresUser(t *testing.T) {
	_, err := newTestTokenService(t).Generate("")
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	valid, err := ts.Generate("user-123")
	require.NoError(t, err)

	other, err := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Generate("user-123")
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "tampered signature", token: valid[:len(valid)-3] + "xxx"},
		{name: "wrong secret", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", -time.Second)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}
