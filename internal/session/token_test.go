// File: internal/session/token_test.go
package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
)

func newTestTokenService(ttl time.Duration) *TokenService {
	cfg := &config.Config{
		SessionCookieSecret: "test-secret-at-least-32-bytes-long!!",
		SessionTTL:          ttl,
	}
	return NewTokenService(cfg, zap.NewNop())
}

func TestTokenService_MintAndParse(t *testing.T) {
	svc := newTestTokenService(30 * time.Minute)

	value, expiresAt, err := svc.Mint("sid-abc")
	require.NoError(t, err)
	require.NotEmpty(t, value)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	sid, err := svc.Parse(value)
	require.NoError(t, err)
	assert.Equal(t, "sid-abc", sid)
}

func TestTokenService_ParseExpired(t *testing.T) {
	svc := newTestTokenService(-time.Minute)

	value, _, err := svc.Mint("sid-old")
	require.NoError(t, err)

	_, err = svc.Parse(value)
	assert.ErrorIs(t, err, ErrExpiredCookie)
}

func TestTokenService_ParseGarbage(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	_, err := svc.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCookie)

	_, err = svc.Parse("")
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestTokenService_ParseWrongSecret(t *testing.T) {
	minted := newTestTokenService(time.Hour)
	value, _, err := minted.Mint("sid-1")
	require.NoError(t, err)

	other := NewTokenService(&config.Config{
		SessionCookieSecret: "a-completely-different-secret-value",
		SessionTTL:          time.Hour,
	}, zap.NewNop())

	_, err = other.Parse(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestTokenService_ParseWrongIssuer(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	claims := cookieClaims{
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Parse(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestTokenService_ParseMissingSessionID(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Parse(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestTokenService_RejectsUnexpectedAlgorithm(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, cookieClaims{
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	value, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Parse(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}
