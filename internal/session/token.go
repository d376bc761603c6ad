// File: internal/session/token.go
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
)

const cookieIssuer = "service4me"

var (
	ErrInvalidCookie = errors.New("session cookie is invalid")
	ErrExpiredCookie = errors.New("session cookie has expired")
)

// cookieClaims binds a registry session id into a signed cookie value.
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the browser session cookie. The cookie
// carries only an opaque session id; all auth state lives server-side in the
// registry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

func NewTokenService(cfg *config.Config, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret: []byte(cfg.SessionCookieSecret),
		ttl:    cfg.SessionTTL,
		logger: logger,
	}
}

// Mint produces a signed cookie value for a session id along with its expiry.
func (s *TokenService) Mint(sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := cookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session cookie", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("signing session cookie: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a cookie value and returns the embedded session id.
func (s *TokenService) Parse(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(cookieIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredCookie
		}
		return "", ErrInvalidCookie
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}
	return claims.SessionID, nil
}

// TTL exposes the configured cookie lifetime for handlers setting Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
