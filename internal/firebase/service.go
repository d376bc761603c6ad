// File: internal/firebase/service.go
package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
)

// Service wraps the Firebase Admin SDK. It is the server-side half of the
// auth provider adapter: token verification, user lookup, custom claims and
// refresh-token revocation. The password-grant half lives in SessionClient.
type Service struct {
	authClient *auth.Client
	logger     *zap.Logger
}

// NewService initializes the Firebase Admin SDK. When the provider is not
// configured it returns a non-nil Service whose calls fail; the session
// manager turns that into CONFIG_MISSING instead of the process refusing to
// boot, so the public parts of the API stay available.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if !cfg.AuthProviderConfigured() || cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Warn("Auth provider is not configured; authenticated routes will be unavailable.")
		return &Service{logger: logger}, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &Service{authClient: authClient, logger: logger}, nil
}

// Ready reports whether the Admin SDK was initialized.
func (s *Service) Ready() bool {
	return s.authClient != nil
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (s *Service) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("auth provider is not configured")
	}
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}
	return token, nil
}

// GetUser fetches the provider-side user record by UID.
func (s *Service) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("auth provider is not configured")
	}
	user, err := s.authClient.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider user %s: %w", uid, err)
	}
	return user, nil
}

// SetCustomClaims attaches signup metadata to the provider-side user so it
// survives into future token claims.
func (s *Service) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if !s.Ready() {
		return fmt.Errorf("auth provider is not configured")
	}
	if err := s.authClient.SetCustomUserClaims(ctx, uid, claims); err != nil {
		s.logger.Error("Failed to set custom claims", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to set custom claims for %s: %w", uid, err)
	}
	return nil
}

// RevokeRefreshTokens revokes all refresh tokens for a given user.
func (s *Service) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if !s.Ready() {
		return fmt.Errorf("auth provider is not configured")
	}
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}
