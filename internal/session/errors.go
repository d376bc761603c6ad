// File: internal/session/errors.go
package session

import (
	"errors"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Code identifies an entry in the closed auth error catalog. No other codes
// ever reach the state machine's error field.
type Code string

const (
	CodeNetworkError        Code = "NETWORK_ERROR"
	CodeConfigMissing       Code = "CONFIG_MISSING"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeProfileNotFound     Code = "PROFILE_NOT_FOUND"
	CodeProfileCreateFailed Code = "PROFILE_CREATE_FAILED"
	CodeSessionExpired      Code = "SESSION_EXPIRED"
	CodeSessionError        Code = "SESSION_ERROR"
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeEmailAlreadyExists  Code = "EMAIL_ALREADY_EXISTS"
	CodeWeakPassword        Code = "WEAK_PASSWORD"
	CodeUnknownError        Code = "UNKNOWN_ERROR"
)

// Action is the remediation the UI should offer for an error.
type Action string

const (
	ActionRetry          Action = "retry"
	ActionLogin          Action = "login"
	ActionContactSupport Action = "contact_support"
)

// AuthError is the structured error type surfaced by the session state
// machine. Every provider or database failure is normalized into one of these
// before it reaches state or callers.
type AuthError struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Recoverable bool   `json:"recoverable"`
	Action      Action `json:"action,omitempty"`
}

func (e *AuthError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// catalogEntry binds an error code to its canned message, remediation and the
// log severity the manager uses when recording it.
type catalogEntry struct {
	message     string
	recoverable bool
	action      Action
	severity    zapcore.Level
	// patterns are matched as lowercase substrings against the raw message,
	// in catalog order; the first hit wins.
	patterns []string
}

var catalog = map[Code]catalogEntry{
	CodeConfigMissing: {
		message:     "The authentication service is not configured. Please contact support.",
		recoverable: false,
		action:      ActionContactSupport,
		severity:    zapcore.ErrorLevel,
		patterns:    []string{"not configured", "missing api key", "missing project"},
	},
	CodeInvalidCredentials: {
		message:     "The email or password you entered is incorrect.",
		recoverable: false,
		action:      ActionLogin,
		severity:    zapcore.WarnLevel,
		patterns: []string{
			"invalid_password", "invalid_login_credentials", "email_not_found",
			"user_disabled", "invalid credentials", "invalid email or password",
		},
	},
	CodeEmailAlreadyExists: {
		message:     "An account with this email already exists. Try signing in instead.",
		recoverable: false,
		action:      ActionLogin,
		severity:    zapcore.WarnLevel,
		patterns:    []string{"email_exists", "already registered", "already exists", "already in use"},
	},
	CodeWeakPassword: {
		message:     "That password is too weak. Choose a longer one and try again.",
		recoverable: false,
		action:      ActionRetry,
		severity:    zapcore.WarnLevel,
		patterns:    []string{"weak_password", "weak password", "at least 6 characters", "password should be"},
	},
	CodeNetworkError: {
		message:     "A network problem interrupted the request. Check your connection and retry.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.WarnLevel,
		patterns: []string{
			"network", "connection refused", "connection reset", "no such host",
			"timeout", "deadline exceeded", "temporary failure",
		},
	},
	CodeDatabaseError: {
		message:     "We could not read or write your account data. Please retry.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.ErrorLevel,
		patterns:    []string{"sqlstate", "pq:", "duplicate key", "unique constraint", "database"},
	},
	CodeSessionExpired: {
		message:     "Your session has expired. Please sign in again.",
		recoverable: false,
		action:      ActionLogin,
		severity:    zapcore.InfoLevel,
		patterns: []string{
			"token_expired", "invalid_refresh_token", "refresh token",
			"session expired", "token has expired", "token is expired",
		},
	},
	CodeSessionError: {
		message:     "We could not restore your session. Please retry.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.WarnLevel,
		patterns:    []string{"session", "token"},
	},
	CodeProfileNotFound: {
		message:     "We could not find your profile. Please retry.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.WarnLevel,
	},
	CodeProfileCreateFailed: {
		message:     "We could not set up your profile. Please retry.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.ErrorLevel,
	},
	CodeUnknownError: {
		message:     "Something went wrong. Please try again.",
		recoverable: true,
		action:      ActionRetry,
		severity:    zapcore.ErrorLevel,
	},
}

// matchOrder fixes the order pattern groups are tried in; more specific
// wording must win over the generic session/token fallback.
var matchOrder = []Code{
	CodeConfigMissing,
	CodeInvalidCredentials,
	CodeEmailAlreadyExists,
	CodeWeakPassword,
	CodeNetworkError,
	CodeDatabaseError,
	CodeSessionExpired,
	CodeSessionError,
}

// NewAuthError builds a catalog error for a known code, preserving the raw
// failure text in Details.
func NewAuthError(code Code, details string) *AuthError {
	entry, ok := catalog[code]
	if !ok {
		entry = catalog[CodeUnknownError]
		code = CodeUnknownError
	}
	return &AuthError{
		Code:        code,
		Message:     entry.message,
		Details:     details,
		Recoverable: entry.recoverable,
		Action:      entry.action,
	}
}

// Normalize maps an arbitrary error into the closed catalog. It is total and
// idempotent: an *AuthError passes through unchanged, nil and unmatched
// inputs become UNKNOWN_ERROR with the original text preserved in Details.
func Normalize(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)

	for _, code := range matchOrder {
		for _, pattern := range catalog[code].patterns {
			if strings.Contains(lower, pattern) {
				return NewAuthError(code, msg)
			}
		}
	}
	return NewAuthError(CodeUnknownError, msg)
}

// severityFor returns the log level the catalog assigns to a code.
func severityFor(code Code) zapcore.Level {
	if entry, ok := catalog[code]; ok {
		return entry.severity
	}
	return zapcore.ErrorLevel
}
