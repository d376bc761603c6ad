// File: internal/shared/core.go
package shared

import (
	"context"
	"time"
)

// Profile is the identity record for a marketplace user. It is keyed by the
// auth provider's UID and owned by the session layer for the lifetime of an
// authenticated session.
type Profile struct {
	ID          string
	Email       string
	DisplayName *string
	Role        string
	AvatarURL   *string
	Phone       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Stylist is populated only when Role is "stylist".
	Stylist *StylistProfile
}

// StylistProfile is the one-to-one business record attached to stylist profiles.
type StylistProfile struct {
	BusinessName string
	Location     *string
	Phone        *string
	ContactEmail *string
}

// ProfileSeed carries the optional signup metadata used when a profile is
// first created from provider claims.
type ProfileSeed struct {
	DisplayName string
	Phone       string
}

// StylistDetails is the input for creating or updating the nested stylist
// business record.
type StylistDetails struct {
	BusinessName string
	Location     string
	Phone        string
	ContactEmail string
}

// ProfileService defines the profile operations the session layer and the
// request middleware depend on. The concrete implementation lives in
// internal/profile; this interface breaks the import cycle between the two.
type ProfileService interface {
	// FetchProfile reads the identity record by id, attaching the stylist
	// sub-record when the role calls for it. A missing record is (nil, nil),
	// not an error. Any other failure is returned unwrapped for the caller
	// to normalize.
	FetchProfile(ctx context.Context, userID string) (*Profile, error)

	// CreateFromAuthMetadata inserts a new identity record seeded from signup
	// metadata and returns the hydrated result of a follow-up fetch.
	CreateFromAuthMetadata(ctx context.Context, userID, email, role string, seed *ProfileSeed) (*Profile, error)

	// UpdateStylistDetails upserts the nested stylist business record.
	UpdateStylistDetails(ctx context.Context, userID string, details StylistDetails) (*Profile, error)
}
