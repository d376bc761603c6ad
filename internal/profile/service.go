// File: internal/profile/service.go
package profile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// Notifier is the notification surface the profile service depends on.
// Implemented by the notification service; kept here as a consumer interface
// so the dependency stays one-directional.
type Notifier interface {
	ProfileCreated(ctx context.Context, userID, role string) error
}

// Service implements shared.ProfileService plus the HTTP-facing profile
// operations. The session manager and the middleware only see the interface.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
}

var _ shared.ProfileService = (*Service)(nil)

// NewService creates a new profile service.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// FetchProfile reads the identity record by provider UID. A missing record is
// (nil, nil), the distinguished condition the session manager's
// create-fallback keys on. Every other failure propagates unwrapped so the
// caller can normalize it.
func (s *Service) FetchProfile(ctx context.Context, userID string) (*shared.Profile, error) {
	row, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == common.ErrNotFound.Code {
			return nil, nil
		}
		return nil, err
	}
	return DBToShared(row), nil
}

// CreateFromAuthMetadata inserts a new identity record seeded from signup
// metadata, then re-fetches it so server-side defaults are reflected in the
// returned profile.
func (s *Service) CreateFromAuthMetadata(ctx context.Context, userID, email, role string, seed *shared.ProfileSeed) (*shared.Profile, error) {
	resolved := common.RoleOrDefault(role)
	if err := s.repo.Create(ctx, seedToDB(userID, email, resolved, seed)); err != nil {
		return nil, err
	}

	created, err := s.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("profile %s not found after creation", userID)
	}

	if s.notifier != nil {
		if err := s.notifier.ProfileCreated(ctx, userID, resolved); err != nil {
			s.logger.Warn("Failed to create welcome notification",
				zap.String("userID", userID), zap.Error(err))
		}
	}
	s.logger.Info("Profile created from auth metadata",
		zap.String("userID", userID), zap.String("role", resolved))
	return created, nil
}

// UpdateStylistDetails upserts the nested stylist business record and returns
// the refreshed profile.
func (s *Service) UpdateStylistDetails(ctx context.Context, userID string, details shared.StylistDetails) (*shared.Profile, error) {
	row, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row.Role != common.RoleStylist {
		return nil, common.ErrForbidden.WithDetails("Only stylist accounts carry a business profile.")
	}

	stylistRow := &StylistProfile{UserID: userID}
	applyStylistDetails(stylistRow, details)
	if err := s.repo.UpsertStylist(ctx, stylistRow); err != nil {
		return nil, err
	}

	refreshed, err := s.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, errors.New("profile disappeared during stylist update")
	}
	return refreshed, nil
}

// UpdateProfile applies the mutable identity fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*shared.Profile, error) {
	row, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		row.DisplayName = req.DisplayName
	}
	if req.Phone != nil {
		row.Phone = req.Phone
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx, userID)
}

// SetAvatarURL stores the avatar location after an upload.
func (s *Service) SetAvatarURL(ctx context.Context, userID, url string) (*shared.Profile, error) {
	row, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	row.AvatarURL = &url
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx, userID)
}

// ListProfiles returns a page of profiles for the admin console.
func (s *Service) ListProfiles(ctx context.Context, page, pageSize int) ([]ProfileResponse, *common.Pagination, error) {
	offset := (page - 1) * pageSize
	rows, total, err := s.repo.List(ctx, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	out := make([]ProfileResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToProfileResponse(DBToShared(&rows[i])))
	}
	return out, common.NewPagination(total, page, pageSize), nil
}
