// File: internal/notification/service.go
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Service creates and reads notifications. It satisfies the consumer
// interfaces declared by the profile and listing packages.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ProfileCreated sends the welcome notification for a new account.
func (s *Service) ProfileCreated(ctx context.Context, userID, role string) error {
	message := "Welcome to Service4Me! Browse stylists near you to get started."
	if role == common.RoleStylist {
		message = "Welcome to Service4Me! Create your listing so clients can find you."
	}
	return s.create(ctx, &Notification{UserID: userID, Type: TypeWelcome, Message: message})
}

// ListingApproved tells a stylist their listing went live.
func (s *Service) ListingApproved(ctx context.Context, stylistID, businessName string) error {
	return s.create(ctx, &Notification{
		UserID:  stylistID,
		Type:    TypeListingApproved,
		Message: fmt.Sprintf("Your listing %q has been approved and is now live.", businessName),
	})
}

func (s *Service) create(ctx context.Context, n *Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListForUser returns a user's notifications plus their unread count.
func (s *Service) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]Notification, *common.Pagination, int64, error) {
	notifications, pagination, err := s.repo.GetByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, nil, 0, err
	}
	return notifications, pagination, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID string) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
