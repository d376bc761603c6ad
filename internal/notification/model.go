// File: internal/notification/model.go
package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	TypeWelcome         NotificationType = "welcome"
	TypeListingApproved NotificationType = "listing_approved"
)

// Notification is a per-user in-app notification. Rows are immutable except
// for the read flag.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string           `gorm:"type:varchar(128);not null;index:idx_notification_user_status" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(100);not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"is_read"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_notification_user_status" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
