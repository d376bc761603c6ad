// File: internal/profile/model.go
package profile

import (
	"time"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// Profile is the identity record in the database. Unlike the other tables it
// is keyed by the auth provider's UID, so a provider session maps straight to
// a row without an indirection table.
type Profile struct {
	ID          string  `gorm:"type:varchar(128);primaryKey"`
	Email       string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName *string `gorm:"type:varchar(100)"`
	Role        string  `gorm:"type:varchar(20);not null;default:'client'"`
	AvatarURL   *string `gorm:"type:text"`
	Phone       *string `gorm:"type:varchar(32)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Stylist is the one-to-one business record, present only for stylists.
	Stylist *StylistProfile `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// StylistProfile is the nested business record for stylist accounts.
type StylistProfile struct {
	common.BaseModel
	UserID       string  `gorm:"type:varchar(128);not null;uniqueIndex"`
	BusinessName string  `gorm:"type:varchar(150);not null"`
	Location     *string `gorm:"type:varchar(255)"`
	Phone        *string `gorm:"type:varchar(32)"`
	ContactEmail *string `gorm:"type:varchar(255)"`
}

// TableName specifies the table name for the StylistProfile model.
func (StylistProfile) TableName() string {
	return "stylist_profiles"
}

// --- DTOs for API requests/responses ---

// UpdateProfileRequest defines the mutable identity fields.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
}

// StylistDetailsRequest defines the stylist business record payload.
type StylistDetailsRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=150"`
	Location     string `json:"location" binding:"omitempty,max=255"`
	Phone        string `json:"phone" binding:"omitempty,max=32"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// ProfileResponse defines the structure for profile data in API responses.
type ProfileResponse struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
	DisplayName *string                 `json:"display_name,omitempty"`
	Role        string                  `json:"role"`
	AvatarURL   *string                 `json:"avatar_url,omitempty"`
	Phone       *string                 `json:"phone,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Stylist     *StylistProfileResponse `json:"stylist_profile,omitempty"`
}

// StylistProfileResponse is the nested business record in API responses.
type StylistProfileResponse struct {
	BusinessName string  `json:"business_name"`
	Location     *string `json:"location,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
}

// ToProfileResponse converts a shared.Profile to a ProfileResponse DTO.
func ToProfileResponse(p *shared.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		AvatarURL:   p.AvatarURL,
		Phone:       p.Phone,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Stylist != nil {
		resp.Stylist = &StylistProfileResponse{
			BusinessName: p.Stylist.BusinessName,
			Location:     p.Stylist.Location,
			Phone:        p.Stylist.Phone,
			ContactEmail: p.Stylist.ContactEmail,
		}
	}
	return resp
}
