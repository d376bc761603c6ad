// File: internal/listing/model.go
package listing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusActive   ListingStatus = "active"
	StatusInactive ListingStatus = "inactive"
)

// Listing is a stylist's public business listing. Slug is derived from the
// business name and is the public lookup key.
type Listing struct {
	common.BaseModel
	StylistID    string         `gorm:"type:varchar(128);not null;index"`
	BusinessName string         `gorm:"type:varchar(160);not null"`
	Slug         string         `gorm:"type:varchar(180);not null;uniqueIndex"`
	Description  string         `gorm:"type:text;not null"`
	Services     pq.StringArray `gorm:"type:text[]"`
	City         string         `gorm:"type:varchar(100);not null"`
	State        string         `gorm:"type:varchar(50)"`
	Phone        *string        `gorm:"type:varchar(32)"`
	ContactEmail *string        `gorm:"type:varchar(255)"`
	Status       ListingStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
	IsApproved   bool           `gorm:"not null;default:false"`
	PublishedAt  *time.Time
	// LastActivityAt drives the lapse job; listings untouched for the
	// configured window go inactive.
	LastActivityAt time.Time      `gorm:"not null"`
	Images         []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE;"`
}

func (Listing) TableName() string {
	return "listings"
}

// Visible reports whether the listing should appear in public search.
func (l *Listing) Visible() bool {
	return l.Status == StatusActive && l.IsApproved
}

// ListingImage is a portfolio photo attached to a listing. ImagePath is
// relative to the upload root; ImageURL is derived per request.
type ListingImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;index"`
	ImagePath string    `json:"-" gorm:"type:text;not null"`
	ImageURL  string    `json:"image_url" gorm:"-"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ListingImage) TableName() string {
	return "listing_images"
}

func (li *ListingImage) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

func (li *ListingImage) PopulateImageURL(baseURL string) {
	if li.ImagePath != "" {
		li.ImageURL = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(li.ImagePath, "/")
	}
}

// --- DTOs ---

type CreateListingRequest struct {
	BusinessName string   `json:"business_name" binding:"required,min=2,max=160"`
	Description  string   `json:"description" binding:"required,min=20"`
	Services     []string `json:"services" binding:"required,min=1,dive,max=80"`
	City         string   `json:"city" binding:"required,max=100"`
	State        string   `json:"state" binding:"omitempty,max=50"`
	Phone        *string  `json:"phone,omitempty" binding:"omitempty,max=32"`
	ContactEmail *string  `json:"contact_email,omitempty" binding:"omitempty,email,max=255"`
}

type UpdateListingRequest struct {
	BusinessName *string  `json:"business_name,omitempty" binding:"omitempty,min=2,max=160"`
	Description  *string  `json:"description,omitempty" binding:"omitempty,min=20"`
	Services     []string `json:"services,omitempty" binding:"omitempty,min=1,dive,max=80"`
	City         *string  `json:"city,omitempty" binding:"omitempty,max=100"`
	State        *string  `json:"state,omitempty" binding:"omitempty,max=50"`
	Phone        *string  `json:"phone,omitempty" binding:"omitempty,max=32"`
	ContactEmail *string  `json:"contact_email,omitempty" binding:"omitempty,email,max=255"`
	Status       *string  `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`

	RemoveImageIDs []uuid.UUID `json:"remove_image_ids,omitempty"`
}

type AdminApprovalRequest struct {
	Approved bool    `json:"approved"`
	Notes    *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

type ListingSearchQuery struct {
	common.PaginationQuery
	SearchTerm string `form:"q"`
	City       string `form:"city"`
	Service    string `form:"service"`
	// Status filtering is honored for owner and admin queries only; public
	// search always sees approved active listings.
	Status    string `form:"status" binding:"omitempty,oneof=pending active inactive"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=created_at published_at business_name"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

type ListingImageResponse struct {
	ID        uuid.UUID `json:"id"`
	ImageURL  string    `json:"image_url"`
	SortOrder int       `json:"sort_order"`
}

type ListingResponse struct {
	ID           uuid.UUID              `json:"id"`
	StylistID    string                 `json:"stylist_id"`
	BusinessName string                 `json:"business_name"`
	Slug         string                 `json:"slug"`
	Description  string                 `json:"description"`
	Services     []string               `json:"services"`
	City         string                 `json:"city"`
	State        string                 `json:"state,omitempty"`
	Phone        *string                `json:"phone,omitempty"`
	ContactEmail *string                `json:"contact_email,omitempty"`
	Status       ListingStatus          `json:"status"`
	IsApproved   bool                   `json:"is_approved"`
	PublishedAt  *time.Time             `json:"published_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Images       []ListingImageResponse `json:"images,omitempty"`
}

// ToListingResponse converts a listing for API output. Contact details are
// only included for authenticated viewers.
func ToListingResponse(l *Listing, isAuthenticated bool, imageBaseURL string) ListingResponse {
	resp := ListingResponse{
		ID:           l.ID,
		StylistID:    l.StylistID,
		BusinessName: l.BusinessName,
		Slug:         l.Slug,
		Description:  l.Description,
		Services:     l.Services,
		City:         l.City,
		State:        l.State,
		Status:       l.Status,
		IsApproved:   l.IsApproved,
		PublishedAt:  l.PublishedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}

	if isAuthenticated {
		resp.Phone = l.Phone
		resp.ContactEmail = l.ContactEmail
	}

	if len(l.Images) > 0 {
		resp.Images = make([]ListingImageResponse, len(l.Images))
		for i, img := range l.Images {
			img.PopulateImageURL(imageBaseURL)
			resp.Images[i] = ListingImageResponse{
				ID:        img.ID,
				ImageURL:  img.ImageURL,
				SortOrder: img.SortOrder,
			}
		}
	}
	return resp
}
