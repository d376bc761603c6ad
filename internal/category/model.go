// File: internal/category/model.go
package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Category is a hair service category stylists tag their listings with
// (braids, locs, silk press, and so on).
type Category struct {
	common.BaseModel
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name,unique"`
	Slug        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_slug,unique"`
	Description *string `gorm:"type:text"`
	SortOrder   int     `gorm:"not null;default:0"`
}

func (Category) TableName() string {
	return "categories"
}

// --- DTOs ---

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
	SortOrder   int     `json:"sort_order" binding:"omitempty,gte=0"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order,omitempty" binding:"omitempty,gte=0"`
}

func ToCategoryResponse(c *Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
