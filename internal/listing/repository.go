// File: internal/listing/repository.go
package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Repository defines persistence for stylist listings.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	Update(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	FindBySlug(ctx context.Context, slug string) (*Listing, error)
	FindByStylistID(ctx context.Context, stylistID string) ([]Listing, error)
	Search(ctx context.Context, query ListingSearchQuery, publicOnly bool) ([]Listing, int64, error)
	All(ctx context.Context) ([]Listing, error)
	DeactivateLapsed(ctx context.Context, cutoff time.Time) ([]Listing, error)
	AddImages(ctx context.Context, images []ListingImage) error
	RemoveImages(ctx context.Context, listingID uuid.UUID, imageIDs []uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

func (r *gormRepository) Create(ctx context.Context, l *Listing) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A listing with this business name already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) Update(ctx context.Context, l *Listing) error {
	err := r.db.WithContext(ctx).Omit("Images").Save(l).Error
	if err != nil && isUniqueViolation(err) {
		return common.ErrConflict.WithDetails("A listing with this business name already exists.")
	}
	return err
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var l Listing
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&l, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &l, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Listing, error) {
	var l Listing
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&l, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Listing not found.")
		}
		return nil, err
	}
	return &l, nil
}

func (r *gormRepository) FindByStylistID(ctx context.Context, stylistID string) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("stylist_id = ?", stylistID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// Search is the SQL path, used directly when Elasticsearch is not configured
// and as the fallback when it is unreachable.
func (r *gormRepository) Search(ctx context.Context, query ListingSearchQuery, publicOnly bool) ([]Listing, int64, error) {
	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = common.DefaultPage
	}
	if pageSize < 1 || pageSize > common.MaxPageSize {
		pageSize = common.DefaultPageSize
	}

	tx := r.db.WithContext(ctx).Model(&Listing{})
	if publicOnly {
		tx = tx.Where("status = ? AND is_approved = ?", StatusActive, true)
	} else if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if query.City != "" {
		tx = tx.Where("LOWER(city) = LOWER(?)", query.City)
	}
	if query.Service != "" {
		tx = tx.Where("? = ANY(services)", query.Service)
	}
	if term := strings.TrimSpace(query.SearchTerm); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		tx = tx.Where("LOWER(business_name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(query.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	var listings []Listing
	err := tx.
		Preload("Images").
		Order(sortBy + " " + sortOrder).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error
	return listings, total, err
}

func (r *gormRepository) All(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).Find(&listings).Error
	return listings, err
}

// DeactivateLapsed flips active listings whose last activity predates the
// cutoff to inactive and returns the affected rows.
func (r *gormRepository) DeactivateLapsed(ctx context.Context, cutoff time.Time) ([]Listing, error) {
	var lapsed []Listing
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_activity_at < ?", StatusActive, cutoff).
		Find(&lapsed).Error
	if err != nil {
		return nil, err
	}
	if len(lapsed) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(lapsed))
	for i, l := range lapsed {
		ids[i] = l.ID
	}
	err = r.db.WithContext(ctx).
		Model(&Listing{}).
		Where("id IN ?", ids).
		Update("status", StatusInactive).Error
	if err != nil {
		return nil, err
	}
	for i := range lapsed {
		lapsed[i].Status = StatusInactive
	}
	return lapsed, nil
}

func (r *gormRepository) AddImages(ctx context.Context, images []ListingImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *gormRepository) RemoveImages(ctx context.Context, listingID uuid.UUID, imageIDs []uuid.UUID) error {
	if len(imageIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("listing_id = ? AND id IN ?", listingID, imageIDs).
		Delete(&ListingImage{}).Error
}
