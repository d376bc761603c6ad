// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, id string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	UpsertStylist(ctx context.Context, row *StylistProfile) error
	List(ctx context.Context, offset, limit int) ([]Profile, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM profile repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// isUniqueViolation detects duplicate-key failures across the Postgres driver
// and the sqlite driver used in tests.
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

// Create inserts a new identity record.
func (r *gormRepository) Create(ctx context.Context, p *Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A profile already exists for this account or email.")
		}
		return err
	}
	return nil
}

// FindByID retrieves a profile by the provider UID, attaching the stylist
// sub-record when the role calls for it.
func (r *gormRepository) FindByID(ctx context.Context, id string) (*Profile, error) {
	var row Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found with this id.")
		}
		return nil, err
	}

	if row.Role == common.RoleStylist {
		var stylist StylistProfile
		err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&stylist).Error
		switch {
		case err == nil:
			row.Stylist = &stylist
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Stylist without business details yet; the identity record alone
			// is a valid answer.
		default:
			return nil, err
		}
	}
	return &row, nil
}

// FindByEmail retrieves a profile by email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	var row Profile
	normalized := strings.ToLower(strings.TrimSpace(email))
	err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found with this email.")
		}
		return nil, err
	}
	return &row, nil
}

// Update modifies an existing identity record.
func (r *gormRepository) Update(ctx context.Context, p *Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if err := r.db.WithContext(ctx).Omit("Stylist").Save(p).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("Update failed: email already taken.")
		}
		return err
	}
	return nil
}

// UpsertStylist inserts or updates the nested stylist business record.
func (r *gormRepository) UpsertStylist(ctx context.Context, row *StylistProfile) error {
	var existing StylistProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", row.UserID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(row).Error
	case err != nil:
		return err
	}

	existing.BusinessName = row.BusinessName
	existing.Location = row.Location
	existing.Phone = row.Phone
	existing.ContactEmail = row.ContactEmail
	return r.db.WithContext(ctx).Save(&existing).Error
}

// List returns a page of profiles with the total count, newest first.
func (r *gormRepository) List(ctx context.Context, offset, limit int) ([]Profile, int64, error) {
	var rows []Profile
	var total int64

	if err := r.db.WithContext(ctx).Model(&Profile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
