// File: internal/category/service.go
package category

import (
	"context"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// Service defines category business logic.
type Service interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryBySlug(ctx context.Context, slugValue string) (*Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	SeedDefaults(ctx context.Context) error
}

// defaultCategories seeds a fresh database with the service types the
// marketplace launched with.
var defaultCategories = []string{
	"Braids", "Locs", "Silk Press", "Natural Hair", "Weaves & Extensions",
	"Wigs", "Barbering", "Color", "Bridal", "Kids",
}

type serviceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &serviceImplementation{repo: repo, logger: logger}
}

func (s *serviceImplementation) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.FindAll(ctx)
}

func (s *serviceImplementation) GetCategoryBySlug(ctx context.Context, slugValue string) (*Category, error) {
	return s.repo.FindBySlug(ctx, slugValue)
}

func (s *serviceImplementation) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	c := &Category{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.String("name", c.Name), zap.String("slug", c.Slug))
	return c, nil
}

func (s *serviceImplementation) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != c.Name {
		c.Name = *req.Name
		c.Slug = slug.Make(c.Name)
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *serviceImplementation) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// SeedDefaults inserts the launch categories into an empty table. Called on
// startup; a populated table is left alone.
func (s *serviceImplementation) SeedDefaults(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i, name := range defaultCategories {
		c := &Category{Name: name, Slug: slug.Make(name), SortOrder: i}
		if err := s.repo.Create(ctx, c); err != nil {
			if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == 409 {
				continue
			}
			return err
		}
	}
	s.logger.Info("Seeded default service categories", zap.Int("count", len(defaultCategories)))
	return nil
}
