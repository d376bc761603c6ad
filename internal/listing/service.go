// File: internal/listing/service.go
package listing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/listing/esutil"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/elasticsearch"
)

// Notifier is the notification surface the listing service needs.
type Notifier interface {
	ListingApproved(ctx context.Context, stylistID, businessName string) error
}

// Service defines listing business logic.
type Service interface {
	CreateListing(ctx context.Context, stylistID string, req CreateListingRequest) (*Listing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, stylistID string, req UpdateListingRequest) (*Listing, error)
	GetListingByID(ctx context.Context, id uuid.UUID, viewerID string) (*Listing, error)
	GetListingBySlug(ctx context.Context, slugValue string, viewerID string) (*Listing, error)
	GetStylistListings(ctx context.Context, stylistID string) ([]Listing, error)
	SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)
	AddImages(ctx context.Context, id uuid.UUID, stylistID string, paths []string) (*Listing, error)

	// Admin
	AdminSetApproval(ctx context.Context, id uuid.UUID, approved bool) (*Listing, error)
	AdminSearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error)

	// Jobs and tooling
	DeactivateLapsedListings(ctx context.Context) (int, error)
	ReindexAll(ctx context.Context) (int, error)
}

type serviceImplementation struct {
	repo     Repository
	es       *elasticsearch.ESClientWrapper
	notifier Notifier
	cfg      *config.Config
	logger   *zap.Logger
}

func NewService(repo Repository, es *elasticsearch.ESClientWrapper, notifier Notifier, cfg *config.Config, logger *zap.Logger) Service {
	return &serviceImplementation{repo: repo, es: es, notifier: notifier, cfg: cfg, logger: logger}
}

func (s *serviceImplementation) CreateListing(ctx context.Context, stylistID string, req CreateListingRequest) (*Listing, error) {
	now := time.Now()
	l := &Listing{
		StylistID:      stylistID,
		BusinessName:   strings.TrimSpace(req.BusinessName),
		Slug:           slug.Make(req.BusinessName),
		Description:    req.Description,
		Services:       req.Services,
		City:           strings.TrimSpace(req.City),
		State:          strings.TrimSpace(req.State),
		Phone:          req.Phone,
		ContactEmail:   req.ContactEmail,
		Status:         StatusPending,
		LastActivityAt: now,
	}

	err := s.repo.Create(ctx, l)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == 409 {
			// Slug collision with another business of the same name; retry
			// once with a random suffix.
			l.Slug = l.Slug + "-" + uuid.NewString()[:8]
			err = s.repo.Create(ctx, l)
		}
		if err != nil {
			s.logger.Error("Failed to create listing", zap.String("stylist_id", stylistID), zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("Listing created",
		zap.String("listing_id", l.ID.String()),
		zap.String("stylist_id", stylistID),
		zap.String("slug", l.Slug),
	)
	s.syncIndex(ctx, l)
	return l, nil
}

func (s *serviceImplementation) UpdateListing(ctx context.Context, id uuid.UUID, stylistID string, req UpdateListingRequest) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.StylistID != stylistID {
		return nil, common.ErrForbidden.WithDetails("You can only update your own listings.")
	}

	if req.BusinessName != nil && *req.BusinessName != l.BusinessName {
		l.BusinessName = strings.TrimSpace(*req.BusinessName)
		l.Slug = slug.Make(l.BusinessName)
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Services != nil {
		l.Services = req.Services
	}
	if req.City != nil {
		l.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		l.State = strings.TrimSpace(*req.State)
	}
	if req.Phone != nil {
		l.Phone = req.Phone
	}
	if req.ContactEmail != nil {
		l.ContactEmail = req.ContactEmail
	}
	if req.Status != nil {
		// Stylists can pause and resume, but activation still requires
		// admin approval to become publicly visible.
		l.Status = ListingStatus(*req.Status)
	}
	l.LastActivityAt = time.Now()

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	if len(req.RemoveImageIDs) > 0 {
		if err := s.repo.RemoveImages(ctx, l.ID, req.RemoveImageIDs); err != nil {
			s.logger.Warn("Failed to remove listing images", zap.String("listing_id", l.ID.String()), zap.Error(err))
		}
	}

	l, err = s.repo.FindByID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, l)
	return l, nil
}

// GetListingByID applies visibility: pending or unapproved listings are only
// visible to their owner.
func (s *serviceImplementation) GetListingByID(ctx context.Context, id uuid.UUID, viewerID string) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Visible() && l.StylistID != viewerID {
		return nil, common.ErrNotFound.WithDetails("Listing not found.")
	}
	return l, nil
}

func (s *serviceImplementation) GetListingBySlug(ctx context.Context, slugValue string, viewerID string) (*Listing, error) {
	l, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	if !l.Visible() && l.StylistID != viewerID {
		return nil, common.ErrNotFound.WithDetails("Listing not found.")
	}
	return l, nil
}

func (s *serviceImplementation) GetStylistListings(ctx context.Context, stylistID string) ([]Listing, error) {
	return s.repo.FindByStylistID(ctx, stylistID)
}

// SearchListings serves public search from Elasticsearch when available and
// falls back to SQL otherwise.
func (s *serviceImplementation) SearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = common.DefaultPage
	}
	pageSize := query.Limit()

	if s.es != nil {
		listings, total, err := s.searchES(ctx, query, (page-1)*pageSize, pageSize)
		if err == nil {
			return listings, common.NewPagination(total, page, pageSize), nil
		}
		s.logger.Warn("Elasticsearch search failed, falling back to SQL", zap.Error(err))
	}

	listings, total, err := s.repo.Search(ctx, query, true)
	if err != nil {
		return nil, nil, err
	}
	return listings, common.NewPagination(total, page, pageSize), nil
}

func (s *serviceImplementation) searchES(ctx context.Context, query ListingSearchQuery, from, size int) ([]Listing, int64, error) {
	body, err := esutil.BuildSearchBody(esutil.SearchParams{
		Term:    query.SearchTerm,
		City:    query.City,
		Service: query.Service,
		From:    from,
		Size:    size,
	})
	if err != nil {
		return nil, 0, err
	}

	raw, err := s.es.Search(ctx, elasticsearch.StylistsIndexName, body)
	if err != nil {
		return nil, 0, err
	}
	result, err := esutil.ParseSearchResult(raw)
	if err != nil {
		return nil, 0, err
	}

	ids := result.IDs()
	listings := make([]Listing, 0, len(ids))
	for _, id := range ids {
		parsed, parseErr := uuid.Parse(id)
		if parseErr != nil {
			continue
		}
		l, findErr := s.repo.FindByID(ctx, parsed)
		if findErr != nil {
			// Row deleted since last index sync; skip the stale hit.
			continue
		}
		listings = append(listings, *l)
	}
	return listings, result.Hits.Total.Value, nil
}

func (s *serviceImplementation) AddImages(ctx context.Context, id uuid.UUID, stylistID string, paths []string) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.StylistID != stylistID {
		return nil, common.ErrForbidden.WithDetails("You can only modify your own listings.")
	}

	images := make([]ListingImage, len(paths))
	nextOrder := len(l.Images)
	for i, p := range paths {
		images[i] = ListingImage{ListingID: l.ID, ImagePath: p, SortOrder: nextOrder + i}
	}
	if err := s.repo.AddImages(ctx, images); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, l.ID)
}

func (s *serviceImplementation) AdminSetApproval(ctx context.Context, id uuid.UUID, approved bool) (*Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	l.IsApproved = approved
	if approved {
		l.Status = StatusActive
		if l.PublishedAt == nil {
			now := time.Now()
			l.PublishedAt = &now
		}
	} else {
		l.Status = StatusPending
	}
	l.LastActivityAt = time.Now()

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	s.syncIndex(ctx, l)

	if approved && s.notifier != nil {
		if err := s.notifier.ListingApproved(ctx, l.StylistID, l.BusinessName); err != nil {
			s.logger.Warn("Failed to send approval notification",
				zap.String("listing_id", l.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Listing approval updated",
		zap.String("listing_id", l.ID.String()),
		zap.Bool("approved", approved),
	)
	return l, nil
}

func (s *serviceImplementation) AdminSearchListings(ctx context.Context, query ListingSearchQuery) ([]Listing, *common.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = common.DefaultPage
	}
	listings, total, err := s.repo.Search(ctx, query, false)
	if err != nil {
		return nil, nil, err
	}
	return listings, common.NewPagination(total, page, query.Limit()), nil
}

// DeactivateLapsedListings flips listings with no activity inside the lapse
// window to inactive and removes them from the search index.
func (s *serviceImplementation) DeactivateLapsedListings(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.ListingLapseDays)
	lapsed, err := s.repo.DeactivateLapsed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for i := range lapsed {
		s.syncIndex(ctx, &lapsed[i])
	}
	if len(lapsed) > 0 {
		s.logger.Info("Deactivated lapsed listings", zap.Int("count", len(lapsed)))
	}
	return len(lapsed), nil
}

// ReindexAll rebuilds the stylists index from the database. Used by the
// sync-stylists command.
func (s *serviceImplementation) ReindexAll(ctx context.Context) (int, error) {
	if s.es == nil {
		return 0, common.ErrServiceUnavailable.WithDetails("Elasticsearch is not configured.")
	}
	listings, err := s.repo.All(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for i := range listings {
		l := &listings[i]
		if !l.Visible() {
			if err := elasticsearch.DeleteDocument(ctx, s.es, elasticsearch.StylistsIndexName, l.ID.String()); err != nil {
				s.logger.Warn("Failed to delete stale document", zap.String("listing_id", l.ID.String()), zap.Error(err))
			}
			continue
		}
		if err := elasticsearch.IndexDocument(ctx, s.es, elasticsearch.StylistsIndexName, l.ID.String(), toDoc(l)); err != nil {
			s.logger.Warn("Failed to index listing", zap.String("listing_id", l.ID.String()), zap.Error(err))
			continue
		}
		indexed++
	}
	return indexed, nil
}

// syncIndex keeps the search index in step with a write. Indexing failures
// are logged, never surfaced; SQL remains the source of truth.
func (s *serviceImplementation) syncIndex(ctx context.Context, l *Listing) {
	if s.es == nil {
		return
	}
	var err error
	if l.Visible() {
		err = elasticsearch.IndexDocument(ctx, s.es, elasticsearch.StylistsIndexName, l.ID.String(), toDoc(l))
	} else {
		err = elasticsearch.DeleteDocument(ctx, s.es, elasticsearch.StylistsIndexName, l.ID.String())
	}
	if err != nil {
		s.logger.Warn("Search index sync failed", zap.String("listing_id", l.ID.String()), zap.Error(err))
	}
}

func toDoc(l *Listing) esutil.StylistDoc {
	return esutil.StylistDoc{
		ListingID:    l.ID.String(),
		StylistID:    l.StylistID,
		BusinessName: l.BusinessName,
		Slug:         l.Slug,
		Description:  l.Description,
		Services:     l.Services,
		City:         strings.ToLower(l.City),
		State:        l.State,
		Status:       string(l.Status),
		IsApproved:   l.IsApproved,
		PublishedAt:  l.PublishedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}
