// File: internal/listing/service_test.go
package listing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
)

// fakeRepository is an in-memory Repository.
type fakeRepository struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]*Listing
	createCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: make(map[uuid.UUID]*Listing)}
}

func (f *fakeRepository) Create(ctx context.Context, l *Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for _, existing := range f.rows {
		if existing.Slug == l.Slug {
			return common.ErrConflict.WithDetails("A listing with this business name already exists.")
		}
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = time.Now()
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, l *Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[l.ID]; !ok {
		return common.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	cp := *l
	f.rows[l.ID] = &cp
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound.WithDetails("Listing not found.")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepository) FindBySlug(ctx context.Context, slug string) (*Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.rows {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound.WithDetails("Listing not found.")
}

func (f *fakeRepository) FindByStylistID(ctx context.Context, stylistID string) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Listing
	for _, l := range f.rows {
		if l.StylistID == stylistID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepository) Search(ctx context.Context, query ListingSearchQuery, publicOnly bool) ([]Listing, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Listing
	for _, l := range f.rows {
		if publicOnly && !l.Visible() {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) All(ctx context.Context) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Listing
	for _, l := range f.rows {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeRepository) DeactivateLapsed(ctx context.Context, cutoff time.Time) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Listing
	for _, l := range f.rows {
		if l.Status == StatusActive && l.LastActivityAt.Before(cutoff) {
			l.Status = StatusInactive
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepository) AddImages(ctx context.Context, images []ListingImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, img := range images {
		l, ok := f.rows[img.ListingID]
		if !ok {
			return common.ErrNotFound
		}
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		l.Images = append(l.Images, img)
	}
	return nil
}

func (f *fakeRepository) RemoveImages(ctx context.Context, listingID uuid.UUID, imageIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[listingID]
	if !ok {
		return common.ErrNotFound
	}
	remove := make(map[uuid.UUID]bool, len(imageIDs))
	for _, id := range imageIDs {
		remove[id] = true
	}
	kept := l.Images[:0]
	for _, img := range l.Images {
		if !remove[img.ID] {
			kept = append(kept, img)
		}
	}
	l.Images = kept
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	approved []string
}

func (f *fakeNotifier) ListingApproved(ctx context.Context, stylistID, businessName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, stylistID)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository, *fakeNotifier) {
	t.Helper()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	cfg := &config.Config{ListingLapseDays: 60}
	svc := NewService(repo, nil, notifier, cfg, zap.NewNop())
	return svc, repo, notifier
}

func validCreateRequest() CreateListingRequest {
	return CreateListingRequest{
		BusinessName: "Ada Braids & Locs",
		Description:  "Protective styles, braids and locs in South London.",
		Services:     []string{"Braids", "Locs"},
		City:         "London",
	}
}

func TestCreateListing_StartsPendingWithSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "ada-braids-locs", l.Slug)
	assert.Equal(t, StatusPending, l.Status)
	assert.False(t, l.IsApproved)
	assert.False(t, l.Visible(), "a new listing must not be publicly visible before approval")
	assert.WithinDuration(t, time.Now(), l.LastActivityAt, 5*time.Second)
}

func TestCreateListing_SlugCollisionRetriesWithSuffix(t *testing.T) {
	svc, repo, _ := newTestService(t)

	first, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	second, err := svc.CreateListing(context.Background(), "stylist-2", validCreateRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "ada-braids-locs-")
	assert.Equal(t, 3, repo.createCalls, "one insert plus one collision retry")
}

func TestUpdateListing_OwnerOnly(t *testing.T) {
	svc, _, _ := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	desc := "A different description that is long enough to pass."
	_, err = svc.UpdateListing(context.Background(), l.ID, "stylist-2", UpdateListingRequest{Description: &desc})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 403, apiErr.StatusCode)
}

func TestUpdateListing_RenameRegeneratesSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	name := "Crown & Glory Studio"
	updated, err := svc.UpdateListing(context.Background(), l.ID, "stylist-1", UpdateListingRequest{BusinessName: &name})
	require.NoError(t, err)
	assert.Equal(t, "crown-glory-studio", updated.Slug)
	assert.True(t, updated.LastActivityAt.After(l.LastActivityAt) || updated.LastActivityAt.Equal(l.LastActivityAt))
}

func TestGetListing_VisibilityRules(t *testing.T) {
	svc, _, _ := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	// Pending listing is invisible to the public and to other users.
	_, err = svc.GetListingByID(context.Background(), l.ID, "")
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.StatusCode)

	_, err = svc.GetListingBySlug(context.Background(), l.Slug, "someone-else")
	require.Error(t, err)

	// The owner always sees their own listing.
	got, err := svc.GetListingByID(context.Background(), l.ID, "stylist-1")
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)

	// Approval makes it public.
	_, err = svc.AdminSetApproval(context.Background(), l.ID, true)
	require.NoError(t, err)

	got, err = svc.GetListingByID(context.Background(), l.ID, "")
	require.NoError(t, err)
	assert.True(t, got.Visible())
}

func TestAdminSetApproval_ActivatesAndNotifies(t *testing.T) {
	svc, _, notifier := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	approved, err := svc.AdminSetApproval(context.Background(), l.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, approved.Status)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.PublishedAt)

	notifier.mu.Lock()
	assert.Equal(t, []string{"stylist-1"}, notifier.approved)
	notifier.mu.Unlock()

	// Revoking approval drops the listing back to pending but keeps the
	// original publish date.
	firstPublished := *approved.PublishedAt
	revoked, err := svc.AdminSetApproval(context.Background(), l.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, revoked.Status)
	assert.False(t, revoked.IsApproved)

	reapproved, err := svc.AdminSetApproval(context.Background(), l.ID, true)
	require.NoError(t, err)
	require.NotNil(t, reapproved.PublishedAt)
	assert.Equal(t, firstPublished.Unix(), reapproved.PublishedAt.Unix())
}

func TestSearchListings_PublicOnlySeesApprovedActive(t *testing.T) {
	svc, _, _ := newTestService(t)

	pending, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	req := validCreateRequest()
	req.BusinessName = "Second Salon"
	visible, err := svc.CreateListing(context.Background(), "stylist-2", req)
	require.NoError(t, err)
	_, err = svc.AdminSetApproval(context.Background(), visible.ID, true)
	require.NoError(t, err)

	results, pagination, err := svc.SearchListings(context.Background(), ListingSearchQuery{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, visible.ID, results[0].ID)
	assert.Equal(t, int64(1), pagination.TotalItems)

	// The admin view sees everything.
	all, _, err := svc.AdminSearchListings(context.Background(), ListingSearchQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_ = pending
}

func TestAddImages_AppendsInOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	l, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.AddImages(context.Background(), l.ID, "stylist-1", []string{"portfolio/a.jpg", "portfolio/b.jpg"})
	require.NoError(t, err)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, 0, updated.Images[0].SortOrder)
	assert.Equal(t, 1, updated.Images[1].SortOrder)

	_, err = svc.AddImages(context.Background(), l.ID, "intruder", []string{"portfolio/c.jpg"})
	require.Error(t, err)
}

func TestDeactivateLapsedListings(t *testing.T) {
	svc, repo, _ := newTestService(t)

	fresh, err := svc.CreateListing(context.Background(), "stylist-1", validCreateRequest())
	require.NoError(t, err)
	_, err = svc.AdminSetApproval(context.Background(), fresh.ID, true)
	require.NoError(t, err)

	req := validCreateRequest()
	req.BusinessName = "Dormant Salon"
	stale, err := svc.CreateListing(context.Background(), "stylist-2", req)
	require.NoError(t, err)
	_, err = svc.AdminSetApproval(context.Background(), stale.ID, true)
	require.NoError(t, err)

	// Age the second listing past the lapse window.
	repo.mu.Lock()
	repo.rows[stale.ID].LastActivityAt = time.Now().AddDate(0, 0, -90)
	repo.mu.Unlock()

	count, err := svc.DeactivateLapsedListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Status)

	got, err = repo.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestReindexAll_WithoutElasticsearch(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ReindexAll(context.Background())
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestToDoc_LowercasesCityForKeywordMatch(t *testing.T) {
	doc := toDoc(&Listing{City: "London"})
	assert.Equal(t, "london", doc.City)
}

func TestToListingResponse_ContactDetailsGatedByAuth(t *testing.T) {
	phone := "+44 20 1234 5678"
	email := "book@ada.example"
	l := &Listing{
		BusinessName: "Ada Braids",
		Phone:        &phone,
		ContactEmail: &email,
	}

	public := ToListingResponse(l, false, "http://localhost/uploads")
	assert.Nil(t, public.Phone)
	assert.Nil(t, public.ContactEmail)

	authed := ToListingResponse(l, true, "http://localhost/uploads")
	require.NotNil(t, authed.Phone)
	assert.Equal(t, phone, *authed.Phone)
	require.NotNil(t, authed.ContactEmail)
}
