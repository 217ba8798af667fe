package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"comuna-portal/internal/data"
	"comuna-portal/internal/util"

	"github.com/microcosm-cc/bluemonday"
)

// BusinessRepository defines the interface for database operations on businesses.
type BusinessRepository interface {
	Create(ctx context.Context, b *data.Business) (int64, error)
	Update(ctx context.Context, b *data.Business) error
	GetByID(ctx context.Context, id int64) (*data.Business, error)
	GetByUserID(ctx context.Context, userID int64) (*data.Business, error)
	SearchApproved(ctx context.Context, q string, categoryID *int64, limit, offset int) ([]*data.Business, error)
	CountApprovedMatching(ctx context.Context, q string, categoryID *int64) (int64, error)
	TopApprovedByCategory(ctx context.Context, categoryID int64, limit int) ([]*data.Business, error)
	OthersInCategory(ctx context.Context, categoryID, excludeID int64, limit int) ([]*data.Business, error)
	RecentApproved(ctx context.Context, limit int) ([]*data.Business, error)
	GetAll(ctx context.Context) ([]*data.Business, error)
	SetState(ctx context.Context, id int64, state string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	CountByState(ctx context.Context, state string) (int64, error)
}

// CategoryRepository defines the interface for database operations on categories.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]*data.Category, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
}

// DigestCache is the subset of the cache used for directory digests.
type DigestCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// BusinessInput carries the submitted profile fields for a business.
type BusinessInput struct {
	Name        string
	Description *string
	Address     *string
	Phone       *string
	Whatsapp    *string
	Email       *string
	Website     *string
	Facebook    *string
	Instagram   *string
	Tiktok      *string
	Hours       *string
	Image       *string
	CategoryID  *int64
}

// CategoryDigest is one entry of the unfiltered directory listing: a
// category with its most recent approved businesses, capped at three.
type CategoryDigest struct {
	Category   *data.Category   `json:"category"`
	Slug       string           `json:"slug"`
	Businesses []*data.Business `json:"businesses"`
}

// DirectoryPage is one page of a filtered directory listing.
type DirectoryPage struct {
	Businesses []*data.Business
	Total      int64
	Page       int
	PerPage    int
}

// Feed item kinds.
const (
	FeedAnnouncement = "aviso"
	FeedEvent        = "evento"
	FeedNews         = "noticia"
	FeedOffer        = "oferta"
)

// FeedItem is one entry of a business's aggregated publication feed. The
// heterogeneous date fields of the four content types are normalized into
// DisplayDate: the native date when the type has one, else the row's
// creation timestamp. The fallback is a stored value, so the feed order
// is stable across re-renders.
type FeedItem struct {
	Kind        string
	Title       string
	Body        string
	Image       *string
	DisplayDate time.Time
	Venue       *string
	StartDate   *time.Time
	EndDate     *time.Time
	Active      *bool
}

// BusinessDetail is everything the business detail page shows.
type BusinessDetail struct {
	Business *data.Business
	Category *data.Category
	Related  []*data.Business
	Feed     []FeedItem
}

const (
	digestCacheKey = "negocios:digest"
	digestCacheTTL = 5 * time.Minute
	digestPerCat   = 3
	relatedLimit   = 3
	maxPerPage     = 30
)

// BusinessService provides registration, directory listing and moderation
// of businesses.
type BusinessService struct {
	businesses BusinessRepository
	categories CategoryRepository
	content    *data.ContentRepository
	cache      DigestCache
	sanitizer  *bluemonday.Policy
	now        func() time.Time
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(businesses BusinessRepository, categories CategoryRepository, content *data.ContentRepository, cache DigestCache) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		categories: categories,
		content:    content,
		cache:      cache,
		sanitizer:  bluemonday.UGCPolicy(),
		now:        time.Now,
	}
}

// Register creates the user's business in the pending moderation state.
// A user who already owns a business gets ErrDuplicateBusiness; the
// unique index on user_id closes the window against a concurrent
// duplicate submission the pre-check cannot see.
func (s *BusinessService) Register(ctx context.Context, userID int64, in BusinessInput) (*data.Business, error) {
	if fields := validateBusiness(in, true); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	existing, err := s.businesses.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateBusiness
	}

	b := s.businessFromInput(userID, in)
	b.State = data.StatePending
	id, err := s.businesses.Create(ctx, b)
	if err != nil {
		if data.IsUniqueViolation(err) {
			return nil, ErrDuplicateBusiness
		}
		return nil, err
	}
	b.ID = id
	s.invalidateDigest()
	return b, nil
}

// UpsertProfile overwrites every profile field of the user's business,
// creating the record (state pending) when it doesn't exist yet. The
// moderation state of an existing business is not touched.
func (s *BusinessService) UpsertProfile(ctx context.Context, userID int64, in BusinessInput) (*data.Business, error) {
	if fields := validateBusiness(in, false); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	existing, err := s.businesses.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		b := s.businessFromInput(userID, in)
		b.State = data.StatePending
		id, err := s.businesses.Create(ctx, b)
		if err != nil {
			if data.IsUniqueViolation(err) {
				return nil, ErrDuplicateBusiness
			}
			return nil, err
		}
		b.ID = id
		return b, nil
	}

	updated := s.businessFromInput(userID, in)
	updated.ID = existing.ID
	updated.State = existing.State
	if updated.Image == nil {
		// Re-submitting the form without a new logo keeps the old one.
		updated.Image = existing.Image
	}
	if err := s.businesses.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.invalidateDigest()
	return updated, nil
}

// ProfileOf returns the user's business, or nil when none exists.
func (s *BusinessService) ProfileOf(ctx context.Context, userID int64) (*data.Business, error) {
	return s.businesses.GetByUserID(ctx, userID)
}

// Search returns one page of approved businesses matching the filter.
func (s *BusinessService) Search(ctx context.Context, q string, categoryID *int64, page, perPage int) (*DirectoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	total, err := s.businesses.CountApprovedMatching(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	items, err := s.businesses.SearchApproved(ctx, q, categoryID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return &DirectoryPage{Businesses: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Digest returns the unfiltered directory view: per category (ordered by
// name) the most recently approved businesses, capped at three. Categories
// without approved businesses are omitted. The result is cached briefly.
func (s *BusinessService) Digest(ctx context.Context) ([]*CategoryDigest, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(digestCacheKey); err == nil && raw != nil {
			var cached []*CategoryDigest
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	digest := make([]*CategoryDigest, 0, len(categories))
	for _, cat := range categories {
		top, err := s.businesses.TopApprovedByCategory(ctx, cat.ID, digestPerCat)
		if err != nil {
			return nil, err
		}
		if len(top) == 0 {
			continue
		}
		digest = append(digest, &CategoryDigest{Category: cat, Slug: util.Slugify(cat.Name), Businesses: top})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(digest); err == nil {
			_ = s.cache.Set(digestCacheKey, raw, digestCacheTTL)
		}
	}
	return digest, nil
}

// Categories returns all categories ordered by name.
func (s *BusinessService) Categories(ctx context.Context) ([]*data.Category, error) {
	return s.categories.GetAll(ctx)
}

// Category returns one category by ID, or ErrNotFound.
func (s *BusinessService) Category(ctx context.Context, id int64) (*data.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrNotFound
	}
	return cat, nil
}

// View loads a business with its related businesses and aggregated
// publication feed. Returns ErrNotFound when the business doesn't exist.
func (s *BusinessService) View(ctx context.Context, id int64) (*BusinessDetail, error) {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}

	detail := &BusinessDetail{Business: b}
	if b.CategoryID != nil {
		if detail.Category, err = s.categories.GetByID(ctx, *b.CategoryID); err != nil {
			return nil, err
		}
		if detail.Related, err = s.businesses.OthersInCategory(ctx, *b.CategoryID, b.ID, relatedLimit); err != nil {
			return nil, err
		}
	}

	if detail.Feed, err = s.buildFeed(ctx, b.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// buildFeed merges the four content collections into one reverse
// chronological feed.
func (s *BusinessService) buildFeed(ctx context.Context, businessID int64) ([]FeedItem, error) {
	var feed []FeedItem

	announcements, err := s.content.AnnouncementsByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	for _, a := range announcements {
		feed = append(feed, FeedItem{
			Kind:        FeedAnnouncement,
			Title:       a.Title,
			Body:        a.Body,
			Image:       a.Image,
			DisplayDate: a.CreatedAt,
		})
	}

	events, err := s.content.EventsByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		start := e.StartDate
		feed = append(feed, FeedItem{
			Kind:        FeedEvent,
			Title:       e.Title,
			Body:        e.Body,
			Image:       e.Image,
			DisplayDate: start,
			Venue:       e.Venue,
			StartDate:   &start,
			EndDate:     e.EndDate,
		})
	}

	news, err := s.content.NewsByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	for _, n := range news {
		feed = append(feed, FeedItem{
			Kind:        FeedNews,
			Title:       n.Title,
			Body:        n.Body,
			Image:       n.Image,
			DisplayDate: n.PublishedAt,
		})
	}

	offers, err := s.content.OffersByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	today := s.now()
	for _, o := range offers {
		display := o.CreatedAt
		if o.StartDate != nil {
			display = *o.StartDate
		}
		active := o.Active(today)
		feed = append(feed, FeedItem{
			Kind:        FeedOffer,
			Title:       o.Title,
			Body:        o.Body,
			Image:       o.Image,
			DisplayDate: display,
			StartDate:   o.StartDate,
			EndDate:     o.EndDate,
			Active:      &active,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].DisplayDate.After(feed[j].DisplayDate)
	})
	return feed, nil
}

// Approve transitions a business to the approved state.
func (s *BusinessService) Approve(ctx context.Context, id int64) error {
	return s.setState(ctx, id, data.StateApproved)
}

// Reject transitions a business to the rejected state.
func (s *BusinessService) Reject(ctx context.Context, id int64) error {
	return s.setState(ctx, id, data.StateRejected)
}

// SetPending transitions a business back to the pending state.
func (s *BusinessService) SetPending(ctx context.Context, id int64) error {
	return s.setState(ctx, id, data.StatePending)
}

// Remove deletes a business and, via cascade, all its publications.
func (s *BusinessService) Remove(ctx context.Context, id int64) error {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	if err := s.businesses.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDigest()
	return nil
}

// All returns every business for the admin console, newest first.
func (s *BusinessService) All(ctx context.Context) ([]*data.Business, error) {
	return s.businesses.GetAll(ctx)
}

// Recent returns the most recently approved businesses.
func (s *BusinessService) Recent(ctx context.Context, limit int) ([]*data.Business, error) {
	return s.businesses.RecentApproved(ctx, limit)
}

func (s *BusinessService) setState(ctx context.Context, id int64, state string) error {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	if err := s.businesses.SetState(ctx, id, state); err != nil {
		return err
	}
	s.invalidateDigest()
	return nil
}

func (s *BusinessService) invalidateDigest() {
	if s.cache != nil {
		_ = s.cache.Delete(digestCacheKey)
	}
}

func (s *BusinessService) businessFromInput(userID int64, in BusinessInput) *data.Business {
	return &data.Business{
		UserID:      userID,
		Name:        in.Name,
		Description: s.sanitizeOpt(in.Description),
		Address:     in.Address,
		Phone:       in.Phone,
		Whatsapp:    in.Whatsapp,
		Email:       in.Email,
		Website:     in.Website,
		Facebook:    in.Facebook,
		Instagram:   in.Instagram,
		Tiktok:      in.Tiktok,
		Hours:       in.Hours,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
	}
}

func (s *BusinessService) sanitizeOpt(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*v)
	return &clean
}

// validateBusiness checks the submitted fields. Directory registration
// requires address and category; the profile form leaves them optional.
func validateBusiness(in BusinessInput, directory bool) map[string]string {
	fields := make(map[string]string)
	if in.Name == "" {
		fields["name"] = "El nombre es obligatorio."
	}
	if directory {
		if in.Address == nil || *in.Address == "" {
			fields["address"] = "La dirección es obligatoria."
		}
		if in.CategoryID == nil {
			fields["category_id"] = "La categoría es obligatoria."
		}
	}
	return fields
}
