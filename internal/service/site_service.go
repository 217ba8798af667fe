package service

import (
	"context"
	"strings"
	"time"

	"comuna-portal/internal/data"

	"github.com/microcosm-cc/bluemonday"
)

// SiteStats are the counters shown on the public front page.
type SiteStats struct {
	ApprovedBusinesses int64
	Users              int64
}

// FrontPage aggregates everything the public front page shows.
type FrontPage struct {
	News          []*data.SiteNews
	Announcements []*data.SiteAnnouncement
	Events        []*data.SiteEvent
	Featured      []*data.Business
	Stats         SiteStats
}

// AdminStats are the per-entity counters on the admin dashboard.
type AdminStats struct {
	Businesses        int64
	PendingBusinesses int64
	News              int64
	Announcements     int64
	Events            int64
}

// SiteNewsInput carries the submitted site news fields.
type SiteNewsInput struct {
	Title string
	Body  string
	Image *string
}

// SiteAnnouncementInput carries the submitted site announcement fields.
type SiteAnnouncementInput struct {
	Message   string
	StartDate *time.Time
	EndDate   *time.Time
	Image     *string
}

// SiteEventInput carries the submitted site event fields.
type SiteEventInput struct {
	Title string
	Venue string
	Date  *time.Time
	Body  *string
	Image *string
}

const (
	frontPageLimit = 3
	featuredLimit  = 6
)

// SiteService provides the public aggregation views and the
// administrator-authored municipality-wide content.
type SiteService struct {
	site       *data.SiteContentRepository
	businesses BusinessRepository
	users      UserRepository
	sanitizer  *bluemonday.Policy
	now        func() time.Time
}

// NewSiteService creates a new SiteService.
func NewSiteService(site *data.SiteContentRepository, businesses BusinessRepository, users UserRepository) *SiteService {
	return &SiteService{
		site:       site,
		businesses: businesses,
		users:      users,
		sanitizer:  bluemonday.UGCPolicy(),
		now:        time.Now,
	}
}

// FrontPage builds the front-page digest: the latest three of each site
// content type (announcements filtered to the active window), quick
// stats, and the most recently approved businesses.
func (s *SiteService) FrontPage(ctx context.Context) (*FrontPage, error) {
	fp := &FrontPage{}
	var err error

	if fp.News, err = s.site.ListNews(ctx, frontPageLimit); err != nil {
		return nil, err
	}
	if fp.Announcements, err = s.site.ActiveAnnouncements(ctx, s.now(), frontPageLimit); err != nil {
		return nil, err
	}
	if fp.Events, err = s.site.ListEvents(ctx, frontPageLimit); err != nil {
		return nil, err
	}
	if fp.Featured, err = s.businesses.RecentApproved(ctx, featuredLimit); err != nil {
		return nil, err
	}
	if fp.Stats.ApprovedBusinesses, err = s.businesses.CountByState(ctx, data.StateApproved); err != nil {
		return nil, err
	}
	if fp.Stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	return fp, nil
}

// AdminStats builds the per-entity counters for the admin dashboard.
func (s *SiteService) AdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error

	if stats.Businesses, err = s.businesses.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PendingBusinesses, err = s.businesses.CountByState(ctx, data.StatePending); err != nil {
		return nil, err
	}
	if stats.News, err = s.site.CountNews(ctx); err != nil {
		return nil, err
	}
	if stats.Announcements, err = s.site.CountAnnouncements(ctx); err != nil {
		return nil, err
	}
	if stats.Events, err = s.site.CountEvents(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// --- Site news ---

// AllNews lists every site news article, newest first.
func (s *SiteService) AllNews(ctx context.Context) ([]*data.SiteNews, error) {
	return s.site.ListNews(ctx, 0)
}

// NewsByID returns one site news article, or ErrNotFound.
func (s *SiteService) NewsByID(ctx context.Context, id int64) (*data.SiteNews, error) {
	n, err := s.site.GetNewsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	return n, nil
}

// CreateNews validates and inserts a site news article dated today.
func (s *SiteService) CreateNews(ctx context.Context, in SiteNewsInput) (*data.SiteNews, error) {
	if fields := requireTitleBody(in.Title, in.Body); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	n := &data.SiteNews{
		Title: strings.TrimSpace(in.Title),
		Body:  s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		Date:  s.now(),
		Image: in.Image,
	}
	id, err := s.site.CreateNews(ctx, n)
	if err != nil {
		return nil, err
	}
	n.ID = id
	return n, nil
}

// DeleteNews removes a site news article.
func (s *SiteService) DeleteNews(ctx context.Context, id int64) error {
	n, err := s.site.GetNewsByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotFound
	}
	return s.site.DeleteNews(ctx, id)
}

// --- Site announcements ---

// ActiveAnnouncements lists the announcements whose window contains today.
func (s *SiteService) ActiveAnnouncements(ctx context.Context) ([]*data.SiteAnnouncement, error) {
	return s.site.ActiveAnnouncements(ctx, s.now(), 0)
}

// AllAnnouncements lists every site announcement, newest first.
func (s *SiteService) AllAnnouncements(ctx context.Context) ([]*data.SiteAnnouncement, error) {
	return s.site.ListAnnouncements(ctx)
}

// CreateAnnouncement validates and inserts a site announcement.
func (s *SiteService) CreateAnnouncement(ctx context.Context, in SiteAnnouncementInput) (*data.SiteAnnouncement, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(in.Message) == "" {
		fields["message"] = "El mensaje es obligatorio."
	}
	if in.StartDate == nil {
		fields["start_date"] = "La fecha de inicio es obligatoria."
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	a := &data.SiteAnnouncement{
		Message:   s.sanitizer.Sanitize(strings.TrimSpace(in.Message)),
		StartDate: *in.StartDate,
		EndDate:   in.EndDate,
		Image:     in.Image,
	}
	id, err := s.site.CreateAnnouncement(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

// DeleteAnnouncement removes a site announcement.
func (s *SiteService) DeleteAnnouncement(ctx context.Context, id int64) error {
	return s.site.DeleteAnnouncement(ctx, id)
}

// --- Site events ---

// AllEvents lists every site event by date descending.
func (s *SiteService) AllEvents(ctx context.Context) ([]*data.SiteEvent, error) {
	return s.site.ListEvents(ctx, 0)
}

// EventByID returns one site event, or ErrNotFound.
func (s *SiteService) EventByID(ctx context.Context, id int64) (*data.SiteEvent, error) {
	e, err := s.site.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// CreateEvent validates and inserts a site event.
func (s *SiteService) CreateEvent(ctx context.Context, in SiteEventInput) (*data.SiteEvent, error) {
	e, err := buildSiteEvent(in)
	if err != nil {
		return nil, err
	}
	id, err := s.site.CreateEvent(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

// UpdateEvent overwrites a site event's fields.
func (s *SiteService) UpdateEvent(ctx context.Context, id int64, in SiteEventInput) (*data.SiteEvent, error) {
	existing, err := s.EventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := buildSiteEvent(in)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	if err := s.site.UpdateEvent(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// buildSiteEvent validates the input and builds the row without
// persisting it. Shared by create and update.
func buildSiteEvent(in SiteEventInput) (*data.SiteEvent, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "El título es obligatorio."
	}
	if strings.TrimSpace(in.Venue) == "" {
		fields["venue"] = "El lugar es obligatorio."
	}
	if in.Date == nil {
		fields["date"] = "La fecha es obligatoria."
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	return &data.SiteEvent{
		Title: strings.TrimSpace(in.Title),
		Venue: strings.TrimSpace(in.Venue),
		Date:  *in.Date,
		Body:  in.Body,
		Image: in.Image,
	}, nil
}

// DeleteEvent removes a site event.
func (s *SiteService) DeleteEvent(ctx context.Context, id int64) error {
	e, err := s.site.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}
	return s.site.DeleteEvent(ctx, id)
}
