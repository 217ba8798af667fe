package service

import (
	"context"
	"strings"
	"time"

	"comuna-portal/internal/data"

	"github.com/microcosm-cc/bluemonday"
)

// AnnouncementInput carries the submitted announcement fields.
type AnnouncementInput struct {
	Title string
	Body  string
	Image *string
}

// EventInput carries the submitted event fields.
type EventInput struct {
	Title     string
	Body      string
	StartDate *time.Time
	EndDate   *time.Time
	Venue     *string
	Image     *string
}

// NewsInput carries the submitted news fields.
type NewsInput struct {
	Title string
	Body  string
	Image *string
}

// OfferInput carries the submitted offer fields.
type OfferInput struct {
	Title     string
	Body      string
	Image     *string
	StartDate *time.Time
	EndDate   *time.Time
}

// PublishingService provides the citizen publishing operations: creating,
// listing and deleting the four content types scoped to the owning
// business. Every write is a single guarded insert or delete.
type PublishingService struct {
	content    *data.ContentRepository
	businesses BusinessRepository
	sanitizer  *bluemonday.Policy
}

// NewPublishingService creates a new PublishingService.
func NewPublishingService(content *data.ContentRepository, businesses BusinessRepository) *PublishingService {
	return &PublishingService{
		content:    content,
		businesses: businesses,
		sanitizer:  bluemonday.UGCPolicy(),
	}
}

// --- Announcements ---

// Announcements lists the business's announcements, newest first.
func (s *PublishingService) Announcements(ctx context.Context, businessID int64) ([]*data.Announcement, error) {
	return s.content.AnnouncementsByBusiness(ctx, businessID)
}

// CreateAnnouncement validates and inserts an announcement for the business.
func (s *PublishingService) CreateAnnouncement(ctx context.Context, businessID int64, in AnnouncementInput) (*data.Announcement, error) {
	if fields := requireTitleBody(in.Title, in.Body); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	a := &data.Announcement{
		BusinessID: businessID,
		Title:      strings.TrimSpace(in.Title),
		Body:       s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		Image:      in.Image,
	}
	id, err := s.content.CreateAnnouncement(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

// DeleteAnnouncement removes an announcement after checking that the
// requesting user owns the parent business.
func (s *PublishingService) DeleteAnnouncement(ctx context.Context, id, userID int64) error {
	a, err := s.content.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if err := s.checkOwnership(ctx, a.BusinessID, userID); err != nil {
		return err
	}
	return s.content.DeleteAnnouncement(ctx, id)
}

// --- Events ---

// Events lists the business's events, newest first.
func (s *PublishingService) Events(ctx context.Context, businessID int64) ([]*data.Event, error) {
	return s.content.EventsByBusiness(ctx, businessID)
}

// CreateEvent validates and inserts an event for the business. Events
// additionally require a start date.
func (s *PublishingService) CreateEvent(ctx context.Context, businessID int64, in EventInput) (*data.Event, error) {
	fields := requireTitleBody(in.Title, in.Body)
	if in.StartDate == nil {
		fields["start_date"] = "La fecha de inicio es obligatoria."
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	e := &data.Event{
		BusinessID: businessID,
		Title:      strings.TrimSpace(in.Title),
		Body:       s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		StartDate:  *in.StartDate,
		EndDate:    in.EndDate,
		Venue:      in.Venue,
		Image:      in.Image,
	}
	id, err := s.content.CreateEvent(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

// DeleteEvent removes an event after the ownership check.
func (s *PublishingService) DeleteEvent(ctx context.Context, id, userID int64) error {
	e, err := s.content.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}
	if err := s.checkOwnership(ctx, e.BusinessID, userID); err != nil {
		return err
	}
	return s.content.DeleteEvent(ctx, id)
}

// --- News ---

// News lists the business's news, newest first.
func (s *PublishingService) News(ctx context.Context, businessID int64) ([]*data.News, error) {
	return s.content.NewsByBusiness(ctx, businessID)
}

// CreateNews validates and inserts a news article for the business.
func (s *PublishingService) CreateNews(ctx context.Context, businessID int64, in NewsInput) (*data.News, error) {
	if fields := requireTitleBody(in.Title, in.Body); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	n := &data.News{
		BusinessID: businessID,
		Title:      strings.TrimSpace(in.Title),
		Body:       s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		Image:      in.Image,
	}
	id, err := s.content.CreateNews(ctx, n)
	if err != nil {
		return nil, err
	}
	n.ID = id
	return n, nil
}

// DeleteNews removes a news article after the ownership check.
func (s *PublishingService) DeleteNews(ctx context.Context, id, userID int64) error {
	n, err := s.content.GetNewsByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotFound
	}
	if err := s.checkOwnership(ctx, n.BusinessID, userID); err != nil {
		return err
	}
	return s.content.DeleteNews(ctx, id)
}

// --- Offers ---

// Offers lists the business's offers, newest first.
func (s *PublishingService) Offers(ctx context.Context, businessID int64) ([]*data.Offer, error) {
	return s.content.OffersByBusiness(ctx, businessID)
}

// CreateOffer validates and inserts an offer for the business.
func (s *PublishingService) CreateOffer(ctx context.Context, businessID int64, in OfferInput) (*data.Offer, error) {
	if fields := requireTitleBody(in.Title, in.Body); len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	o := &data.Offer{
		BusinessID: businessID,
		Title:      strings.TrimSpace(in.Title),
		Body:       s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		Image:      in.Image,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}
	id, err := s.content.CreateOffer(ctx, o)
	if err != nil {
		return nil, err
	}
	o.ID = id
	return o, nil
}

// DeleteOffer removes an offer after the ownership check.
func (s *PublishingService) DeleteOffer(ctx context.Context, id, userID int64) error {
	o, err := s.content.GetOfferByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if err := s.checkOwnership(ctx, o.BusinessID, userID); err != nil {
		return err
	}
	return s.content.DeleteOffer(ctx, id)
}

// PublicationCounts returns per-type publication counts for the dashboard.
func (s *PublishingService) PublicationCounts(ctx context.Context, businessID int64) (map[string]int64, error) {
	return s.content.CountByBusiness(ctx, businessID)
}

// checkOwnership returns ErrForbidden unless the business belongs to the
// given user.
func (s *PublishingService) checkOwnership(ctx context.Context, businessID, userID int64) error {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if b == nil || b.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func requireTitleBody(title, body string) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(title) == "" {
		fields["title"] = "El título es obligatorio."
	}
	if strings.TrimSpace(body) == "" {
		fields["body"] = "La descripción es obligatoria."
	}
	return fields
}
