package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ContentRepository handles database operations for the four content types
// a business publishes: announcements, events, news and offers.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// --- Announcements ---

// CreateAnnouncement inserts a new announcement and returns its ID.
func (r *ContentRepository) CreateAnnouncement(ctx context.Context, a *Announcement) (int64, error) {
	query := `INSERT INTO announcements (business_id, title, body, image) VALUES (:business_id, :title, :body, :image)`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return 0, fmt.Errorf("failed to create announcement: %w", err)
	}
	return lastInsertID(res, "announcement")
}

// GetAnnouncementByID retrieves an announcement by ID. Returns nil when absent.
func (r *ContentRepository) GetAnnouncementByID(ctx context.Context, id int64) (*Announcement, error) {
	var a Announcement
	query := `SELECT id, business_id, title, body, image, created_at FROM announcements WHERE id = ?`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get announcement by id: %w", err)
	}
	return &a, nil
}

// AnnouncementsByBusiness retrieves a business's announcements, newest first.
func (r *ContentRepository) AnnouncementsByBusiness(ctx context.Context, businessID int64) ([]*Announcement, error) {
	var items []*Announcement
	query := `SELECT id, business_id, title, body, image, created_at FROM announcements WHERE business_id = ? ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &items, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return items, nil
}

// DeleteAnnouncement removes an announcement by ID.
func (r *ContentRepository) DeleteAnnouncement(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "announcements", "announcement", id)
}

// --- Events ---

// CreateEvent inserts a new event and returns its ID.
func (r *ContentRepository) CreateEvent(ctx context.Context, e *Event) (int64, error) {
	query := `INSERT INTO events (business_id, title, body, start_date, end_date, venue, image)
		VALUES (:business_id, :title, :body, :start_date, :end_date, :venue, :image)`
	res, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return 0, fmt.Errorf("failed to create event: %w", err)
	}
	return lastInsertID(res, "event")
}

// GetEventByID retrieves an event by ID. Returns nil when absent.
func (r *ContentRepository) GetEventByID(ctx context.Context, id int64) (*Event, error) {
	var e Event
	query := `SELECT id, business_id, title, body, start_date, end_date, venue, image, created_at FROM events WHERE id = ?`
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}
	return &e, nil
}

// EventsByBusiness retrieves a business's events, newest first.
func (r *ContentRepository) EventsByBusiness(ctx context.Context, businessID int64) ([]*Event, error) {
	var items []*Event
	query := `SELECT id, business_id, title, body, start_date, end_date, venue, image, created_at FROM events WHERE business_id = ? ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &items, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return items, nil
}

// DeleteEvent removes an event by ID.
func (r *ContentRepository) DeleteEvent(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "events", "event", id)
}

// --- News ---

// CreateNews inserts a new news article and returns its ID.
func (r *ContentRepository) CreateNews(ctx context.Context, n *News) (int64, error) {
	query := `INSERT INTO news (business_id, title, body, image) VALUES (:business_id, :title, :body, :image)`
	res, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return 0, fmt.Errorf("failed to create news: %w", err)
	}
	return lastInsertID(res, "news")
}

// GetNewsByID retrieves a news article by ID. Returns nil when absent.
func (r *ContentRepository) GetNewsByID(ctx context.Context, id int64) (*News, error) {
	var n News
	query := `SELECT id, business_id, title, body, image, published_at FROM news WHERE id = ?`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get news by id: %w", err)
	}
	return &n, nil
}

// NewsByBusiness retrieves a business's news, newest first.
func (r *ContentRepository) NewsByBusiness(ctx context.Context, businessID int64) ([]*News, error) {
	var items []*News
	query := `SELECT id, business_id, title, body, image, published_at FROM news WHERE business_id = ? ORDER BY published_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &items, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

// DeleteNews removes a news article by ID.
func (r *ContentRepository) DeleteNews(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "news", "news", id)
}

// --- Offers ---

// CreateOffer inserts a new offer and returns its ID.
func (r *ContentRepository) CreateOffer(ctx context.Context, o *Offer) (int64, error) {
	query := `INSERT INTO offers (business_id, title, body, image, start_date, end_date)
		VALUES (:business_id, :title, :body, :image, :start_date, :end_date)`
	res, err := r.db.NamedExecContext(ctx, query, o)
	if err != nil {
		return 0, fmt.Errorf("failed to create offer: %w", err)
	}
	return lastInsertID(res, "offer")
}

// GetOfferByID retrieves an offer by ID. Returns nil when absent.
func (r *ContentRepository) GetOfferByID(ctx context.Context, id int64) (*Offer, error) {
	var o Offer
	query := `SELECT id, business_id, title, body, image, start_date, end_date, created_at FROM offers WHERE id = ?`
	if err := r.db.GetContext(ctx, &o, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer by id: %w", err)
	}
	return &o, nil
}

// OffersByBusiness retrieves a business's offers, newest first.
func (r *ContentRepository) OffersByBusiness(ctx context.Context, businessID int64) ([]*Offer, error) {
	var items []*Offer
	query := `SELECT id, business_id, title, body, image, start_date, end_date, created_at FROM offers WHERE business_id = ? ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &items, query, businessID); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return items, nil
}

// DeleteOffer removes an offer by ID.
func (r *ContentRepository) DeleteOffer(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "offers", "offer", id)
}

// CountByBusiness returns the number of publications of each type for a
// business, keyed by table name.
func (r *ContentRepository) CountByBusiness(ctx context.Context, businessID int64) (map[string]int64, error) {
	counts := make(map[string]int64, 4)
	for _, table := range []string{"announcements", "events", "news", "offers"} {
		var n int64
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE business_id = ?`, table)
		if err := r.db.GetContext(ctx, &n, query, businessID); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (r *ContentRepository) deleteRow(ctx context.Context, table, kind string, id int64) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no %s found to delete with id %d", kind, id)
	}
	return nil
}

func lastInsertID(res sql.Result, kind string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted %s id: %w", kind, err)
	}
	return id, nil
}
