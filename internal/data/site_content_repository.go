package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SiteContentRepository handles database operations for the
// administrator-authored, municipality-wide content types.
type SiteContentRepository struct {
	db *sqlx.DB
}

// NewSiteContentRepository creates a new SiteContentRepository.
func NewSiteContentRepository(db *sqlx.DB) *SiteContentRepository {
	return &SiteContentRepository{db: db}
}

// --- Site news ---

// CreateNews inserts a site news article and returns its ID.
func (r *SiteContentRepository) CreateNews(ctx context.Context, n *SiteNews) (int64, error) {
	query := `INSERT INTO site_news (title, body, date, image) VALUES (:title, :body, :date, :image)`
	res, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return 0, fmt.Errorf("failed to create site news: %w", err)
	}
	return lastInsertID(res, "site news")
}

// GetNewsByID retrieves a site news article by ID. Returns nil when absent.
func (r *SiteContentRepository) GetNewsByID(ctx context.Context, id int64) (*SiteNews, error) {
	var n SiteNews
	query := `SELECT id, title, body, date, image FROM site_news WHERE id = ?`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site news by id: %w", err)
	}
	return &n, nil
}

// ListNews retrieves site news by date descending, capped at limit.
// A limit of 0 returns everything.
func (r *SiteContentRepository) ListNews(ctx context.Context, limit int) ([]*SiteNews, error) {
	var items []*SiteNews
	query := `SELECT id, title, body, date, image FROM site_news ORDER BY date DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
			return nil, fmt.Errorf("failed to list site news: %w", err)
		}
		return items, nil
	}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list site news: %w", err)
	}
	return items, nil
}

// DeleteNews removes a site news article by ID.
func (r *SiteContentRepository) DeleteNews(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "site_news", "site news", id)
}

// CountNews returns the total number of site news articles.
func (r *SiteContentRepository) CountNews(ctx context.Context) (int64, error) {
	return r.countRows(ctx, "site_news")
}

// --- Site announcements ---

// CreateAnnouncement inserts a site announcement and returns its ID.
func (r *SiteContentRepository) CreateAnnouncement(ctx context.Context, a *SiteAnnouncement) (int64, error) {
	query := `INSERT INTO site_announcements (message, start_date, end_date, image) VALUES (:message, :start_date, :end_date, :image)`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return 0, fmt.Errorf("failed to create site announcement: %w", err)
	}
	return lastInsertID(res, "site announcement")
}

// ActiveAnnouncements retrieves announcements whose validity window
// contains the given day, most recently started first, capped at limit.
// A limit of 0 returns everything.
func (r *SiteContentRepository) ActiveAnnouncements(ctx context.Context, today time.Time, limit int) ([]*SiteAnnouncement, error) {
	var items []*SiteAnnouncement
	query := `SELECT id, message, start_date, end_date, image FROM site_announcements
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date DESC, id DESC`
	args := []interface{}{today, today}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active site announcements: %w", err)
	}
	return items, nil
}

// ListAnnouncements retrieves all site announcements, newest first.
func (r *SiteContentRepository) ListAnnouncements(ctx context.Context) ([]*SiteAnnouncement, error) {
	var items []*SiteAnnouncement
	query := `SELECT id, message, start_date, end_date, image FROM site_announcements ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list site announcements: %w", err)
	}
	return items, nil
}

// DeleteAnnouncement removes a site announcement by ID.
func (r *SiteContentRepository) DeleteAnnouncement(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "site_announcements", "site announcement", id)
}

// CountAnnouncements returns the total number of site announcements.
func (r *SiteContentRepository) CountAnnouncements(ctx context.Context) (int64, error) {
	return r.countRows(ctx, "site_announcements")
}

// --- Site events ---

// CreateEvent inserts a site event and returns its ID.
func (r *SiteContentRepository) CreateEvent(ctx context.Context, e *SiteEvent) (int64, error) {
	query := `INSERT INTO site_events (title, venue, date, body, image) VALUES (:title, :venue, :date, :body, :image)`
	res, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return 0, fmt.Errorf("failed to create site event: %w", err)
	}
	return lastInsertID(res, "site event")
}

// GetEventByID retrieves a site event by ID. Returns nil when absent.
func (r *SiteContentRepository) GetEventByID(ctx context.Context, id int64) (*SiteEvent, error) {
	var e SiteEvent
	query := `SELECT id, title, venue, date, body, image FROM site_events WHERE id = ?`
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site event by id: %w", err)
	}
	return &e, nil
}

// UpdateEvent overwrites a site event's fields.
func (r *SiteContentRepository) UpdateEvent(ctx context.Context, e *SiteEvent) error {
	query := `UPDATE site_events SET title = :title, venue = :venue, date = :date, body = :body, image = :image WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return fmt.Errorf("failed to update site event: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no site event found to update with id %d", e.ID)
	}
	return nil
}

// ListEvents retrieves site events by date descending, capped at limit.
// A limit of 0 returns everything.
func (r *SiteContentRepository) ListEvents(ctx context.Context, limit int) ([]*SiteEvent, error) {
	var items []*SiteEvent
	query := `SELECT id, title, venue, date, body, image FROM site_events ORDER BY date DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
			return nil, fmt.Errorf("failed to list site events: %w", err)
		}
		return items, nil
	}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list site events: %w", err)
	}
	return items, nil
}

// DeleteEvent removes a site event by ID.
func (r *SiteContentRepository) DeleteEvent(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "site_events", "site event", id)
}

// CountEvents returns the total number of site events.
func (r *SiteContentRepository) CountEvents(ctx context.Context) (int64, error) {
	return r.countRows(ctx, "site_events")
}

func (r *SiteContentRepository) deleteRow(ctx context.Context, table, kind string, id int64) error {
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

func (r *SiteContentRepository) countRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
