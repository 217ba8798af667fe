package data

import "time"

// Business moderation states.
const (
	StatePending  = "pendiente"
	StateApproved = "aprobado"
	StateRejected = "rechazado"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleCitizen = "ciudadano"
)

// User represents a registered portal user.
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// Category represents a business category.
type Category struct {
	ID   int64   `db:"id"`
	Name string  `db:"name"`
	Icon *string `db:"icon"`
}

// Business is the canonical business record. It is both the public,
// moderated directory entry and the private profile that owns the four
// publishing collections. At most one business exists per user, enforced
// by a unique index on user_id.
type Business struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Address     *string   `db:"address"`
	Phone       *string   `db:"phone"`
	Whatsapp    *string   `db:"whatsapp"`
	Email       *string   `db:"email"`
	Website     *string   `db:"website"`
	Facebook    *string   `db:"facebook"`
	Instagram   *string   `db:"instagram"`
	Tiktok      *string   `db:"tiktok"`
	Hours       *string   `db:"hours"`
	Image       *string   `db:"image"`
	CategoryID  *int64    `db:"category_id"`
	State       string    `db:"state"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	CategoryName string `db:"-"`
}

// Announcement is a short notice published by a business.
type Announcement struct {
	ID         int64     `db:"id"`
	BusinessID int64     `db:"business_id"`
	Title      string    `db:"title"`
	Body       string    `db:"body"`
	Image      *string   `db:"image"`
	CreatedAt  time.Time `db:"created_at"`
}

// Event is a dated happening published by a business.
type Event struct {
	ID         int64      `db:"id"`
	BusinessID int64      `db:"business_id"`
	Title      string     `db:"title"`
	Body       string     `db:"body"`
	StartDate  time.Time  `db:"start_date"`
	EndDate    *time.Time `db:"end_date"`
	Venue      *string    `db:"venue"`
	Image      *string    `db:"image"`
	CreatedAt  time.Time  `db:"created_at"`
}

// News is a news article published by a business.
type News struct {
	ID          int64     `db:"id"`
	BusinessID  int64     `db:"business_id"`
	Title       string    `db:"title"`
	Body        string    `db:"body"`
	Image       *string   `db:"image"`
	PublishedAt time.Time `db:"published_at"`
}

// Offer is a commercial offer published by a business, optionally bounded
// by a validity window.
type Offer struct {
	ID         int64      `db:"id"`
	BusinessID int64      `db:"business_id"`
	Title      string     `db:"title"`
	Body       string     `db:"body"`
	Image      *string    `db:"image"`
	StartDate  *time.Time `db:"start_date"`
	EndDate    *time.Time `db:"end_date"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Active reports whether the offer is valid on the given day. A missing
// bound leaves that side of the window open; boundary dates are inclusive.
// Values are compared by calendar date, so the caller's time zone cannot
// shift the window.
func (o *Offer) Active(today time.Time) bool {
	day := dateOnly(today)
	if o.StartDate != nil && dateOnly(*o.StartDate).After(day) {
		return false
	}
	if o.EndDate != nil && dateOnly(*o.EndDate).Before(day) {
		return false
	}
	return true
}

// dateOnly keeps the calendar date as read in the value's own location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SiteAnnouncement is a municipality-wide notice authored by an admin.
type SiteAnnouncement struct {
	ID        int64      `db:"id"`
	Message   string     `db:"message"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	Image     *string    `db:"image"`
}

// SiteNews is a municipality-wide news article authored by an admin.
type SiteNews struct {
	ID    int64     `db:"id"`
	Title string    `db:"title"`
	Body  string    `db:"body"`
	Date  time.Time `db:"date"`
	Image *string   `db:"image"`
}

// SiteEvent is a municipality-wide event authored by an admin.
type SiteEvent struct {
	ID    int64     `db:"id"`
	Title string    `db:"title"`
	Venue string    `db:"venue"`
	Date  time.Time `db:"date"`
	Body  *string   `db:"body"`
	Image *string   `db:"image"`
}
