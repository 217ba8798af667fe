//go:build integration

package data

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupContentTest creates a new in-memory SQLite database with the four
// publication tables and a ContentRepository for testing.
func setupContentTest(t *testing.T) (*ContentRepository, *sqlx.DB, func()) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}

	schema := `
	CREATE TABLE announcements (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE events (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP,
		venue TEXT,
		image TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE news (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		published_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE offers (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	db.MustExec(schema)

	repo := NewContentRepository(db)

	teardown := func() {
		db.Close()
	}

	return repo, db, teardown
}

func TestContentRepository_AnnouncementLifecycle(t *testing.T) {
	repo, _, teardown := setupContentTest(t)
	defer teardown()
	ctx := context.Background()

	id, err := repo.CreateAnnouncement(ctx, &Announcement{BusinessID: 1, Title: "Cerrado por feriado", Body: "Volvemos el lunes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Title != "Cerrado por feriado" {
		t.Fatalf("want stored announcement; got %+v", got)
	}

	if err := repo.DeleteAnnouncement(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("want nil after delete; got %+v", got)
	}

	if err := repo.DeleteAnnouncement(ctx, id); err == nil {
		t.Error("expected error deleting a missing announcement")
	}
}

func TestContentRepository_ListsAreScopedAndNewestFirst(t *testing.T) {
	repo, db, teardown := setupContentTest(t)
	defer teardown()
	ctx := context.Background()

	// Insert with explicit timestamps so the ordering is under test
	// control; id breaks the tie for equal timestamps.
	db.MustExec(`INSERT INTO announcements (business_id, title, body, created_at) VALUES
		(1, 'viejo', 'x', '2026-01-01 10:00:00'),
		(1, 'empate-a', 'x', '2026-02-01 10:00:00'),
		(1, 'empate-b', 'x', '2026-02-01 10:00:00'),
		(2, 'ajeno', 'x', '2026-03-01 10:00:00')`)

	got, err := repo.AnnouncementsByBusiness(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 announcements for business 1; got %d", len(got))
	}
	wantTitles := []string{"empate-b", "empate-a", "viejo"}
	for i, a := range got {
		if a.Title != wantTitles[i] {
			t.Errorf("position %d: want %q; got %q", i, wantTitles[i], a.Title)
		}
	}
}

func TestContentRepository_EventDates(t *testing.T) {
	repo, _, teardown := setupContentTest(t)
	defer teardown()
	ctx := context.Background()

	start := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	id, err := repo.CreateEvent(ctx, &Event{
		BusinessID: 1,
		Title:      "Feria de artesanía",
		Body:       "Plaza central",
		StartDate:  start,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetEventByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.StartDate.Equal(start) {
		t.Errorf("want start date %v; got %v", start, got.StartDate)
	}
	if got.EndDate != nil {
		t.Errorf("want nil end date; got %v", got.EndDate)
	}
}

func TestContentRepository_CountByBusiness(t *testing.T) {
	repo, db, teardown := setupContentTest(t)
	defer teardown()
	ctx := context.Background()

	db.MustExec(`INSERT INTO announcements (business_id, title, body) VALUES (1, 'a', 'x'), (1, 'b', 'x')`)
	db.MustExec(`INSERT INTO offers (business_id, title, body) VALUES (1, 'o', 'x'), (2, 'p', 'x')`)

	counts, err := repo.CountByBusiness(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]int64{"announcements": 2, "events": 0, "news": 0, "offers": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("%s: want %d; got %d", k, v, counts[k])
		}
	}
}
