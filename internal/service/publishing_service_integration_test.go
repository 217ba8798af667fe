//go:build integration

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"comuna-portal/internal/data"

	_ "github.com/mattn/go-sqlite3"
)

func TestPublishingService_CreateSanitizesBody(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := NewPublishingService(data.NewContentRepository(db), data.NewBusinessRepository(db))
	ctx := context.Background()
	seedUser(t, db, 1)
	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (1, 1, 'Negocio', 'aprobado')`)

	a, err := svc.CreateAnnouncement(ctx, 1, AnnouncementInput{
		Title: "  Promoción  ",
		Body:  `Hola <script>alert(1)</script><b>vecinos</b>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "Promoción" {
		t.Errorf("want trimmed title; got %q", a.Title)
	}
	if got := a.Body; got != "Hola <b>vecinos</b>" {
		t.Errorf("want script stripped; got %q", got)
	}
}

func TestPublishingService_CreateRequiresTitleAndBody(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := NewPublishingService(data.NewContentRepository(db), data.NewBusinessRepository(db))

	_, err := svc.CreateNews(context.Background(), 1, NewsInput{Title: "", Body: "  "})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("want validation error; got %v", err)
	}
	if _, found := ve.Fields["title"]; !found {
		t.Error("want title error")
	}
	if _, found := ve.Fields["body"]; !found {
		t.Error("want body error")
	}
}

func TestPublishingService_EventRequiresStartDate(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := NewPublishingService(data.NewContentRepository(db), data.NewBusinessRepository(db))

	_, err := svc.CreateEvent(context.Background(), 1, EventInput{Title: "Feria", Body: "Plaza"})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("want validation error; got %v", err)
	}
	if _, found := ve.Fields["start_date"]; !found {
		t.Error("want start_date error")
	}
}

func TestPublishingService_DeleteEnforcesOwnership(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := NewPublishingService(data.NewContentRepository(db), data.NewBusinessRepository(db))
	ctx := context.Background()
	seedUser(t, db, 1)
	seedUser(t, db, 2)
	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (1, 1, 'Mío', 'aprobado')`)
	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (2, 2, 'Ajeno', 'aprobado')`)

	a, err := svc.CreateAnnouncement(ctx, 1, AnnouncementInput{Title: "Aviso", Body: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// User 2 does not own business 1.
	if err := svc.DeleteAnnouncement(ctx, a.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("want ErrForbidden; got %v", err)
	}

	// The owner can delete.
	if err := svc.DeleteAnnouncement(ctx, a.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteAnnouncement(ctx, a.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound after delete; got %v", err)
	}
}

func TestPublishingService_OfferWindow(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := NewPublishingService(data.NewContentRepository(db), data.NewBusinessRepository(db))
	ctx := context.Background()
	seedUser(t, db, 1)
	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (1, 1, 'Negocio', 'aprobado')`)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	o, err := svc.CreateOffer(ctx, 1, OfferInput{Title: "2x1", Body: "x", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.StartDate == nil || !o.StartDate.Equal(start) {
		t.Errorf("want start %v; got %v", start, o.StartDate)
	}
}
