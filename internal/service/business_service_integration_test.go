//go:build integration

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"comuna-portal/internal/data"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// newTestDB creates an in-memory SQLite database with the full portal
// schema for service-level tests.
func newTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("failed to connect to sqlite test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	schema := `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'ciudadano',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE categories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		icon TEXT
	);
	CREATE TABLE businesses (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		category_id INTEGER,
		name TEXT NOT NULL,
		description TEXT,
		address TEXT,
		phone TEXT,
		whatsapp TEXT,
		email TEXT,
		website TEXT,
		facebook TEXT,
		instagram TEXT,
		tiktok TEXT,
		hours TEXT,
		image TEXT,
		state TEXT NOT NULL DEFAULT 'pendiente',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE TABLE announcements (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
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
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	);
	CREATE TABLE news (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		published_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	);
	CREATE TABLE offers (
		id INTEGER PRIMARY KEY,
		business_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		image TEXT,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	);`
	db.MustExec(schema)

	teardown := func() {
		db.Close()
	}
	return db, teardown
}

func newBusinessService(db *sqlx.DB) *BusinessService {
	return NewBusinessService(
		data.NewBusinessRepository(db),
		data.NewCategoryRepository(db),
		data.NewContentRepository(db),
		nil, // no cache in tests
	)
}

func seedUser(t *testing.T, db *sqlx.DB, id int64) {
	t.Helper()
	db.MustExec(`INSERT INTO users (id, name, email, password_hash) VALUES (?, 'Usuario', ?, 'x')`,
		id, fmt.Sprintf("usuario%d@test.local", id))
}

func seedCategory(t *testing.T, db *sqlx.DB, id int64, name string) {
	t.Helper()
	db.MustExec(`INSERT INTO categories (id, name) VALUES (?, ?)`, id, name)
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestBusinessService_RegisterCreatesPending(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedCategory(t, db, 1, "Alimentos")

	b, err := svc.Register(ctx, 1, BusinessInput{
		Name:       "Verdulería Norte",
		Address:    strPtr("Calle Sur 4"),
		CategoryID: int64Ptr(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.State != data.StatePending {
		t.Errorf("want state %q; got %q", data.StatePending, b.State)
	}
	if b.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestBusinessService_RegisterRequiresDirectoryFields(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)

	_, err := svc.Register(context.Background(), 1, BusinessInput{Name: "Sin dirección"})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("want validation error; got %v", err)
	}
	if _, found := ve.Fields["address"]; !found {
		t.Error("want address error")
	}
	if _, found := ve.Fields["category_id"]; !found {
		t.Error("want category_id error")
	}
}

func TestBusinessService_RegisterSecondBusinessFails(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedCategory(t, db, 1, "Alimentos")

	in := BusinessInput{Name: "Primero", Address: strPtr("x"), CategoryID: int64Ptr(1)}
	if _, err := svc.Register(ctx, 1, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.Name = "Segundo"
	_, err := svc.Register(ctx, 1, in)
	if !errors.Is(err, ErrDuplicateBusiness) {
		t.Errorf("want ErrDuplicateBusiness; got %v", err)
	}
}

func TestBusinessService_UpsertProfilePreservesStateAndImage(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedCategory(t, db, 1, "Alimentos")

	created, err := svc.UpsertProfile(ctx, 1, BusinessInput{
		Name:  "Almacén",
		Image: strPtr("uploads/logo.png"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.State != data.StatePending {
		t.Errorf("want pending on create; got %q", created.State)
	}

	if err := svc.Approve(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A later save without a new image keeps the approval and the logo.
	updated, err := svc.UpsertProfile(ctx, 1, BusinessInput{Name: "Almacén Central"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.State != data.StateApproved {
		t.Errorf("want state preserved as %q; got %q", data.StateApproved, updated.State)
	}
	if updated.Image == nil || *updated.Image != "uploads/logo.png" {
		t.Errorf("want old image preserved; got %v", updated.Image)
	}
	if updated.Name != "Almacén Central" {
		t.Errorf("want name updated; got %q", updated.Name)
	}
}

func TestBusinessService_DigestSkipsEmptyCategoriesAndCapsAtThree(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	ctx := context.Background()
	seedCategory(t, db, 1, "Alimentos")
	seedCategory(t, db, 2, "Servicios")

	for i := int64(1); i <= 4; i++ {
		seedUser(t, db, i)
		db.MustExec(`INSERT INTO businesses (user_id, category_id, name, state) VALUES (?, 1, ?, 'aprobado')`,
			i, "Negocio")
	}

	digest, err := svc.Digest(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(digest) != 1 {
		t.Fatalf("want 1 category with businesses; got %d", len(digest))
	}
	if digest[0].Category.Name != "Alimentos" {
		t.Errorf("want category Alimentos; got %q", digest[0].Category.Name)
	}
	if len(digest[0].Businesses) != 3 {
		t.Errorf("want 3 businesses in digest; got %d", len(digest[0].Businesses))
	}
	if digest[0].Slug != "alimentos" {
		t.Errorf("want slug 'alimentos'; got %q", digest[0].Slug)
	}
}

func TestBusinessService_ViewFeedIsReverseChronological(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	seedUser(t, db, 1)

	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (1, 1, 'Negocio', 'aprobado')`)
	db.MustExec(`INSERT INTO announcements (business_id, title, body, created_at) VALUES
		(1, 'aviso-enero', 'x', '2026-01-10 09:00:00')`)
	db.MustExec(`INSERT INTO events (business_id, title, body, start_date) VALUES
		(1, 'evento-marzo', 'x', '2026-03-05 00:00:00')`)
	db.MustExec(`INSERT INTO news (business_id, title, body, published_at) VALUES
		(1, 'noticia-febrero', 'x', '2026-02-20 09:00:00')`)
	// The offer has no start date; its stored creation timestamp anchors
	// it in the feed.
	db.MustExec(`INSERT INTO offers (business_id, title, body, created_at, end_date) VALUES
		(1, 'oferta-abril', 'x', '2026-04-01 09:00:00', '2026-04-30 00:00:00')`)

	detail, err := svc.View(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"oferta-abril", "evento-marzo", "noticia-febrero", "aviso-enero"}
	if len(detail.Feed) != len(wantOrder) {
		t.Fatalf("want %d feed items; got %d", len(wantOrder), len(detail.Feed))
	}
	for i, item := range detail.Feed {
		if item.Title != wantOrder[i] {
			t.Errorf("position %d: want %q; got %q", i, wantOrder[i], item.Title)
		}
	}

	// The offer window closed before the pinned "today": it stays in the
	// feed but is flagged inactive.
	offer := detail.Feed[0]
	if offer.Kind != FeedOffer {
		t.Fatalf("want offer first; got kind %q", offer.Kind)
	}
	if offer.Active == nil || *offer.Active {
		t.Error("want expired offer flagged inactive")
	}
}

func TestBusinessService_ViewMissingBusiness(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)

	_, err := svc.View(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound; got %v", err)
	}
}

func TestBusinessService_ModerationTransitions(t *testing.T) {
	db, teardown := newTestDB(t)
	defer teardown()
	svc := newBusinessService(db)
	ctx := context.Background()
	seedUser(t, db, 1)
	db.MustExec(`INSERT INTO businesses (id, user_id, name, state) VALUES (1, 1, 'Negocio', 'pendiente')`)

	steps := []struct {
		action func(context.Context, int64) error
		want   string
	}{
		{svc.Approve, data.StateApproved},
		{svc.SetPending, data.StatePending},
		{svc.Reject, data.StateRejected},
	}
	for _, step := range steps {
		if err := step.action(ctx, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := svc.ProfileOf(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.State != step.want {
			t.Errorf("want state %q; got %q", step.want, b.State)
		}
	}

	if err := svc.Approve(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound for missing business; got %v", err)
	}

	if err := svc.Remove(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.ProfileOf(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Errorf("want business removed; got %+v", b)
	}
}
