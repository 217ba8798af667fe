//go:build unit

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"comuna-portal/internal/data"
	"comuna-portal/internal/session"
)

type stubFinder struct {
	business *data.Business
	err      error
}

var _ BusinessFinder = (*stubFinder)(nil)

func (s *stubFinder) GetByUserID(ctx context.Context, userID int64) (*data.Business, error) {
	return s.business, s.err
}

type stubSession struct {
	flash string
}

var _ session.Manager = (*stubSession)(nil)

func (s *stubSession) LoadAndSave(next http.Handler) http.Handler { return next }
func (s *stubSession) Put(ctx context.Context, key string, val interface{}) {
	if key == "flash" {
		s.flash, _ = val.(string)
	}
}
func (s *stubSession) GetString(ctx context.Context, key string) string { return "" }
func (s *stubSession) GetInt64(ctx context.Context, key string) int64   { return 0 }
func (s *stubSession) PopString(ctx context.Context, key string) string { return "" }
func (s *stubSession) RenewToken(ctx context.Context) error             { return nil }
func (s *stubSession) Destroy(ctx context.Context) error                { return nil }
func (s *stubSession) Remove(ctx context.Context, key string)           {}

func TestRequireBusiness_AnonymousRedirectsToLogin(t *testing.T) {
	mw := RequireBusiness(&stubFinder{}, &stubSession{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/ciudadano/avisos", nil)
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("want status %d; got %d", http.StatusFound, rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("want redirect to '/auth/login'; got %q", loc)
	}
}

func TestRequireBusiness_NoProfileRedirectsWithFlash(t *testing.T) {
	sm := &stubSession{}
	mw := RequireBusiness(&stubFinder{business: nil}, sm)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/ciudadano/avisos", nil)
	req = req.WithContext(SetUserInfo(req.Context(), &UserInfo{ID: 3, Role: data.RoleCitizen}))
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if loc := rr.Header().Get("Location"); loc != "/ciudadano/perfil" {
		t.Errorf("want redirect to '/ciudadano/perfil'; got %q", loc)
	}
	if sm.flash == "" {
		t.Error("expected a flash message explaining the redirect")
	}
}

func TestRequireBusiness_LoadsBusinessIntoContext(t *testing.T) {
	owned := &data.Business{ID: 7, UserID: 3, Name: "Café del Puerto"}
	mw := RequireBusiness(&stubFinder{business: owned}, &stubSession{})

	var seen *data.Business
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetBusiness(r.Context())
	})

	req := httptest.NewRequest("GET", "/ciudadano/avisos", nil)
	req = req.WithContext(SetUserInfo(req.Context(), &UserInfo{ID: 3, Role: data.RoleCitizen}))
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want status %d; got %d", http.StatusOK, rr.Code)
	}
	if seen == nil || seen.ID != owned.ID {
		t.Errorf("want business %d in context; got %+v", owned.ID, seen)
	}
}

func TestRequireBusiness_LookupFailureIs500(t *testing.T) {
	mw := RequireBusiness(&stubFinder{err: errors.New("db gone")}, &stubSession{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/ciudadano/avisos", nil)
	req = req.WithContext(SetUserInfo(req.Context(), &UserInfo{ID: 3, Role: data.RoleCitizen}))
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("want status %d; got %d", http.StatusInternalServerError, rr.Code)
	}
}
