package middleware

import (
	"context"
	"net/http"

	"comuna-portal/internal/data"
	"comuna-portal/internal/session"
)

const businessContextKey = contextKey("business")

// BusinessFinder looks up the business owned by a user.
type BusinessFinder interface {
	GetByUserID(ctx context.Context, userID int64) (*data.Business, error)
}

// RequireBusiness gates the citizen publishing routes: a citizen without a
// business record is redirected to profile creation before any publishing
// page is shown. The loaded business is stored in the request context so
// handlers don't repeat the lookup.
func RequireBusiness(finder BusinessFinder, sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := GetUserInfo(r.Context())
			if !userInfo.IsAuthenticated() {
				http.Redirect(w, r, "/auth/login", http.StatusFound)
				return
			}

			business, err := finder.GetByUserID(r.Context(), userInfo.ID)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if business == nil {
				sm.Put(r.Context(), "flash", "Debes crear tu perfil de empresa antes de publicar.")
				http.Redirect(w, r, "/ciudadano/perfil", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), businessContextKey, business)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetBusiness retrieves the requester's business from the request context.
// It is only non-nil below the RequireBusiness middleware.
func GetBusiness(ctx context.Context) *data.Business {
	if b, ok := ctx.Value(businessContextKey).(*data.Business); ok {
		return b
	}
	return nil
}
