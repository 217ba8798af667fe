package middleware

import (
	"net/http"

	"comuna-portal/internal/session"

	"github.com/casbin/casbin/v2"
)

// Authorizer creates a new middleware for authorization.
// It resolves the requesting user from the session, stores it in the
// request context for downstream handlers, and checks the user's role
// against the Casbin policy for the request path and method.
func Authorizer(e casbin.IEnforcer, sm session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &UserInfo{
				ID:   sm.GetInt64(r.Context(), session.KeyUserID),
				Name: sm.GetString(r.Context(), session.KeyUserName),
				Role: sm.GetString(r.Context(), session.KeyUserRole),
			}
			if userInfo.Role == "" {
				userInfo.Role = "anonymous"
			}
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			allowed, err := e.Enforce(userInfo.Role, r.URL.Path, r.Method)
			if err != nil {
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				// Anonymous users are sent to the login page instead of a
				// bare 403; authenticated users lacking the role get the
				// hard forbidden response.
				if !userInfo.IsAuthenticated() {
					http.Redirect(w, r, "/auth/login", http.StatusFound)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
