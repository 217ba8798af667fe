package handler

import (
	"errors"
	"net/http"

	"comuna-portal/internal/data"
	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/session"
	"comuna-portal/internal/view"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	auth    service.AuthServicer
	session session.Manager
	view    *view.View
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth service.AuthServicer, sm session.Manager, v *view.View) *AuthHandler {
	return &AuthHandler{auth: auth, session: sm, view: v}
}

// registerForm renders the registration page.
func (h *AuthHandler) registerForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}
	return h.render(w, r, "register.html", nil)
}

// handleRegister processes a registration submission.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}

	name := r.FormValue("nombre")
	email := r.FormValue("email")
	password := r.FormValue("password")

	_, err := h.auth.Register(r.Context(), name, email, password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			// The account exists; send the user to log in instead.
			h.session.Put(r.Context(), "flash", "Este correo ya está registrado. Inicia sesión.")
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return nil
		}
		if ve, ok := service.AsValidationError(err); ok {
			return h.render(w, r, "register.html", map[string]interface{}{
				"Errors": ve.Fields,
				"Name":   name,
				"Email":  email,
			})
		}
		return &middleware.AppError{Error: err, Message: "Failed to register user", Code: http.StatusInternalServerError}
	}

	h.session.Put(r.Context(), "flash", "Cuenta creada con éxito. Ahora inicia sesión.")
	http.Redirect(w, r, "/auth/login", http.StatusFound)
	return nil
}

// loginForm renders the login page.
func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}
	return h.render(w, r, "login.html", nil)
}

// handleLogin verifies credentials and establishes the session. The
// post-login redirect depends on the user's role.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return h.render(w, r, "login.html", map[string]interface{}{
				"Error": "Credenciales inválidas. Verifica tu correo o contraseña.",
				"Email": email,
			})
		}
		return &middleware.AppError{Error: err, Message: "Failed to log in", Code: http.StatusInternalServerError}
	}

	// Renew the session token on privilege change to prevent fixation.
	if err := h.session.RenewToken(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to renew session", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), session.KeyUserID, user.ID)
	h.session.Put(r.Context(), session.KeyUserRole, user.Role)
	h.session.Put(r.Context(), session.KeyUserName, user.Name)

	http.Redirect(w, r, roleHome(user.Role), http.StatusFound)
	return nil
}

// handleLogout destroys the session.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.session.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to log out", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// roleHome returns the landing page for a role after login.
func roleHome(role string) string {
	switch role {
	case data.RoleAdmin:
		return "/admin"
	case data.RoleCitizen:
		return "/ciudadano/dashboard"
	default:
		return "/"
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["Flash"] = h.session.PopString(r.Context(), "flash")
	data["UserInfo"] = middleware.GetUserInfo(r.Context())
	if err := h.view.Render(w, r, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render page", Code: http.StatusInternalServerError}
	}
	return nil
}
