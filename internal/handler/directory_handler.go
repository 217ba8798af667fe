package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/session"
	"comuna-portal/internal/upload"
	"comuna-portal/internal/util"
	"comuna-portal/internal/view"

	"github.com/go-chi/chi/v5"
)

// DirectoryHandler holds the dependencies for the public business
// directory handlers.
type DirectoryHandler struct {
	businesses *service.BusinessService
	renderer   *service.BodyRenderer
	saver      *upload.Saver
	session    session.Manager
	view       *view.View
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(businesses *service.BusinessService, renderer *service.BodyRenderer, saver *upload.Saver, sm session.Manager, v *view.View) *DirectoryHandler {
	return &DirectoryHandler{businesses: businesses, renderer: renderer, saver: saver, session: sm, view: v}
}

// listHandler serves the directory listing. With a text query or category
// filter it returns a paginated result list; without any filter it returns
// the per-category digest of the most recent approved businesses.
func (h *DirectoryHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	categoryID := optInt64(r.URL.Query().Get("categoria"))
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 9)

	categories, err := h.businesses.Categories(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load categories", Code: http.StatusInternalServerError}
	}

	data := map[string]interface{}{
		"Categories": categories,
		"Query":      q,
		"CategoryID": categoryID,
	}

	if q != "" || categoryID != nil {
		result, err := h.businesses.Search(r.Context(), q, categoryID, page, perPage)
		if err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to search businesses", Code: http.StatusInternalServerError}
		}
		data["Businesses"] = result.Businesses
		data["Page"] = result
	} else {
		digest, err := h.businesses.Digest(r.Context())
		if err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to build directory digest", Code: http.StatusInternalServerError}
		}
		data["Digest"] = digest
	}

	return h.render(w, r, "negocios_lista.html", data)
}

// categoryHandler serves the per-category listing reached through
// /negocios/categoria/{id}-{slug}. A stale slug gets a permanent redirect
// to the canonical URL.
func (h *DirectoryHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	idSlug := chi.URLParam(r, "idSlug")
	id, slug := splitIDSlug(idSlug)
	if id == 0 {
		return &middleware.AppError{Error: errors.New("malformed category url"), Message: "Categoría no encontrada", Code: http.StatusNotFound}
	}

	category, err := h.businesses.Category(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Categoría no encontrada", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to load category", Code: http.StatusInternalServerError}
	}

	if expected := util.Slugify(category.Name); slug != expected {
		http.Redirect(w, r, fmt.Sprintf("/negocios/categoria/%d-%s", category.ID, expected), http.StatusMovedPermanently)
		return nil
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 12)
	result, err := h.businesses.Search(r.Context(), "", &category.ID, page, perPage)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list businesses", Code: http.StatusInternalServerError}
	}

	categories, err := h.businesses.Categories(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load categories", Code: http.StatusInternalServerError}
	}

	return h.render(w, r, "negocios_categoria.html", map[string]interface{}{
		"Category":   category,
		"Categories": categories,
		"Businesses": result.Businesses,
		"Page":       result,
	})
}

// detailHandler serves the business detail page with the aggregated
// publication feed.
func (h *DirectoryHandler) detailHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Negocio no encontrado", Code: http.StatusNotFound}
	}

	detail, err := h.businesses.View(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Negocio no encontrado", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to load business", Code: http.StatusInternalServerError}
	}

	type feedEntry struct {
		service.FeedItem
		HTMLBody interface{}
	}
	feed := make([]feedEntry, 0, len(detail.Feed))
	for _, item := range detail.Feed {
		feed = append(feed, feedEntry{FeedItem: item, HTMLBody: h.renderer.Render(item.Body)})
	}

	return h.render(w, r, "negocios_detalle.html", map[string]interface{}{
		"Business": detail.Business,
		"Category": detail.Category,
		"Related":  detail.Related,
		"Feed":     feed,
	})
}

// registerForm renders the business registration form.
func (h *DirectoryHandler) registerForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	if !userInfo.IsAuthenticated() {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return nil
	}
	existing, err := h.businesses.ProfileOf(r.Context(), userInfo.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load business", Code: http.StatusInternalServerError}
	}
	if existing != nil {
		h.session.Put(r.Context(), "flash", "Solo puedes registrar un negocio. Adminístralo desde tu perfil.")
		http.Redirect(w, r, "/ciudadano/dashboard", http.StatusFound)
		return nil
	}

	categories, err := h.businesses.Categories(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load categories", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "negocios_registrar.html", map[string]interface{}{"Categories": categories})
}

// handleRegister processes a business registration submission.
func (h *DirectoryHandler) handleRegister(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	if !userInfo.IsAuthenticated() {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return nil
	}

	image, err := formImage(r, h.saver, "imagen")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedFormat) {
			return h.registerFormWithError(w, r, "Formato de imagen no permitido")
		}
		return &middleware.AppError{Error: err, Message: "Failed to store image", Code: http.StatusInternalServerError}
	}

	in := service.BusinessInput{
		Name:        strings.TrimSpace(r.FormValue("nombre")),
		Description: optString(r, "descripcion"),
		Address:     optString(r, "direccion"),
		Phone:       optString(r, "telefono"),
		Whatsapp:    optString(r, "whatsapp"),
		Email:       optString(r, "email"),
		Website:     optString(r, "sitio_web"),
		Facebook:    optString(r, "facebook"),
		Instagram:   optString(r, "instagram"),
		Tiktok:      optString(r, "tiktok"),
		Hours:       optString(r, "horario"),
		CategoryID:  optInt64(r.FormValue("categoria_id")),
		Image:       image,
	}

	if _, err := h.businesses.Register(r.Context(), userInfo.ID, in); err != nil {
		if errors.Is(err, service.ErrDuplicateBusiness) {
			h.session.Put(r.Context(), "flash", "Solo puedes registrar un negocio. Adminístralo desde tu perfil.")
			http.Redirect(w, r, "/ciudadano/dashboard", http.StatusFound)
			return nil
		}
		if ve, ok := service.AsValidationError(err); ok {
			categories, catErr := h.businesses.Categories(r.Context())
			if catErr != nil {
				return &middleware.AppError{Error: catErr, Message: "Failed to load categories", Code: http.StatusInternalServerError}
			}
			return h.render(w, r, "negocios_registrar.html", map[string]interface{}{
				"Categories": categories,
				"Errors":     ve.Fields,
				"Form":       r.Form,
			})
		}
		return &middleware.AppError{Error: err, Message: "Failed to register business", Code: http.StatusInternalServerError}
	}

	h.session.Put(r.Context(), "flash", "Tu negocio fue registrado y está pendiente de aprobación.")
	http.Redirect(w, r, "/ciudadano/dashboard", http.StatusFound)
	return nil
}

func (h *DirectoryHandler) registerFormWithError(w http.ResponseWriter, r *http.Request, msg string) *middleware.AppError {
	categories, err := h.businesses.Categories(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load categories", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "negocios_registrar.html", map[string]interface{}{
		"Categories": categories,
		"Error":      msg,
		"Form":       r.Form,
	})
}

// splitIDSlug parses the "{id}-{slug}" path segment of category URLs.
func splitIDSlug(s string) (int64, string) {
	idx := strings.Index(s, "-")
	if idx < 0 {
		id, _ := strconv.ParseInt(s, 10, 64)
		return id, ""
	}
	id, err := strconv.ParseInt(s[:idx], 10, 64)
	if err != nil {
		return 0, ""
	}
	return id, s[idx+1:]
}

func (h *DirectoryHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
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
