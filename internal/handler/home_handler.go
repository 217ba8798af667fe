package handler

import (
	"errors"
	"net/http"
	"strconv"

	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/session"
	"comuna-portal/internal/view"

	"github.com/go-chi/chi/v5"
)

// HomeHandler serves the public front page and the municipality-wide
// content pages.
type HomeHandler struct {
	site     *service.SiteService
	renderer *service.BodyRenderer
	session  session.Manager
	view     *view.View
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(site *service.SiteService, renderer *service.BodyRenderer, sm session.Manager, v *view.View) *HomeHandler {
	return &HomeHandler{site: site, renderer: renderer, session: sm, view: v}
}

// frontPage serves the digest of recent site content and featured
// businesses.
func (h *HomeHandler) frontPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.site.FrontPage(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to build front page", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "index.html", map[string]interface{}{"Page": page})
}

// listNews serves the full site news archive.
func (h *HomeHandler) listNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.AllNews(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list news", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "noticias.html", map[string]interface{}{"Items": items})
}

// newsDetail serves a single news article with its rendered body.
func (h *HomeHandler) newsDetail(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Noticia no encontrada", Code: http.StatusNotFound}
	}
	article, err := h.site.NewsByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Noticia no encontrada", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to load news", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "noticia_detalle.html", map[string]interface{}{
		"Article": article,
		"Body":    h.renderer.Render(article.Body),
	})
}

// listAnnouncements serves the active site announcements.
func (h *HomeHandler) listAnnouncements(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.ActiveAnnouncements(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list announcements", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "avisos.html", map[string]interface{}{"Items": items})
}

// listEvents serves the site event calendar.
func (h *HomeHandler) listEvents(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.AllEvents(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list events", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "eventos.html", map[string]interface{}{"Items": items})
}

func (h *HomeHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
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
