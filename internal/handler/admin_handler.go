package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/session"
	"comuna-portal/internal/upload"
	"comuna-portal/internal/view"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the administration console: business moderation
// and the municipality-wide site content.
type AdminHandler struct {
	businesses *service.BusinessService
	site       *service.SiteService
	saver      *upload.Saver
	session    session.Manager
	view       *view.View
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(businesses *service.BusinessService, site *service.SiteService, saver *upload.Saver, sm session.Manager, v *view.View) *AdminHandler {
	return &AdminHandler{businesses: businesses, site: site, saver: saver, session: sm, view: v}
}

// dashboard shows the entity counters.
func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	stats, err := h.site.AdminStats(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load admin stats", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_dashboard.html", map[string]interface{}{"Stats": stats})
}

// listBusinesses shows every business regardless of state, with the
// moderation actions.
func (h *AdminHandler) listBusinesses(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	businesses, err := h.businesses.All(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list businesses", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_negocios.html", map[string]interface{}{"Businesses": businesses})
}

func (h *AdminHandler) handleApprove(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.moderate(w, r, h.businesses.Approve, "Negocio aprobado")
}

func (h *AdminHandler) handleReject(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.moderate(w, r, h.businesses.Reject, "Negocio rechazado")
}

func (h *AdminHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.moderate(w, r, h.businesses.SetPending, "Negocio desactivado")
}

func (h *AdminHandler) handleRemoveBusiness(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.moderate(w, r, h.businesses.Remove, "Negocio eliminado")
}

// listNews shows the site news manager.
func (h *AdminHandler) listNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.AllNews(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list site news", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_noticias.html", map[string]interface{}{"Items": items})
}

func (h *AdminHandler) handleCreateNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	image, ok, appErr := h.saveImage(w, r, "/admin/noticias")
	if appErr != nil || !ok {
		return appErr
	}
	in := service.SiteNewsInput{
		Title: strings.TrimSpace(r.FormValue("titulo")),
		Body:  r.FormValue("contenido"),
		Image: image,
	}
	if _, err := h.site.CreateNews(r.Context(), in); err != nil {
		return h.siteContentError(w, r, err, "/admin/noticias")
	}
	h.session.Put(r.Context(), "flash", "Noticia publicada")
	http.Redirect(w, r, "/admin/noticias", http.StatusFound)
	return nil
}

func (h *AdminHandler) handleDeleteNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.deleteSiteContent(w, r, h.site.DeleteNews, "/admin/noticias")
}

// listAnnouncements shows the site announcement manager.
func (h *AdminHandler) listAnnouncements(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.AllAnnouncements(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list site announcements", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_avisos.html", map[string]interface{}{"Items": items})
}

func (h *AdminHandler) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	image, ok, appErr := h.saveImage(w, r, "/admin/avisos")
	if appErr != nil || !ok {
		return appErr
	}
	in := service.SiteAnnouncementInput{
		Message:   strings.TrimSpace(r.FormValue("mensaje")),
		StartDate: optDate(r, "fecha_inicio"),
		EndDate:   optDate(r, "fecha_fin"),
		Image:     image,
	}
	if _, err := h.site.CreateAnnouncement(r.Context(), in); err != nil {
		return h.siteContentError(w, r, err, "/admin/avisos")
	}
	h.session.Put(r.Context(), "flash", "Aviso publicado")
	http.Redirect(w, r, "/admin/avisos", http.StatusFound)
	return nil
}

func (h *AdminHandler) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.deleteSiteContent(w, r, h.site.DeleteAnnouncement, "/admin/avisos")
}

// listEvents shows the site event manager.
func (h *AdminHandler) listEvents(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	items, err := h.site.AllEvents(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list site events", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_eventos.html", map[string]interface{}{"Items": items})
}

func (h *AdminHandler) handleCreateEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	image, ok, appErr := h.saveImage(w, r, "/admin/eventos")
	if appErr != nil || !ok {
		return appErr
	}
	if _, err := h.site.CreateEvent(r.Context(), h.eventInput(r, image)); err != nil {
		return h.siteContentError(w, r, err, "/admin/eventos")
	}
	h.session.Put(r.Context(), "flash", "Evento publicado")
	http.Redirect(w, r, "/admin/eventos", http.StatusFound)
	return nil
}

// editEventForm renders the event edit form pre-filled.
func (h *AdminHandler) editEventForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Evento no encontrado", Code: http.StatusNotFound}
	}
	event, err := h.site.EventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Evento no encontrado", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to load event", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "admin_evento_editar.html", map[string]interface{}{"Event": event})
}

func (h *AdminHandler) handleEditEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Evento no encontrado", Code: http.StatusNotFound}
	}
	image, ok, appErr := h.saveImage(w, r, "/admin/eventos")
	if appErr != nil || !ok {
		return appErr
	}
	if _, err := h.site.UpdateEvent(r.Context(), id, h.eventInput(r, image)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Evento no encontrado", Code: http.StatusNotFound}
		}
		return h.siteContentError(w, r, err, "/admin/eventos")
	}
	h.session.Put(r.Context(), "flash", "Evento actualizado")
	http.Redirect(w, r, "/admin/eventos", http.StatusFound)
	return nil
}

func (h *AdminHandler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.deleteSiteContent(w, r, h.site.DeleteEvent, "/admin/eventos")
}

func (h *AdminHandler) eventInput(r *http.Request, image *string) service.SiteEventInput {
	return service.SiteEventInput{
		Title: strings.TrimSpace(r.FormValue("titulo")),
		Venue: strings.TrimSpace(r.FormValue("lugar")),
		Date:  optDate(r, "fecha"),
		Body:  optString(r, "contenido"),
		Image: image,
	}
}

// moderate applies a state transition to the business named in the URL.
func (h *AdminHandler) moderate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) error, flash string) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Negocio no encontrado", Code: http.StatusNotFound}
	}
	if err := action(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Negocio no encontrado", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to update business", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), "flash", flash)
	http.Redirect(w, r, "/admin/negocios", http.StatusFound)
	return nil
}

// saveImage stores the submitted image. The bool is false when the
// request was already answered with a rejection redirect.
func (h *AdminHandler) saveImage(w http.ResponseWriter, r *http.Request, backTo string) (*string, bool, *middleware.AppError) {
	image, err := formImage(r, h.saver, "imagen")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedFormat) {
			h.session.Put(r.Context(), "flash", "Formato de imagen no permitido")
			http.Redirect(w, r, backTo, http.StatusFound)
			return nil, false, nil
		}
		return nil, false, &middleware.AppError{Error: err, Message: "Failed to store image", Code: http.StatusInternalServerError}
	}
	return image, true, nil
}

func (h *AdminHandler) deleteSiteContent(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id int64) error, backTo string) *middleware.AppError {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Contenido no encontrado", Code: http.StatusNotFound}
	}
	if err := del(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "Contenido no encontrado", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "Failed to delete content", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), "flash", "Contenido eliminado")
	http.Redirect(w, r, backTo, http.StatusFound)
	return nil
}

func (h *AdminHandler) siteContentError(w http.ResponseWriter, r *http.Request, err error, backTo string) *middleware.AppError {
	if ve, ok := service.AsValidationError(err); ok {
		h.session.Put(r.Context(), "flash", "Revisa el formulario: "+ve.Error())
		http.Redirect(w, r, backTo, http.StatusFound)
		return nil
	}
	return &middleware.AppError{Error: err, Message: "Failed to save content", Code: http.StatusInternalServerError}
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
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
