package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"comuna-portal/internal/data"
	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/session"
	"comuna-portal/internal/upload"
	"comuna-portal/internal/view"

	"github.com/go-chi/chi/v5"
)

// CitizenHandler serves the authenticated citizen area: the dashboard,
// the business profile and the four publication types.
type CitizenHandler struct {
	businesses *service.BusinessService
	publishing *service.PublishingService
	saver      *upload.Saver
	session    session.Manager
	view       *view.View
}

// NewCitizenHandler creates a new CitizenHandler.
func NewCitizenHandler(businesses *service.BusinessService, publishing *service.PublishingService, saver *upload.Saver, sm session.Manager, v *view.View) *CitizenHandler {
	return &CitizenHandler{businesses: businesses, publishing: publishing, saver: saver, session: sm, view: v}
}

// dashboard shows the citizen home with the business state and
// publication counts, or a call to create the profile.
func (h *CitizenHandler) dashboard(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	if userInfo.Role == data.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return nil
	}

	business, err := h.businesses.ProfileOf(r.Context(), userInfo.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load business", Code: http.StatusInternalServerError}
	}
	if business == nil {
		h.session.Put(r.Context(), "flash", "Crea tu perfil de empresa para comenzar a publicar.")
		http.Redirect(w, r, "/ciudadano/perfil", http.StatusFound)
		return nil
	}

	counts, err := h.publishing.PublicationCounts(r.Context(), business.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to count publications", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_dashboard.html", map[string]interface{}{
		"Business": business,
		"Counts":   counts,
	})
}

// profileForm renders the business profile form, pre-filled when the
// profile exists.
func (h *CitizenHandler) profileForm(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	business, err := h.businesses.ProfileOf(r.Context(), userInfo.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load business", Code: http.StatusInternalServerError}
	}
	categories, err := h.businesses.Categories(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load categories", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_perfil.html", map[string]interface{}{
		"Business":   business,
		"Categories": categories,
	})
}

// handleProfile creates or overwrites the caller's business profile.
func (h *CitizenHandler) handleProfile(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())

	image, err := formImage(r, h.saver, "imagen")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedFormat) {
			h.session.Put(r.Context(), "flash", "Formato de imagen no permitido")
			http.Redirect(w, r, "/ciudadano/perfil", http.StatusFound)
			return nil
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

	if _, err := h.businesses.UpsertProfile(r.Context(), userInfo.ID, in); err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			categories, catErr := h.businesses.Categories(r.Context())
			if catErr != nil {
				return &middleware.AppError{Error: catErr, Message: "Failed to load categories", Code: http.StatusInternalServerError}
			}
			return h.render(w, r, "ciudadano_perfil.html", map[string]interface{}{
				"Categories": categories,
				"Errors":     ve.Fields,
				"Form":       r.Form,
			})
		}
		return &middleware.AppError{Error: err, Message: "Failed to save profile", Code: http.StatusInternalServerError}
	}

	h.session.Put(r.Context(), "flash", "Perfil guardado")
	http.Redirect(w, r, "/ciudadano/dashboard", http.StatusFound)
	return nil
}

// listAnnouncements renders the announcement manager.
func (h *CitizenHandler) listAnnouncements(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	items, err := h.publishing.Announcements(r.Context(), business.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list announcements", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_avisos.html", map[string]interface{}{"Business": business, "Items": items})
}

// handleCreateAnnouncement inserts a new announcement for the caller's
// business.
func (h *CitizenHandler) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	image, appErr := h.formImageOr(w, r, "/ciudadano/avisos")
	if appErr != nil || image.rejected {
		return appErr
	}

	in := service.AnnouncementInput{
		Title: strings.TrimSpace(r.FormValue("titulo")),
		Body:  r.FormValue("contenido"),
		Image: image.url,
	}
	if _, err := h.publishing.CreateAnnouncement(r.Context(), business.ID, in); err != nil {
		return h.publishError(w, r, err, "/ciudadano/avisos")
	}
	h.session.Put(r.Context(), "flash", "Aviso publicado")
	http.Redirect(w, r, "/ciudadano/avisos", http.StatusFound)
	return nil
}

// handleDeleteAnnouncement removes one of the caller's announcements.
func (h *CitizenHandler) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.handleDelete(w, r, h.publishing.DeleteAnnouncement, "/ciudadano/avisos")
}

// listEvents renders the event manager.
func (h *CitizenHandler) listEvents(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	items, err := h.publishing.Events(r.Context(), business.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list events", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_eventos.html", map[string]interface{}{"Business": business, "Items": items})
}

func (h *CitizenHandler) handleCreateEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	image, appErr := h.formImageOr(w, r, "/ciudadano/eventos")
	if appErr != nil || image.rejected {
		return appErr
	}

	in := service.EventInput{
		Title:     strings.TrimSpace(r.FormValue("titulo")),
		Body:      r.FormValue("contenido"),
		StartDate: optDate(r, "fecha_inicio"),
		EndDate:   optDate(r, "fecha_fin"),
		Venue:     optString(r, "lugar"),
		Image:     image.url,
	}
	if _, err := h.publishing.CreateEvent(r.Context(), business.ID, in); err != nil {
		return h.publishError(w, r, err, "/ciudadano/eventos")
	}
	h.session.Put(r.Context(), "flash", "Evento publicado")
	http.Redirect(w, r, "/ciudadano/eventos", http.StatusFound)
	return nil
}

func (h *CitizenHandler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.handleDelete(w, r, h.publishing.DeleteEvent, "/ciudadano/eventos")
}

// listNews renders the news manager.
func (h *CitizenHandler) listNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	items, err := h.publishing.News(r.Context(), business.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list news", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_noticias.html", map[string]interface{}{"Business": business, "Items": items})
}

func (h *CitizenHandler) handleCreateNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	image, appErr := h.formImageOr(w, r, "/ciudadano/noticias")
	if appErr != nil || image.rejected {
		return appErr
	}

	in := service.NewsInput{
		Title: strings.TrimSpace(r.FormValue("titulo")),
		Body:  r.FormValue("contenido"),
		Image: image.url,
	}
	if _, err := h.publishing.CreateNews(r.Context(), business.ID, in); err != nil {
		return h.publishError(w, r, err, "/ciudadano/noticias")
	}
	h.session.Put(r.Context(), "flash", "Noticia publicada")
	http.Redirect(w, r, "/ciudadano/noticias", http.StatusFound)
	return nil
}

func (h *CitizenHandler) handleDeleteNews(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.handleDelete(w, r, h.publishing.DeleteNews, "/ciudadano/noticias")
}

// listOffers renders the offer manager with active/expired state.
func (h *CitizenHandler) listOffers(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	items, err := h.publishing.Offers(r.Context(), business.ID)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to list offers", Code: http.StatusInternalServerError}
	}
	return h.render(w, r, "ciudadano_ofertas.html", map[string]interface{}{
		"Business": business,
		"Items":    items,
		"Today":    time.Now(),
	})
}

func (h *CitizenHandler) handleCreateOffer(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	business := middleware.GetBusiness(r.Context())
	image, appErr := h.formImageOr(w, r, "/ciudadano/ofertas")
	if appErr != nil || image.rejected {
		return appErr
	}

	in := service.OfferInput{
		Title:     strings.TrimSpace(r.FormValue("titulo")),
		Body:      r.FormValue("contenido"),
		StartDate: optDate(r, "fecha_inicio"),
		EndDate:   optDate(r, "fecha_fin"),
		Image:     image.url,
	}
	if _, err := h.publishing.CreateOffer(r.Context(), business.ID, in); err != nil {
		return h.publishError(w, r, err, "/ciudadano/ofertas")
	}
	h.session.Put(r.Context(), "flash", "Oferta publicada")
	http.Redirect(w, r, "/ciudadano/ofertas", http.StatusFound)
	return nil
}

func (h *CitizenHandler) handleDeleteOffer(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.handleDelete(w, r, h.publishing.DeleteOffer, "/ciudadano/ofertas")
}

// imageResult carries the stored image URL, or marks that the request
// was already answered with a redirect because the upload was rejected.
type imageResult struct {
	url      *string
	rejected bool
}

var redirected = imageResult{rejected: true}

// formImageOr saves the submitted image, redirecting back with a flash
// message when the format is not allowed.
func (h *CitizenHandler) formImageOr(w http.ResponseWriter, r *http.Request, backTo string) (imageResult, *middleware.AppError) {
	image, err := formImage(r, h.saver, "imagen")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedFormat) {
			h.session.Put(r.Context(), "flash", "Formato de imagen no permitido")
			http.Redirect(w, r, backTo, http.StatusFound)
			return redirected, nil
		}
		return redirected, &middleware.AppError{Error: err, Message: "Failed to store image", Code: http.StatusInternalServerError}
	}
	return imageResult{url: image}, nil
}

// handleDelete deletes a publication owned by the caller.
func (h *CitizenHandler) handleDelete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id, userID int64) error, backTo string) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Publicación no encontrada", Code: http.StatusNotFound}
	}

	if err := del(r.Context(), id, userInfo.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return &middleware.AppError{Error: err, Message: "Publicación no encontrada", Code: http.StatusNotFound}
		case errors.Is(err, service.ErrForbidden):
			return &middleware.AppError{Error: err, Message: "No puedes eliminar publicaciones de otro negocio", Code: http.StatusForbidden}
		default:
			return &middleware.AppError{Error: err, Message: "Failed to delete publication", Code: http.StatusInternalServerError}
		}
	}

	h.session.Put(r.Context(), "flash", "Publicación eliminada")
	http.Redirect(w, r, backTo, http.StatusFound)
	return nil
}

// publishError maps validation failures back to the manager page.
func (h *CitizenHandler) publishError(w http.ResponseWriter, r *http.Request, err error, backTo string) *middleware.AppError {
	if ve, ok := service.AsValidationError(err); ok {
		h.session.Put(r.Context(), "flash", "Revisa el formulario: "+ve.Error())
		http.Redirect(w, r, backTo, http.StatusFound)
		return nil
	}
	return &middleware.AppError{Error: err, Message: "Failed to save publication", Code: http.StatusInternalServerError}
}

func (h *CitizenHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
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
