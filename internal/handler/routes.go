package handler

import (
	"io/fs"
	"net/http"

	"comuna-portal/internal/logger"
	"comuna-portal/internal/middleware"
	"comuna-portal/internal/session"
	"comuna-portal/internal/view"
	"comuna-portal/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Home      *HomeHandler
	Auth      *AuthHandler
	Directory *DirectoryHandler
	Citizen   *CitizenHandler
	Admin     *AdminHandler
	Seo       *SeoHandler
}

// RouterDeps are the cross-cutting dependencies of the router.
type RouterDeps struct {
	Log        logger.Logger
	View       *view.View
	Session    session.Manager
	Authorizer func(http.Handler) http.Handler
	Businesses middleware.BusinessFinder
	UploadDir  string
	MaxBytes   int64
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestSize(deps.MaxBytes))
	r.Use(deps.Session.LoadAndSave)
	r.Use(deps.Authorizer)

	wrap := middleware.Error(deps.Log, deps.View)
	requireBusiness := middleware.RequireBusiness(deps.Businesses, deps.Session)

	// Static assets from the embedded tree; uploads from disk because
	// they are written at runtime.
	staticRoot, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))
	}
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))

	r.Get("/robots.txt", h.Seo.robotsHandler)
	r.Get("/sitemap.xml", h.Seo.sitemapHandler)

	// Public pages
	r.Method(http.MethodGet, "/", wrap(h.Home.frontPage))
	r.Method(http.MethodGet, "/noticias", wrap(h.Home.listNews))
	r.Method(http.MethodGet, "/noticia/{id}", wrap(h.Home.newsDetail))
	r.Method(http.MethodGet, "/avisos", wrap(h.Home.listAnnouncements))
	r.Method(http.MethodGet, "/eventos", wrap(h.Home.listEvents))

	// Public business directory
	r.Method(http.MethodGet, "/negocios", wrap(h.Directory.listHandler))
	r.Method(http.MethodGet, "/negocios/categoria/{idSlug}", wrap(h.Directory.categoryHandler))
	r.Method(http.MethodGet, "/negocios/{id}", wrap(h.Directory.detailHandler))

	// Authentication
	r.Method(http.MethodGet, "/auth/register", wrap(h.Auth.registerForm))
	r.Method(http.MethodPost, "/auth/register", wrap(h.Auth.handleRegister))
	r.Method(http.MethodGet, "/auth/login", wrap(h.Auth.loginForm))
	r.Method(http.MethodPost, "/auth/login", wrap(h.Auth.handleLogin))
	r.Method(http.MethodPost, "/auth/logout", wrap(h.Auth.handleLogout))

	// Citizen area. Registration and the profile are reachable without a
	// business; the publication managers are not.
	r.Method(http.MethodGet, "/negocios/registrar", wrap(h.Directory.registerForm))
	r.Method(http.MethodPost, "/negocios/registrar", wrap(h.Directory.handleRegister))

	r.Route("/ciudadano", func(r chi.Router) {
		r.Method(http.MethodGet, "/dashboard", wrap(h.Citizen.dashboard))
		r.Method(http.MethodGet, "/perfil", wrap(h.Citizen.profileForm))
		r.Method(http.MethodPost, "/perfil", wrap(h.Citizen.handleProfile))

		r.Group(func(r chi.Router) {
			r.Use(requireBusiness)

			r.Method(http.MethodGet, "/avisos", wrap(h.Citizen.listAnnouncements))
			r.Method(http.MethodPost, "/avisos", wrap(h.Citizen.handleCreateAnnouncement))
			r.Method(http.MethodPost, "/avisos/{id}/eliminar", wrap(h.Citizen.handleDeleteAnnouncement))

			r.Method(http.MethodGet, "/eventos", wrap(h.Citizen.listEvents))
			r.Method(http.MethodPost, "/eventos", wrap(h.Citizen.handleCreateEvent))
			r.Method(http.MethodPost, "/eventos/{id}/eliminar", wrap(h.Citizen.handleDeleteEvent))

			r.Method(http.MethodGet, "/noticias", wrap(h.Citizen.listNews))
			r.Method(http.MethodPost, "/noticias", wrap(h.Citizen.handleCreateNews))
			r.Method(http.MethodPost, "/noticias/{id}/eliminar", wrap(h.Citizen.handleDeleteNews))

			r.Method(http.MethodGet, "/ofertas", wrap(h.Citizen.listOffers))
			r.Method(http.MethodPost, "/ofertas", wrap(h.Citizen.handleCreateOffer))
			r.Method(http.MethodPost, "/ofertas/{id}/eliminar", wrap(h.Citizen.handleDeleteOffer))
		})
	})

	// Administration console
	r.Route("/admin", func(r chi.Router) {
		r.Method(http.MethodGet, "/", wrap(h.Admin.dashboard))

		r.Method(http.MethodGet, "/negocios", wrap(h.Admin.listBusinesses))
		r.Method(http.MethodPost, "/negocios/{id}/aprobar", wrap(h.Admin.handleApprove))
		r.Method(http.MethodPost, "/negocios/{id}/rechazar", wrap(h.Admin.handleReject))
		r.Method(http.MethodPost, "/negocios/{id}/desactivar", wrap(h.Admin.handleDeactivate))
		r.Method(http.MethodPost, "/negocios/{id}/eliminar", wrap(h.Admin.handleRemoveBusiness))

		r.Method(http.MethodGet, "/noticias", wrap(h.Admin.listNews))
		r.Method(http.MethodPost, "/noticias", wrap(h.Admin.handleCreateNews))
		r.Method(http.MethodPost, "/noticias/{id}/eliminar", wrap(h.Admin.handleDeleteNews))

		r.Method(http.MethodGet, "/avisos", wrap(h.Admin.listAnnouncements))
		r.Method(http.MethodPost, "/avisos", wrap(h.Admin.handleCreateAnnouncement))
		r.Method(http.MethodPost, "/avisos/{id}/eliminar", wrap(h.Admin.handleDeleteAnnouncement))

		r.Method(http.MethodGet, "/eventos", wrap(h.Admin.listEvents))
		r.Method(http.MethodPost, "/eventos", wrap(h.Admin.handleCreateEvent))
		r.Method(http.MethodGet, "/eventos/{id}/editar", wrap(h.Admin.editEventForm))
		r.Method(http.MethodPost, "/eventos/{id}/editar", wrap(h.Admin.handleEditEvent))
		r.Method(http.MethodPost, "/eventos/{id}/eliminar", wrap(h.Admin.handleDeleteEvent))
	})

	return r
}
