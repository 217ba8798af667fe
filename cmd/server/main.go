package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comuna-portal/internal/auth"
	"comuna-portal/internal/cache"
	"comuna-portal/internal/config"
	"comuna-portal/internal/data"
	"comuna-portal/internal/handler"
	"comuna-portal/internal/logger"
	"comuna-portal/internal/middleware"
	"comuna-portal/internal/service"
	"comuna-portal/internal/upload"
	"comuna-portal/internal/view"
	"comuna-portal/web"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stderr)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == "CHANGE_ME_IN_PRODUCTION_SECRET!!" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure COMUNA_SESSION_SECRETKEY environment variable.")
	}
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Fatal(err, "Failed to create upload directory")
	}

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB.DSN, "migrations"); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Session Management Setup ---
	sessionManager := scs.New()
	sessionManager.Store = mysqlstore.New(db.DB)
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- Authorization Setup ---
	log.Info("Initializing authorization...")
	enforcer, err := auth.NewEnforcer("mysql", cfg.DB.DSN, "auth_model.conf")
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)
	log.Info("Enforcer initialized and policies seeded.")

	// --- View Template Initialization ---
	log.Info("Initializing view templates...")
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}
	log.Info("View templates initialized.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	kvCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer kvCache.Close()
	log.Info("Cache initialized.")

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	userRepository := data.NewUserRepository(db)
	categoryRepository := data.NewCategoryRepository(db)
	businessRepository := data.NewBusinessRepository(db)
	contentRepository := data.NewContentRepository(db)
	siteRepository := data.NewSiteContentRepository(db)

	authService := service.NewAuthService(userRepository)
	businessService := service.NewBusinessService(businessRepository, categoryRepository, contentRepository, kvCache)
	publishingService := service.NewPublishingService(contentRepository, businessRepository)
	siteService := service.NewSiteService(siteRepository, businessRepository, userRepository)

	bodyRenderer := service.NewBodyRenderer()
	saver := upload.NewSaver(cfg.Upload)

	handlers := handler.Handlers{
		Home:      handler.NewHomeHandler(siteService, bodyRenderer, sessionManager, viewService),
		Auth:      handler.NewAuthHandler(authService, sessionManager, viewService),
		Directory: handler.NewDirectoryHandler(businessService, bodyRenderer, saver, sessionManager, viewService),
		Citizen:   handler.NewCitizenHandler(businessService, publishingService, saver, sessionManager, viewService),
		Admin:     handler.NewAdminHandler(businessService, siteService, saver, sessionManager, viewService),
		Seo:       handler.NewSeoHandler(businessService, siteService, cfg.Server.BaseURL),
	}

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(handlers, handler.RouterDeps{
		Log:        log,
		View:       viewService,
		Session:    sessionManager,
		Authorizer: middleware.Authorizer(enforcer, sessionManager),
		Businesses: businessRepository,
		UploadDir:  cfg.Upload.Dir,
		MaxBytes:   cfg.Upload.MaxBytes,
	})

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
