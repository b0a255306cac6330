package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/comicshelf/comicshelf/internal/api/http"
	"github.com/comicshelf/comicshelf/internal/api/mail"
	"github.com/comicshelf/comicshelf/internal/api/media"
	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/internal/api/store/drivers/sqlite"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/comicshelf/comicshelf/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	mailer mail.Mailer
	media  media.Store

	// Services
	authService         *service.AuthService
	profileService      *service.ProfileService
	comicService        *service.ComicService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "comicshelf-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.mailer = mailer

	mediaStore, err := media.NewS3Store(context.Background(), media.Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}
	app.media = mediaStore

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("api server starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down api server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("api server stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	accessSigner, err := jwtx.NewSignerHS256([]byte(app.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize access signer: %w", err)
	}
	refreshSigner, err := jwtx.NewSignerHS256([]byte(app.cfg.RefreshSecret()))
	if err != nil {
		return fmt.Errorf("failed to initialize refresh signer: %w", err)
	}

	app.authService = &service.AuthService{
		Store:           app.db,
		Mailer:          app.mailer,
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		Issuer:          app.cfg.Issuer,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
		BaseURL:         app.cfg.BaseURL,
		VerificationTTL: app.cfg.VerificationTTL,
	}

	app.profileService = &service.ProfileService{
		Store: app.db,
		Media: app.media,
	}
	app.comicService = &service.ComicService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewVerifierHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.ProfileService = app.profileService
	router.ComicService = app.comicService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
