package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwstudio/portal/internal/assets"
	"github.com/jwstudio/portal/internal/contact"
	"github.com/jwstudio/portal/internal/logger"
	"github.com/jwstudio/portal/internal/login"
	"github.com/jwstudio/portal/internal/media"
	"github.com/jwstudio/portal/internal/media/imagekit"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/notify"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/store"
	memorystore "github.com/jwstudio/portal/internal/store/memory"
	"github.com/jwstudio/portal/internal/telemetry"
	"github.com/jwstudio/portal/internal/testimonial"
	"github.com/jwstudio/portal/internal/web"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"PORTAL_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"PORTAL_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"PORTAL_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"PORTAL_CORS_ORIGINS"`
	TrustProxy  bool     `help:"use X-Forwarded-For for client IPs (only behind a trusted proxy)" default:"false" env:"PORTAL_TRUST_PROXY"`

	// Token configuration
	TokenMaxAttempts int `help:"generated token candidates tried before giving up" default:"10" env:"PORTAL_TOKEN_MAX_ATTEMPTS"`

	// Admin login configuration
	Login LoginFlags `embed:"" prefix:"github-"`

	// Development and operational modes
	NoAuth           bool `help:"disable admin authentication (development only)" default:"false" env:"PORTAL_NO_AUTH"`
	Development      bool `help:"development mode - auto-setup LocalStack infrastructure" default:"false" env:"PORTAL_DEVELOPMENT"`
	DevelopmentClean bool `help:"clean resources on startup in development mode (deletes all data)" default:"false" env:"PORTAL_DEVELOPMENT_CLEAN"`
	Tracing          bool `help:"enable tracing" default:"false" env:"PORTAL_TRACING"`
	BuildAssets      bool `help:"bundle browser scripts on startup" default:"true" negatable:"" env:"PORTAL_BUILD_ASSETS"`

	Store    StoreFlags    `embed:""`
	ImageKit ImageKitFlags `embed:"" prefix:"imagekit-"`
}

type LoginFlags struct {
	ClientID      string        `help:"GitHub client ID" default:"" env:"PORTAL_GITHUB_CLIENT_ID"`
	ClientSecret  string        `help:"GitHub client secret" default:"" env:"PORTAL_GITHUB_CLIENT_SECRET"`
	CallbackURL   string        `help:"GitHub callback URL" default:"" env:"PORTAL_GITHUB_CALLBACK_URL"`
	SessionSecret string        `help:"secret key for signing session cookies" env:"PORTAL_SESSION_SECRET"`
	SessionTTL    time.Duration `help:"session TTL" default:"12h" env:"PORTAL_SESSION_TTL"`
	AdminEmails   []string      `help:"GitHub verified emails allowed into the admin area" env:"PORTAL_ADMIN_EMAILS"`
}

func (l *LoginFlags) Validate() error {
	if len(l.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (--github-session-secret or PORTAL_SESSION_SECRET)")
	}
	if len(l.AdminEmails) == 0 {
		return errors.New("at least one admin email is required (--github-admin-emails or PORTAL_ADMIN_EMAILS)")
	}
	return nil
}

type ImageKitFlags struct {
	PrivateKey string        `help:"ImageKit private API key, in-memory media store when empty" default:"" env:"PORTAL_IMAGEKIT_PRIVATE_KEY"`
	UploadURL  string        `help:"ImageKit upload endpoint override" default:"" env:"PORTAL_IMAGEKIT_UPLOAD_URL"`
	APIURL     string        `help:"ImageKit API endpoint override" default:"" env:"PORTAL_IMAGEKIT_API_URL"`
	MaxRetries uint          `help:"retries for throttled or failed ImageKit calls" default:"3"`
	Timeout    time.Duration `help:"ImageKit request timeout" default:"30s"`
	MaxUpload  int64         `help:"largest accepted upload in bytes" default:"10485760" env:"PORTAL_MAX_UPLOAD_BYTES"`
	CacheDir   string        `help:"directory for cached ImageKit API responses, in memory when empty" default:"" env:"PORTAL_IMAGEKIT_CACHE_DIR"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "portal-server", Version: globals.Version})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	// Development mode: auto-setup LocalStack infrastructure
	if c.Development {
		log.Info().Msg("Development mode enabled - setting up LocalStack infrastructure")
		if err := c.Store.setupLocalStack(ctx, c.DevelopmentClean); err != nil {
			return err
		}
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	defer stores.close()

	notifier, err := c.notifier(ctx)
	if err != nil {
		return err
	}

	mediaStore, err := c.mediaStore()
	if err != nil {
		return err
	}

	services := web.Services{
		Projects:     project.NewService(stores.Projects, project.WithMaxAttempts(c.TokenMaxAttempts)),
		Testimonials: testimonial.NewService(stores.Testimonials),
		Contacts:     contact.NewService(stores.Contacts, notifier),
		Media:        media.NewService(mediaStore, c.ImageKit.MaxUpload),
		Ping:         stores.ping,
	}

	// Build assets for UI
	assetConfig := assets.DefaultConfig()
	if c.Development {
		assetConfig = assets.DevConfig()
	}
	pipeline, err := assets.NewWithTemplates(assetConfig, web.Templates(), nil)
	if err != nil {
		return fmt.Errorf("failed to load assets pipeline: %w", err)
	}
	if c.BuildAssets {
		if err = pipeline.Build(); err != nil {
			return fmt.Errorf("failed to build js assets: %w", err)
		}
	}

	auth, err := c.authenticator()
	if err != nil {
		return err
	}

	srv := web.New(web.Config{
		CORSOrigins: c.CORSOrigins,
		TrustProxy:  c.TrustProxy,
		PublicDir:   assetConfig.OutputDir,
		Tracing:     c.Tracing,
	}, services, pipeline, auth)

	httpServer := configureHTTPServer(c.Listen, srv.Handler())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", c.Cert != "").Bool("auth", !c.NoAuth).Msg("Starting HTTP server")
		if c.Cert != "" || c.Key != "" {
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (c *ServerCmd) notifier(ctx context.Context) (notify.Notifier, error) {
	if c.Store.AWSStore.ContactQueueURL == "" {
		return notify.LogNotifier{}, nil
	}

	sqsClient, err := c.Store.AWSStore.sqsClient(ctx)
	if err != nil {
		return nil, err
	}
	return notify.NewSQSNotifier(sqsClient, c.Store.AWSStore.ContactQueueURL), nil
}

func (c *ServerCmd) mediaStore() (store.MediaStore, error) {
	if c.ImageKit.PrivateKey == "" {
		return memorystore.NewMediaStore("/media"), nil
	}

	client, err := imagekit.New(imagekit.Config{
		PrivateKey: c.ImageKit.PrivateKey,
		UploadURL:  c.ImageKit.UploadURL,
		APIURL:     c.ImageKit.APIURL,
		MaxRetries: c.ImageKit.MaxRetries,
		Timeout:    c.ImageKit.Timeout,
		CacheDir:   c.ImageKit.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ImageKit client: %w", err)
	}
	return client, nil
}

func (c *ServerCmd) authenticator() (web.Authenticator, error) {
	if c.NoAuth {
		return openAuthenticator{}, nil
	}

	if err := c.Login.Validate(); err != nil {
		return nil, err
	}

	gh, err := login.NewGithub(login.Config{
		ClientID:        c.Login.ClientID,
		ClientSecret:    c.Login.ClientSecret,
		CallbackURL:     c.Login.CallbackURL,
		SessionSecret:   []byte(c.Login.SessionSecret),
		SessionTTL:      c.Login.SessionTTL,
		Admins:          models.AdminAllowList(c.Login.AdminEmails),
		InsecureCookies: c.Cert == "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GitHub OAuth: %w", err)
	}
	return gh, nil
}

// openAuthenticator lets everyone into the admin area. Used with --no-auth.
type openAuthenticator struct{}

func (openAuthenticator) RequireAdmin(string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func (openAuthenticator) RequireAdminAPI(next http.Handler) http.Handler { return next }

func (openAuthenticator) LoginHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (openAuthenticator) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func (openAuthenticator) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusFound)
}
