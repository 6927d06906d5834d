// Package web serves the marketing site, the client portal and the admin API.
package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"filippo.io/csrf"
	"github.com/jwstudio/portal/internal/assets"
	"github.com/jwstudio/portal/internal/contact"
	httpmiddleware "github.com/jwstudio/portal/internal/http"
	"github.com/jwstudio/portal/internal/logger"
	"github.com/jwstudio/portal/internal/media"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/testimonial"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates returns the page templates bundled into the binary.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// AdminEntryPoint is the script bundle loaded by the admin dashboard.
const AdminEntryPoint = "ui/pages/admin.ts"

// Authenticator guards the admin routes and runs the login flow.
type Authenticator interface {
	RequireAdmin(redirectURL string) func(http.Handler) http.Handler
	RequireAdminAPI(next http.Handler) http.Handler
	LoginHandler(w http.ResponseWriter, r *http.Request)
	LogoutHandler(w http.ResponseWriter, r *http.Request)
	CallbackHandler(w http.ResponseWriter, r *http.Request)
}

// Services are the domain services the handlers delegate to.
type Services struct {
	Projects     *project.Service
	Testimonials *testimonial.Service
	Contacts     *contact.Service
	Media        *media.Service

	// Ping checks the backing store for /healthz. Optional.
	Ping func(ctx context.Context) error
}

type Config struct {
	// CORSOrigins are the origins allowed to call /api/ with credentials.
	CORSOrigins []string
	// TrustProxy makes client IP extraction honour X-Forwarded-For.
	TrustProxy bool
	// PublicDir holds the built assets served under /public/. Empty disables it.
	PublicDir string
	// Tracing wraps the handler with otelhttp.
	Tracing bool
}

// Server holds the HTTP handlers.
type Server struct {
	cfg   Config
	svc   Services
	pages *assets.Pipeline
	auth  Authenticator
}

func New(cfg Config, svc Services, pages *assets.Pipeline, auth Authenticator) *Server {
	return &Server{cfg: cfg, svc: svc, pages: pages, auth: auth}
}

// Handler returns the complete middleware wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.cfg.PublicDir != "" {
		mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServer(http.Dir(s.cfg.PublicDir))))
	}

	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("/", s.notFound)

	// Marketing site
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("GET /about", s.about)
	mux.HandleFunc("GET /services", s.services)
	mux.HandleFunc("GET /contact", s.contactForm)
	mux.HandleFunc("POST /contact", s.contactSubmit)

	// Client portal
	mux.HandleFunc("GET /portal", s.portalForm)
	mux.HandleFunc("POST /portal", s.portalLookup)
	mux.HandleFunc("GET /portal/{token}", s.portalProject)
	mux.HandleFunc("GET /api/portal/{token}", s.apiPortalProject)

	// Login
	mux.HandleFunc("GET /login", s.auth.LoginHandler)
	mux.HandleFunc("GET /github/callback", s.auth.CallbackHandler)
	mux.HandleFunc("GET /logout", s.auth.LogoutHandler)

	// Admin dashboard
	mux.Handle("GET /admin", s.auth.RequireAdmin("/")(http.HandlerFunc(s.adminDashboard)))

	// Admin API
	admin := http.NewServeMux()
	admin.HandleFunc("GET /api/admin/projects", s.listProjects)
	admin.HandleFunc("POST /api/admin/projects", s.createProject)
	admin.HandleFunc("GET /api/admin/projects/{token}", s.getProject)
	admin.HandleFunc("PATCH /api/admin/projects/{token}", s.updateProject)
	admin.HandleFunc("DELETE /api/admin/projects/{token}", s.deleteProject)
	admin.HandleFunc("GET /api/admin/tokens", s.suggestToken)
	admin.HandleFunc("GET /api/admin/tokens/check", s.checkToken)
	admin.HandleFunc("GET /api/admin/testimonials", s.listTestimonials)
	admin.HandleFunc("POST /api/admin/testimonials", s.createTestimonial)
	admin.HandleFunc("GET /api/admin/testimonials/{id}", s.getTestimonial)
	admin.HandleFunc("PUT /api/admin/testimonials/{id}", s.updateTestimonial)
	admin.HandleFunc("DELETE /api/admin/testimonials/{id}", s.deleteTestimonial)
	admin.HandleFunc("GET /api/admin/contacts", s.listContacts)
	admin.HandleFunc("GET /api/admin/contacts/{id}", s.getContact)
	admin.HandleFunc("PATCH /api/admin/contacts/{id}", s.updateContact)
	admin.HandleFunc("DELETE /api/admin/contacts/{id}", s.deleteContact)
	admin.HandleFunc("GET /api/admin/media", s.listMedia)
	admin.HandleFunc("POST /api/admin/media", s.uploadMedia)
	admin.HandleFunc("DELETE /api/admin/media/{id}", s.deleteMedia)
	mux.Handle("/api/admin/", s.auth.RequireAdminAPI(admin))

	// CSRF protection for HTML pages (not applied to API routes)
	protection := csrf.New()
	pages := protection.Handler(mux)
	api := withCORS(s.cfg.CORSOrigins, mux)

	// API routes get CORS, HTML routes get CSRF
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			api.ServeHTTP(w, r)
			return
		}
		pages.ServeHTTP(w, r)
	})

	handler = gzhttp.GzipHandler(handler)
	handler = httpmiddleware.ClientIPMiddleware(s.cfg.TrustProxy)(handler)
	handler = logger.HTTPRequests(log.Logger)(handler)

	if s.cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "portal")
	}

	return handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":        "ok",
		"secure_tokens": s.svc.Projects.SecureTokens(),
	}

	if s.svc.Ping != nil {
		if err := s.svc.Ping(r.Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			status["status"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}

	writeJSON(w, http.StatusOK, status)
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Request-Id"},
		AllowCredentials: true, // Required for cookie-based authentication
	})
	return middleware.Handler(h)
}
