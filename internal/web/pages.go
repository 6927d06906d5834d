package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwstudio/portal/internal/assets"
	"github.com/jwstudio/portal/internal/contact"
	httpmiddleware "github.com/jwstudio/portal/internal/http"
	"github.com/jwstudio/portal/internal/login"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/token"
	"github.com/rs/zerolog/hlog"
)

// ServiceOffers are listed on /services and offered in the contact form.
var ServiceOffers = []string{
	"Website design",
	"Web development",
	"E-commerce",
	"Hosting and maintenance",
	"Search engine optimisation",
}

type homeContext struct {
	Testimonials []*models.Testimonial
}

type servicesContext struct {
	Services []string
}

type contactContext struct {
	Form     contact.Submission
	Services []string
	Error    string
	Sent     bool
}

type portalContext struct {
	Token string
	Error string
}

type projectContext struct {
	Project *clientProject
}

type adminContext struct {
	Email    string
	Pattern  string
	Statuses []models.ProjectStatus
}

type errorContext struct {
	Message string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, page assets.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf strings.Builder
	if err := s.pages.Render(&buf, name, page); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("Failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", assets.Page{
		Title:   http.StatusText(status),
		Context: errorContext{Message: message},
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRoute(r.URL.Path) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
		return
	}
	s.renderError(w, r, http.StatusNotFound, "The page you asked for does not exist.")
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	testimonials, err := s.svc.Testimonials.Published(r.Context())
	if err != nil {
		// the home page still renders without quotes
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to load testimonials")
	}

	s.render(w, r, http.StatusOK, "home", assets.Page{
		Title:   "Home",
		Context: homeContext{Testimonials: testimonials},
	})
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about", assets.Page{Title: "About"})
}

func (s *Server) services(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "services", assets.Page{
		Title:   "Services",
		Context: servicesContext{Services: ServiceOffers},
	})
}

func (s *Server) contactForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "contact", assets.Page{
		Title:   "Contact",
		Context: contactContext{Services: ServiceOffers},
	})
}

func (s *Server) contactSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	sub := contact.Submission{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Service: r.PostFormValue("service"),
		Message: r.PostFormValue("message"),
	}

	page := assets.Page{Title: "Contact"}
	ctx := contactContext{Form: sub, Services: ServiceOffers}

	_, err := s.svc.Contacts.Submit(r.Context(), sub, httpmiddleware.ClientIPFromContext(r.Context()))
	switch {
	case errors.Is(err, contact.ErrInvalidContact):
		ctx.Error = strings.TrimPrefix(err.Error(), contact.ErrInvalidContact.Error()+": ")
		page.Context = ctx
		s.render(w, r, http.StatusUnprocessableEntity, "contact", page)
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to submit contact request")
		ctx.Error = "Your message could not be sent, please try again later."
		page.Context = ctx
		s.render(w, r, http.StatusInternalServerError, "contact", page)
		return
	}

	ctx.Sent = true
	page.Context = ctx
	s.render(w, r, http.StatusOK, "contact", page)
}

func (s *Server) portalForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "portal", assets.Page{
		Title:   "Client portal",
		Context: portalContext{},
	})
}

// portalLookup checks the submitted token and redirects to the canonical project URL.
func (s *Server) portalLookup(w http.ResponseWriter, r *http.Request) {
	raw := r.PostFormValue("token")

	project, err := s.svc.Projects.Lookup(r.Context(), raw)
	if err != nil {
		status, message := portalError(err)
		if status == http.StatusInternalServerError {
			hlog.FromRequest(r).Error().Err(err).Msg("Portal lookup failed")
		}
		s.render(w, r, status, "portal", assets.Page{
			Title:   "Client portal",
			Context: portalContext{Token: raw, Error: message},
		})
		return
	}

	http.Redirect(w, r, "/portal/"+url.PathEscape(project.Token), http.StatusSeeOther)
}

func (s *Server) portalProject(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("token")

	// send hand typed links to the canonical form
	if normalized := token.Normalize(raw); normalized != raw && token.Validate(normalized) {
		http.Redirect(w, r, "/portal/"+url.PathEscape(normalized), http.StatusMovedPermanently)
		return
	}

	project, err := s.svc.Projects.Lookup(r.Context(), raw)
	if err != nil {
		status, message := portalError(err)
		if status == http.StatusInternalServerError {
			hlog.FromRequest(r).Error().Err(err).Msg("Portal lookup failed")
		}
		s.renderError(w, r, status, message)
		return
	}

	s.render(w, r, http.StatusOK, "project", assets.Page{
		Title:   project.Name,
		Context: projectContext{Project: newClientProject(project)},
	})
}

func (s *Server) apiPortalProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.svc.Projects.Lookup(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newClientProject(project))
}

func portalError(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrInvalidFormat):
		return http.StatusBadRequest, "Access tokens look like JW-XXXX-XXXX-XXXX. Please check the token and try again."
	case errors.Is(err, store.ErrProjectNotFound):
		return http.StatusNotFound, "No project was found for that access token."
	default:
		return http.StatusInternalServerError, "The portal is unavailable right now, please try again later."
	}
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	var email string
	if session, ok := login.SessionFromContext(r.Context()); ok {
		email = session.Email
	}

	s.render(w, r, http.StatusOK, "admin", assets.Page{
		Title: "Dashboard",
		Entry: AdminEntryPoint,
		Context: adminContext{
			Email:    email,
			Pattern:  token.Pattern,
			Statuses: models.ProjectStatuses,
		},
	})
}
