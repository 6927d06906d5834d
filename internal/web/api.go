package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/media"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/testimonial"
	"github.com/rs/zerolog/hlog"
)

// clientProject is what a token holder sees. Contact details stay admin only.
type clientProject struct {
	Token        string                `json:"token"`
	Name         string                `json:"name"`
	ClientName   string                `json:"client_name"`
	Description  string                `json:"description,omitempty"`
	Status       models.ProjectStatus  `json:"status"`
	Progress     int                   `json:"progress"`
	Milestones   []models.Milestone    `json:"milestones,omitempty"`
	Updates      []models.StatusUpdate `json:"updates,omitempty"`
	PaymentLinks []models.PaymentLink  `json:"payment_links,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func newClientProject(p *models.Project) *clientProject {
	return &clientProject{
		Token:        p.Token,
		Name:         p.Name,
		ClientName:   p.ClientName,
		Description:  p.Description,
		Status:       p.Status,
		Progress:     p.Progress,
		Milestones:   p.Milestones,
		Updates:      p.Updates,
		PaymentLinks: p.PaymentLinks,
		UpdatedAt:    p.UpdatedAt,
	}
}

// Projects

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req project.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Projects.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/admin/projects/"+created.Token)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.Lookup(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var req project.UpdateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.svc.Projects.Update(r.Context(), r.PathValue("token"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Projects.Delete(r.Context(), r.PathValue("token")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tokens

type suggestResponse struct {
	Token  string `json:"token"`
	Secure bool   `json:"secure"`
}

func (s *Server) suggestToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.svc.Projects.SuggestToken(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{Token: tok, Secure: s.svc.Projects.SecureTokens()})
}

func (s *Server) checkToken(w http.ResponseWriter, r *http.Request) {
	check, err := s.svc.Projects.CheckToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// Testimonials

func (s *Server) listTestimonials(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Testimonials.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) createTestimonial(w http.ResponseWriter, r *http.Request) {
	var in testimonial.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Testimonials.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.Testimonials.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in testimonial.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.Testimonials.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Testimonials.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Contacts

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Contacts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.svc.Contacts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type contactStatusRequest struct {
	Status models.ContactStatus `json:"status"`
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req contactStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Contacts.SetStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.svc.Contacts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Contacts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Media

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListMediaOptions{Path: q.Get("path")}

	var err error
	if opts.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Offset, err = queryInt(q.Get("offset")); err != nil {
		writeError(w, r, err)
		return
	}

	assets, err := s.svc.Media.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	// allow for multipart framing on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.svc.Media.MaxBytes()+maxJSONBody)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", media.ErrInvalidUpload, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", media.ErrInvalidUpload, err))
		return
	}

	asset, err := s.svc.Media.Upload(r.Context(), header.Filename, r.FormValue("folder"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("media_id", asset.ID).Str("checksum", asset.Checksum).Msg("Media uploaded")
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Media.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a UUID", errInvalidRequest)
	}
	return id, nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", errInvalidRequest, v)
	}
	return n, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
