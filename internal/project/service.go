// Package project creates and manages client projects and enforces token uniqueness.
package project

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/telemetry"
	"github.com/jwstudio/portal/internal/token"
	"github.com/rs/zerolog/log"
)

// DefaultMaxAttempts bounds auto-generation retries when candidates collide.
const DefaultMaxAttempts = 10

var (
	// ErrTokenAlreadyExists is returned when a manually supplied token is taken.
	ErrTokenAlreadyExists = errors.New("token already exists")

	// ErrTokenAllocationExhausted is returned when no free token was found within the retry bound.
	ErrTokenAllocationExhausted = errors.New("could not allocate a unique token")

	// ErrInvalidProject is returned when project fields fail validation.
	ErrInvalidProject = errors.New("invalid project")
)

// TokenGenerator produces candidate tokens.
type TokenGenerator interface {
	Generate() string
	Secure() bool
}

// Service enforces the token lifecycle on top of a ProjectStore.
type Service struct {
	projects    store.ProjectStore
	generator   TokenGenerator
	maxAttempts int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator replaces the default crypto/rand token generator.
func WithGenerator(g TokenGenerator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithMaxAttempts sets how many candidates auto-generation tries before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a project service.
func NewService(projects store.ProjectStore, opts ...Option) *Service {
	s := &Service{
		projects:    projects,
		generator:   token.NewGenerator(),
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAttempts returns the configured retry bound.
func (s *Service) MaxAttempts() int {
	return s.maxAttempts
}

// SecureTokens reports whether every generated token so far came from the secure source.
func (s *Service) SecureTokens() bool {
	return s.generator.Secure()
}

// CreateProjectRequest holds the fields of a new project.
// An empty Token asks the service to generate one.
type CreateProjectRequest struct {
	Token        string               `json:"token,omitempty"`
	Name         string               `json:"name"`
	ClientName   string               `json:"client_name"`
	ClientEmail  string               `json:"client_email,omitempty"`
	Description  string               `json:"description,omitempty"`
	Status       models.ProjectStatus `json:"status,omitempty"`
	Progress     int                  `json:"progress,omitempty"`
	Milestones   []models.Milestone   `json:"milestones,omitempty"`
	PaymentLinks []models.PaymentLink `json:"payment_links,omitempty"`
}

// Create validates the request, settles the token and stores the project.
// Nothing is written unless the token is valid and free.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	project, err := s.newProject(req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Token) != "" {
		err = s.createWithToken(ctx, project, req.Token)
	} else {
		err = s.createWithGeneratedToken(ctx, project)
	}
	if err != nil {
		return nil, err
	}

	telemetry.GetMetrics().ProjectsCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("token", project.Token).
		Str("client", project.ClientName).
		Msg("project created")

	return project, nil
}

func (s *Service) createWithToken(ctx context.Context, project *models.Project, raw string) error {
	tok, err := token.Parse(raw)
	if err != nil {
		return err
	}

	exists, err := s.projects.Exists(ctx, tok)
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTokenAlreadyExists, tok)
	}

	project.Token = tok
	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, store.ErrProjectAlreadyExists) {
			// lost a race with a concurrent create
			return fmt.Errorf("%w: %s", ErrTokenAlreadyExists, tok)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (s *Service) createWithGeneratedToken(ctx context.Context, project *models.Project) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		candidate, free, err := s.candidate(ctx)
		if err != nil {
			return err
		}
		if !free {
			continue
		}

		project.Token = candidate
		err = s.projects.Create(ctx, project)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrProjectAlreadyExists) {
			return fmt.Errorf("failed to create project: %w", err)
		}

		telemetry.GetMetrics().TokenCollisionsTotal.Add(ctx, 1)
		log.Debug().Int("attempt", attempt).Str("token", candidate).Msg("token taken between check and create")
	}

	project.Token = ""
	telemetry.GetMetrics().TokenAllocationFailuresTotal.Add(ctx, 1)
	log.Error().Int("attempts", s.maxAttempts).Msg("token allocation exhausted")

	return fmt.Errorf("%w after %d attempts", ErrTokenAllocationExhausted, s.maxAttempts)
}

// candidate draws one token and reports whether it is free.
func (s *Service) candidate(ctx context.Context) (string, bool, error) {
	m := telemetry.GetMetrics()

	tok := s.generator.Generate()
	m.TokensGeneratedTotal.Add(ctx, 1)
	if !s.generator.Secure() {
		m.InsecureTokensTotal.Add(ctx, 1)
	}

	exists, err := s.projects.Exists(ctx, tok)
	if err != nil {
		return "", false, fmt.Errorf("failed to check token: %w", err)
	}
	if exists {
		m.TokenCollisionsTotal.Add(ctx, 1)
		log.Debug().Str("token", tok).Msg("generated token collides with existing project")
		return "", false, nil
	}

	return tok, true, nil
}

// SuggestToken returns a currently free token without reserving it.
func (s *Service) SuggestToken(ctx context.Context) (string, error) {
	for range s.maxAttempts {
		tok, free, err := s.candidate(ctx)
		if err != nil {
			return "", err
		}
		if free {
			return tok, nil
		}
	}

	telemetry.GetMetrics().TokenAllocationFailuresTotal.Add(ctx, 1)
	return "", fmt.Errorf("%w after %d attempts", ErrTokenAllocationExhausted, s.maxAttempts)
}

// TokenCheck is the result of checking an operator-entered token.
type TokenCheck struct {
	Normalized string `json:"normalized"`
	Valid      bool   `json:"valid"`
	Exists     bool   `json:"exists"`
	Pattern    string `json:"pattern"`
}

// CheckToken normalizes and validates raw and, when valid, reports whether it is taken.
func (s *Service) CheckToken(ctx context.Context, raw string) (*TokenCheck, error) {
	check := &TokenCheck{
		Normalized: token.Normalize(raw),
		Pattern:    token.Pattern,
	}
	check.Valid = token.Validate(check.Normalized)
	if !check.Valid {
		return check, nil
	}

	exists, err := s.projects.Exists(ctx, check.Normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check token: %w", err)
	}
	check.Exists = exists

	return check, nil
}

// Lookup finds the project a client token refers to.
func (s *Service) Lookup(ctx context.Context, raw string) (*models.Project, error) {
	tok, err := token.Parse(raw)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, tok)
	if err != nil {
		return nil, err
	}

	return project, nil
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Project, error) {
	return s.projects.List(ctx)
}

// UpdateProjectRequest is a partial update; nil fields are left unchanged.
// The token is not part of the request because it never changes.
type UpdateProjectRequest struct {
	Name         *string               `json:"name,omitempty"`
	ClientName   *string               `json:"client_name,omitempty"`
	ClientEmail  *string               `json:"client_email,omitempty"`
	Description  *string               `json:"description,omitempty"`
	Status       *models.ProjectStatus `json:"status,omitempty"`
	Progress     *int                  `json:"progress,omitempty"`
	Milestones   []models.Milestone    `json:"milestones,omitempty"`
	PaymentLinks []models.PaymentLink  `json:"payment_links,omitempty"`
	PostUpdate   string                `json:"post_update,omitempty"`
}

// Update applies req to the project with the given token.
func (s *Service) Update(ctx context.Context, raw string, req UpdateProjectRequest) (*models.Project, error) {
	project, err := s.Lookup(ctx, raw)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClientName != nil {
		project.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.ClientEmail != nil {
		project.ClientEmail = strings.TrimSpace(*req.ClientEmail)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Progress != nil {
		project.Progress = *req.Progress
	}
	if req.Milestones != nil {
		project.Milestones = req.Milestones
	}
	if req.PaymentLinks != nil {
		project.PaymentLinks = req.PaymentLinks
	}

	now := s.now()
	if msg := strings.TrimSpace(req.PostUpdate); msg != "" {
		project.Updates = append([]models.StatusUpdate{{Message: msg, PostedAt: now}}, project.Updates...)
	}

	if err := validateProject(project); err != nil {
		return nil, err
	}

	project.UpdatedAt = now
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// Delete removes the project with the given token.
func (s *Service) Delete(ctx context.Context, raw string) error {
	tok, err := token.Parse(raw)
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, tok); err != nil {
		return err
	}

	log.Info().Str("token", tok).Msg("project deleted")
	return nil
}

func (s *Service) newProject(req CreateProjectRequest) (*models.Project, error) {
	now := s.now()

	status := req.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}

	project := &models.Project{
		Name:         strings.TrimSpace(req.Name),
		ClientName:   strings.TrimSpace(req.ClientName),
		ClientEmail:  strings.TrimSpace(req.ClientEmail),
		Description:  req.Description,
		Status:       status,
		Progress:     req.Progress,
		Milestones:   req.Milestones,
		PaymentLinks: req.PaymentLinks,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validateProject(project); err != nil {
		return nil, err
	}

	return project, nil
}

func validateProject(p *models.Project) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProject)
	case p.ClientName == "":
		return fmt.Errorf("%w: client name is required", ErrInvalidProject)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProject, p.Status)
	case p.Progress < 0 || p.Progress > 100:
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidProject)
	}

	for _, link := range p.PaymentLinks {
		u, err := url.Parse(link.URL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("%w: payment link %q must be an https URL", ErrInvalidProject, link.Label)
		}
	}

	return nil
}
