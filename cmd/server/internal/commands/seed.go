package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jwstudio/portal/internal/logger"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/testimonial"
	"gopkg.in/yaml.v3"
)

// SeedCmd imports projects and testimonials from a YAML file.
type SeedCmd struct {
	File        string `help:"path to the seed YAML file" required:"" type:"existingfile"`
	Development bool   `help:"seed the LocalStack tables created by server --development" default:"false" env:"PORTAL_DEVELOPMENT"`

	Store StoreFlags `embed:""`
}

type seedFile struct {
	Projects     []seedProject       `yaml:"projects"`
	Testimonials []testimonial.Input `yaml:"testimonials"`
}

type seedProject struct {
	Token        string            `yaml:"token"`
	Name         string            `yaml:"name"`
	ClientName   string            `yaml:"client_name"`
	ClientEmail  string            `yaml:"client_email"`
	Description  string            `yaml:"description"`
	Status       string            `yaml:"status"`
	Progress     int               `yaml:"progress"`
	Milestones   []seedMilestone   `yaml:"milestones"`
	PaymentLinks []seedPaymentLink `yaml:"payment_links"`
}

type seedMilestone struct {
	Title   string     `yaml:"title"`
	Done    bool       `yaml:"done"`
	DueDate *time.Time `yaml:"due_date"`
}

type seedPaymentLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

func (p seedProject) request() project.CreateProjectRequest {
	req := project.CreateProjectRequest{
		Token:       p.Token,
		Name:        p.Name,
		ClientName:  p.ClientName,
		ClientEmail: p.ClientEmail,
		Description: p.Description,
		Status:      models.ProjectStatus(p.Status),
		Progress:    p.Progress,
	}
	for _, m := range p.Milestones {
		req.Milestones = append(req.Milestones, models.Milestone{Title: m.Title, Done: m.Done, DueDate: m.DueDate})
	}
	for _, l := range p.PaymentLinks {
		req.PaymentLinks = append(req.PaymentLinks, models.PaymentLink{Label: l.Label, URL: l.URL})
	}
	return req
}

func loadSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return &seed, nil
}

type seedResult struct {
	Projects     int
	Skipped      int
	Testimonials int
}

// apply creates everything in the seed. Projects whose token is already taken
// are skipped so a seed file can be applied more than once.
func (s *seedFile) apply(ctx context.Context, projects *project.Service, testimonials *testimonial.Service) (*seedResult, error) {
	res := &seedResult{}

	for i, p := range s.Projects {
		created, err := projects.Create(ctx, p.request())
		switch {
		case errors.Is(err, project.ErrTokenAlreadyExists):
			res.Skipped++
			continue
		case err != nil:
			return res, fmt.Errorf("project %d (%s): %w", i+1, p.Name, err)
		}
		res.Projects++
		if p.Token == "" {
			fmt.Printf("%s\t%s\n", created.Token, created.Name)
		}
	}

	for i, t := range s.Testimonials {
		if _, err := testimonials.Create(ctx, t); err != nil {
			return res, fmt.Errorf("testimonial %d (%s): %w", i+1, t.Author, err)
		}
		res.Testimonials++
	}

	return res, nil
}

func (c *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	seed, err := loadSeed(f)
	if err != nil {
		return err
	}

	if c.Development {
		if err := c.Store.setupLocalStack(ctx, false); err != nil {
			return err
		}
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return err
	}
	defer stores.close()

	res, err := seed.apply(ctx, project.NewService(stores.Projects), testimonial.NewService(stores.Testimonials))
	if err != nil {
		return err
	}

	log.Info().
		Int("projects", res.Projects).
		Int("skipped", res.Skipped).
		Int("testimonials", res.Testimonials).
		Msg("Seed applied")

	return nil
}
