package redis

import (
	"context"
	"errors"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements store.ProjectStore on Redis keyed by token.
type ProjectStore struct {
	records *collection[models.Project]
}

func (s *ProjectStore) Get(ctx context.Context, token string) (*models.Project, error) {
	project, err := s.records.get(ctx, token)
	if errors.Is(err, errMissing) {
		return nil, store.ErrProjectNotFound
	}
	return project, err
}

func (s *ProjectStore) Exists(ctx context.Context, token string) (bool, error) {
	return s.records.exists(ctx, token)
}

// Create relies on SET NX inside a script so only one writer can claim a token.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	err := s.records.create(ctx, project.Token, project.CreatedAt, project)
	if errors.Is(err, errExists) {
		return store.ErrProjectAlreadyExists
	}
	if err != nil {
		return err
	}

	log.Debug().Str("token", project.Token).Msg("project created")
	return nil
}

func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	err := s.records.replace(ctx, project.Token, project)
	if errors.Is(err, errMissing) {
		return store.ErrProjectNotFound
	}
	return err
}

func (s *ProjectStore) Delete(ctx context.Context, token string) error {
	err := s.records.delete(ctx, token)
	if errors.Is(err, errMissing) {
		return store.ErrProjectNotFound
	}
	return err
}

func (s *ProjectStore) List(ctx context.Context) ([]*models.Project, error) {
	return s.records.list(ctx)
}
