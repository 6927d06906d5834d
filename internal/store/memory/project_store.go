package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements store.ProjectStore using in-memory storage.
// This implementation is for development and testing - data is lost on restart.
type ProjectStore struct {
	mu sync.RWMutex

	projects map[string]*models.Project // token -> Project
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[string]*models.Project),
	}
}

// Get retrieves a project by token.
func (s *ProjectStore) Get(ctx context.Context, token string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, exists := s.projects[token]
	if !exists {
		return nil, store.ErrProjectNotFound
	}

	return project.Clone(), nil
}

// Exists reports whether the token is taken.
func (s *ProjectStore) Exists(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.projects[token]
	return exists, nil
}

// Create stores the project if its token is free. Check and insert happen under one lock.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[project.Token]; exists {
		return store.ErrProjectAlreadyExists
	}

	s.projects[project.Token] = project.Clone()

	return nil
}

// Update replaces an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[project.Token]; !exists {
		return store.ErrProjectNotFound
	}

	s.projects[project.Token] = project.Clone()

	return nil
}

// Delete removes a project by token.
func (s *ProjectStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[token]; !exists {
		return store.ErrProjectNotFound
	}

	delete(s.projects, token)

	return nil
}

// List returns all projects, newest first.
func (s *ProjectStore) List(ctx context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Project, 0, len(s.projects))
	for _, project := range s.projects {
		result = append(result, project.Clone())
	}

	slices.SortFunc(result, func(a, b *models.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}
