package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements store.ProjectStore using PostgreSQL.
// The token is the primary key, so Create is an atomic insert-if-absent.
type ProjectStore struct {
	db *DB
}

const projectColumns = `token, name, client_name, client_email, description, status, progress,
	milestones, updates, payment_links, created_at, updated_at`

// Get retrieves a project by token.
func (s *ProjectStore) Get(ctx context.Context, token string) (*models.Project, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE token = $1`, token)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", mapPostgresError(err))
	}

	return project, nil
}

// Exists reports whether the token is taken.
func (s *ProjectStore) Exists(ctx context.Context, token string) (bool, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project: %w", mapPostgresError(err))
	}

	return exists, nil
}

// Create inserts the project, failing with ErrProjectAlreadyExists on a primary key conflict.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		project.Token,
		project.Name,
		project.ClientName,
		project.ClientEmail,
		project.Description,
		project.Status,
		project.Progress,
		jsonList(project.Milestones),
		jsonList(project.Updates),
		jsonList(project.PaymentLinks),
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProjectAlreadyExists
		}
		return fmt.Errorf("failed to create project: %w", mapPostgresError(err))
	}

	log.Debug().Str("token", project.Token).Msg("Created project")

	return nil
}

// Update replaces an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `
		UPDATE projects SET
			name = $2,
			client_name = $3,
			client_email = $4,
			description = $5,
			status = $6,
			progress = $7,
			milestones = $8,
			updates = $9,
			payment_links = $10,
			updated_at = $11
		WHERE token = $1
	`,
		project.Token,
		project.Name,
		project.ClientName,
		project.ClientEmail,
		project.Description,
		project.Status,
		project.Progress,
		jsonList(project.Milestones),
		jsonList(project.Updates),
		jsonList(project.PaymentLinks),
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	return nil
}

// Delete removes a project by token.
func (s *ProjectStore) Delete(ctx context.Context, token string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `DELETE FROM projects WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	return nil
}

// List returns all projects, newest first.
func (s *ProjectStore) List(ctx context.Context) ([]*models.Project, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", mapPostgresError(err))
	}

	return projects, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.Token,
		&p.Name,
		&p.ClientName,
		&p.ClientEmail,
		&p.Description,
		&p.Status,
		&p.Progress,
		&p.Milestones,
		&p.Updates,
		&p.PaymentLinks,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// jsonList keeps nil slices from being encoded as JSON null in NOT NULL jsonb columns.
func jsonList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
