package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.ContactStore = (*ContactStore)(nil)

// ContactStore implements store.ContactStore using PostgreSQL.
type ContactStore struct {
	db *DB
}

const contactColumns = `id, name, email, phone, service, message, status, ip_address, created_at`

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contact_requests WHERE id = $1`, id)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact request: %w", mapPostgresError(err))
	}

	return contact, nil
}

func (s *ContactStore) Create(ctx context.Context, c *models.ContactRequest) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO contact_requests (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Name, c.Email, c.Phone, c.Service, c.Message, c.Status, c.IPAddress, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact request: %w", mapPostgresError(err))
	}

	return nil
}

func (s *ContactStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `UPDATE contact_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update contact request: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrContactNotFound
	}

	return nil
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `DELETE FROM contact_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact request: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrContactNotFound
	}

	return nil
}

func (s *ContactStore) List(ctx context.Context) ([]*models.ContactRequest, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.pool.Query(ctx, `SELECT `+contactColumns+` FROM contact_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact requests: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var contacts []*models.ContactRequest
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact request: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact requests: %w", mapPostgresError(err))
	}

	return contacts, nil
}

func scanContact(row pgx.Row) (*models.ContactRequest, error) {
	var c models.ContactRequest
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Service, &c.Message, &c.Status, &c.IPAddress, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
