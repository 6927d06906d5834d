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

var _ store.TestimonialStore = (*TestimonialStore)(nil)

// TestimonialStore implements store.TestimonialStore using PostgreSQL.
type TestimonialStore struct {
	db *DB
}

const testimonialColumns = `id, author, company, quote, rating, published, created_at, updated_at`

func (s *TestimonialStore) Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.pool.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id)

	testimonial, err := scanTestimonial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTestimonialNotFound
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", mapPostgresError(err))
	}

	return testimonial, nil
}

func (s *TestimonialStore) Create(ctx context.Context, t *models.Testimonial) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO testimonials (`+testimonialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Author, t.Company, t.Quote, t.Rating, t.Published, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create testimonial: %w", mapPostgresError(err))
	}

	return nil
}

func (s *TestimonialStore) Update(ctx context.Context, t *models.Testimonial) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `
		UPDATE testimonials SET
			author = $2,
			company = $3,
			quote = $4,
			rating = $5,
			published = $6,
			updated_at = $7
		WHERE id = $1
	`, t.ID, t.Author, t.Company, t.Quote, t.Rating, t.Published, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update testimonial: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTestimonialNotFound
	}

	return nil
}

func (s *TestimonialStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete testimonial: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTestimonialNotFound
	}

	return nil
}

func (s *TestimonialStore) List(ctx context.Context, opts store.ListTestimonialsOptions) ([]*models.Testimonial, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.pool.Query(ctx, `
		SELECT `+testimonialColumns+` FROM testimonials
		WHERE published OR NOT $1
		ORDER BY created_at DESC
	`, opts.PublishedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var testimonials []*models.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan testimonial: %w", err)
		}
		testimonials = append(testimonials, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate testimonials: %w", mapPostgresError(err))
	}

	return testimonials, nil
}

func scanTestimonial(row pgx.Row) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := row.Scan(&t.ID, &t.Author, &t.Company, &t.Quote, &t.Rating, &t.Published, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
