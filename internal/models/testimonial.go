package models

import (
	"time"

	"github.com/google/uuid"
)

// Testimonial is a client quote shown on the marketing site once published.
type Testimonial struct {
	ID        uuid.UUID `json:"id" dynamodbav:"id"` // UUIDv7
	Author    string    `json:"author" dynamodbav:"author"`
	Company   string    `json:"company,omitempty" dynamodbav:"company,omitempty"`
	Quote     string    `json:"quote" dynamodbav:"quote"`
	Rating    int       `json:"rating" dynamodbav:"rating"` // 1-5
	Published bool      `json:"published" dynamodbav:"published"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
