package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactStatus tracks how far the operator has processed a contact request.
type ContactStatus string

const (
	ContactStatusNew      ContactStatus = "new"
	ContactStatusRead     ContactStatus = "read"
	ContactStatusArchived ContactStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusNew, ContactStatusRead, ContactStatusArchived:
		return true
	}
	return false
}

// ContactRequest is a message submitted through the public contact form.
type ContactRequest struct {
	ID        uuid.UUID     `json:"id" dynamodbav:"id"` // UUIDv7
	Name      string        `json:"name" dynamodbav:"name"`
	Email     string        `json:"email" dynamodbav:"email"`
	Phone     string        `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Service   string        `json:"service,omitempty" dynamodbav:"service,omitempty"`
	Message   string        `json:"message" dynamodbav:"message"`
	Status    ContactStatus `json:"status" dynamodbav:"status"`
	IPAddress string        `json:"ip_address,omitempty" dynamodbav:"ip_address,omitempty"`
	CreatedAt time.Time     `json:"created_at" dynamodbav:"created_at"`
}
