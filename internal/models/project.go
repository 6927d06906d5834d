package models

import (
	"slices"
	"time"
)

// ProjectStatus is the lifecycle stage shown to the client.
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
)

// ProjectStatuses lists every valid status in display order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusInProgress,
	ProjectStatusReview,
	ProjectStatusCompleted,
	ProjectStatusOnHold,
}

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	return slices.Contains(ProjectStatuses, s)
}

// Project is a client engagement keyed by its access token.
// The token is assigned once at creation and never changes.
type Project struct {
	Token       string        `json:"token" dynamodbav:"token"`
	Name        string        `json:"name" dynamodbav:"name"`
	ClientName  string        `json:"client_name" dynamodbav:"client_name"`
	ClientEmail string        `json:"client_email,omitempty" dynamodbav:"client_email,omitempty"`
	Description string        `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Status      ProjectStatus `json:"status" dynamodbav:"status"`
	Progress    int           `json:"progress" dynamodbav:"progress"` // 0-100

	Milestones   []Milestone    `json:"milestones,omitempty" dynamodbav:"milestones,omitempty"`
	Updates      []StatusUpdate `json:"updates,omitempty" dynamodbav:"updates,omitempty"`
	PaymentLinks []PaymentLink  `json:"payment_links,omitempty" dynamodbav:"payment_links,omitempty"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Milestone is a checkpoint on the project timeline.
type Milestone struct {
	Title   string     `json:"title" dynamodbav:"title"`
	Done    bool       `json:"done" dynamodbav:"done"`
	DueDate *time.Time `json:"due_date,omitempty" dynamodbav:"due_date,omitempty"`
}

// StatusUpdate is a dated note posted to the client.
type StatusUpdate struct {
	Message  string    `json:"message" dynamodbav:"message"`
	PostedAt time.Time `json:"posted_at" dynamodbav:"posted_at"`
}

// PaymentLink deep-links to an external payment provider.
type PaymentLink struct {
	Label string `json:"label" dynamodbav:"label"`
	URL   string `json:"url" dynamodbav:"url"`
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	clone := *p
	clone.Milestones = slices.Clone(p.Milestones)
	clone.Updates = slices.Clone(p.Updates)
	clone.PaymentLinks = slices.Clone(p.PaymentLinks)
	return &clone
}
