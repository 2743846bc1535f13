package guestRepo

import (
	"context"
	"time"

	"bookline/models"
)

// GuestRepository defines methods for guest ledger access.
type GuestRepository interface {
	// Create inserts a new guest record.
	Create(ctx context.Context, rec *models.GuestRecord) error
	// GetByID retrieves a record scoped to an instance.
	GetByID(ctx context.Context, instanceID, id string) (*models.GuestRecord, error)
	// ListByEmail retrieves records for a guest email, newest first.
	ListByEmail(ctx context.Context, instanceID, email string) ([]models.GuestRecord, error)
	// ListByInstance retrieves records for an instance, optionally filtered by status.
	ListByInstance(ctx context.Context, instanceID, status string) ([]models.GuestRecord, error)
	// UpdateStatus transitions a record's lifecycle state. rescheduledTo links
	// a Rescheduled record to its successor and may be empty.
	UpdateStatus(ctx context.Context, instanceID, id, status, rescheduledTo string) error
	// ListUpcomingActive retrieves Active records across all instances whose
	// booking time falls within [from, to). Used by the reminder sweep.
	ListUpcomingActive(ctx context.Context, from, to time.Time) ([]models.GuestRecord, error)
}
