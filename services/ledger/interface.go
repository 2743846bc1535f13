package ledger

import (
	"context"
	"time"

	"bookline/models"
)

// BookRequest carries the guest details for a new booking.
type BookRequest struct {
	Start       time.Time
	Name        string
	Email       string
	Title       string
	Description string
}

// LedgerService implements the guest booking lifecycle: book, cancel,
// reschedule, with PIN-based guest authentication and the calendar provider
// as the source of truth for slot occupancy.
type LedgerService interface {
	// Book reserves a free slot: creates the provider event, generates a PIN,
	// and persists an Active record. The returned record includes the PIN for
	// delivery to the guest.
	Book(ctx context.Context, inst *models.Instance, req BookRequest) (*models.GuestRecord, error)
	// Cancel verifies email+PIN, deletes the provider event and marks the
	// record Canceled.
	Cancel(ctx context.Context, inst *models.Instance, email, pin, recordID string) (*models.GuestRecord, error)
	// Reschedule verifies email+PIN, books the new slot, marks the old record
	// Rescheduled with a link to its successor, then tears down the old event.
	Reschedule(ctx context.Context, inst *models.Instance, email, pin, recordID string, newStart time.Time) (*models.GuestRecord, error)
	// FindByEmail returns a guest's records for an instance, newest first.
	FindByEmail(ctx context.Context, inst *models.Instance, email string) ([]models.GuestRecord, error)
}
