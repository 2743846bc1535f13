package calendar

import (
	"context"
	"time"

	"bookline/models"
)

// callTimeout bounds every provider API call.
const callTimeout = 10 * time.Second

// retryBackoff is the pause before the single retry of a transient failure.
const retryBackoff = 500 * time.Millisecond

// BusyPeriod is an occupied range on the tenant's calendar.
type BusyPeriod struct {
	Start time.Time
	End   time.Time
}

// EventDetails describes the event to create for a booking.
type EventDetails struct {
	Start       time.Time
	Duration    time.Duration
	GuestName   string
	GuestEmail  string
	Title       string
	Description string
	// Timezone is the IANA name forwarded to the provider for display only;
	// all instants are absolute.
	Timezone string
}

// Provider is the uniform capability set over one calendar backend. Both
// variants present identical semantics; callers never branch on which one
// they hold.
type Provider interface {
	// BusyPeriods returns the occupied ranges between from and to.
	BusyPeriods(ctx context.Context, from, to time.Time) ([]BusyPeriod, error)
	// CreateEvent creates an event and returns the provider's event id.
	CreateEvent(ctx context.Context, ev EventDetails) (string, error)
	// UpdateEvent moves an event to a new start, preserving its duration.
	UpdateEvent(ctx context.Context, eventID string, newStart time.Time) error
	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, eventID string) error
}

// Factory builds a Provider for an instance, decrypting credentials at the
// point of use.
type Factory func(ctx context.Context, inst *models.Instance) (Provider, error)
