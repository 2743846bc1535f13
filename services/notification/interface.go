package notification

import (
	"context"

	"bookline/models"
)

// Event is a guest-record lifecycle moment worth an email.
type Event string

const (
	EventBooked      Event = "booked"
	EventCanceled    Event = "canceled"
	EventRescheduled Event = "rescheduled"
	EventReminder    Event = "reminder"
)

// TypeEmailSend is the queue task name for outgoing guest email.
const TypeEmailSend = "email:send"

// EmailTaskPayload is the JSON payload transported via the queue. The worker
// reloads instance and record so the payload stays small and secrets never
// transit the queue.
type EmailTaskPayload struct {
	InstanceID string `json:"instanceId"`
	RecordID   string `json:"recordId"`
	Kind       Event  `json:"kind"`
}

// Dispatcher hands a lifecycle event to the delivery pipeline. Dispatch is
// best-effort from the caller's perspective: failures are reported but must
// never roll back the booking operation that triggered them.
type Dispatcher interface {
	Dispatch(ctx context.Context, inst *models.Instance, rec *models.GuestRecord, kind Event) error
}
