package models

import "time"

// Guest record lifecycle states. Canceled and Rescheduled are terminal.
const (
	GuestStatusActive      = "Active"
	GuestStatusCanceled    = "Canceled"
	GuestStatusRescheduled = "Rescheduled"
)

// GuestRecord is the ledger entry for one booking attempt. The PIN is the
// guest-facing secret used to authenticate cancel/reschedule requests; it is
// delivered to the guest at booking time and never exposed over the admin API.
type GuestRecord struct {
	ID         string `bson:"id" json:"id"`
	InstanceID string `bson:"instanceId" json:"instanceId"`
	Name       string `bson:"name" json:"name"`
	Email      string `bson:"email" json:"email"`
	PIN        string `bson:"pin" json:"-"`

	// BookingTime is the slot start instant; TimezoneOffset preserves the
	// instance-local context it was booked under.
	BookingTime    time.Time `bson:"bookingTime" json:"bookingTime"`
	TimezoneOffset string    `bson:"timezoneOffset" json:"timezoneOffset"`

	MeetingTitle    string `bson:"meetingTitle" json:"meetingTitle"`
	CalendarEventID string `bson:"calendarEventId" json:"calendarEventId"`
	Status          string `bson:"status" json:"status"`

	// RescheduledTo links a Rescheduled record to its superseding record.
	RescheduledTo string `bson:"rescheduledTo,omitempty" json:"rescheduledTo,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
