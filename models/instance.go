package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar provider identifiers.
const (
	CalendarProviderGoogle    = "google"
	CalendarProviderMicrosoft = "microsoft"
)

// GoogleCredentials configures the Google Calendar service-account backend.
// ServiceAccountJSON is stored encrypted and decrypted only inside the
// adapter constructor.
type GoogleCredentials struct {
	ServiceAccountJSON string `bson:"serviceAccountJson" json:"-"`
	CalendarID         string `bson:"calendarId" json:"calendarId"`
}

// MicrosoftCredentials configures the Microsoft Graph app-only backend.
// ClientSecret is stored encrypted.
type MicrosoftCredentials struct {
	ClientID     string `bson:"clientId" json:"clientId"`
	TenantID     string `bson:"tenantId" json:"tenantId"`
	ClientSecret string `bson:"clientSecret" json:"-"`
	Mailbox      string `bson:"mailbox" json:"mailbox"`
}

// SMTPConfig holds mail transport settings. Password is stored encrypted.
type SMTPConfig struct {
	Host      string `bson:"host" json:"host"`
	Port      int    `bson:"port" json:"port"`
	User      string `bson:"user" json:"user"`
	Password  string `bson:"password" json:"-"`
	FromEmail string `bson:"fromEmail" json:"fromEmail"`
}

// Configured reports whether the config is complete enough to send mail.
func (c *SMTPConfig) Configured() bool {
	return c != nil && c.Host != "" && c.User != "" && c.Password != ""
}

// Instance is one tenant's configuration. It is owned by the admin surface
// and read-only to the booking engine.
type Instance struct {
	ID           string `bson:"id" json:"id"`
	BusinessName string `bson:"businessName" json:"businessName"`
	WebhookPath  string `bson:"webhookPath" json:"webhookPath"`

	// Timezone is the IANA name forwarded to calendar providers for display.
	// TimezoneOffset (e.g. "+04:00") is the source of truth for all local
	// time arithmetic; DST transitions follow the stored offset by policy.
	Timezone       string `bson:"timezone" json:"timezone"`
	TimezoneOffset string `bson:"timezoneOffset" json:"timezoneOffset"`

	WorkdayStart     string `bson:"workdayStart" json:"workdayStart"`
	WorkdayEnd       string `bson:"workdayEnd" json:"workdayEnd"`
	SlotDurationMins int    `bson:"slotDurationMins" json:"slotDurationMins"`
	BufferMins       int    `bson:"bufferMins" json:"bufferMins"`
	MinLeadMins      int    `bson:"minLeadMins" json:"minLeadMins"`

	CalendarProvider string                `bson:"calendarProvider" json:"calendarProvider"`
	Google           *GoogleCredentials    `bson:"google,omitempty" json:"google,omitempty"`
	Microsoft        *MicrosoftCredentials `bson:"microsoft,omitempty" json:"microsoft,omitempty"`

	// Per-instance SMTP override; global settings apply when nil.
	SMTP *SMTPConfig `bson:"smtp,omitempty" json:"smtp,omitempty"`

	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the configuration an instance needs before it may serve
// bookings. Workday bound errors surface here, never during slot computation.
func (in *Instance) Validate() error {
	if in.BusinessName == "" {
		return fmt.Errorf("business name is required")
	}
	if in.WebhookPath == "" {
		return fmt.Errorf("webhook path is required")
	}
	if _, err := ParseUTCOffset(in.TimezoneOffset); err != nil {
		return fmt.Errorf("invalid timezone offset %q: %w", in.TimezoneOffset, err)
	}
	start, err := parseClock(in.WorkdayStart)
	if err != nil {
		return fmt.Errorf("invalid workday start %q: %w", in.WorkdayStart, err)
	}
	end, err := parseClock(in.WorkdayEnd)
	if err != nil {
		return fmt.Errorf("invalid workday end %q: %w", in.WorkdayEnd, err)
	}
	if end <= start {
		return fmt.Errorf("workday end %q must be after workday start %q", in.WorkdayEnd, in.WorkdayStart)
	}
	if in.SlotDurationMins <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}
	if time.Duration(in.SlotDurationMins)*time.Minute > end-start {
		return fmt.Errorf("slot duration exceeds the workday window")
	}
	if in.BufferMins < 0 || in.MinLeadMins < 0 {
		return fmt.Errorf("buffer and minimum lead time must not be negative")
	}

	switch in.CalendarProvider {
	case CalendarProviderGoogle:
		if in.Google == nil || in.Google.ServiceAccountJSON == "" || in.Google.CalendarID == "" {
			return fmt.Errorf("google calendar credentials are incomplete")
		}
	case CalendarProviderMicrosoft:
		if in.Microsoft == nil || in.Microsoft.ClientID == "" || in.Microsoft.TenantID == "" ||
			in.Microsoft.ClientSecret == "" || in.Microsoft.Mailbox == "" {
			return fmt.Errorf("microsoft graph credentials are incomplete")
		}
	default:
		return fmt.Errorf("unknown calendar provider %q", in.CalendarProvider)
	}
	return nil
}

// Location returns a fixed-offset location built from TimezoneOffset.
func (in *Instance) Location() (*time.Location, error) {
	return ParseUTCOffset(in.TimezoneOffset)
}

// SlotDuration returns the slot grid step.
func (in *Instance) SlotDuration() time.Duration {
	return time.Duration(in.SlotDurationMins) * time.Minute
}

// Buffer returns the padding applied around busy periods.
func (in *Instance) Buffer() time.Duration {
	return time.Duration(in.BufferMins) * time.Minute
}

// MinLead returns how far in the future a slot must start to be bookable.
func (in *Instance) MinLead() time.Duration {
	return time.Duration(in.MinLeadMins) * time.Minute
}

// WorkdayWindow returns the instance-local workday bounds for the day
// containing the given local date.
func (in *Instance) WorkdayWindow(day time.Time) (start, end time.Time, err error) {
	startOfs, err := parseClock(in.WorkdayStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endOfs, err := parseClock(in.WorkdayEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(startOfs), midnight.Add(endOfs), nil
}

// ParseUTCOffset converts an offset such as "+04:00" or "-05:30" into a
// fixed time.Location.
func ParseUTCOffset(offset string) (*time.Location, error) {
	if offset == "" || offset == "Z" {
		return time.UTC, nil
	}
	if len(offset) != 6 || (offset[0] != '+' && offset[0] != '-') || offset[3] != ':' {
		return nil, fmt.Errorf("offset must look like +HH:MM")
	}
	hours, err := strconv.Atoi(offset[1:3])
	if err != nil {
		return nil, fmt.Errorf("bad hours: %w", err)
	}
	mins, err := strconv.Atoi(offset[4:6])
	if err != nil {
		return nil, fmt.Errorf("bad minutes: %w", err)
	}
	if hours > 14 || mins > 59 {
		return nil, fmt.Errorf("offset out of range")
	}
	secs := hours*3600 + mins*60
	if offset[0] == '-' {
		secs = -secs
	}
	return time.FixedZone("UTC"+offset, secs), nil
}

// parseClock converts "HH:MM" into an offset from midnight.
func parseClock(clock string) (time.Duration, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock must look like HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
