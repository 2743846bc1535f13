package notification

import (
	"strings"
	"testing"
	"time"

	"bookline/models"
)

func testRecord() *models.GuestRecord {
	return &models.GuestRecord{
		ID:             "rec-1",
		Name:           "Dana Reyes",
		Email:          "dana@example.com",
		PIN:            "123456",
		BookingTime:    time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		TimezoneOffset: "+04:00",
		MeetingTitle:   "Consultation",
		Status:         models.GuestStatusActive,
	}
}

func TestComposeEmailBookedIncludesPIN(t *testing.T) {
	inst := &models.Instance{BusinessName: "Acme Clinic"}

	subject, body := composeEmail(inst, testRecord(), EventBooked)
	if !strings.Contains(subject, "Acme Clinic") {
		t.Errorf("subject %q missing business name", subject)
	}
	if !strings.Contains(body, "123456") {
		t.Error("booked email must carry the PIN")
	}
	// 06:00 UTC rendered in the record's +04:00 context.
	if !strings.Contains(body, "10:00") {
		t.Errorf("body does not show the local booking time:\n%s", body)
	}
}

func TestComposeEmailCanceledOmitsPIN(t *testing.T) {
	inst := &models.Instance{BusinessName: "Acme Clinic"}

	_, body := composeEmail(inst, testRecord(), EventCanceled)
	if strings.Contains(body, "123456") {
		t.Error("canceled email must not carry the PIN")
	}
	if !strings.Contains(body, "canceled") {
		t.Errorf("body does not mention cancellation:\n%s", body)
	}
}

func TestComposeEmailReminderOmitsPIN(t *testing.T) {
	inst := &models.Instance{BusinessName: "Acme Clinic"}

	subject, body := composeEmail(inst, testRecord(), EventReminder)
	if !strings.Contains(subject, "Reminder") {
		t.Errorf("subject %q is not a reminder", subject)
	}
	if strings.Contains(body, "123456") {
		t.Error("reminder email must not carry the PIN")
	}
}

func TestSendGuestEmailRequiresConfig(t *testing.T) {
	inst := &models.Instance{BusinessName: "Acme Clinic"}

	err := SendGuestEmail(&models.SMTPConfig{}, inst, testRecord(), EventBooked)
	if err == nil {
		t.Fatal("expected an error with no SMTP config")
	}
}
