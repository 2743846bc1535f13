package notification

import (
	"fmt"

	"bookline/models"
	"bookline/utils"

	"gopkg.in/gomail.v2"
)

// SendGuestEmail composes and sends the email for one lifecycle event using
// the resolved SMTP config (instance override, else global). The SMTP
// password is decrypted here, at the point of use.
func SendGuestEmail(cfg *models.SMTPConfig, inst *models.Instance, rec *models.GuestRecord, kind Event) error {
	if !cfg.Configured() {
		return fmt.Errorf("smtp is not configured")
	}
	password, err := utils.DecryptString(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to decrypt smtp password: %w", err)
	}

	subject, body := composeEmail(inst, rec, kind)

	from := cfg.FromEmail
	if from == "" {
		from = cfg.User
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", rec.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.Host, port, cfg.User, password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// composeEmail renders the subject and plain-text body for an event. Booking
// times are shown in the timezone context the record was booked under.
func composeEmail(inst *models.Instance, rec *models.GuestRecord, kind Event) (subject, body string) {
	when := rec.BookingTime
	if loc, err := models.ParseUTCOffset(rec.TimezoneOffset); err == nil {
		when = when.In(loc)
	}
	timeStr := when.Format("Monday, 2 January 2006 at 15:04")

	switch kind {
	case EventBooked:
		subject = fmt.Sprintf("Your appointment with %s is confirmed", inst.BusinessName)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour appointment %q on %s is confirmed.\n\n"+
				"Your PIN is %s. Keep it safe: you will need it together with this "+
				"email address to cancel or reschedule.\n\n%s",
			rec.Name, rec.MeetingTitle, timeStr, rec.PIN, inst.BusinessName,
		)
	case EventCanceled:
		subject = fmt.Sprintf("Your appointment with %s was canceled", inst.BusinessName)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour appointment %q on %s has been canceled.\n\n%s",
			rec.Name, rec.MeetingTitle, timeStr, inst.BusinessName,
		)
	case EventRescheduled:
		subject = fmt.Sprintf("Your appointment with %s was rescheduled", inst.BusinessName)
		body = fmt.Sprintf(
			"Hi %s,\n\nYour appointment %q has been moved to %s.\n\n"+
				"A new PIN was issued: %s. Your previous PIN no longer works.\n\n%s",
			rec.Name, rec.MeetingTitle, timeStr, rec.PIN, inst.BusinessName,
		)
	case EventReminder:
		subject = fmt.Sprintf("Reminder: your appointment with %s", inst.BusinessName)
		body = fmt.Sprintf(
			"Hi %s,\n\nThis is a reminder of your appointment %q on %s.\n\n%s",
			rec.Name, rec.MeetingTitle, timeStr, inst.BusinessName,
		)
	default:
		subject = fmt.Sprintf("Update from %s", inst.BusinessName)
		body = fmt.Sprintf("Hi %s,\n\nYour appointment %q on %s was updated.\n\n%s",
			rec.Name, rec.MeetingTitle, timeStr, inst.BusinessName)
	}
	return subject, body
}
