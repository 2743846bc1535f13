package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookline/models"
	"bookline/services/calendar"
	"bookline/services/ledger"
	"bookline/utils"
)

// dispatchTool executes one model-requested tool call and returns the JSON
// payload for the tool-result turn. Failures never escape as Go errors: they
// are folded into an "error" field so the model can recover in-conversation.
func (s *DefaultAgentService) dispatchTool(ctx context.Context, inst *models.Instance, call models.ToolCall) string {
	switch call.Name {
	case toolCheckAvailability:
		return s.runCheckAvailability(ctx, inst, call.Arguments)
	case toolFindBookings:
		return s.runFindBookings(ctx, inst, call.Arguments)
	case toolBookAppointment:
		return s.runBook(ctx, inst, call.Arguments)
	case toolCancelAppointment:
		return s.runCancel(ctx, inst, call.Arguments)
	case toolRescheduleAppt:
		return s.runReschedule(ctx, inst, call.Arguments)
	default:
		return toolError(fmt.Sprintf("unknown tool %q", call.Name))
	}
}

func (s *DefaultAgentService) runCheckAvailability(ctx context.Context, inst *models.Instance, args string) string {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return toolError("arguments must be a JSON object with a date field")
	}
	slots, err := s.Availability.DaySlots(ctx, inst, req.Date)
	if err != nil {
		return s.operationError("check_availability", err)
	}

	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		times = append(times, slot.Start.Format(time.RFC3339))
	}
	return toolJSON(map[string]any{
		"date":  req.Date,
		"slots": times,
	})
}

func (s *DefaultAgentService) runFindBookings(ctx context.Context, inst *models.Instance, args string) string {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil || req.Email == "" {
		return toolError("arguments must be a JSON object with an email field")
	}
	records, err := s.Ledger.FindByEmail(ctx, inst, req.Email)
	if err != nil {
		return s.operationError("find_bookings", err)
	}

	type booking struct {
		BookingID string `json:"bookingId"`
		Start     string `json:"start"`
		Title     string `json:"title"`
		Status    string `json:"status"`
	}
	out := make([]booking, 0, len(records))
	for _, rec := range records {
		out = append(out, booking{
			BookingID: rec.ID,
			Start:     localTime(rec.BookingTime, rec.TimezoneOffset),
			Title:     rec.MeetingTitle,
			Status:    rec.Status,
		})
	}
	return toolJSON(map[string]any{"bookings": out})
}

func (s *DefaultAgentService) runBook(ctx context.Context, inst *models.Instance, args string) string {
	var req struct {
		Start       string `json:"start"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return toolError("arguments must be a JSON object")
	}
	if req.Name == "" || req.Email == "" || req.Title == "" {
		return toolError("name, email and title are all required")
	}
	start, err := parseStart(req.Start)
	if err != nil {
		return toolError(err.Error())
	}

	rec, err := s.Ledger.Book(ctx, inst, ledger.BookRequest{
		Start:       start,
		Name:        req.Name,
		Email:       req.Email,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return s.operationError("book_appointment", err)
	}
	return toolJSON(map[string]any{
		"bookingId": rec.ID,
		"start":     localTime(rec.BookingTime, rec.TimezoneOffset),
		"pin":       rec.PIN,
		"message":   "Booked. Give the guest their PIN and tell them to keep it safe.",
	})
}

func (s *DefaultAgentService) runCancel(ctx context.Context, inst *models.Instance, args string) string {
	var req struct {
		BookingID string `json:"booking_id"`
		Email     string `json:"email"`
		PIN       string `json:"pin"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return toolError("arguments must be a JSON object")
	}
	if req.BookingID == "" || req.Email == "" || req.PIN == "" {
		return toolError("booking_id, email and pin are all required")
	}

	rec, err := s.Ledger.Cancel(ctx, inst, req.Email, req.PIN, req.BookingID)
	if err != nil {
		return s.operationError("cancel_appointment", err)
	}
	return toolJSON(map[string]any{
		"bookingId": rec.ID,
		"status":    rec.Status,
	})
}

func (s *DefaultAgentService) runReschedule(ctx context.Context, inst *models.Instance, args string) string {
	var req struct {
		BookingID string `json:"booking_id"`
		Email     string `json:"email"`
		PIN       string `json:"pin"`
		NewStart  string `json:"new_start"`
	}
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return toolError("arguments must be a JSON object")
	}
	if req.BookingID == "" || req.Email == "" || req.PIN == "" {
		return toolError("booking_id, email, pin and new_start are all required")
	}
	newStart, err := parseStart(req.NewStart)
	if err != nil {
		return toolError(err.Error())
	}

	rec, err := s.Ledger.Reschedule(ctx, inst, req.Email, req.PIN, req.BookingID, newStart)
	if err != nil {
		return s.operationError("reschedule_appointment", err)
	}
	return toolJSON(map[string]any{
		"bookingId": rec.ID,
		"start":     localTime(rec.BookingTime, rec.TimezoneOffset),
		"pin":       rec.PIN,
		"message":   "Rescheduled. A new PIN was issued; the old one no longer works.",
	})
}

// operationError maps a service failure onto a model-facing payload. Guest
// errors pass their message through; infrastructure failures are logged in
// full and replaced with a generic line the model may relay.
func (s *DefaultAgentService) operationError(op string, err error) string {
	var valErr *ledger.ValidationError
	if errors.As(err, &valErr) {
		return toolError(valErr.Message)
	}
	var authErr *ledger.AuthenticationError
	if errors.As(err, &authErr) {
		return toolError("the email and PIN do not match our records")
	}
	var stateErr *ledger.StateTransitionError
	if errors.As(err, &stateErr) {
		return toolError(fmt.Sprintf("that booking is already %s and cannot be changed", stateErr.From))
	}

	log := utils.GetLogger().Sugar()
	var provErr *calendar.ProviderError
	if errors.As(err, &provErr) {
		log.Errorw("calendar provider failure during tool call", "tool", op, "error", err)
		if provErr.Transient {
			return toolError("the calendar service is temporarily unavailable, please try again in a moment")
		}
		return toolError("the calendar connection is misconfigured, please contact the business directly")
	}

	log.Errorw("tool call failed", "tool", op, "error", err)
	return toolError("an internal error occurred, please try again")
}

func parseStart(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("start must be an RFC 3339 timestamp with a UTC offset")
	}
	return t, nil
}

// localTime renders an instant in the offset it was booked under.
func localTime(t time.Time, offset string) string {
	if loc, err := models.ParseUTCOffset(offset); err == nil {
		t = t.In(loc)
	}
	return t.Format(time.RFC3339)
}

func toolJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError("an internal error occurred, please try again")
	}
	return string(b)
}

func toolError(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
