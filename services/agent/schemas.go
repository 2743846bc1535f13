package agent

import (
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names as exposed to the model.
const (
	toolCheckAvailability = "check_availability"
	toolFindBookings      = "find_bookings"
	toolBookAppointment   = "book_appointment"
	toolCancelAppointment = "cancel_appointment"
	toolRescheduleAppt    = "reschedule_appointment"
)

// toolSchemas returns the function schemas offered on every model call. The
// set is static per process; instance specifics live in the system prompt.
func toolSchemas() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolCheckAvailability,
				Description: "List the free appointment slots for one calendar date.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"date": {
							Type:        jsonschema.String,
							Description: "The date to check, formatted YYYY-MM-DD, in the business's local time.",
						},
					},
					Required: []string{"date"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolFindBookings,
				Description: "Look up a guest's bookings by email address. Returns booking ids, times and statuses but never PINs.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"email": {
							Type:        jsonschema.String,
							Description: "The guest's email address.",
						},
					},
					Required: []string{"email"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolBookAppointment,
				Description: "Book an appointment at a free slot. Returns the booking id and the guest's PIN on success.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"start": {
							Type:        jsonschema.String,
							Description: "The slot start time in RFC 3339 format with a UTC offset, e.g. 2026-09-01T14:30:00+04:00.",
						},
						"name": {
							Type:        jsonschema.String,
							Description: "The guest's full name.",
						},
						"email": {
							Type:        jsonschema.String,
							Description: "The guest's email address.",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "A short title for the appointment.",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "Optional extra context for the appointment.",
						},
					},
					Required: []string{"start", "name", "email", "title"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolCancelAppointment,
				Description: "Cancel an existing booking. The guest must supply the email and PIN issued at booking time.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"booking_id": {
							Type:        jsonschema.String,
							Description: "The id of the booking to cancel, from find_bookings.",
						},
						"email": {
							Type:        jsonschema.String,
							Description: "The guest's email address.",
						},
						"pin": {
							Type:        jsonschema.String,
							Description: "The PIN issued when the booking was made.",
						},
					},
					Required: []string{"booking_id", "email", "pin"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolRescheduleAppt,
				Description: "Move an existing booking to a new free slot. Issues a fresh PIN for the new booking.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"booking_id": {
							Type:        jsonschema.String,
							Description: "The id of the booking to move, from find_bookings.",
						},
						"email": {
							Type:        jsonschema.String,
							Description: "The guest's email address.",
						},
						"pin": {
							Type:        jsonschema.String,
							Description: "The PIN issued when the booking was made.",
						},
						"new_start": {
							Type:        jsonschema.String,
							Description: "The new slot start time in RFC 3339 format with a UTC offset.",
						},
					},
					Required: []string{"booking_id", "email", "pin", "new_start"},
				},
			},
		},
	}
}
