package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// googleProvider backs the capability set with the Google Calendar v3 API,
// authenticating as a service account. The target calendar must be shared
// with the service account's client_email.
type googleProvider struct {
	svc        *gcal.Service
	calendarID string
}

func newGoogleProvider(ctx context.Context, serviceAccountJSON []byte, calendarID string) (*googleProvider, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(serviceAccountJSON),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build Google Calendar client: %w", err)
	}
	return &googleProvider{svc: svc, calendarID: calendarID}, nil
}

// googleStatus extracts the HTTP status from a Google API error, or 0 for
// network-level failures.
func googleStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func (g *googleProvider) BusyPeriods(ctx context.Context, from, to time.Time) ([]BusyPeriod, error) {
	var busy []BusyPeriod
	err := withRetry(ctx, func(ctx context.Context) error {
		req := &gcal.FreeBusyRequest{
			TimeMin: from.Format(time.RFC3339),
			TimeMax: to.Format(time.RFC3339),
			Items:   []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
		}
		resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
		if err != nil {
			return classify("busy-periods", googleStatus(err), err)
		}

		busy = busy[:0]
		cal, ok := resp.Calendars[g.calendarID]
		if !ok {
			return nil
		}
		for _, p := range cal.Busy {
			start, err := time.Parse(time.RFC3339, p.Start)
			if err != nil {
				return &ProviderError{Op: "busy-periods", Err: fmt.Errorf("bad busy start %q: %w", p.Start, err)}
			}
			end, err := time.Parse(time.RFC3339, p.End)
			if err != nil {
				return &ProviderError{Op: "busy-periods", Err: fmt.Errorf("bad busy end %q: %w", p.End, err)}
			}
			busy = append(busy, BusyPeriod{Start: start, End: end})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return busy, nil
}

func (g *googleProvider) CreateEvent(ctx context.Context, ev EventDetails) (string, error) {
	var eventID string
	err := withRetry(ctx, func(ctx context.Context) error {
		body := &gcal.Event{
			Summary:     ev.Title,
			Description: ev.Description,
			Start: &gcal.EventDateTime{
				DateTime: ev.Start.Format(time.RFC3339),
				TimeZone: ev.Timezone,
			},
			End: &gcal.EventDateTime{
				DateTime: ev.Start.Add(ev.Duration).Format(time.RFC3339),
				TimeZone: ev.Timezone,
			},
			Attendees: []*gcal.EventAttendee{
				{Email: ev.GuestEmail, DisplayName: ev.GuestName},
			},
		}
		created, err := g.svc.Events.Insert(g.calendarID, body).
			SendUpdates("all").Context(ctx).Do()
		if err != nil {
			return classify("create-event", googleStatus(err), err)
		}
		eventID = created.Id
		return nil
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}

func (g *googleProvider) UpdateEvent(ctx context.Context, eventID string, newStart time.Time) error {
	return withRetry(ctx, func(ctx context.Context) error {
		event, err := g.svc.Events.Get(g.calendarID, eventID).Context(ctx).Do()
		if err != nil {
			return classify("update-event", googleStatus(err), err)
		}

		oldStart, err := time.Parse(time.RFC3339, event.Start.DateTime)
		if err != nil {
			return &ProviderError{Op: "update-event", Err: fmt.Errorf("bad event start: %w", err)}
		}
		oldEnd, err := time.Parse(time.RFC3339, event.End.DateTime)
		if err != nil {
			return &ProviderError{Op: "update-event", Err: fmt.Errorf("bad event end: %w", err)}
		}
		duration := oldEnd.Sub(oldStart)

		event.Start.DateTime = newStart.Format(time.RFC3339)
		event.End.DateTime = newStart.Add(duration).Format(time.RFC3339)

		_, err = g.svc.Events.Update(g.calendarID, eventID, event).
			SendUpdates("all").Context(ctx).Do()
		if err != nil {
			return classify("update-event", googleStatus(err), err)
		}
		return nil
	})
}

func (g *googleProvider) DeleteEvent(ctx context.Context, eventID string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		err := g.svc.Events.Delete(g.calendarID, eventID).
			SendUpdates("all").Context(ctx).Do()
		if err != nil {
			return classify("delete-event", googleStatus(err), err)
		}
		return nil
	})
}
