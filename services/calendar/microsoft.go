package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// graphDateTimeLayout is how Graph renders dateTime fields (no zone suffix;
// the zone rides in a sibling timeZone field).
const graphDateTimeLayout = "2006-01-02T15:04:05.9999999"

// microsoftProvider backs the capability set with Microsoft Graph, using
// app-only client-credentials OAuth2 against a named mailbox.
type microsoftProvider struct {
	http    *http.Client
	baseURL string
	mailbox string
}

func newMicrosoftProvider(ctx context.Context, clientID, tenantID, clientSecret, mailbox string) *microsoftProvider {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &microsoftProvider{
		http:    conf.Client(ctx),
		baseURL: graphBaseURL,
		mailbox: mailbox,
	}
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

func (d graphDateTime) parse() (time.Time, error) {
	loc := time.UTC
	if d.TimeZone != "" && d.TimeZone != "UTC" {
		if l, err := time.LoadLocation(d.TimeZone); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{graphDateTimeLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, d.DateTime, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized Graph datetime %q", d.DateTime)
}

// toGraphDateTime renders an absolute instant in UTC; Graph handles display
// zone conversion on its side.
func toGraphDateTime(t time.Time) graphDateTime {
	return graphDateTime{
		DateTime: t.UTC().Format("2006-01-02T15:04:05"),
		TimeZone: "UTC",
	}
}

// call performs one Graph request and decodes the response into out when the
// status is 2xx. Non-2xx statuses are classified per the retry policy.
func (m *microsoftProvider) call(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &ProviderError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return classify(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return classify(op, resp.StatusCode,
			fmt.Errorf("graph %s %s: status %d: %s", method, path, resp.StatusCode, detail))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (m *microsoftProvider) BusyPeriods(ctx context.Context, from, to time.Time) ([]BusyPeriod, error) {
	type scheduleItem struct {
		Status string        `json:"status"`
		Start  graphDateTime `json:"start"`
		End    graphDateTime `json:"end"`
	}
	type scheduleResponse struct {
		Value []struct {
			ScheduleItems []scheduleItem `json:"scheduleItems"`
		} `json:"value"`
	}

	body := map[string]any{
		"schedules": []string{m.mailbox},
		"startTime": graphDateTime{DateTime: from.UTC().Format("2006-01-02T15:04:05"), TimeZone: "UTC"},
		"endTime":   graphDateTime{DateTime: to.UTC().Format("2006-01-02T15:04:05"), TimeZone: "UTC"},
	}

	var busy []BusyPeriod
	err := withRetry(ctx, func(ctx context.Context) error {
		var resp scheduleResponse
		path := fmt.Sprintf("/users/%s/calendar/getSchedule", url.PathEscape(m.mailbox))
		if err := m.call(ctx, "busy-periods", http.MethodPost, path, body, &resp); err != nil {
			return err
		}

		busy = busy[:0]
		if len(resp.Value) == 0 {
			return nil
		}
		for _, item := range resp.Value[0].ScheduleItems {
			if item.Status == "free" {
				continue
			}
			start, err := item.Start.parse()
			if err != nil {
				return &ProviderError{Op: "busy-periods", Err: err}
			}
			end, err := item.End.parse()
			if err != nil {
				return &ProviderError{Op: "busy-periods", Err: err}
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

func (m *microsoftProvider) CreateEvent(ctx context.Context, ev EventDetails) (string, error) {
	body := map[string]any{
		"subject": ev.Title,
		"body":    map[string]string{"contentType": "Text", "content": ev.Description},
		"start":   toGraphDateTime(ev.Start),
		"end":     toGraphDateTime(ev.Start.Add(ev.Duration)),
		"attendees": []map[string]any{
			{
				"emailAddress": map[string]string{"address": ev.GuestEmail, "name": ev.GuestName},
				"type":         "required",
			},
		},
	}

	var eventID string
	err := withRetry(ctx, func(ctx context.Context) error {
		var resp struct {
			ID string `json:"id"`
		}
		path := fmt.Sprintf("/users/%s/events", url.PathEscape(m.mailbox))
		if err := m.call(ctx, "create-event", http.MethodPost, path, body, &resp); err != nil {
			return err
		}
		eventID = resp.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}

func (m *microsoftProvider) UpdateEvent(ctx context.Context, eventID string, newStart time.Time) error {
	return withRetry(ctx, func(ctx context.Context) error {
		var event struct {
			Start graphDateTime `json:"start"`
			End   graphDateTime `json:"end"`
		}
		path := fmt.Sprintf("/users/%s/events/%s", url.PathEscape(m.mailbox), url.PathEscape(eventID))
		if err := m.call(ctx, "update-event", http.MethodGet, path, nil, &event); err != nil {
			return err
		}

		oldStart, err := event.Start.parse()
		if err != nil {
			return &ProviderError{Op: "update-event", Err: err}
		}
		oldEnd, err := event.End.parse()
		if err != nil {
			return &ProviderError{Op: "update-event", Err: err}
		}
		duration := oldEnd.Sub(oldStart)

		patch := map[string]any{
			"start": toGraphDateTime(newStart),
			"end":   toGraphDateTime(newStart.Add(duration)),
		}
		return m.call(ctx, "update-event", http.MethodPatch, path, patch, nil)
	})
}

func (m *microsoftProvider) DeleteEvent(ctx context.Context, eventID string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		path := fmt.Sprintf("/users/%s/events/%s", url.PathEscape(m.mailbox), url.PathEscape(eventID))
		return m.call(ctx, "delete-event", http.MethodDelete, path, nil, nil)
	})
}
