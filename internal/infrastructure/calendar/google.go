// Package calendar implements the external calendar boundary against the
// Google Calendar REST API.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"flowcore-server/services/message-worker/internal/domain/appointment"
	"flowcore-server/services/message-worker/internal/domain/workspace"
)

// GoogleClient implements appointment.CalendarClient against the Google
// Calendar v3 API using the workspace's stored access token.
type GoogleClient struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

var _ appointment.CalendarClient = (*GoogleClient)(nil)

// NewGoogleClient creates a calendar client. baseURL points at the
// calendar API root (https://www.googleapis.com/calendar/v3).
func NewGoogleClient(client *resty.Client, baseURL string, log zerolog.Logger) *GoogleClient {
	return &GoogleClient{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		log:     log.With().Str("component", "google-calendar").Logger(),
	}
}

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

type event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventList struct {
	Items []event `json:"items"`
}

func (g *GoogleClient) calendarID(conn *workspace.CalendarConnection) string {
	if conn.CalendarID != "" {
		return conn.CalendarID
	}
	return "primary"
}

// ListBusy returns the blocked periods between from and to.
func (g *GoogleClient) ListBusy(ctx context.Context, conn *workspace.CalendarConnection, from, to time.Time) ([]appointment.BusyInterval, error) {
	var list eventList
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(conn.AccessToken).
		SetQueryParams(map[string]string{
			"timeMin":      from.Format(time.RFC3339),
			"timeMax":      to.Format(time.RFC3339),
			"singleEvents": "true",
			"orderBy":      "startTime",
		}).
		SetResult(&list).
		Get(fmt.Sprintf("%s/calendars/%s/events", g.baseURL, g.calendarID(conn)))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list events: calendar API returned %d", resp.StatusCode())
	}

	busy := make([]appointment.BusyInterval, 0, len(list.Items))
	for _, ev := range list.Items {
		if ev.Status == "cancelled" {
			continue
		}
		// All-day events carry a date instead of a dateTime and do not
		// block individual slots.
		if ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			g.log.Warn().Str("event_id", ev.ID).Str("start", ev.Start.DateTime).Msg("unparseable event start, skipping")
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			g.log.Warn().Str("event_id", ev.ID).Str("end", ev.End.DateTime).Msg("unparseable event end, skipping")
			continue
		}
		busy = append(busy, appointment.BusyInterval{
			Start:   start.UTC(),
			End:     end.UTC(),
			Summary: ev.Summary,
		})
	}
	return busy, nil
}

// CreateEvent inserts one event and returns the provider event id.
func (g *GoogleClient) CreateEvent(ctx context.Context, conn *workspace.CalendarConnection, ev appointment.CalendarEvent) (string, error) {
	var created event
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(conn.AccessToken).
		SetBody(event{
			Summary:     ev.Summary,
			Description: ev.Description,
			Start:       eventTime{DateTime: ev.Start.Format(time.RFC3339)},
			End:         eventTime{DateTime: ev.End.Format(time.RFC3339)},
		}).
		SetResult(&created).
		Post(fmt.Sprintf("%s/calendars/%s/events", g.baseURL, g.calendarID(conn)))
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create event: calendar API returned %d", resp.StatusCode())
	}
	return created.ID, nil
}
