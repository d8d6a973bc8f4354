package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// eventPayload is the wire format the external calendar provider accepts
type eventPayload struct {
	Summary     string      `json:"summary"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Start       dateTimeTZ  `json:"start"`
	End         dateTimeTZ  `json:"end"`
}

type dateTimeTZ struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Client pushes events to a user's external calendar over HTTP. Every push
// is a best-effort side channel: callers log failures but never fail the
// operation that triggered them.
type Client interface {
	PushEvent(ctx context.Context, token string, event *models.Event) error
	PushEvents(ctx context.Context, token string, events []*models.Event) (int, error)
}

type httpClient struct {
	baseURL  string
	timeZone string
	client   *http.Client
}

// NewClient creates a calendar push client. The HTTP client carries a hard
// timeout so a slow provider cannot stall RSVP or sync paths.
func NewClient(cfg config.CalendarConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL:  cfg.BaseURL,
		timeZone: cfg.TimeZone,
		client:   &http.Client{Timeout: timeout},
	}
}

// PushEvent inserts a single event into the user's external calendar
func (c *httpClient) PushEvent(ctx context.Context, token string, event *models.Event) error {
	if token == "" {
		return errors.New("calendar token is empty")
	}

	payload := eventPayload{
		Summary:     event.Title,
		Location:    formatLocation(event),
		Description: event.Description,
		Start: dateTimeTZ{
			DateTime: fmt.Sprintf("%sT%s:00", event.Date, event.StartTime),
			TimeZone: c.timeZone,
		},
		End: dateTimeTZ{
			DateTime: fmt.Sprintf("%sT%s:00", event.Date, event.EndTime),
			TimeZone: c.timeZone,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal calendar payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build calendar request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calendar request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("calendar provider returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}

// PushEvents pushes events in order and stops at the first failure, so a
// revoked token fails once instead of once per event. Returns how many
// events were pushed.
func (c *httpClient) PushEvents(ctx context.Context, token string, events []*models.Event) (int, error) {
	for i, event := range events {
		if err := c.PushEvent(ctx, token, event); err != nil {
			log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Int("pushed", i).
				Msg("calendar sync aborted")
			return i, err
		}
	}
	return len(events), nil
}

func formatLocation(event *models.Event) string {
	if event.Room != "" {
		return event.Location + ", " + event.Room
	}
	return event.Location
}
