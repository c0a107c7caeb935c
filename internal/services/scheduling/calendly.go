// Package scheduling surfaces bookable meeting links from Calendly.
package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
)

const defaultCalendlyBaseURL = "https://api.calendly.com"

// EventType is one bookable meeting kind.
type EventType struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitzero"`
	DurationMinutes int    `json:"duration_minutes"`
	SchedulingURL   string `json:"scheduling_url"`
}

// Source lists the event types visitors can book.
type Source interface {
	ListEventTypes(ctx context.Context) ([]EventType, error)
}

// CalendlyConfig configures the Calendly API client.
type CalendlyConfig struct {
	// BaseURL overrides the API endpoint, e.g. for tests. Defaults to the
	// public Calendly API.
	BaseURL string
	Token   string
	// UserURI is the Calendly user resource URI whose event types are listed.
	UserURI    string
	HTTPClient *http.Client
}

// CalendlyClient lists active event types for one Calendly user.
type CalendlyClient struct {
	cfg CalendlyConfig
}

// NewCalendlyClient builds a Calendly API client.
func NewCalendlyClient(cfg CalendlyConfig) (*CalendlyClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("calendly token is required")
	}
	if strings.TrimSpace(cfg.UserURI) == "" {
		return nil, fmt.Errorf("calendly user uri is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultCalendlyBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &CalendlyClient{cfg: cfg}, nil
}

// ListEventTypes returns the user's active event types.
func (c *CalendlyClient) ListEventTypes(ctx context.Context) ([]EventType, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/event_types?" + url.Values{
		"user":   {c.cfg.UserURI},
		"active": {"true"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build event types request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.Token))

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "event types request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read event types error body: %w", err)
		}
		return nil, apperrors.Wrap(apperrors.KindUnavailable, "event types provider error",
			fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload struct {
		Collection []struct {
			Name             string `json:"name"`
			DescriptionPlain string `json:"description_plain"`
			Duration         int    `json:"duration"`
			SchedulingURL    string `json:"scheduling_url"`
			Active           bool   `json:"active"`
		} `json:"collection"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode event types response: %w", err)
	}

	eventTypes := make([]EventType, 0, len(payload.Collection))
	for _, item := range payload.Collection {
		if !item.Active {
			continue
		}
		eventTypes = append(eventTypes, EventType{
			Name:            item.Name,
			Description:     item.DescriptionPlain,
			DurationMinutes: item.Duration,
			SchedulingURL:   item.SchedulingURL,
		})
	}
	return eventTypes, nil
}
