package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
)

func TestListEventTypes(t *testing.T) {
	var gotAuth, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.URL.Query().Get("user")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"collection": []map[string]any{
				{
					"name":              "Intro call",
					"description_plain": "Thirty minutes to say hello.",
					"duration":          30,
					"scheduling_url":    "https://calendly.com/acme/intro",
					"active":            true,
				},
				{
					"name":           "Retired slot",
					"duration":       60,
					"scheduling_url": "https://calendly.com/acme/retired",
					"active":         false,
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewCalendlyClient(CalendlyConfig{
		BaseURL: server.URL,
		Token:   "cal-token",
		UserURI: "https://api.calendly.com/users/abc",
	})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}

	eventTypes, err := client.ListEventTypes(t.Context())
	if err != nil {
		t.Fatalf("list event types: %v", err)
	}
	if gotAuth != "Bearer cal-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotUser != "https://api.calendly.com/users/abc" {
		t.Fatalf("unexpected user query %q", gotUser)
	}
	if len(eventTypes) != 1 {
		t.Fatalf("expected only active event types, got %d", len(eventTypes))
	}
	if eventTypes[0].Name != "Intro call" || eventTypes[0].DurationMinutes != 30 {
		t.Fatalf("unexpected event type %+v", eventTypes[0])
	}
}

func TestListEventTypesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := NewCalendlyClient(CalendlyConfig{
		BaseURL: server.URL,
		Token:   "cal-token",
		UserURI: "https://api.calendly.com/users/abc",
	})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}

	if _, err := client.ListEventTypes(t.Context()); !apperrors.IsKind(err, apperrors.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type fakeSource struct {
	calls int
	err   error
	items []EventType
}

func (f *fakeSource) ListEventTypes(ctx context.Context) ([]EventType, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func TestCachedSourceServesWithinTTL(t *testing.T) {
	source := &fakeSource{items: []EventType{{Name: "Intro call"}}}
	cache := NewCachedSource(source, time.Minute)
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	for range 3 {
		items, err := cache.ListEventTypes(t.Context())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", source.calls)
	}

	// TTL expiry triggers a refresh.
	current = current.Add(2 * time.Minute)
	if _, err := cache.ListEventTypes(t.Context()); err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", source.calls)
	}
}

func TestCachedSourceServesStaleOnError(t *testing.T) {
	source := &fakeSource{items: []EventType{{Name: "Intro call"}}}
	cache := NewCachedSource(source, time.Minute)
	current := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	if _, err := cache.ListEventTypes(t.Context()); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	source.err = fmt.Errorf("provider down")
	current = current.Add(2 * time.Minute)
	items, err := cache.ListEventTypes(t.Context())
	if err != nil {
		t.Fatalf("expected stale data, got error %v", err)
	}
	if len(items) != 1 || items[0].Name != "Intro call" {
		t.Fatalf("unexpected stale items %v", items)
	}

	// A cold cache has nothing to fall back to.
	cold := NewCachedSource(&fakeSource{err: fmt.Errorf("provider down")}, time.Minute)
	if _, err := cold.ListEventTypes(t.Context()); err == nil {
		t.Fatal("expected error from cold cache")
	}
}
