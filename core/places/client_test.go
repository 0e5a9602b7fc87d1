package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/config"
)

// fakeTransport serves canned bodies keyed by URL path substring.
type fakeTransport struct {
	responses map[string]any
	calls     int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	for key, body := range f.responses {
		if strings.Contains(req.URL.Path, key) {
			data, _ := json.Marshal(body)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader(data)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     http.Header{},
	}, nil
}

func newFakeClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := NewClient(config.PlacesConfig{APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.http = &http.Client{Transport: ft}
	return c
}

func TestNearbyParsing(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"nearbysearch": map[string]any{
			"status": "OK",
			"results": []any{
				map[string]any{
					"name":               "Gumbo Shack",
					"vicinity":           "123 Seawall Blvd",
					"place_id":           "abc",
					"rating":             4.5,
					"user_ratings_total": 1283.0,
					"geometry": map[string]any{
						"location": map[string]any{"lat": 29.3, "lng": -94.8},
					},
				},
				map[string]any{"name": "The Spot"},
				map[string]any{"name": "Third Place"},
			},
		},
	}}
	c := newFakeClient(t, ft)

	got := c.Nearby(context.Background(), 29.3, -94.8, "restaurant", "", 2)
	if len(got) != 2 {
		t.Fatalf("max not applied, got %d", len(got))
	}
	p := got[0]
	if p.Name != "Gumbo Shack" || p.Vicinity != "123 Seawall Blvd" {
		t.Errorf("place = %+v", p)
	}
	if p.Rating == nil || *p.Rating != 4.5 {
		t.Errorf("rating = %v", p.Rating)
	}
	if p.Reviews == nil || *p.Reviews != 1283 {
		t.Errorf("reviews = %v", p.Reviews)
	}
	if p.Lat == nil || p.Lng == nil {
		t.Error("coordinates not parsed")
	}
	if p.MapsURL != "https://www.google.com/maps/place/?q=place_id:abc" {
		t.Errorf("maps url = %q", p.MapsURL)
	}
	if got[1].Rating != nil {
		t.Error("missing rating must stay nil")
	}
}

func TestNearbyZeroResults(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"nearbysearch": map[string]any{"status": "ZERO_RESULTS", "results": []any{}},
	}}
	c := newFakeClient(t, ft)
	if got := c.Nearby(context.Background(), 29.3, -94.8, "restaurant", "", 3); got != nil {
		t.Errorf("want nil on zero results, got %v", got)
	}
}

func TestNearbyRejectedStatus(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"nearbysearch": map[string]any{"status": "REQUEST_DENIED"},
	}}
	c := newFakeClient(t, ft)
	if got := c.Nearby(context.Background(), 29.3, -94.8, "restaurant", "", 3); got != nil {
		t.Errorf("want nil on denied status, got %v", got)
	}
}

func TestFetchCachesByURL(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"nearbysearch": map[string]any{"status": "OK", "results": []any{}},
	}}
	c := newFakeClient(t, ft)

	ctx := context.Background()
	c.Nearby(ctx, 29.3, -94.8, "restaurant", "", 3)
	c.Nearby(ctx, 29.3, -94.8, "restaurant", "", 3)
	if ft.calls != 1 {
		t.Errorf("identical lookups hit the network %d times, want 1", ft.calls)
	}

	// Different parameters miss the cache.
	c.Nearby(ctx, 29.3, -94.8, "cafe", "", 3)
	if ft.calls != 2 {
		t.Errorf("distinct lookup should fetch, calls = %d", ft.calls)
	}
}

func TestDriveTime(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"distancematrix": map[string]any{
			"status": "OK",
			"rows": []any{map[string]any{"elements": []any{map[string]any{
				"status":              "OK",
				"distance":            map[string]any{"value": 9656.0},
				"duration":            map[string]any{"value": 300.0},
				"duration_in_traffic": map[string]any{"value": 330.0},
			}}}},
		},
	}}
	c := newFakeClient(t, ft)

	d := c.DriveTime(context.Background(), "29.3,-94.8", "29.31,-94.79")
	if d == nil {
		t.Fatal("drive time not resolved")
	}
	if d.Miles != 6.0 {
		t.Errorf("miles = %v", d.Miles)
	}
	// Traffic-adjusted 330s rounds up to 6 minutes.
	if d.Minutes != 6 {
		t.Errorf("minutes = %d", d.Minutes)
	}
}

func TestDriveTimeUnresolvedElement(t *testing.T) {
	ft := &fakeTransport{responses: map[string]any{
		"distancematrix": map[string]any{
			"status": "OK",
			"rows": []any{map[string]any{"elements": []any{map[string]any{
				"status": "NOT_FOUND",
			}}}},
		},
	}}
	c := newFakeClient(t, ft)
	if d := c.DriveTime(context.Background(), "a", "b"); d != nil {
		t.Errorf("want nil for unresolved element, got %+v", d)
	}
}

func TestDisabledClient(t *testing.T) {
	c, err := NewClient(config.PlacesConfig{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Enabled() {
		t.Error("client without key must report disabled")
	}
	if got := c.Nearby(context.Background(), 0, 0, "restaurant", "", 3); got != nil {
		t.Errorf("disabled nearby = %v", got)
	}
	if got := c.DriveTime(context.Background(), "a", "b"); got != nil {
		t.Errorf("disabled drive time = %v", got)
	}
}
