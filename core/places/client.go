// Package places wraps the Google Places and Distance Matrix APIs for
// nearby-spot recommendations and drive-time answers. All lookups are
// optional: with no key configured the client reports disabled and
// every call returns empty results.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/config"
)

const (
	nearbyURL   = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	textURL     = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	distanceURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
)

// Place is one recommendation candidate.
type Place struct {
	Name     string
	Rating   *float64
	Reviews  *int
	Vicinity string
	PlaceID  string
	MapsURL  string
	Lat      *float64
	Lng      *float64
}

// Drive is a resolved drive distance and duration.
type Drive struct {
	Miles   float64
	Minutes int
}

// Client caches successful responses in an LRU keyed by the request
// URL, since guests in the same property ask the same questions.
type Client struct {
	apiKey  string
	radiusM int
	http    *http.Client
	cache   *lru.Cache[string, any]
	logger  *slog.Logger
}

func NewClient(cfg config.PlacesConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("create places cache: %w", err)
	}
	radius := cfg.RadiusM
	if radius <= 0 {
		radius = 8000
	}
	return &Client{
		apiKey:  cfg.APIKey,
		radiusM: radius,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		logger:  logger.With("component", "places"),
	}, nil
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

func (c *Client) fetch(ctx context.Context, base string, params url.Values) (map[string]any, error) {
	params.Set("key", c.apiKey)
	full := base + "?" + params.Encode()
	if cached, ok := c.cache.Get(full); ok {
		return cached.(map[string]any), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", base, resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.cache.Add(full, any(body))
	return body, nil
}

// Nearby returns up to max places around (lat, lng) matching the place
// type and keyword. Empty on any failure or when disabled.
func (c *Client) Nearby(ctx context.Context, lat, lng float64, placeType, keyword string, max int) []Place {
	if !c.Enabled() {
		return nil
	}
	if max <= 0 {
		max = 5
	}
	params := url.Values{
		"location": {coord(lat, lng)},
		"radius":   {strconv.Itoa(c.radiusM)},
	}
	if placeType != "" {
		params.Set("type", placeType)
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	body, err := c.fetch(ctx, nearbyURL, params)
	if err != nil {
		c.logger.Warn("nearby search failed", "error", err)
		return nil
	}
	status, _ := body["status"].(string)
	if status != "OK" && status != "ZERO_RESULTS" {
		c.logger.Warn("nearby search rejected", "status", status)
		return nil
	}

	results, _ := body["results"].([]any)
	var out []Place
	for _, item := range results {
		if len(out) >= max {
			break
		}
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := Place{
			Name:     str(m["name"]),
			Vicinity: str(m["vicinity"]),
			PlaceID:  str(m["place_id"]),
		}
		if r, ok := m["rating"].(float64); ok {
			p.Rating = &r
		}
		if rt, ok := m["user_ratings_total"].(float64); ok {
			n := int(rt)
			p.Reviews = &n
		}
		if geom, ok := m["geometry"].(map[string]any); ok {
			if loc, ok := geom["location"].(map[string]any); ok {
				if la, ok := loc["lat"].(float64); ok {
					p.Lat = &la
				}
				if ln, ok := loc["lng"].(float64); ok {
					p.Lng = &ln
				}
			}
		}
		if p.PlaceID != "" {
			p.MapsURL = "https://www.google.com/maps/place/?q=place_id:" + p.PlaceID
		}
		out = append(out, p)
	}
	return out
}

// FindPlace resolves a free-text query to the best-matching place,
// biased toward (lat, lng) when known. Nil when nothing matches.
func (c *Client) FindPlace(ctx context.Context, query string, lat, lng *float64) *Place {
	if !c.Enabled() || query == "" {
		return nil
	}
	params := url.Values{"query": {query}}
	if lat != nil && lng != nil {
		params.Set("location", coord(*lat, *lng))
		params.Set("radius", "20000")
	}

	body, err := c.fetch(ctx, textURL, params)
	if err != nil {
		c.logger.Warn("text search failed", "error", err)
		return nil
	}
	results, _ := body["results"].([]any)
	if len(results) == 0 {
		return nil
	}
	m, ok := results[0].(map[string]any)
	if !ok {
		return nil
	}
	p := &Place{
		Name:     str(m["name"]),
		Vicinity: str(m["formatted_address"]),
		PlaceID:  str(m["place_id"]),
	}
	if r, ok := m["rating"].(float64); ok {
		p.Rating = &r
	}
	if p.PlaceID != "" {
		p.MapsURL = "https://www.google.com/maps/place/?q=place_id:" + p.PlaceID
	}
	return p
}

// DriveTime resolves driving distance and duration between two points
// expressed either as "lat,lng" pairs or free-text addresses. Nil when
// the matrix element cannot be resolved.
func (c *Client) DriveTime(ctx context.Context, origin, destination string) *Drive {
	if !c.Enabled() || origin == "" || destination == "" {
		return nil
	}
	params := url.Values{
		"origins":        {origin},
		"destinations":   {destination},
		"mode":           {"driving"},
		"departure_time": {"now"},
	}

	body, err := c.fetch(ctx, distanceURL, params)
	if err != nil {
		c.logger.Warn("distance lookup failed", "error", err)
		return nil
	}
	if s, _ := body["status"].(string); s != "OK" {
		c.logger.Warn("distance lookup rejected", "status", s)
		return nil
	}
	rows, _ := body["rows"].([]any)
	if len(rows) == 0 {
		return nil
	}
	row, _ := rows[0].(map[string]any)
	elements, _ := row["elements"].([]any)
	if len(elements) == 0 {
		return nil
	}
	el, _ := elements[0].(map[string]any)
	if s, _ := el["status"].(string); s != "OK" {
		return nil
	}

	meters := nested(el, "distance", "value")
	seconds := nested(el, "duration_in_traffic", "value")
	if seconds == 0 {
		seconds = nested(el, "duration", "value")
	}
	if meters == 0 {
		return nil
	}
	d := &Drive{Miles: math.Round(meters/1609.344*10) / 10}
	if seconds > 0 {
		d.Minutes = int(math.Max(1, math.Ceil(seconds/60)))
	}
	return d
}

func coord(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func nested(m map[string]any, keys ...string) float64 {
	cur := any(m)
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur = mm[k]
	}
	f, _ := cur.(float64)
	return f
}
