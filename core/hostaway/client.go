// Package hostaway is the provider client for reservation, listing,
// calendar, and guest-charge lookups. Responses stay raw maps; the
// fact extractors own the typing.
package hostaway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/config"
)

// tokenLifetime trims the provider's nominal one-hour expiry so a token
// is never used in its final two minutes.
const tokenLifetime = 3480 * time.Second

// Client calls the provider REST API with a cached client-credentials
// token. All lookup methods degrade to nil on failure.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	logger       *slog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewClient(cfg config.HostawayConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         &http.Client{Timeout: timeout},
		logger:       logger.With("component", "hostaway"),
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {"general"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/accessTokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch access token: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.token = body.AccessToken
	c.expiresAt = time.Now().Add(tokenLifetime)
	return c.token, nil
}

// get performs an authenticated GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Reservation fetches one reservation payload. Nil when the lookup
// fails for any reason.
func (c *Client) Reservation(ctx context.Context, id string) map[string]any {
	var out map[string]any
	if err := c.get(ctx, "/reservations/"+url.PathEscape(id), nil, &out); err != nil {
		c.logger.Warn("reservation lookup failed", "reservation_id", id, "error", err)
		return nil
	}
	return out
}

// Listing fetches one listing payload. Nil on failure.
func (c *Client) Listing(ctx context.Context, id string) map[string]any {
	var out map[string]any
	if err := c.get(ctx, "/listings/"+url.PathEscape(id), nil, &out); err != nil {
		c.logger.Warn("listing lookup failed", "listing_id", id, "error", err)
		return nil
	}
	return out
}

// Calendar fetches the listing calendar over [start, end]. Nil on
// failure; the raw shape varies by provider version, so it stays any.
func (c *Client) Calendar(ctx context.Context, listingID, startDate, endDate string) any {
	q := url.Values{"startDate": {startDate}, "endDate": {endDate}}
	var out any
	if err := c.get(ctx, "/listings/"+url.PathEscape(listingID)+"/calendar", q, &out); err != nil {
		c.logger.Warn("calendar lookup failed", "listing_id", listingID, "error", err)
		return nil
	}
	return out
}

// GuestCharges fetches the charges for a reservation, falling back to a
// listing-map filter when only that id is known. Nil on failure.
func (c *Client) GuestCharges(ctx context.Context, reservationID, listingMapID string) any {
	q := url.Values{}
	if reservationID != "" {
		q.Set("reservationId", reservationID)
	} else if listingMapID != "" {
		q.Set("listingMapId", listingMapID)
	}
	var out any
	if err := c.get(ctx, "/guestPayments/charges", q, &out); err != nil {
		c.logger.Warn("charges lookup failed",
			"reservation_id", reservationID, "listing_map_id", listingMapID, "error", err)
		return nil
	}
	return out
}
