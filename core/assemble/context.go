// Package assemble builds one immutable context object per incoming
// guest message. The assembler orchestrates the provider lookups and
// degrades every failure into an explicit not-looked-up state; the
// pipeline always gets a context, even under total provider outage.
package assemble

import (
	"context"
	"log/slog"
	"time"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/facts"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/intent"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/learning"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/places"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

// Stay phases derived from the reservation dates.
const (
	PhasePreArrival = "pre_arrival"
	PhaseInStay     = "in_stay"
	PhasePostStay   = "post_stay"
	PhaseUnknown    = "unknown"
)

// Defaults applied when neither the metadata nor the listing carries a
// policy value.
const (
	DefaultCheckInTime  = "4:00 PM"
	DefaultCheckOutTime = "11:00 AM"
	DefaultEarlyFee     = 50
	DefaultLateFee      = 50
)

// Line is one role-tagged conversation history entry.
type Line struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Meta is the metadata bag accompanying a guest message.
type Meta struct {
	ConversationID    string   `json:"conversation_id"`
	ListingID         string   `json:"listing_id"`
	ListingMapID      string   `json:"listing_map_id"`
	ReservationID     string   `json:"reservation_id"`
	ReservationStatus string   `json:"reservation_status"`
	CheckIn           string   `json:"check_in"`
	CheckOut          string   `json:"check_out"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AccessCode        string   `json:"access_code"`
	CheckInTime       string   `json:"checkin_time"`
	CheckOutTime      string   `json:"checkout_time"`
	EarlyCheckInFee   *int     `json:"early_checkin_fee"`
	LateCheckOutFee   *int     `json:"late_checkout_fee"`
}

// Provider is the reservation-platform surface the assembler needs.
type Provider interface {
	Reservation(ctx context.Context, id string) map[string]any
	Listing(ctx context.Context, id string) map[string]any
	Calendar(ctx context.Context, listingID, startDate, endDate string) any
	GuestCharges(ctx context.Context, reservationID, listingMapID string) any
}

// PlaceFinder is the local-recommendation surface.
type PlaceFinder interface {
	Enabled() bool
	Nearby(ctx context.Context, lat, lng float64, placeType, keyword string, max int) []places.Place
	DriveTime(ctx context.Context, origin, destination string) *places.Drive
}

// ExampleFinder retrieves prior approved question/answer pairs.
type ExampleFinder interface {
	FindSimilar(ctx context.Context, query string, limit int) []learning.Example
}

// Recommendation is one curated nearby place with an optional resolved
// drive time.
type Recommendation struct {
	Label    string
	Name     string
	Rating   *float64
	Reviews  *int
	Vicinity string
	Minutes  *int
}

// CalendarInfo is the calendar lookup outcome. Nil pointer fields mean
// the day was not resolvable.
type CalendarInfo struct {
	LookedUp          bool
	CheckinAvailable  *bool
	CheckoutAvailable *bool
	PriorNightOpen    *bool
	DayAfterOpen      *bool
	Window            facts.CalendarWindow
}

// Extension is a detected stay-extension request.
type Extension struct {
	Requested   bool
	Nights      int
	NewCheckOut string
	Subtotal    *float64
}

// Context is the unified per-message view consumed by the prompt
// composer and the guardrail engine. Built once, then read-only.
type Context struct {
	ConversationID string
	Message        string
	History        []Line
	Latest         string

	CheckInTime  string
	CheckOutTime string
	EarlyFee     int
	LateFee      int

	Status       facts.ReservationStatus
	Reservation  facts.Reservation
	Listing      facts.Listing
	DoorCode     string
	CheckIn      string
	CheckOut     string
	Phase        string
	IsCheckinDay bool

	Intent      reply.Intent
	ExtraNights *int

	Calendar  CalendarInfo
	Extension Extension

	ChargesLookedUp bool
	Deposit         facts.Deposit
	Payments        facts.PaymentsSummary

	Nearby  []Recommendation
	Learned []learning.Example
}

// Assembler wires the fact extractors to the provider clients. The zero
// value is unusable; construct with New.
type Assembler struct {
	provider   Provider
	placeAPI   PlaceFinder
	examples   ExampleFinder
	classifier *intent.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// New builds an assembler. Any provider argument may be nil; the
// corresponding facts then stay in their not-looked-up state.
func New(provider Provider, placeAPI PlaceFinder, examples ExampleFinder, logger *slog.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		provider:   provider,
		placeAPI:   placeAPI,
		examples:   examples,
		classifier: intent.New(),
		logger:     logger.With("component", "assemble"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build assembles the context for one message. It never fails: every
// degraded lookup is logged and leaves the matching fact absent.
func (a *Assembler) Build(ctx context.Context, message string, history []Line, meta Meta) *Context {
	c := &Context{
		ConversationID: meta.ConversationID,
		Message:        message,
		History:        tail(history, 8),
		Latest:         latestGuestLine(history, message),
	}

	c.CheckInTime = firstNonEmpty(meta.CheckInTime, DefaultCheckInTime)
	c.CheckOutTime = firstNonEmpty(meta.CheckOutTime, DefaultCheckOutTime)
	c.EarlyFee = feeOr(meta.EarlyCheckInFee, DefaultEarlyFee)
	c.LateFee = feeOr(meta.LateCheckOutFee, DefaultLateFee)

	a.loadReservation(ctx, c, meta)
	a.loadListing(ctx, c, meta)

	c.CheckIn = firstNonEmpty(meta.CheckIn, dateOrEmpty(c.Reservation.ArrivalDate))
	c.CheckOut = firstNonEmpty(meta.CheckOut, dateOrEmpty(c.Reservation.DepartureDate))
	c.Phase = inferPhase(c.CheckIn, c.CheckOut, a.now())
	c.IsCheckinDay = c.CheckIn != "" && c.CheckIn <= facts.DateString(a.now().UTC())

	c.Intent = a.classifier.Classify(c.Latest)
	c.ExtraNights = intent.ExtraNights(c.Latest)

	a.loadCalendar(ctx, c, meta)
	a.loadCharges(ctx, c, meta)
	a.detectExtension(c)
	a.loadNearby(ctx, c, meta)
	a.loadExamples(ctx, c)

	return c
}

func (a *Assembler) loadReservation(ctx context.Context, c *Context, meta Meta) {
	c.Status = facts.NormalizeStatus(meta.ReservationStatus)
	if a.provider == nil || meta.ReservationID == "" {
		return
	}
	raw := a.provider.Reservation(ctx, meta.ReservationID)
	if raw == nil {
		a.logger.Warn("reservation not looked up",
			"conversation_id", c.ConversationID, "stage", "reservation")
		return
	}
	c.Reservation = facts.ExtractReservation(raw)
	if c.Status == facts.StatusUnknown {
		c.Status = c.Reservation.Status
	}
}

func (a *Assembler) loadListing(ctx context.Context, c *Context, meta Meta) {
	if a.provider != nil && meta.ListingID != "" {
		raw := a.provider.Listing(ctx, meta.ListingID)
		if raw == nil {
			a.logger.Warn("listing not looked up",
				"conversation_id", c.ConversationID, "stage", "listing")
		} else {
			c.Listing = facts.ExtractListing(raw)
		}
	}
	if c.Listing.Amenities == nil {
		c.Listing = facts.ExtractListing(nil)
	}
	c.DoorCode = firstNonEmpty(meta.AccessCode, c.Listing.DoorCode)
}

// loadCalendar runs only when the listing id and both stay dates are
// known. The fetch window is widened by one day on each side so the
// adjacent-night checks reuse the same payload.
func (a *Assembler) loadCalendar(ctx context.Context, c *Context, meta Meta) {
	if a.provider == nil || meta.ListingID == "" || c.CheckIn == "" || c.CheckOut == "" {
		return
	}
	ci := facts.ParseDate(c.CheckIn)
	co := facts.ParseDate(c.CheckOut)
	if ci == nil || co == nil {
		return
	}

	extra := 7
	if c.ExtraNights != nil && *c.ExtraNights > extra {
		extra = *c.ExtraNights
	}
	start := facts.DateString(ci.AddDate(0, 0, -1))
	end := facts.DateString(co.AddDate(0, 0, extra))

	raw := a.provider.Calendar(ctx, meta.ListingID, start, end)
	if raw == nil {
		a.logger.Warn("calendar not looked up",
			"conversation_id", c.ConversationID, "stage", "calendar")
		return
	}

	w := facts.ExtractCalendar(raw)
	c.Calendar = CalendarInfo{
		LookedUp:          true,
		CheckinAvailable:  availability(w, c.CheckIn),
		CheckoutAvailable: availability(w, c.CheckOut),
		PriorNightOpen:    availability(w, facts.DateString(ci.AddDate(0, 0, -1))),
		DayAfterOpen:      availability(w, facts.DateString(co.AddDate(0, 0, 1))),
		Window:            w,
	}
}

func (a *Assembler) loadCharges(ctx context.Context, c *Context, meta Meta) {
	if a.provider == nil || (meta.ReservationID == "" && meta.ListingMapID == "") {
		return
	}
	raw := a.provider.GuestCharges(ctx, meta.ReservationID, meta.ListingMapID)
	if raw == nil {
		a.logger.Warn("charges not looked up",
			"conversation_id", c.ConversationID, "stage", "charges")
		return
	}
	charges := facts.ExtractCharges(raw)
	c.ChargesLookedUp = true
	c.Deposit = facts.SelectDeposit(charges)
	c.Payments = facts.SummarizeCharges(charges)
}

// detectExtension turns a requested night count plus a known checkout
// into a candidate new checkout date, priced only when every added
// night has a calendar rate.
func (a *Assembler) detectExtension(c *Context) {
	if c.Intent != reply.IntentExtendStay {
		return
	}
	c.Extension.Requested = true
	if c.ExtraNights == nil || c.CheckOut == "" {
		return
	}
	co := facts.ParseDate(c.CheckOut)
	if co == nil {
		return
	}
	c.Extension.Nights = *c.ExtraNights
	newCO := co.AddDate(0, 0, *c.ExtraNights)
	c.Extension.NewCheckOut = facts.DateString(newCO)
	if c.Calendar.LookedUp {
		c.Extension.Subtotal = c.Calendar.Window.EstimateExtension(*co, newCO)
	}
}

// loadNearby fetches curated recommendations only when the intent is
// food-related, coordinates are known, and a places key is configured.
func (a *Assembler) loadNearby(ctx context.Context, c *Context, meta Meta) {
	if a.placeAPI == nil || !a.placeAPI.Enabled() || !intent.FoodRelated(c.Intent) {
		return
	}
	lat, lng := coordinates(meta, c.Listing)
	if lat == nil || lng == nil {
		return
	}

	found := a.placeAPI.Nearby(ctx, *lat, *lng, "restaurant", "", 3)
	origin := coordPair(*lat, *lng)
	for _, p := range found {
		rec := Recommendation{
			Label:    "Good Restaurants",
			Name:     p.Name,
			Rating:   p.Rating,
			Reviews:  p.Reviews,
			Vicinity: p.Vicinity,
		}
		if p.Lat != nil && p.Lng != nil {
			if d := a.placeAPI.DriveTime(ctx, origin, coordPair(*p.Lat, *p.Lng)); d != nil {
				m := d.Minutes
				rec.Minutes = &m
			}
		}
		c.Nearby = append(c.Nearby, rec)
	}
}

func (a *Assembler) loadExamples(ctx context.Context, c *Context) {
	if a.examples == nil {
		return
	}
	c.Learned = a.examples.FindSimilar(ctx, c.Latest, 3)
}

func latestGuestLine(history []Line, fallback string) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "guest" && history[i].Text != "" {
			return history[i].Text
		}
	}
	return fallback
}

func inferPhase(checkIn, checkOut string, now time.Time) string {
	ci := facts.ParseDate(checkIn)
	co := facts.ParseDate(checkOut)
	if ci == nil || co == nil {
		return PhaseUnknown
	}
	today := facts.DateString(now.UTC())
	switch {
	case today < facts.DateString(*ci):
		return PhasePreArrival
	case today <= facts.DateString(*co):
		return PhaseInStay
	default:
		return PhasePostStay
	}
}

func availability(w facts.CalendarWindow, date string) *bool {
	if !w.Known(date) {
		return nil
	}
	b := w.IsAvailable(date)
	return &b
}

func coordinates(meta Meta, listing facts.Listing) (*float64, *float64) {
	if meta.Latitude != nil && meta.Longitude != nil {
		return meta.Latitude, meta.Longitude
	}
	return listing.Latitude, listing.Longitude
}

func coordPair(lat, lng float64) string {
	return facts.ToString(lat) + "," + facts.ToString(lng)
}

func tail(lines []Line, n int) []Line {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func feeOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return facts.DateString(*t)
}
