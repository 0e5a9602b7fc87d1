package facts

import "time"

// CalendarDay is one normalized day record from a calendar payload.
type CalendarDay struct {
	Date      string
	Available bool
	Rate      *float64
}

// CalendarWindow is the normalized per-date view of a calendar response
// for a queried range.
type CalendarWindow struct {
	days map[string]CalendarDay
}

// ExtractCalendar normalizes a calendar payload. The providers return
// three shapes: a bare day list, {result: [...]}, and
// {result: {calendar: [...]}}; all are accepted.
func ExtractCalendar(raw any) CalendarWindow {
	w := CalendarWindow{days: map[string]CalendarDay{}}
	for _, item := range calendarDayList(raw) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date := ToString(m["date"])
		if date == "" {
			continue
		}
		w.days[date] = CalendarDay{
			Date:      date,
			Available: dayAvailable(m),
			Rate:      ToFloat(getMap(m, "price", "dailyPrice", "rate")),
		}
	}
	return w
}

func calendarDayList(raw any) []any {
	switch x := raw.(type) {
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	case map[string]any:
		switch res := x["result"].(type) {
		case []any:
			return res
		case map[string]any:
			if cal, ok := res["calendar"].([]any); ok {
				return cal
			}
		}
	}
	return nil
}

// dayAvailable applies the availability signals in priority order and
// stops at the first applicable one: explicit isAvailable, then a
// status field, then absence of both a blocked flag and a reservation.
func dayAvailable(m map[string]any) bool {
	if v, ok := m["isAvailable"]; ok && v != nil {
		if b := ToBool(v); b != nil {
			return *b
		}
		return false
	}
	if s := ToString(m["status"]); s != "" {
		return s == "available"
	}
	if b := ToBool(m["blocked"]); b != nil && *b {
		return false
	}
	return ToString(m["reservationId"]) == ""
}

// Len reports the number of normalized days in the window.
func (w CalendarWindow) Len() int { return len(w.days) }

// IsAvailable reports whether the given ISO day is open. Days absent
// from the window are not available.
func (w CalendarWindow) IsAvailable(date string) bool {
	d, ok := w.days[date]
	return ok && d.Available
}

// Known reports whether the window has any record for the given day.
func (w CalendarWindow) Known(date string) bool {
	_, ok := w.days[date]
	return ok
}

// NightRate returns the nightly rate for the given day, nil when the
// source provided none.
func (w CalendarWindow) NightRate(date string) *float64 {
	if d, ok := w.days[date]; ok {
		return d.Rate
	}
	return nil
}

// EstimateExtension sums nightly rates over the half-open range
// [start, end). The subtotal is reported only when every night in the
// range has a resolvable rate; any gap yields nil rather than a
// partial figure.
func (w CalendarWindow) EstimateExtension(start, end time.Time) *float64 {
	if !start.Before(end) {
		return nil
	}
	total := 0.0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		rate := w.NightRate(DateString(d))
		if rate == nil {
			return nil
		}
		total += *rate
	}
	return &total
}
