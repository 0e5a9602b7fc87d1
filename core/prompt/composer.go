// Package prompt renders an assembled context into the system and user
// prompts for the completion service. Sections render only when their
// source data exists; the composer never invents placeholder values.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/assemble"
)

// System is the fixed instruction block. It is identical across calls
// so model behavior stays consistent.
const System = `You are a warm, concise, highly competent human host for a short-term rental.
No emojis. No sign-offs. Short paragraphs.

HARD RULES:
1) Never confirm early check-in/late checkout/extension unless policy/calendar confirms. State standard times and that you can check; include fee if applicable.
2) If missing critical info, ask ONE crisp clarifier and propose next step.
3) Quote policies accurately; if unknown, say you'll check and follow up.
4) Safety: urgent issues get escalated with immediate steps.
5) Cleanliness: brief apology plus offer to send cleaners; do NOT suggest the guest clean.
6) Deposit and payments:
   - Only send a payment link if guest explicitly asks for a link/pay now.
   - If they ask "is it $X?", answer the amount precisely from context. Mention it is a refundable hold if applicable.
   - If a deposit hold already exists or is awaiting-hold, say it is on file plus release date.
7) Events: acknowledge if mentioned and offer tips.
8) Restaurant distance questions: add one practical tip; no invented details.
9) Respect reservation status:
   - cancelled/expired/declined: do NOT confirm anything; offer alternatives/help only.
   - ownerStay: unavailable; offer other dates.
   - pending/awaitingPayment: do NOT confirm; nudge the next step.
   - inquiry/new/modified: normal, but do not over-promise.

Answer only from the provided context. Never output placeholder text like [name] or TBD.
Return only JSON with: intent, confidence, needs_clarification, clarifying_question, reply, citations[], actions{check_calendar, create_offer, send_manual, log_issue, tag_learning_example}.`

const (
	maxExamples      = 3
	maxExampleLength = 600
	maxHistoryLines  = 8
)

// Compose renders the user prompt for one context. The system prompt is
// the package constant.
func Compose(c *assemble.Context) string {
	var b strings.Builder

	if s := reservationSection(c); s != "" {
		section(&b, "Reservation", s)
	}
	if s := propertySection(c); s != "" {
		section(&b, "Property", s)
	}
	if s := amenitySection(c); s != "" {
		section(&b, "Amenities", s)
	}
	if s := calendarSection(c); s != "" {
		section(&b, "Calendar", s)
	}
	if s := depositSection(c); s != "" {
		section(&b, "Deposit", s)
	}
	if s := learnedSection(c); s != "" {
		section(&b, "Prior approved answers", s)
	}
	if s := historySection(c); s != "" {
		section(&b, "Conversation", s)
	}

	fmt.Fprintf(&b, "Detected intent hint: %s\n", c.Intent)
	fmt.Fprintf(&b, "Guest message: %s\n", c.Latest)
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(title)
	b.WriteString(":\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

func reservationSection(c *assemble.Context) string {
	var lines []string
	if c.Reservation.GuestFirstName != "" {
		lines = append(lines, "Guest: "+c.Reservation.GuestFirstName)
	}
	if c.CheckIn != "" && c.CheckOut != "" {
		lines = append(lines, fmt.Sprintf("Dates: %s to %s", c.CheckIn, c.CheckOut))
	}
	if c.Reservation.Guests != nil {
		lines = append(lines, fmt.Sprintf("Guests: %d", *c.Reservation.Guests))
	}
	if c.Status != "" {
		lines = append(lines, "Status: "+string(c.Status))
	}
	if c.Phase != assemble.PhaseUnknown {
		lines = append(lines, "Stay phase: "+c.Phase)
	}
	return strings.Join(lines, "\n")
}

func propertySection(c *assemble.Context) string {
	var lines []string
	if c.Listing.Name != "" {
		lines = append(lines, "Name: "+c.Listing.Name)
	}
	if s := c.Listing.Summary(); s != "" {
		lines = append(lines, "Layout: "+s)
	}
	lines = append(lines, fmt.Sprintf("Standard check-in %s, check-out %s", c.CheckInTime, c.CheckOutTime))
	if c.Listing.Cancellation != "" {
		lines = append(lines, "Cancellation policy: "+c.Listing.Cancellation)
	}
	if c.Listing.WifiUsername != "" {
		lines = append(lines, fmt.Sprintf("Wi-Fi: %s / %s", c.Listing.WifiUsername, c.Listing.WifiPassword))
	}
	return strings.Join(lines, "\n")
}

func amenitySection(c *assemble.Context) string {
	idx := c.Listing.Amenities
	if idx == nil {
		return ""
	}
	var have []string
	for key, ok := range idx.Amenities {
		if ok {
			have = append(have, key)
		}
	}
	if len(have) == 0 {
		return ""
	}
	sort.Strings(have)
	return strings.Join(have, ", ")
}

func calendarSection(c *assemble.Context) string {
	if !c.Calendar.LookedUp {
		return ""
	}
	var lines []string
	if v := c.Calendar.CheckinAvailable; v != nil {
		lines = append(lines, fmt.Sprintf("Check-in day open: %t", *v))
	}
	if v := c.Calendar.DayAfterOpen; v != nil {
		lines = append(lines, fmt.Sprintf("Night after checkout open: %t", *v))
	}
	if c.Extension.Requested && c.Extension.NewCheckOut != "" {
		line := "Requested new check-out: " + c.Extension.NewCheckOut
		if c.Extension.Subtotal != nil {
			line += fmt.Sprintf(" (subtotal %.2f)", *c.Extension.Subtotal)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func depositSection(c *assemble.Context) string {
	if !c.Deposit.Present {
		return ""
	}
	var lines []string
	if c.Deposit.Amount != nil {
		cur := c.Deposit.Currency
		if cur == "" {
			cur = "USD"
		}
		lines = append(lines, fmt.Sprintf("Deposit: %s %.0f (%s)", cur, *c.Deposit.Amount, c.Deposit.Status))
	}
	if c.Deposit.ActiveHold {
		lines = append(lines, "An active refundable hold is on file.")
	}
	if c.Deposit.HoldReleaseDate != "" {
		lines = append(lines, "Hold releases: "+c.Deposit.HoldReleaseDate)
	}
	return strings.Join(lines, "\n")
}

func learnedSection(c *assemble.Context) string {
	if len(c.Learned) == 0 {
		return ""
	}
	var lines []string
	for i, ex := range c.Learned {
		if i >= maxExamples {
			break
		}
		lines = append(lines, "Q: "+truncate(ex.Question, maxExampleLength))
		lines = append(lines, "A: "+truncate(ex.Answer, maxExampleLength))
	}
	return strings.Join(lines, "\n")
}

func historySection(c *assemble.Context) string {
	if len(c.History) == 0 {
		return ""
	}
	start := 0
	if len(c.History) > maxHistoryLines {
		start = len(c.History) - maxHistoryLines
	}
	var lines []string
	for _, l := range c.History[start:] {
		lines = append(lines, l.Role+": "+l.Text)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
