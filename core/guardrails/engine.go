// Package guardrails enforces business policy on model-drafted replies.
// The engine runs a fixed, ordered rule sequence; later rules override
// earlier ones on the same field, and the whole sequence is stable
// under a second run with unchanged context.
package guardrails

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/assemble"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/intent"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

// rule mutates the draft in place. A true result stops the sequence.
type rule struct {
	name  string
	apply func(d *reply.Draft, c *assemble.Context) bool
}

// Engine applies the policy rules in their binding order.
type Engine struct {
	rules  []rule
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger.With("component", "guardrails"),
		rules: []rule{
			{"local_recs", localRecs},
			{"door_code", doorCode},
			{"reservation_status", reservationStatus},
			{"timing_policy", timingPolicy},
			{"issue_report", issueReport},
			{"event_mention", eventMention},
			{"distance_restaurant", distanceRestaurant},
			{"deposit", deposit},
			{"date_repetition", dateRepetition},
			{"polish", polish},
		},
	}
}

// Apply runs every rule against the draft. The draft is the only thing
// mutated; the context is read-only.
func (e *Engine) Apply(d *reply.Draft, c *assemble.Context) {
	for _, r := range e.rules {
		if r.apply(d, c) {
			e.logger.Debug("guardrail short-circuit", "rule", r.name,
				"conversation_id", c.ConversationID)
			return
		}
	}
}

// localRecs formats curated nearby results deterministically and stops
// the sequence. Real data beats model prose for this category.
func localRecs(d *reply.Draft, c *assemble.Context) bool {
	if len(c.Nearby) == 0 {
		return false
	}
	var b strings.Builder
	label := ""
	for _, rec := range c.Nearby {
		if rec.Label != label {
			if label != "" {
				b.WriteString("\n")
			}
			label = rec.Label
			b.WriteString(label + ":\n")
		}
		b.WriteString("- " + rec.Name)
		var extras []string
		if rec.Rating != nil {
			r := fmt.Sprintf("%.1f", *rec.Rating)
			if rec.Reviews != nil {
				r += fmt.Sprintf(" (%d reviews)", *rec.Reviews)
			}
			extras = append(extras, r)
		}
		if rec.Minutes != nil {
			extras = append(extras, fmt.Sprintf("~%d min drive", *rec.Minutes))
		}
		if len(extras) > 0 {
			b.WriteString(" (" + strings.Join(extras, ", ") + ")")
		}
		b.WriteString("\n")
	}
	d.Reply = strings.TrimSpace(b.String())
	d.NeedsClarification = false
	d.ClarifyingQuestion = ""
	return true
}

// doorCode controls access-code disclosure. The code is emitted only on
// check-in day or later; before that the reply is fully overwritten so
// nothing the model produced can leak it.
func doorCode(d *reply.Draft, c *assemble.Context) bool {
	if !intent.MentionsAccessCode(c.Latest) {
		return false
	}
	if c.IsCheckinDay && c.DoorCode != "" {
		d.Reply = fmt.Sprintf("Your door code is %s. Enter it on the keypad and press the check mark to unlock.", c.DoorCode)
	} else {
		d.Reply = "For security I send door access details closer to arrival. You'll have full check-in instructions the morning of your stay."
	}
	return false
}

func reservationStatus(d *reply.Draft, c *assemble.Context) bool {
	switch {
	case c.Status.NotActive():
		d.Reply = "This reservation isn't active. I can share available dates or set you up with a new booking."
		d.NeedsClarification = true
		if d.ClarifyingQuestion == "" {
			d.ClarifyingQuestion = "Want me to check fresh dates for you?"
		}
		d.Actions.CheckCalendar = true

	case c.Status == "ownerstay":
		d.Reply = "Those dates aren't available due to an owner stay. I can suggest nearby dates that are open."
		d.NeedsClarification = true
		if d.ClarifyingQuestion == "" {
			d.ClarifyingQuestion = "Are your dates flexible?"
		}
		d.Actions.CheckCalendar = true

	case c.Status.PaymentOutstanding():
		low := strings.ToLower(d.Reply)
		if strings.Contains(low, "confirmed") || strings.Contains(low, "you're all set") || strings.Contains(low, "you’re all set") {
			d.Reply = "I can hold this while payment is completed. Once that's done, I'll confirm right away."
		}
	}
	return false
}

// timingPolicy recomputes early/late/extension replies from the raw
// policy numbers and calendar availability instead of trusting the
// model's draft.
func timingPolicy(d *reply.Draft, c *assemble.Context) bool {
	switch c.Intent {
	case reply.IntentEarlyCheckIn:
		text := fmt.Sprintf("Standard check-in is %s.", c.CheckInTime)
		if open := c.Calendar.PriorNightOpen; open != nil && !*open {
			text += " The night before is booked, so early check-in may not be possible. I can request it if anything changes."
			d.Reply = text
			d.Actions.CheckCalendar = true
		} else {
			text += fmt.Sprintf(" I can request early check-in if the schedule allows (typically $%d).", c.EarlyFee)
			d.Reply = text
			finishTiming(d, "What time are you hoping for?")
		}
		upsell(d, c)

	case reply.IntentLateCheckout:
		text := fmt.Sprintf("Check-out is %s.", c.CheckOutTime)
		if open := c.Calendar.CheckoutAvailable; open != nil && !*open {
			text += " The home turns over that day, so late checkout may not be possible. I can request it if anything changes."
			d.Reply = text
			d.Actions.CheckCalendar = true
		} else {
			text += fmt.Sprintf(" I can request late checkout if possible (typically $%d).", c.LateFee)
			d.Reply = text
			finishTiming(d, "What time are you hoping for?")
		}
		upsell(d, c)

	case reply.IntentExtendStay:
		if c.CheckOut == "" || c.Extension.NewCheckOut == "" {
			d.Reply = "I can check an extension for you and see if the extra nights are open."
			finishTiming(d, "How many extra nights are you thinking?")
			return false
		}
		text := fmt.Sprintf("You're currently booked through %s. I can check extending to %s.", c.CheckOut, c.Extension.NewCheckOut)
		if c.Extension.Subtotal != nil {
			text += fmt.Sprintf(" Rough subtotal for %d night(s): %s %.0f before taxes/fees.",
				c.Extension.Nights, currencyOf(c), *c.Extension.Subtotal)
		}
		text += " Want me to confirm availability and lock it in?"
		d.Reply = text
		finishTiming(d, "Should I go ahead and check those dates?")
	}
	return false
}

func finishTiming(d *reply.Draft, clarifier string) {
	d.NeedsClarification = true
	if d.ClarifyingQuestion == "" {
		d.ClarifyingQuestion = clarifier
	}
	d.Actions.CheckCalendar = true
}

// upsell appends a single extension offer when the night after checkout
// is independently open. The "tip" gate keeps the append one-shot.
func upsell(d *reply.Draft, c *assemble.Context) {
	if c.Calendar.DayAfterOpen == nil || !*c.Calendar.DayAfterOpen {
		return
	}
	if strings.Contains(strings.ToLower(d.Reply), "tip") {
		return
	}
	d.Reply += " Tip: the night after your stay is open too, so I can also check an extension if you'd like extra time."
}

var selfCleanPattern = regexp.MustCompile(`(?i)(we can leave|i can leave|there are) (a )?(vacuum|broom|cleaning supplies)[^.!?]*[.!?]?`)

func issueReport(d *reply.Draft, c *assemble.Context) bool {
	if !intent.MentionsCleanliness(c.Latest) && c.Intent != reply.IntentIssueReport && d.Intent != reply.IntentIssueReport {
		return false
	}
	text := d.Reply
	low := strings.ToLower(text)
	if !strings.Contains(low, "sorry") && !strings.Contains(low, "apolog") {
		text = "I'm sorry about that. " + text
	}
	if !strings.Contains(strings.ToLower(text), "cleaner") {
		if text != "" {
			text += " "
		}
		text += "I can send our cleaners back—what time works for you?"
	}
	text = strings.TrimSpace(selfCleanPattern.ReplaceAllString(text, ""))
	d.Reply = text
	return false
}

func eventMention(d *reply.Draft, c *assemble.Context) bool {
	if !intent.MentionsEvent(c.Latest) {
		return false
	}
	if strings.Contains(strings.ToLower(d.Reply), "tip") {
		return false
	}
	if d.Reply != "" {
		d.Reply += " "
	}
	d.Reply += "Great time to visit—if you need parking or local tips for the event, I've got you."
	return false
}

func distanceRestaurant(d *reply.Draft, c *assemble.Context) bool {
	if !intent.AsksDistance(c.Latest) || !intent.MentionsRestaurant(c.Latest) {
		return false
	}
	if strings.Contains(strings.ToLower(d.Reply), "busy") {
		return false
	}
	if d.Reply != "" {
		d.Reply += " "
	}
	d.Reply += "It can get busy on weekends—going a bit early helps."
	return false
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// deposit selects the response shape by priority: exact amount when the
// guest asked how much, then active hold, then awaiting, then generic.
// Payment links are stripped unless explicitly requested.
func deposit(d *reply.Draft, c *assemble.Context) bool {
	if !intent.MentionsDeposit(c.Latest) {
		return false
	}

	amount := c.Deposit.Amount
	currency := c.Deposit.Currency
	if currency == "" {
		currency = "USD"
	}
	text := d.Reply

	switch {
	case intent.AsksDepositAmount(c.Latest) && amount != nil:
		text = fmt.Sprintf("Yes—%s %.0f. It's a refundable hold processed before arrival.", currency, *amount)
	case c.Deposit.ActiveHold && amount != nil:
		text = fmt.Sprintf("We already have a refundable hold on file for %s %.0f.", currency, *amount)
		if c.Deposit.HoldReleaseDate != "" {
			text += fmt.Sprintf(" It auto-releases on %s.", c.Deposit.HoldReleaseDate)
		}
	case c.Deposit.Status == "awaiting" && amount != nil:
		text = fmt.Sprintf("A refundable hold of %s %.0f is scheduled/awaiting.", currency, *amount)
		if c.Payments.NextScheduled != "" {
			text += fmt.Sprintf(" Next scheduled step: %s.", c.Payments.NextScheduled)
		}
	default:
		if text == "" {
			text = "It's a refundable hold processed before arrival."
		}
	}

	if !intent.AsksPaymentLink(c.Latest) {
		text = strings.TrimSpace(urlPattern.ReplaceAllString(text, ""))
	}
	d.Reply = text
	return false
}

var dateAskPattern = regexp.MustCompile(`(?i)[^.!?]*\b(?:your|the|what|which|exact)\b[^.!?]{0,40}?\bdates\b[^.!?]*[.!?]?`)

// dateRepetition strips requests for dates the context already has and
// swaps a date-asking clarifier for a generic proceed question.
func dateRepetition(d *reply.Draft, c *assemble.Context) bool {
	if c.CheckIn == "" || c.CheckOut == "" {
		return false
	}
	d.Reply = strings.TrimSpace(dateAskPattern.ReplaceAllString(d.Reply, ""))
	if dateAskPattern.MatchString(d.ClarifyingQuestion) {
		d.ClarifyingQuestion = "Want me to go ahead with that?"
	}
	return false
}

var (
	misJoinPattern    = regexp.MustCompile(`([.!?])([A-Z])`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

func polish(d *reply.Draft, c *assemble.Context) bool {
	d.Reply = polishText(d.Reply)
	d.ClarifyingQuestion = polishText(d.ClarifyingQuestion)
	return false
}

func polishText(s string) string {
	s = misJoinPattern.ReplaceAllString(s, "$1 $2")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinePattern.ReplaceAllString(s, "\n\n")
	s = strings.ReplaceAll(s, " ,", ",")
	s = strings.ReplaceAll(s, " .", ".")
	return strings.TrimSpace(s)
}

func currencyOf(c *assemble.Context) string {
	if c.Reservation.Currency != "" {
		return c.Reservation.Currency
	}
	return "USD"
}
