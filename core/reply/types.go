// Package reply defines the structured draft produced by the completion
// adapter and mutated by the guardrail engine.
package reply

import "strings"

// Intent is the closed set of guest-message intents.
type Intent string

const (
	IntentQuestion        Intent = "question"
	IntentEarlyCheckIn    Intent = "early_check_in"
	IntentLateCheckout    Intent = "late_checkout"
	IntentExtendStay      Intent = "extend_stay"
	IntentPriceQuote      Intent = "price_quote"
	IntentDiscountRequest Intent = "discount_request"
	IntentIssueReport     Intent = "issue_report"
	IntentDirections      Intent = "directions"
	IntentAmenities       Intent = "amenities"
	IntentRules           Intent = "rules"
	IntentCheckinHelp     Intent = "checkin_help"
	IntentCheckoutHelp    Intent = "checkout_help"
	IntentFoodRecs        Intent = "food_recs"
	IntentOther           Intent = "other"
)

var validIntents = map[Intent]bool{
	IntentQuestion:        true,
	IntentEarlyCheckIn:    true,
	IntentLateCheckout:    true,
	IntentExtendStay:      true,
	IntentPriceQuote:      true,
	IntentDiscountRequest: true,
	IntentIssueReport:     true,
	IntentDirections:      true,
	IntentAmenities:       true,
	IntentRules:           true,
	IntentCheckinHelp:     true,
	IntentCheckoutHelp:    true,
	IntentFoodRecs:        true,
	IntentOther:           true,
}

// intentSynonyms maps labels the completion service is known to emit to
// canonical intents.
var intentSynonyms = map[string]Intent{
	"report_issue":     IntentIssueReport,
	"issue":            IntentIssueReport,
	"complaint":        IntentIssueReport,
	"question_general": IntentQuestion,
	"checkin":          IntentCheckinHelp,
	"checkout":         IntentCheckoutHelp,
	"food":             IntentFoodRecs,
	"restaurant_recs":  IntentFoodRecs,
	"recommendations":  IntentFoodRecs,
	"extension":        IntentExtendStay,
	"pricing":          IntentPriceQuote,
}

// CanonicalIntent folds an arbitrary label into the closed intent set,
// falling back to IntentOther.
func CanonicalIntent(s string) Intent {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return IntentOther
	}
	if mapped, ok := intentSynonyms[label]; ok {
		return mapped
	}
	if validIntents[Intent(label)] {
		return Intent(label)
	}
	return IntentOther
}

// Actions are the operator follow-ups a draft can request.
type Actions struct {
	CheckCalendar      bool `json:"check_calendar"`
	CreateOffer        bool `json:"create_offer"`
	SendManual         bool `json:"send_manual"`
	LogIssue           bool `json:"log_issue"`
	TagLearningExample bool `json:"tag_learning_example"`
}

// MaxCitations bounds the citation list on a draft.
const MaxCitations = 10

// Draft is the structured reply. After construction only the guardrail
// engine mutates it.
type Draft struct {
	Intent             Intent   `json:"intent"`
	Confidence         float64  `json:"confidence"`
	NeedsClarification bool     `json:"needs_clarification"`
	ClarifyingQuestion string   `json:"clarifying_question"`
	Reply              string   `json:"reply"`
	Citations          []string `json:"citations"`
	Actions            Actions  `json:"actions"`
}

// Fallback is the fixed safe draft substituted when the completion
// service output cannot be parsed or validated.
func Fallback() *Draft {
	return &Draft{
		Intent:             IntentOther,
		Confidence:         0.4,
		NeedsClarification: true,
		ClarifyingQuestion: "Could you share your dates and guest count so I can confirm?",
		Reply:              "Happy to help. Once I have your dates and guest count, I can confirm next steps.",
		Citations:          []string{},
	}
}
