// Package intent classifies guest free text into the fixed intent set
// using an ordered list of keyword groups. The first matching group
// wins; downstream guardrails branch on the result, so the priority
// order is part of the contract.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

var earlyCheckInPhrases = []string{
	"early check in", "early check-in", "earlier check in", "earlier check-in",
	"arrive early", "check in early", "check-in early", "drop bags early",
}

var lateCheckoutPhrases = []string{
	"late check out", "late check-out", "later check out", "later check-out",
	"leave late", "check out late", "check-out late", "stay later",
}

var extendPhrases = []string{"extend", "extra night", "stay longer", "more nights", "another night"}

var foodPhrases = []string{
	"places to eat", "where to eat", "food recommendations", "good food",
	"breakfast", "lunch", "dinner", "coffee shop", "somewhere to eat",
}

var distancePhrases = []string{"how far", "distance", "drive time", "driving time", "travel time", "how long to get"}

var depositPhrases = []string{"deposit", "security deposit"}

var cleanlinessWords = []string{
	"dirty", "messy", "sand", "sandy", "smell", "smelly", "sticky",
	"dust", "trash", "bug", "bugs", "roach", "ants", "stain",
}

var restaurantWords = []string{"restaurant", "stingaree", "stingray", "marina"}

var eventPhrases = []string{
	"lone star rally", "lone star bike rally", "mardi gras", "spring break", "rodeo", "festival",
}

var accessCodePhrases = []string{
	"door code", "access code", "lock code", "keypad", "entry code", "code to get in", "door pin",
}

var paymentLinkPhrases = []string{"link", "portal", "send link", "pay now", "payment link"}

var depositAmountPhrases = []string{"how much", "amount", "$", "is the security deposit", "is deposit", "deposit $"}

// extraNightsPattern captures a cardinal night/day count adjacent to an
// add/extend/extra/stay lead-in, e.g. "extend 3 more nights".
var extraNightsPattern = regexp.MustCompile(`(?i)\b(?:add|extend(?:ing)?|extra|stay|more)\b\D{0,15}?(\d{1,2})\s*(?:more\s+)?(?:night|day)s?\b`)

type rule struct {
	intent  reply.Intent
	matches func(m string) bool
}

// Classifier evaluates the fixed keyword priority list.
type Classifier struct {
	rules []rule
}

// New builds the classifier with its fixed rule order: early check-in,
// late checkout, extension, food, distance, deposit, cleanliness,
// restaurant names, then other.
func New() *Classifier {
	return &Classifier{rules: []rule{
		{reply.IntentEarlyCheckIn, containsAny(earlyCheckInPhrases)},
		{reply.IntentLateCheckout, containsAny(lateCheckoutPhrases)},
		{reply.IntentExtendStay, func(m string) bool {
			return containsAny(extendPhrases)(m) || extraNightsPattern.MatchString(m)
		}},
		{reply.IntentFoodRecs, containsAny(foodPhrases)},
		{reply.IntentDirections, containsAny(distancePhrases)},
		{reply.IntentRules, containsAny(depositPhrases)},
		{reply.IntentIssueReport, containsAny(cleanlinessWords)},
		{reply.IntentDirections, containsAny(restaurantWords)},
	}}
}

// Classify returns the first matching group's intent, or IntentOther.
func (c *Classifier) Classify(text string) reply.Intent {
	m := strings.ToLower(text)
	for _, r := range c.rules {
		if r.matches(m) {
			return r.intent
		}
	}
	return reply.IntentOther
}

// ExtraNights extracts the requested extension length. Nil when the
// message carries no usable count.
func ExtraNights(text string) *int {
	m := extraNightsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func containsAny(phrases []string) func(string) bool {
	return func(m string) bool {
		for _, p := range phrases {
			if strings.Contains(m, p) {
				return true
			}
		}
		return false
	}
}

// The predicates below feed individual guardrails; they scan the latest
// guest line, not the whole history.

func MentionsAccessCode(text string) bool {
	return containsAny(accessCodePhrases)(strings.ToLower(text))
}

func MentionsCleanliness(text string) bool {
	return containsAny(cleanlinessWords)(strings.ToLower(text))
}

func MentionsEvent(text string) bool {
	return containsAny(eventPhrases)(strings.ToLower(text))
}

func AsksDistance(text string) bool {
	return containsAny(distancePhrases)(strings.ToLower(text))
}

func MentionsRestaurant(text string) bool {
	return containsAny(restaurantWords)(strings.ToLower(text))
}

func MentionsDeposit(text string) bool {
	return containsAny(depositPhrases)(strings.ToLower(text))
}

func AsksDepositAmount(text string) bool {
	return containsAny(depositAmountPhrases)(strings.ToLower(text))
}

func AsksPaymentLink(text string) bool {
	return containsAny(paymentLinkPhrases)(strings.ToLower(text))
}

// FoodRelated reports whether an intent should trigger the nearby
// places lookup.
func FoodRelated(i reply.Intent) bool {
	return i == reply.IntentFoodRecs
}
