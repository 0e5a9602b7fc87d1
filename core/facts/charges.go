package facts

import (
	"sort"
	"strings"
)

// depositHints are the title/description keywords that mark a charge as
// a deposit candidate alongside the preauth type.
var depositHints = []string{"deposit", "hold"}

// Charge is one normalized guest-payment charge.
type Charge struct {
	ID              int
	Type            string
	Title           string
	Description     string
	Status          string
	Amount          *float64
	CapturedAmount  *float64
	Currency        string
	PaymentMethod   string
	ScheduledDate   string
	ChargeDate      string
	HoldReleaseDate string
}

// ExtractCharges normalizes a raw charge list, tolerating either a bare
// list or a {result: [...]} wrapper.
func ExtractCharges(raw any) []Charge {
	list := chargeList(raw)
	out := make([]Charge, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := 0
		if v := ToInt(m["id"]); v != nil {
			id = *v
		}
		out = append(out, Charge{
			ID:              id,
			Type:            strings.ToLower(ToString(m["type"])),
			Title:           ToString(m["title"]),
			Description:     ToString(m["description"]),
			Status:          strings.ToLower(ToString(m["status"])),
			Amount:          ToFloat(m["amount"]),
			CapturedAmount:  ToFloat(m["capturedAmount"]),
			Currency:        ToString(m["currency"]),
			PaymentMethod:   ToString(m["paymentMethod"]),
			ScheduledDate:   ToString(m["scheduledDate"]),
			ChargeDate:      ToString(m["chargeDate"]),
			HoldReleaseDate: ToString(m["holdReleaseDate"]),
		})
	}
	return out
}

func chargeList(raw any) []any {
	switch x := raw.(type) {
	case []any:
		return x
	case map[string]any:
		if res, ok := x["result"].([]any); ok {
			return res
		}
	}
	return nil
}

// Deposit is the most recent deposit-like charge plus derived flags.
type Deposit struct {
	Present         bool
	ID              int
	Type            string
	Status          string
	Amount          *float64
	Currency        string
	ScheduledDate   string
	ChargeDate      string
	HoldReleaseDate string
	ActiveHold      bool
}

// SelectDeposit picks the deposit charge the guardrails key off: filter
// to preauth charges or ones whose title/description carries a deposit
// keyword, sort by (scheduledDate, chargeDate, id) descending, take the
// first. ActiveHold is true iff the charge is a preauth whose status is
// awaitinghold or paid.
func SelectDeposit(charges []Charge) Deposit {
	var candidates []Charge
	for _, ch := range charges {
		if ch.Type == "preauth" || hasDepositHint(ch.Title) || hasDepositHint(ch.Description) {
			candidates = append(candidates, ch)
		}
	}
	if len(candidates) == 0 {
		return Deposit{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate > b.ScheduledDate
		}
		if a.ChargeDate != b.ChargeDate {
			return a.ChargeDate > b.ChargeDate
		}
		return a.ID > b.ID
	})

	dep := candidates[0]
	return Deposit{
		Present:         true,
		ID:              dep.ID,
		Type:            dep.Type,
		Status:          dep.Status,
		Amount:          dep.Amount,
		Currency:        dep.Currency,
		ScheduledDate:   dep.ScheduledDate,
		ChargeDate:      dep.ChargeDate,
		HoldReleaseDate: dep.HoldReleaseDate,
		ActiveHold:      dep.Type == "preauth" && (dep.Status == "awaitinghold" || dep.Status == "paid"),
	}
}

func hasDepositHint(s string) bool {
	low := strings.ToLower(s)
	for _, k := range depositHints {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

// PaymentsSummary aggregates the awaiting charges and the next
// scheduled step for deposit replies.
type PaymentsSummary struct {
	HasAwaiting   bool
	AwaitingTotal float64
	NextScheduled string
}

// SummarizeCharges computes the awaiting total and the first charge
// carrying a scheduled date.
func SummarizeCharges(charges []Charge) PaymentsSummary {
	var sum PaymentsSummary
	for _, ch := range charges {
		if ch.Status == "awaiting" {
			sum.HasAwaiting = true
			if ch.Amount != nil {
				sum.AwaitingTotal += *ch.Amount
			}
		}
		if sum.NextScheduled == "" && ch.ScheduledDate != "" {
			sum.NextScheduled = ch.ScheduledDate
		}
	}
	return sum
}
