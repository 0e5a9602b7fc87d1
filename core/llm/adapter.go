// Package llm adapts the completion service to the structured draft the
// pipeline needs. Transport errors, unparseable output, and schema
// violations all collapse into the fixed fallback draft rather than
// propagating.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

// Completer is the raw text-completion surface.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const completionTimeout = 20 * time.Second

// Adapter turns completion output into a validated draft.
type Adapter struct {
	completer Completer
	logger    *slog.Logger
}

func NewAdapter(completer Completer, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{completer: completer, logger: logger.With("component", "llm")}
}

// Draft requests a completion and parses it into a draft. Any failure
// returns the fallback draft; the error path never escapes.
func (a *Adapter) Draft(ctx context.Context, system, user string) *reply.Draft {
	if a.completer == nil {
		return reply.Fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	raw, err := a.completer.Complete(ctx, system, user)
	if err != nil {
		a.logger.Warn("completion failed", "stage", "complete", "error", err)
		return reply.Fallback()
	}

	draft, err := Parse(raw)
	if err != nil {
		a.logger.Warn("completion output rejected", "stage", "parse", "error", err,
			"raw_prefix", prefix(raw, 300))
		return reply.Fallback()
	}
	return draft
}

// Parse decodes completion output into a draft, tolerating a fenced
// code block around the JSON, then coerces loose typing into the fixed
// schema. A confidence outside [0,1] fails the parse; a missing one
// defaults to 0.6.
func Parse(raw string) (*reply.Draft, error) {
	raw = stripFence(strings.TrimSpace(raw))

	var loose struct {
		Intent             string         `json:"intent"`
		Confidence         any            `json:"confidence"`
		NeedsClarification any            `json:"needs_clarification"`
		ClarifyingQuestion any            `json:"clarifying_question"`
		Reply              any            `json:"reply"`
		Citations          []any          `json:"citations"`
		Actions            map[string]any `json:"actions"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, err
	}

	d := &reply.Draft{
		Intent:             reply.CanonicalIntent(loose.Intent),
		Confidence:         0.6,
		NeedsClarification: coerceBool(loose.NeedsClarification),
		ClarifyingQuestion: coerceString(loose.ClarifyingQuestion),
		Reply:              coerceString(loose.Reply),
		Citations:          []string{},
	}
	if f, ok := coerceFloat(loose.Confidence); ok {
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("confidence %v out of range", f)
		}
		d.Confidence = f
	}
	for _, c := range loose.Citations {
		if len(d.Citations) >= reply.MaxCitations {
			break
		}
		d.Citations = append(d.Citations, coerceString(c))
	}
	d.Actions = reply.Actions{
		CheckCalendar:      coerceBool(loose.Actions["check_calendar"]),
		CreateOffer:        coerceBool(loose.Actions["create_offer"]) || coerceBool(loose.Actions["create_hostaway_offer"]),
		SendManual:         coerceBool(loose.Actions["send_manual"]) || coerceBool(loose.Actions["send_house_manual"]),
		LogIssue:           coerceBool(loose.Actions["log_issue"]),
		TagLearningExample: coerceBool(loose.Actions["tag_learning_example"]),
	}
	return d, nil
}

// stripFence unwraps ```json ... ``` style fencing when present.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "true" || x == "1" || x == "yes"
	}
	return false
}

func coerceString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
