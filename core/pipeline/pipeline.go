// Package pipeline wires the assembler, prompt composer, completion
// adapter, and guardrail engine into the single public operation:
// compose one reply for one guest message.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/assemble"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/guardrails"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/llm"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/prompt"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/reply"
)

// Pipeline is the request-scoped reply composer. One call per incoming
// guest message; no state is shared between calls.
type Pipeline struct {
	assembler *assemble.Assembler
	adapter   *llm.Adapter
	guards    *guardrails.Engine
	logger    *slog.Logger
}

func New(assembler *assemble.Assembler, adapter *llm.Adapter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		assembler: assembler,
		adapter:   adapter,
		guards:    guardrails.New(logger),
		logger:    logger.With("component", "pipeline"),
	}
}

// ComposeReply runs the full pipeline and returns the guarded draft
// plus its citations. It never fails: provider outages degrade to
// absent facts and completion failures degrade to the fallback draft.
func (p *Pipeline) ComposeReply(ctx context.Context, message string, history []assemble.Line, meta assemble.Meta) (*reply.Draft, []string) {
	c := p.assembler.Build(ctx, message, history, meta)

	draft := p.adapter.Draft(ctx, prompt.System, prompt.Compose(c))
	p.guards.Apply(draft, c)

	p.logger.Info("reply composed",
		"conversation_id", meta.ConversationID,
		"intent", draft.Intent,
		"confidence", draft.Confidence,
		"needs_clarification", draft.NeedsClarification)
	return draft, draft.Citations
}
