package assistants

import (
	"context"

	"github.com/openai/openai-go/v2"

	"github.com/petasbytes/stock-analyzer/internal/metrics"
	"github.com/petasbytes/stock-analyzer/internal/telemetry"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Assistant *openai.Assistant
	// Created is true only when the returned assistant was created by this call.
	Created bool
	// Reconciled is set when a concurrent duplicate won and ours was deleted.
	Reconciled bool
	// Discarded is the ID of the deleted duplicate when Reconciled.
	Discarded string
}

// Outcome names the resolution for logs and metrics.
func (r Resolution) Outcome() string {
	switch {
	case r.Reconciled:
		return "reconciled"
	case r.Created:
		return "created"
	default:
		return "matched"
	}
}

// FindByName returns the first assistant whose name equals name exactly.
func FindByName(list []openai.Assistant, name string) (openai.Assistant, bool) {
	for _, a := range list {
		if a.Name == name {
			return a, true
		}
	}
	return openai.Assistant{}, false
}

// Resolve returns the assistant called name, creating it with instructions and
// model when none exists. An existing assistant wins even if its instructions
// or model differ.
func (s *Service) Resolve(ctx context.Context, name, instructions, model string, reconcile bool) (Resolution, error) {
	list, err := s.ListAssistants(ctx)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	if a, ok := FindByName(list, name); ok {
		res = Resolution{Assistant: &a}
	} else {
		created, err := s.CreateAssistant(ctx, name, instructions, model)
		if err != nil {
			return Resolution{}, err
		}
		res = Resolution{Assistant: created, Created: true}
		if reconcile {
			if res, err = s.reconcile(ctx, name, created); err != nil {
				return Resolution{}, err
			}
		}
	}

	metrics.AssistantsResolved.WithLabelValues(res.Outcome()).Inc()
	fields := map[string]any{
		"assistant_id": res.Assistant.ID,
		"outcome":      res.Outcome(),
		"listed":       len(list),
	}
	if res.Discarded != "" {
		fields["discarded_id"] = res.Discarded
	}
	telemetry.EmitCtx(ctx, "assistant_resolved", fields)
	return res, nil
}

// reconcile re-lists after a create and converges on the oldest assistant
// carrying name, deleting ours if it lost.
func (s *Service) reconcile(ctx context.Context, name string, created *openai.Assistant) (Resolution, error) {
	list, err := s.ListAssistants(ctx)
	if err != nil {
		return Resolution{}, err
	}
	winner, ok := oldestByName(list, name)
	if !ok || winner.ID == created.ID {
		return Resolution{Assistant: created, Created: true}, nil
	}
	if err := s.DeleteAssistant(ctx, created.ID); err != nil {
		return Resolution{}, err
	}
	return Resolution{Assistant: &winner, Reconciled: true, Discarded: created.ID}, nil
}

// oldestByName picks the smallest created_at among assistants named name,
// ties broken by the smaller ID.
func oldestByName(list []openai.Assistant, name string) (openai.Assistant, bool) {
	var best openai.Assistant
	found := false
	for _, a := range list {
		if a.Name != name {
			continue
		}
		if !found || a.CreatedAt < best.CreatedAt || (a.CreatedAt == best.CreatedAt && a.ID < best.ID) {
			best = a
			found = true
		}
	}
	return best, found
}
