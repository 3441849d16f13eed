package workflow

import (
	"context"
	"fmt"

	"github.com/rpggio/prdinsights/internal/llm"
)

// ShouldReflect reports whether another reflection round fits the budget:
// reflection_counter < MAX_REFLECTION_COUNTER. An empty round does not end
// the loop early.
func ShouldReflect(st State) bool {
	max := st.Config.Int(MaxReflectionCounterKey, DefaultMaxReflectionCounter)
	return st.Counter(ReflectionCounterVar) < max
}

// Reflect runs one reflection round: it increments the counter and asks the
// model only for items missing from the live accumulation.
func (s *Stages) Reflect(ctx context.Context, st State) (Delta, error) {
	round := st.Counter(ReflectionCounterVar) + 1

	system, user := reflectionPrompt(st.Document.Content, st.LiveInsights(), st.LiveConcerns())
	calls, err := s.model.Invoke(ctx, llm.Request{
		Stage:        StageReflect,
		System:       system,
		User:         user,
		Capabilities: AddCapabilities(),
	})
	if err != nil {
		return Delta{}, fmt.Errorf("reflection round %d: %w", round, err)
	}

	res := s.interp.Interpret(StageReflect, calls, InterpretOptions{
		Allowed:        capabilityNames(AddCapabilities()),
		SourceDocument: st.Document.ID,
	})
	res.Delta.Vars = map[string]int{ReflectionCounterVar: round}

	s.logger.Info("reflection round complete",
		"document_id", st.Document.ID,
		"round", round,
		"new_insights", len(res.Delta.Insights),
		"new_concerns", len(res.Delta.Concerns),
	)
	return res.Delta, nil
}
