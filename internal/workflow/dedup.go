package workflow

import (
	"context"
	"fmt"

	"github.com/rpggio/prdinsights/internal/llm"
)

// Deduplicate asks the model to tombstone duplicate items. Only the delete
// operations are offered. Nothing live means no model call.
func (s *Stages) Deduplicate(ctx context.Context, st State) (Delta, error) {
	insights, concerns := st.LiveInsights(), st.LiveConcerns()
	if len(insights) == 0 && len(concerns) == 0 {
		s.logger.Info("nothing to deduplicate", "document_id", st.Document.ID)
		return Delta{}, nil
	}

	system, user := dedupPrompt(insights, concerns)
	calls, err := s.model.Invoke(ctx, llm.Request{
		Stage:        StageDeduplicate,
		System:       system,
		User:         user,
		Capabilities: DeleteCapabilities(),
	})
	if err != nil {
		return Delta{}, fmt.Errorf("deduplicating: %w", err)
	}

	res := s.interp.Interpret(StageDeduplicate, calls, InterpretOptions{
		Allowed:        capabilityNames(DeleteCapabilities()),
		SourceDocument: st.Document.ID,
	})
	s.logger.Info("deduplication complete",
		"document_id", st.Document.ID,
		"deleted_insights", len(res.Delta.DeletedInsights),
		"deleted_concerns", len(res.Delta.DeletedConcerns),
	)
	return res.Delta, nil
}
