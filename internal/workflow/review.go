package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/insight"
)

// Review projects the live insights and concerns of st.
func Review(st State) ([]insight.Insight, []insight.Concern) {
	return st.LiveInsights(), st.LiveConcerns()
}

// review is the terminal stage. It adds nothing to the state.
func (s *Stages) review(ctx context.Context, st State) (Delta, error) {
	insights, concerns := Review(st)
	s.logger.Info("review ready",
		"document_id", st.Document.ID,
		"insights", len(insights),
		"concerns", len(concerns),
		"failed_chunks", len(st.FailedChunks),
	)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		var b strings.Builder
		if err := RenderReview(&b, insights, concerns); err == nil {
			s.logger.Debug("review", "document_id", st.Document.ID, "markdown", b.String())
		}
	}
	return Delta{}, nil
}

// RenderReview writes insights and concerns as markdown.
func RenderReview(w io.Writer, insights []insight.Insight, concerns []insight.Concern) error {
	ew := &errWriter{w: w}

	ew.printf("## Product insights (%d)\n\n", len(insights))
	for i, in := range insights {
		ew.printf("### %d. %s\n\n", i+1, in.Title)
		ew.printf("- id: `%s`\n", in.ID)
		ew.printf("- flow: %s, priority: %s, confidence: %s, status: %s\n", in.FlowType, in.Priority, in.ConfidenceLevel, in.Status)
		ew.printf("\n%s\n\n", in.Description)
		ew.list("Actors", in.Actors)
		ew.list("Inputs", in.Inputs)
		ew.list("Expected outcomes", in.ExpectedOutcomes)
		ew.list("Preconditions", in.Preconditions)
		ew.list("Postconditions", in.Postconditions)
		ew.list("Business rules", in.BusinessRules)
		ew.list("Assumptions", in.Assumptions)
		ew.list("Non-goals", in.NonGoals)
	}

	ew.printf("## Concerns (%d)\n\n", len(concerns))
	for i, c := range concerns {
		ew.printf("### %d. [%s] %s\n\n", i+1, c.Severity, c.Type)
		ew.printf("- id: `%s`\n", c.ID)
		if c.RelatedInsightID != "" {
			ew.printf("- related insight: `%s`\n", c.RelatedInsightID)
		}
		ew.printf("- status: %s, raised by: %s\n", c.Status, c.RaisedBy)
		ew.printf("\n%s\n\n", c.Description)
		if c.Impact != "" {
			ew.printf("Impact: %s\n\n", c.Impact)
		}
		ew.list("Questions", c.Questions)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("%s:\n", label)
	for _, item := range items {
		ew.printf("- %s\n", item)
	}
	ew.printf("\n")
}
