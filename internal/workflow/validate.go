package workflow

import (
	"context"
	"errors"

	"github.com/rpggio/prdinsights/internal/llm"
)

// chunkDocuments is the fan-out source stage. The document's chunks are
// authoritative and never re-split here.
func (s *Stages) chunkDocuments(_ context.Context, st State) (Delta, error) {
	s.logger.Info("fanning out over chunks", "document_id", st.Document.ID, "chunks", len(st.Document.Chunks))
	return Delta{}, nil
}

// validationTasks produces one validation task per chunk.
func (s *Stages) validationTasks(st State) []Task {
	tasks := make([]Task, 0, len(st.Document.Chunks))
	for _, chunk := range st.Document.Chunks {
		tasks = append(tasks, Task{
			Name: StageValidateChunk,
			Run: func(ctx context.Context, snap State) (Delta, error) {
				return s.ValidateChunk(ctx, snap, chunk)
			},
		})
	}
	return tasks
}

// extractionTasks produces one CHUNK-scope extraction task per chunk.
func (s *Stages) extractionTasks(st State) []Task {
	tasks := make([]Task, 0, len(st.Document.Chunks))
	for _, chunk := range st.Document.Chunks {
		tasks = append(tasks, Task{Name: StageExtractChunk, Run: s.extractChunk(chunk)})
	}
	return tasks
}

// ValidateChunk checks one chunk against the snapshot's live accumulation and
// keeps at most the configured number of new insights and concerns. A failed
// model call degrades only this chunk: it contributes nothing and its index
// is recorded. Cancellation is still returned as an error.
func (s *Stages) ValidateChunk(ctx context.Context, st State, chunk Chunk) (Delta, error) {
	system, user := validationPrompt(st.Document.Content, chunk.Content, st.LiveInsights(), st.LiveConcerns())
	calls, err := s.model.Invoke(ctx, llm.Request{
		Stage:        StageValidateChunk,
		System:       system,
		User:         user,
		Capabilities: AddCapabilities(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Delta{}, ctxErr
		}
		degradedChunksTotal.Inc()
		s.logger.Error("chunk validation failed",
			"document_id", st.Document.ID,
			"chunk", chunk.Index,
			"error", err,
		)
		return Delta{FailedChunks: []int{chunk.Index}}, nil
	}

	res := s.interp.Interpret(StageValidateChunk, calls, InterpretOptions{
		Allowed:        capabilityNames(AddCapabilities()),
		MaxInsights:    st.Config.Int(ChunkInsightCapKey, DefaultChunkCap),
		MaxConcerns:    st.Config.Int(ChunkConcernCapKey, DefaultChunkCap),
		SourceDocument: st.Document.ID,
	})
	if dropped := countErrors(res.Errors, ErrCapExceeded); dropped > 0 {
		s.logger.Warn("chunk validation exceeded cap",
			"document_id", st.Document.ID,
			"chunk", chunk.Index,
			"dropped", dropped,
		)
	}
	s.logger.Debug("chunk validated",
		"document_id", st.Document.ID,
		"chunk", chunk.Index,
		"insights", len(res.Delta.Insights),
		"concerns", len(res.Delta.Concerns),
	)
	return res.Delta, nil
}

func countErrors(errs []*CallError, target error) int {
	n := 0
	for _, e := range errs {
		if errors.Is(e, target) {
			n++
		}
	}
	return n
}
