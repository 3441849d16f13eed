package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/rpggio/prdinsights/internal/llm/llmtest"
	"github.com/rpggio/prdinsights/internal/workflow"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_PrintsReview(t *testing.T) {
	scripted := llmtest.New(llmtest.ByStage(map[string]llmtest.Responder{
		workflow.StageExtract: llmtest.Static(
			llmtest.Call(workflow.ToolAddInsight, llmtest.Insight("Guest checkout")),
			llmtest.Call(workflow.ToolAddConcern, llmtest.Concern("Refund window is not defined")),
		),
	}))
	original := newModel
	newModel = func(context.Context, config.LLMConfig, *slog.Logger) (llm.Model, error) {
		return scripted, nil
	}
	t.Cleanup(func() { newModel = original })

	path := filepath.Join(t.TempDir(), "checkout.md")
	require.NoError(t, os.WriteFile(path, []byte("# Checkout\n\nGuests can pay.\n\n## Refunds\n\nTBD.\n"), 0o644))

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Log.Level = "error"

	var out bytes.Buffer
	err := analyze(context.Background(), cfg, path, analyzeOptions{
		project:     "shop",
		release:     "v1",
		docType:     "PRD",
		reflections: 0,
		tenant:      "default",
	}, &out)
	require.NoError(t, err)

	require.Contains(t, out.String(), "## Product insights (1)")
	require.Contains(t, out.String(), "Guest checkout")
	require.Contains(t, out.String(), "## Concerns (1)")
	require.Equal(t, 0, scripted.CallsForStage(workflow.StageReflect))
	require.Equal(t, 2, scripted.CallsForStage(workflow.StageValidateChunk))
}

func TestAnalyze_MissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	err := analyze(context.Background(), cfg, filepath.Join(t.TempDir(), "nope.md"), analyzeOptions{reflections: -1}, &bytes.Buffer{})
	require.ErrorContains(t, err, "read document")
}
