package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupTracing_StdoutExportsLLMSpans(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	ctx := context.Background()
	var buf bytes.Buffer

	shutdown, err := SetupTracing(ctx, config.TracingConfig{Exporter: "stdout"}, "1.2.3", &buf)
	require.NoError(t, err)

	model := llm.Instrument(llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		return nil, nil
	}), "ollama")
	_, err = model.Invoke(ctx, llm.Request{Stage: "extract"})
	require.NoError(t, err)

	require.NoError(t, shutdown(ctx))
	out := buf.String()
	require.Contains(t, out, `"Name":"llm.Invoke"`)
	require.Contains(t, out, "prdinsights")
	require.Contains(t, out, "1.2.3")
}

func TestSetupTracing_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: "none"}, "dev", nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupTracing_UnknownExporter(t *testing.T) {
	_, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: "zipkin"}, "dev", nil)
	require.ErrorContains(t, err, "unsupported tracing exporter")
}
