package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "prdinsights.llm"

var (
	// callDuration measures the duration of model invocations.
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "stage", "status"},
	)

	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM calls.",
		},
		[]string{"provider", "stage", "status"},
	)

	// errorsTotal labels error_type with "timeout", "auth", "rate_limit", "server" or "unknown".
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total LLM errors by type.",
		},
		[]string{"provider", "error_type"},
	)

	toolCallsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "tool_calls_returned_total",
			Help:      "Tool calls returned by the model.",
		},
		[]string{"provider", "stage"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "LLM call retries after a failed attempt.",
		},
		[]string{"stage"},
	)

	activeRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "prdinsights",
			Subsystem: "llm",
			Name:      "active_requests",
			Help:      "Number of in-flight LLM calls.",
		},
		[]string{"provider"},
	)
)

// Instrumented records metrics and a span for every call to the wrapped model.
type Instrumented struct {
	next     Model
	provider string
	tracer   trace.Tracer
}

// Instrument wraps next with metrics and tracing labelled by provider.
func Instrument(next Model, provider string) *Instrumented {
	return &Instrumented{next: next, provider: provider, tracer: otel.Tracer(tracerName)}
}

// Invoke calls the wrapped model.
func (m *Instrumented) Invoke(ctx context.Context, req Request) ([]ToolCall, error) {
	ctx, span := m.tracer.Start(ctx, "llm.Invoke", trace.WithAttributes(
		attribute.String("llm.provider", m.provider),
		attribute.String("llm.stage", req.Stage),
		attribute.Int("llm.capabilities", len(req.Capabilities)),
	))
	defer span.End()

	activeRequests.WithLabelValues(m.provider).Inc()
	defer activeRequests.WithLabelValues(m.provider).Dec()

	start := time.Now()
	calls, err := m.next.Invoke(ctx, req)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues(m.provider, classifyError(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		toolCallsReturned.WithLabelValues(m.provider, req.Stage).Add(float64(len(calls)))
		span.SetAttributes(attribute.Int("llm.tool_calls", len(calls)))
	}
	callDuration.WithLabelValues(m.provider, req.Stage, status).Observe(elapsed.Seconds())
	callsTotal.WithLabelValues(m.provider, req.Stage, status).Inc()

	return calls, err
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "api key"):
		return "auth"
	case strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return "rate_limit"
	case strings.Contains(msg, "500") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "server error"):
		return "server"
	default:
		return "unknown"
	}
}
