package llm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts uint) llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsed:      time.Second,
	}
}

func TestResilient_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	flaky := llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("503 server error")
		}
		return []llm.ToolCall{{ID: "1", Name: "add_concern"}}, nil
	})

	model := llm.NewResilient(flaky, llm.WithRetry(fastRetry(4)))
	calls, err := model.Invoke(context.Background(), llm.Request{Stage: "extract"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.Equal(t, int32(3), attempts.Load())
}

func TestResilient_ExhaustedIsUnavailable(t *testing.T) {
	var attempts atomic.Int32
	down := llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	})

	model := llm.NewResilient(down, llm.WithRetry(fastRetry(3)))
	_, err := model.Invoke(context.Background(), llm.Request{Stage: "reflect"})
	require.ErrorIs(t, err, llm.ErrUnavailable)
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, int32(3), attempts.Load())
}

func TestResilient_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	model := llm.NewResilient(llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		attempts.Add(1)
		cancel()
		return nil, errors.New("transport closed")
	}), llm.WithRetry(fastRetry(5)))

	_, err := model.Invoke(ctx, llm.Request{Stage: "extract"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, llm.ErrUnavailable)
	require.Equal(t, int32(1), attempts.Load())
}

func TestResilient_RateLimitedCallsStillComplete(t *testing.T) {
	ok := llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		return nil, nil
	})
	model := llm.NewResilient(ok, llm.WithRetry(fastRetry(1)), llm.WithRateLimit(1000, 2))
	for i := 0; i < 5; i++ {
		_, err := model.Invoke(context.Background(), llm.Request{Stage: "dedup"})
		require.NoError(t, err)
	}
}

func TestInstrument_PassesThrough(t *testing.T) {
	want := errors.New("401 unauthorized")
	model := llm.Instrument(llm.ModelFunc(func(context.Context, llm.Request) ([]llm.ToolCall, error) {
		return nil, want
	}), "test")

	_, err := model.Invoke(context.Background(), llm.Request{Stage: "extract"})
	require.ErrorIs(t, err, want)
}
