package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, State) (Delta, error) { return Delta{}, nil }

func TestGraphRun_ConditionalLoop(t *testing.T) {
	var visits atomic.Int32
	g := NewGraph("start").
		AddStage("start", noop).
		AddStage("loop", func(_ context.Context, st State) (Delta, error) {
			visits.Add(1)
			return Delta{Vars: map[string]int{"n": st.Counter("n") + 1}}, nil
		}).
		AddStage("done", noop)

	below3 := Conditional{
		Predicate: func(st State) bool { return st.Counter("n") < 3 },
		Then:      "loop",
		Else:      "done",
	}
	g.AddEdge("start", below3).AddEdge("loop", below3).AddEdge("done", Fixed{To: End})

	final, err := g.Run(context.Background(), State{})
	require.NoError(t, err)
	require.Equal(t, int32(3), visits.Load())
	require.Equal(t, 3, final.Counter("n"))
}

func TestGraphRun_FanOutMergesInTaskOrder(t *testing.T) {
	tasks := func(State) []Task {
		var out []Task
		for i, delay := range []time.Duration{30 * time.Millisecond, 0, 10 * time.Millisecond} {
			id := string(rune('a' + i))
			out = append(out, Task{Name: "task", Run: func(context.Context, State) (Delta, error) {
				time.Sleep(delay)
				return Delta{Insights: []insight.Insight{{ID: id}}}, nil
			}})
		}
		return out
	}
	g := NewGraph("split").
		AddStage("split", noop).
		AddStage("join", noop).
		AddEdge("split", FanOut{Tasks: tasks, Join: "join"})

	final, err := g.Run(context.Background(), State{})
	require.NoError(t, err)
	require.Len(t, final.Insights, 3)
	require.Equal(t, "a", final.Insights[0].ID)
	require.Equal(t, "b", final.Insights[1].ID)
	require.Equal(t, "c", final.Insights[2].ID)
}

func TestGraphRun_FanOutRespectsConcurrencyLimit(t *testing.T) {
	var active, peak atomic.Int32
	tasks := func(State) []Task {
		out := make([]Task, 6)
		for i := range out {
			out[i] = Task{Name: "task", Run: func(context.Context, State) (Delta, error) {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				active.Add(-1)
				return Delta{}, nil
			}}
		}
		return out
	}
	g := NewGraph("split", WithFanOutConcurrency(2)).
		AddStage("split", noop).
		AddStage("join", noop).
		AddEdge("split", FanOut{Tasks: tasks, Join: "join"})

	_, err := g.Run(context.Background(), State{})
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestGraphRun_FanOutErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	var joined atomic.Bool
	tasks := func(State) []Task {
		return []Task{
			{Name: "ok", Run: noop},
			{Name: "bad", Run: func(context.Context, State) (Delta, error) { return Delta{}, boom }},
		}
	}
	g := NewGraph("split").
		AddStage("split", noop).
		AddStage("join", func(context.Context, State) (Delta, error) {
			joined.Store(true)
			return Delta{}, nil
		}).
		AddEdge("split", FanOut{Tasks: tasks, Join: "join"})

	_, err := g.Run(context.Background(), State{})
	require.ErrorIs(t, err, boom)
	require.False(t, joined.Load())
}

func TestGraphRun_StepLimit(t *testing.T) {
	g := NewGraph("spin", WithMaxSteps(5)).
		AddStage("spin", noop).
		AddEdge("spin", Fixed{To: "spin"})

	_, err := g.Run(context.Background(), State{})
	require.ErrorIs(t, err, ErrStepLimit)
}

func TestGraphRun_CancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var second atomic.Bool
	g := NewGraph("first").
		AddStage("first", func(context.Context, State) (Delta, error) {
			cancel()
			return Delta{}, nil
		}).
		AddStage("second", func(context.Context, State) (Delta, error) {
			second.Store(true)
			return Delta{}, nil
		}).
		AddEdge("first", Fixed{To: "second"})

	_, err := g.Run(ctx, State{})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, second.Load())
}

func TestGraphValidate_UnknownStage(t *testing.T) {
	g := NewGraph("start").
		AddStage("start", noop).
		AddEdge("start", Fixed{To: "missing"})

	require.ErrorIs(t, g.Validate(), ErrUnknownStage)

	_, err := NewGraph("nowhere").Run(context.Background(), State{})
	require.ErrorIs(t, err, ErrUnknownStage)
}

func TestGraphRun_StageErrorNamesStage(t *testing.T) {
	g := NewGraph("broken").
		AddStage("broken", func(context.Context, State) (Delta, error) {
			return Delta{}, errors.New("bad input")
		})

	_, err := g.Run(context.Background(), State{})
	require.ErrorContains(t, err, "stage broken")
}
