package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// End is the terminal stage name.
const End = "__end__"

const tracerName = "prdinsights.workflow"

// StageFunc runs one stage against a snapshot and returns its contribution.
type StageFunc func(ctx context.Context, st State) (Delta, error)

// Next selects the stage that follows another.
type Next interface {
	targets() []string
}

// Fixed always continues with To.
type Fixed struct {
	To string
}

// Conditional continues with Then when Predicate holds for the merged state, else with Else.
type Conditional struct {
	Predicate func(State) bool
	Then      string
	Else      string
}

// Task is one unit of a fan-out.
type Task struct {
	Name string
	Run  StageFunc
}

// FanOut runs every task produced by Tasks against the same snapshot, merges
// their deltas in task order and continues with Join.
type FanOut struct {
	Tasks func(State) []Task
	Join  string
}

func (n Fixed) targets() []string       { return []string{n.To} }
func (n Conditional) targets() []string { return []string{n.Then, n.Else} }
func (n FanOut) targets() []string      { return []string{n.Join} }

// Graph maps stage names to handlers and edges and interprets them.
type Graph struct {
	entry       string
	stages      map[string]StageFunc
	edges       map[string]Next
	maxSteps    int
	concurrency int
	logger      *slog.Logger
	tracer      trace.Tracer
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithMaxSteps bounds the number of stage executions per run.
func WithMaxSteps(n int) GraphOption {
	return func(g *Graph) { g.maxSteps = n }
}

// WithFanOutConcurrency bounds the number of concurrent fan-out tasks.
// Non-positive means unbounded.
func WithFanOutConcurrency(n int) GraphOption {
	return func(g *Graph) { g.concurrency = n }
}

// WithGraphLogger sets the graph logger.
func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGraph creates an empty graph starting at entry.
func NewGraph(entry string, opts ...GraphOption) *Graph {
	g := &Graph{
		entry:    entry,
		stages:   make(map[string]StageFunc),
		edges:    make(map[string]Next),
		maxSteps: 64,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddStage registers a stage handler.
func (g *Graph) AddStage(name string, fn StageFunc) *Graph {
	g.stages[name] = fn
	return g
}

// AddEdge sets the edge leaving from. A stage without an edge ends the run.
func (g *Graph) AddEdge(from string, next Next) *Graph {
	g.edges[from] = next
	return g
}

// Validate checks that the entry and every edge endpoint are registered stages.
func (g *Graph) Validate() error {
	if _, ok := g.stages[g.entry]; !ok {
		return fmt.Errorf("%w: entry %q", ErrUnknownStage, g.entry)
	}
	for from, next := range g.edges {
		if _, ok := g.stages[from]; !ok {
			return fmt.Errorf("%w: edge from %q", ErrUnknownStage, from)
		}
		for _, to := range next.targets() {
			if to == End {
				continue
			}
			if _, ok := g.stages[to]; !ok {
				return fmt.Errorf("%w: edge %q -> %q", ErrUnknownStage, from, to)
			}
		}
	}
	return nil
}

// Run drives the graph from its entry until End and returns the final state.
// Context cancellation is checked before every stage.
func (g *Graph) Run(ctx context.Context, st State) (State, error) {
	if err := g.Validate(); err != nil {
		return st, err
	}

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= g.maxSteps {
			return st, fmt.Errorf("%w: %d steps", ErrStepLimit, g.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}

		delta, err := g.runStage(ctx, current, g.stages[current], st)
		if err != nil {
			return st, fmt.Errorf("stage %s: %w", current, err)
		}
		if st, err = st.Apply(delta); err != nil {
			return st, fmt.Errorf("merging %s: %w", current, err)
		}

		switch next := g.edges[current].(type) {
		case nil:
			current = End
		case Fixed:
			current = next.To
		case Conditional:
			if next.Predicate(st) {
				current = next.Then
			} else {
				current = next.Else
			}
		case FanOut:
			if st, err = g.fanOut(ctx, current, next, st); err != nil {
				return st, err
			}
			current = next.Join
		default:
			return st, fmt.Errorf("%w: unsupported edge %T from %q", ErrUnknownStage, next, current)
		}
	}
	return st, nil
}

func (g *Graph) runStage(ctx context.Context, name string, fn StageFunc, st State) (Delta, error) {
	ctx, span := g.tracer.Start(ctx, "workflow."+name, trace.WithAttributes(
		attribute.String("workflow.stage", name),
		attribute.String("workflow.document_id", st.Document.ID),
	))
	defer span.End()

	start := time.Now()
	delta, err := fn(ctx, st)
	stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Delta{}, err
	}
	span.SetAttributes(
		attribute.Int("workflow.insights_added", len(delta.Insights)),
		attribute.Int("workflow.concerns_added", len(delta.Concerns)),
	)
	return delta, nil
}

// fanOut runs the tasks of an edge concurrently against one snapshot and
// applies their deltas in task order once all have finished.
func (g *Graph) fanOut(ctx context.Context, from string, edge FanOut, st State) (State, error) {
	tasks := edge.Tasks(st)
	g.logger.Debug("fan-out", "from", from, "tasks", len(tasks), "join", edge.Join)
	if len(tasks) == 0 {
		return st, nil
	}

	deltas := make([]Delta, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	if g.concurrency > 0 {
		eg.SetLimit(g.concurrency)
	}
	for i, task := range tasks {
		eg.Go(func() error {
			d, err := g.runStage(egCtx, task.Name, task.Run, st)
			if err != nil {
				return fmt.Errorf("task %s[%d]: %w", task.Name, i, err)
			}
			deltas[i] = d
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return st, err
	}

	for _, d := range deltas {
		var err error
		if st, err = st.Apply(d); err != nil {
			return st, fmt.Errorf("merging fan-out of %s: %w", from, err)
		}
	}
	return st, nil
}
