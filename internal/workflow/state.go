package workflow

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/llm"
)

// Counter and config keys.
const (
	ReflectionCounterVar    = "reflection_counter"
	MaxReflectionCounterKey = "MAX_REFLECTION_COUNTER"
	ChunkInsightCapKey      = "CHUNK_INSIGHT_CAP"
	ChunkConcernCapKey      = "CHUNK_CONCERN_CAP"

	DefaultMaxReflectionCounter = 2
	DefaultChunkCap             = 3
)

// Config is per-invocation configuration. Keys may be set once; rewriting a
// key with a different value is a conflict.
type Config map[string]int

// Int returns the value of key, or def when unset.
func (c Config) Int(key string, def int) int {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// Chunk is a positioned fragment of the document.
type Chunk struct {
	Index   int
	Content string
}

// Document is the workflow's view of a stored document.
type Document struct {
	ID      string
	Content string
	Chunks  []Chunk
}

// Role identifies the author of a message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role       Role           `json:"role"`
	Stage      string         `json:"stage"`
	Content    string         `json:"content,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
}

// State is the snapshot threaded through every stage. Stages must treat it
// as read-only and report changes as a Delta.
type State struct {
	ProjectID string
	ReleaseID string
	Document  Document
	Config    Config

	Insights        []insight.Insight
	Concerns        []insight.Concern
	DeletedInsights []string
	DeletedConcerns []string
	Messages        []Message
	Vars            map[string]int
	FailedChunks    []int
}

// Delta is a stage's contribution to the state.
type Delta struct {
	Insights        []insight.Insight
	Concerns        []insight.Concern
	DeletedInsights []string
	DeletedConcerns []string
	Messages        []Message
	Vars            map[string]int
	Config          Config
	FailedChunks    []int
}

// Apply returns a new state with d merged in. Lists are union-appended,
// vars are last-writer-wins and config keys conflict on a different value.
// The receiver is not modified.
func (s State) Apply(d Delta) (State, error) {
	next := s
	next.Insights = unionByID(s.Insights, d.Insights, func(in insight.Insight) string { return in.ID })
	next.Concerns = unionByID(s.Concerns, d.Concerns, func(c insight.Concern) string { return c.ID })
	next.DeletedInsights = unionSet(s.DeletedInsights, d.DeletedInsights)
	next.DeletedConcerns = unionSet(s.DeletedConcerns, d.DeletedConcerns)
	next.FailedChunks = unionSet(s.FailedChunks, d.FailedChunks)
	next.Messages = append(slices.Clip(s.Messages), d.Messages...)

	if len(d.Vars) > 0 {
		next.Vars = maps.Clone(s.Vars)
		if next.Vars == nil {
			next.Vars = make(map[string]int, len(d.Vars))
		}
		maps.Copy(next.Vars, d.Vars)
	}

	if len(d.Config) > 0 {
		next.Config = maps.Clone(s.Config)
		if next.Config == nil {
			next.Config = make(Config, len(d.Config))
		}
		for k, v := range d.Config {
			if old, ok := next.Config[k]; ok && old != v {
				return s, fmt.Errorf("%w: %s is %d, got %d", ErrConfigConflict, k, old, v)
			}
			next.Config[k] = v
		}
	}
	return next, nil
}

// Counter returns the value of a counter var.
func (s State) Counter(name string) int {
	return s.Vars[name]
}

// LiveInsights returns accumulated insights whose ids are not tombstoned.
func (s State) LiveInsights() []insight.Insight {
	return live(s.Insights, s.DeletedInsights, func(in insight.Insight) string { return in.ID })
}

// LiveConcerns returns accumulated concerns whose ids are not tombstoned.
func (s State) LiveConcerns() []insight.Concern {
	return live(s.Concerns, s.DeletedConcerns, func(c insight.Concern) string { return c.ID })
}

func live[T any](items []T, deleted []string, id func(T) string) []T {
	gone := make(map[string]struct{}, len(deleted))
	for _, d := range deleted {
		gone[d] = struct{}{}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := gone[id(item)]; ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

func unionByID[T any](base, add []T, id func(T) string) []T {
	out := slices.Clip(base)
	if len(add) == 0 {
		return out
	}
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, item := range base {
		seen[id(item)] = struct{}{}
	}
	for _, item := range add {
		key := id(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func unionSet[T comparable](base, add []T) []T {
	out := slices.Clip(base)
	if len(add) == 0 {
		return out
	}
	seen := make(map[T]struct{}, len(base)+len(add))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
