package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks invocation errors raised before any LLM call.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedScope indicates an extraction scope outside {COMPLETE, CHUNK}.
	ErrUnsupportedScope = errors.New("unsupported extraction scope")
	// ErrConfigConflict indicates a config key was rewritten with a different value.
	ErrConfigConflict = errors.New("conflicting config value")
	// ErrUnknownStage indicates a graph edge names a stage that was never added.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrStepLimit indicates the graph did not reach its end within the step budget.
	ErrStepLimit = errors.New("workflow step limit exceeded")
	// ErrUnknownTool indicates a tool call names an operation that does not exist.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolNotOffered indicates a tool call names an operation the stage did not offer.
	ErrToolNotOffered = errors.New("tool not offered to this stage")
	// ErrCapExceeded indicates a tool call beyond the per-task cap.
	ErrCapExceeded = errors.New("per-task cap exceeded")
)

// ValidationError describes invalid workflow input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CallError records a tool call that could not be interpreted. The rest of
// its batch is unaffected.
type CallError struct {
	Stage  string
	CallID string
	Tool   string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: tool call %s (%s): %v", e.Stage, e.CallID, e.Tool, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
