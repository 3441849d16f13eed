package insight

import "errors"

var (
	// ErrInsightNotFound indicates the insight doesn't exist.
	ErrInsightNotFound = errors.New("insight not found")
	// ErrConcernNotFound indicates the concern doesn't exist.
	ErrConcernNotFound = errors.New("concern not found")
	// ErrInvalidInsight indicates an insight failed field validation.
	ErrInvalidInsight = errors.New("invalid product insight")
	// ErrInvalidConcern indicates a concern failed field validation.
	ErrInvalidConcern = errors.New("invalid concern")
	// ErrInvalidTransition indicates an invalid status transition.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMissingResolvedBy indicates resolved_by is required to resolve a concern.
	ErrMissingResolvedBy = errors.New("resolved_by required to resolve concern")
	// ErrInvalidInput indicates invalid input for insight operations.
	ErrInvalidInput = errors.New("invalid insight input")
)
