package analysis

import "errors"

var (
	ErrRunNotFound  = errors.New("analysis run not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrRunFailed wraps the workflow error of a run recorded as FAILED.
	ErrRunFailed = errors.New("analysis run failed")
)
