package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/domain/insight"
	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/rpggio/prdinsights/internal/workflow"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// invalidParams reports arguments that could not be decoded or validated.
func invalidParams(err error) *APIError {
	return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check the tool's input schema"}
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid IDs"}
	case errors.Is(err, project.ErrReleaseNotFound), errors.Is(err, document.ErrReleaseNotFound):
		return &APIError{Code: "RELEASE_NOT_FOUND", Message: "release not found", RecoveryHint: "Call list_releases for valid IDs"}
	case errors.Is(err, project.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: err.Error(), RecoveryHint: "Choose another name or label"}
	case errors.Is(err, document.ErrDocumentNotFound):
		return &APIError{Code: "DOCUMENT_NOT_FOUND", Message: "document not found", RecoveryHint: "Call list_documents for valid IDs"}
	case errors.Is(err, document.ErrEmptyContent):
		return &APIError{Code: "EMPTY_DOCUMENT", Message: "document content is empty", RecoveryHint: "Provide the document text"}
	case errors.Is(err, analysis.ErrRunNotFound):
		return &APIError{Code: "RUN_NOT_FOUND", Message: "analysis run not found", RecoveryHint: "Call list_runs for valid IDs"}
	case errors.Is(err, llm.ErrUnavailable):
		return &APIError{Code: "LLM_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Check the model provider and retry; the run is recorded as FAILED"}
	case errors.Is(err, analysis.ErrRunFailed):
		return &APIError{Code: "RUN_FAILED", Message: err.Error(), RecoveryHint: "Inspect the run with get_run"}
	case errors.Is(err, insight.ErrInsightNotFound):
		return &APIError{Code: "INSIGHT_NOT_FOUND", Message: "insight not found", RecoveryHint: "Call list_insights for valid IDs"}
	case errors.Is(err, insight.ErrConcernNotFound):
		return &APIError{Code: "CONCERN_NOT_FOUND", Message: "concern not found", RecoveryHint: "Call list_concerns for valid IDs"}
	case errors.Is(err, insight.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "PROPOSED moves to APPROVED or REJECTED; OPEN concerns move to RESOLVED"}
	case errors.Is(err, insight.ErrMissingResolvedBy):
		return &APIError{Code: "MISSING_RESOLVED_BY", Message: err.Error(), RecoveryHint: "Pass resolved_by when resolving a concern"}
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, analysis.ErrInvalidInput),
		errors.Is(err, document.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, insight.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
