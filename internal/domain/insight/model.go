package insight

import "time"

// FlowType classifies the kind of behavior an insight describes.
type FlowType string

const (
	FlowUser    FlowType = "user_flow"
	FlowBackend FlowType = "backend_flow"
	FlowData    FlowType = "data_flow"
)

// Priority ranks an insight.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// InsightStatus represents the review state of an insight
type InsightStatus string

const (
	StatusProposed InsightStatus = "PROPOSED"
	StatusApproved InsightStatus = "APPROVED"
	StatusRejected InsightStatus = "REJECTED"
)

// ConfidenceLevel expresses how sure the extractor was.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// ConcernType classifies a concern.
type ConcernType string

const (
	ConcernMissingInformation ConcernType = "missing_information"
	ConcernAmbiguity          ConcernType = "ambiguity"
	ConcernConflict           ConcernType = "conflict"
	ConcernScopeGap           ConcernType = "scope_gap"
	ConcernOther              ConcernType = "other"
)

// Severity ranks a concern.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ConcernStatus represents the resolution state of a concern
type ConcernStatus string

const (
	ConcernOpen     ConcernStatus = "OPEN"
	ConcernResolved ConcernStatus = "RESOLVED"
)

// DefaultRaisedBy is recorded on concerns when the extractor names nobody.
const DefaultRaisedBy = "system"

// Insight is one atomic, user-observable product behavior extracted from a PRD.
type Insight struct {
	ID               string          `json:"id" validate:"required"`
	Title            string          `json:"title" validate:"required"`
	Description      string          `json:"description" validate:"required"`
	FlowType         FlowType        `json:"flow_type" validate:"required,oneof=user_flow backend_flow data_flow"`
	Priority         Priority        `json:"priority" validate:"required,oneof=P1 P2 P3"`
	Actors           []string        `json:"actors,omitempty"`
	Inputs           []string        `json:"inputs,omitempty"`
	ExpectedOutcomes []string        `json:"expected_outcomes" validate:"required"`
	Preconditions    []string        `json:"preconditions,omitempty"`
	Postconditions   []string        `json:"postconditions,omitempty"`
	BusinessRules    []string        `json:"business_rules,omitempty"`
	Assumptions      []string        `json:"assumptions,omitempty"`
	NonGoals         []string        `json:"non_goals,omitempty"`
	SourceDocument   string          `json:"source_document,omitempty"`
	Status           InsightStatus   `json:"status" validate:"required,oneof=PROPOSED APPROVED REJECTED"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// Concern is a gap, ambiguity, or conflict identified in a PRD.
type Concern struct {
	ID               string        `json:"id" validate:"required"`
	RelatedInsightID string        `json:"related_product_insight_id,omitempty" validate:"omitempty,uuid"`
	Type             ConcernType   `json:"type" validate:"required,oneof=missing_information ambiguity conflict scope_gap other"`
	Severity         Severity      `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH"`
	Description      string        `json:"description" validate:"required"`
	Impact           string        `json:"impact,omitempty"`
	Questions        []string      `json:"questions,omitempty"`
	RaisedBy         string        `json:"raised_by"`
	Status           ConcernStatus `json:"status" validate:"required,oneof=OPEN RESOLVED"`
	SourceDocument   string        `json:"source_document,omitempty"`
}

// Origin tags persisted results with where they came from.
type Origin struct {
	ProjectID  string `json:"project_id"`
	ReleaseID  string `json:"release_id"`
	DocumentID string `json:"document_id"`
	RunID      string `json:"run_id,omitempty"`
}

// StoredInsight is an insight as persisted for a release.
type StoredInsight struct {
	Insight
	Origin
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// StoredConcern is a concern as persisted for a release.
type StoredConcern struct {
	Concern
	Origin
	ResolvedBy *string   `json:"resolved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Batch is the reviewed output of one analysis run.
type Batch struct {
	Origin   Origin
	Insights []Insight
	Concerns []Concern
}
