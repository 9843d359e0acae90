package domain

import (
	"time"

	"github.com/google/uuid"
)

// Core domain models used internally. Wire shapes for the HTTP adapter live in
// internal/adapters/http; keep these decoupled where helpful.

// Company owns use cases. UsesMaydai is the declared centralized-registry
// decision, nil until the company has answered it.
type Company struct {
	ID         uuid.UUID
	LegalName  string
	UsesMaydai *bool
	CreatedAt  time.Time
}

// UseCase is one AI system under assessment.
type UseCase struct {
	ID               uuid.UUID
	CompanyID        uuid.UUID
	ModelID          *uuid.UUID
	ScoreBase        float64 // questionnaire points, 0..100
	ScoreModel       float64 // normalized benchmark points, 0..20, pre-weight
	ScoreFinal       float64 // 0..100 display score
	Eliminated       bool
	LastCalculatedAt *time.Time
}

// AnswerKind discriminates the questionnaire response variants.
type AnswerKind string

const (
	AnswerSingle      AnswerKind = "single"
	AnswerMulti       AnswerKind = "multi"
	AnswerConditional AnswerKind = "conditional"
)

// QuestionnaireResponse is one answer for one (use case, question code) pair.
// Writers overwrite; at most one row per pair.
type QuestionnaireResponse struct {
	ID           uuid.UUID
	UseCaseID    uuid.UUID
	QuestionCode string
	Kind         AnswerKind
	Value        string            // main choice for single/conditional
	Values       []string          // multi-value answers
	Details      map[string]string // free-text pairs of a conditional answer
	UpdatedAt    time.Time
}

// DocumentStatus is the compliance-document lifecycle state.
type DocumentStatus string

const (
	DocumentIncomplete DocumentStatus = "incomplete"
	DocumentComplete   DocumentStatus = "complete"
	DocumentValidated  DocumentStatus = "validated"
)

// Positive reports whether the status counts as evidence existing. Validated
// documents score the same as complete ones.
func (s DocumentStatus) Positive() bool {
	return s == DocumentComplete || s == DocumentValidated
}

// ComplianceDocument is the evidentiary artifact for one (use case, doc type)
// pair. Never hard-deleted; a reset flips the status back to incomplete.
type ComplianceDocument struct {
	ID        uuid.UUID
	UseCaseID uuid.UUID
	DocType   string
	FormData  map[string]any
	FileRef   *string
	Status    DocumentStatus
	UpdatedAt time.Time
	UpdatedBy uuid.UUID
}

// BenchmarkEvaluation is one (model, principle, benchmark) result from the
// external importer. RawScore is nil when the benchmark was not applicable.
// MaydaiScore is the normalized contribution written back by the normalizer.
type BenchmarkEvaluation struct {
	ID          uuid.UUID
	ModelID     uuid.UUID
	Principle   string
	Benchmark   string
	RawScore    *float64 // [0,1] when present
	MaydaiScore *float64
}

// HistoryEventType enumerates score-relevant lifecycle events.
type HistoryEventType string

const (
	EventCreated          HistoryEventType = "created"
	EventReevaluated      HistoryEventType = "reevaluated"
	EventDocumentUploaded HistoryEventType = "document_uploaded"
	EventDocumentModified HistoryEventType = "document_modified"
	EventDocumentReset    HistoryEventType = "document_reset"
	EventFieldUpdated     HistoryEventType = "field_updated"
)

// Metadata keys carried by score-affecting history entries.
const (
	MetaPreviousScore = "previous_score"
	MetaNewScore      = "new_score"
	MetaScoreChange   = "score_change"
)

// HistoryEntry is one immutable audit record. Never updated or deleted.
type HistoryEntry struct {
	ID        uuid.UUID
	UseCaseID uuid.UUID
	ActorID   uuid.UUID
	EventType HistoryEventType
	FieldName *string
	OldValue  *string
	NewValue  *string
	Metadata  map[string]any
	CreatedAt time.Time
}

// ModelScoreResult is the outcome of normalizing one model's evaluations.
type ModelScoreResult struct {
	ModelID      uuid.UUID
	PerPrinciple map[string]float64 // bounded [0,4] each
	Total        float64            // bounded [0,20]
}

// PropagationResult reports a best-effort registry fan-out. UpdatedCount is
// meaningful even when Success is false.
type PropagationResult struct {
	Success      bool
	UpdatedCount int
	Err          string
}

// SaveOutcome reports a document save. ScoreChange is nil when the transition
// had no score effect.
type SaveOutcome struct {
	OK          bool
	ScoreChange *float64
}

// BulkResult reports a per-item bulk operation ("N of M updated, K failed").
type BulkResult struct {
	Total   int
	Updated int
	Failed  int
	Err     string
}

// UseCaseScores is what a reevaluation returns.
type UseCaseScores struct {
	ScoreBase  float64
	ScoreModel float64
	ScoreFinal float64
	Eliminated bool
}
