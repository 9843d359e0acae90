package ports

import (
	"context"

	"github.com/google/uuid"

	"maydai/internal/domain"
)

// AccessRepository confirms the acting identity is authorized for the owning
// company. Every mutating path checks here before touching rows.
type AccessRepository interface {
	// AuthorizeUseCase returns domain.ErrNotFound if the use case does not
	// exist and domain.ErrAccessDenied if the actor is not a member of its
	// owning company.
	AuthorizeUseCase(ctx context.Context, actorID, useCaseID uuid.UUID) error
	// AuthorizeCompany is the company-level equivalent.
	AuthorizeCompany(ctx context.Context, actorID, companyID uuid.UUID) error
}

// UseCaseRepository reads and writes use cases and their scores.
type UseCaseRepository interface {
	GetUseCase(ctx context.Context, id uuid.UUID) (domain.UseCase, error)
	// ListCompanyUseCaseIDs returns the ids of every use case the company
	// owns. Empty is not an error.
	ListCompanyUseCaseIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	// UpdateScores persists base, model, final and the calculation timestamp.
	UpdateScores(ctx context.Context, id uuid.UUID, scoreBase, scoreModel, scoreFinal float64) error
}

// ResponseRepository upserts questionnaire answers. One row per
// (use case, question code); writers overwrite, never duplicate.
type ResponseRepository interface {
	GetResponse(ctx context.Context, useCaseID uuid.UUID, questionCode string) (domain.QuestionnaireResponse, bool, error)
	UpsertResponse(ctx context.Context, resp domain.QuestionnaireResponse) error
}

// DocumentRepository stores compliance documents keyed by (use case, doc type).
type DocumentRepository interface {
	GetDocument(ctx context.Context, useCaseID uuid.UUID, docType string) (domain.ComplianceDocument, bool, error)
	SaveDocument(ctx context.Context, doc domain.ComplianceDocument) error
}

// EvaluationRepository reads a model's benchmark evaluations and writes back
// the derived normalized contributions.
type EvaluationRepository interface {
	// ListByModel returns evaluations in a stable order (by evaluation id).
	ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.BenchmarkEvaluation, error)
	ListModelIDs(ctx context.Context) ([]uuid.UUID, error)
	// SetMaydaiScore persists one evaluation's normalized contribution;
	// nil clears it.
	SetMaydaiScore(ctx context.Context, evaluationID uuid.UUID, score *float64) error
}

// HistoryRepository appends immutable audit entries and reads them newest-first.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, useCaseID uuid.UUID) ([]domain.HistoryEntry, error)
}
