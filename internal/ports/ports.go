package ports

import (
	"context"

	"github.com/google/uuid"

	"maydai/internal/domain"
)

// Documents applies compliance-document lifecycle transitions.
type Documents interface {
	Save(ctx context.Context, actorID, useCaseID uuid.UUID, docType string, form map[string]any, fileRef *string, status domain.DocumentStatus) (domain.SaveOutcome, error)
}

// Benchmarks normalizes external evaluations into model scores.
type Benchmarks interface {
	NormalizeModel(ctx context.Context, modelID uuid.UUID) (domain.ModelScoreResult, error)
	NormalizeAllModels(ctx context.Context) ([]domain.ModelScoreResult, error)
}

// Registry propagates a company's centralized-registry decision.
type Registry interface {
	Propagate(ctx context.Context, actorID, companyID uuid.UUID, usesMaydai bool) (domain.PropagationResult, error)
}

// Reevaluator recomputes a use case's scores from current state.
type Reevaluator interface {
	ReevaluateUseCase(ctx context.Context, actorID, useCaseID uuid.UUID) (domain.UseCaseScores, error)
	ReevaluateCompany(ctx context.Context, actorID, companyID uuid.UUID) (domain.BulkResult, error)
}

// History reads the audit trail.
type History interface {
	GetHistory(ctx context.Context, actorID, useCaseID uuid.UUID) ([]domain.HistoryEntry, error)
}
