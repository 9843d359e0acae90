// Package registry cascades a company's centralized-registry decision to the
// registry question of every use case the company owns. The fan-out is
// deliberately best-effort: each upsert succeeds or fails on its own, and the
// result reports counts instead of rolling back.
package registry

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"

	"maydai/internal/catalog"
	"maydai/internal/domain"
	"maydai/internal/locks"
	"maydai/internal/ports"
)

type Service struct {
	access    ports.AccessRepository
	usecases  ports.UseCaseRepository
	responses ports.ResponseRepository
	locks     *locks.Keyed
	clock     clockwork.Clock
}

func New(access ports.AccessRepository, usecases ports.UseCaseRepository, responses ports.ResponseRepository, keyed *locks.Keyed, clock clockwork.Clock) *Service {
	return &Service{access: access, usecases: usecases, responses: responses, locks: keyed, clock: clock}
}

// Propagate overwrites the registry answer on every use case the company
// owns. A company with zero use cases is a success with zero updates. The
// answer alone is written here; any point value is realized on the next
// reevaluation.
func (s *Service) Propagate(ctx context.Context, actorID, companyID uuid.UUID, usesMaydai bool) (domain.PropagationResult, error) {
	result := domain.PropagationResult{}
	if err := s.access.AuthorizeCompany(ctx, actorID, companyID); err != nil {
		return result, err
	}

	ids, err := s.usecases.ListCompanyUseCaseIDs(ctx, companyID)
	if err != nil {
		result.Err = err.Error()
		return result, nil
	}

	var errs error
	failed := 0
	for _, id := range ids {
		if err := s.upsert(ctx, id, usesMaydai); err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("use case %s: %w", id, err))
			continue
		}
		result.UpdatedCount++
	}

	if failed > 0 {
		log.Printf("registry propagation for company %s: %d of %d failed: %v", companyID, failed, len(ids), errs)
		result.Err = fmt.Sprintf("%d use case(s) failed to update", failed)
		return result, nil
	}
	result.Success = true
	return result, nil
}

// upsert writes one of the two canonical answer shapes, holding the same
// per-use-case lock as the document controller so the write cannot interleave
// with a document flip on the same row.
func (s *Service) upsert(ctx context.Context, useCaseID uuid.UUID, usesMaydai bool) error {
	s.locks.Lock(useCaseID)
	defer s.locks.Unlock(useCaseID)

	resp := domain.QuestionnaireResponse{
		ID:           uuid.New(),
		UseCaseID:    useCaseID,
		QuestionCode: catalog.RegistryQuestionCode,
		UpdatedAt:    s.clock.Now().UTC(),
	}
	if usesMaydai {
		resp.Kind = domain.AnswerConditional
		resp.Value = catalog.RegistryAnswerYes
		resp.Details = map[string]string{catalog.RegistryNameDetailKey: catalog.RegistryNameMaydai}
	} else {
		resp.Kind = domain.AnswerSingle
		resp.Value = catalog.RegistryAnswerNo
	}
	return s.responses.UpsertResponse(ctx, resp)
}
