// Package reevaluate recomputes a use case's scores from current state: the
// stored questionnaire base score plus the assigned model's freshly
// normalized benchmark score. It is the single caller of the aggregator for
// batch recomputation; the formula is never duplicated inline elsewhere.
package reevaluate

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"maydai/internal/domain"
	"maydai/internal/locks"
	"maydai/internal/ports"
	"maydai/internal/scoring"
	hist "maydai/internal/services/history"
)

type Service struct {
	access     ports.AccessRepository
	usecases   ports.UseCaseRepository
	benchmarks ports.Benchmarks
	history    *hist.Service
	agg        *scoring.Aggregator
	locks      *locks.Keyed
}

func New(access ports.AccessRepository, usecases ports.UseCaseRepository, benchmarks ports.Benchmarks, recorder *hist.Service, agg *scoring.Aggregator, keyed *locks.Keyed) *Service {
	return &Service{access: access, usecases: usecases, benchmarks: benchmarks, history: recorder, agg: agg, locks: keyed}
}

// ReevaluateUseCase recomputes and persists score_model and score_final.
// score_base and the elimination flag are externally computed inputs and pass
// through unchanged.
func (s *Service) ReevaluateUseCase(ctx context.Context, actorID, useCaseID uuid.UUID) (domain.UseCaseScores, error) {
	s.locks.Lock(useCaseID)
	defer s.locks.Unlock(useCaseID)

	if err := s.access.AuthorizeUseCase(ctx, actorID, useCaseID); err != nil {
		return domain.UseCaseScores{}, err
	}
	uc, err := s.usecases.GetUseCase(ctx, useCaseID)
	if err != nil {
		return domain.UseCaseScores{}, err
	}

	modelRaw := 0.0
	if uc.ModelID != nil {
		res, err := s.benchmarks.NormalizeModel(ctx, *uc.ModelID)
		if err != nil {
			return domain.UseCaseScores{}, fmt.Errorf("normalize model %s: %w", *uc.ModelID, err)
		}
		modelRaw = res.Total
	}

	final := s.agg.Final(uc.ScoreBase, modelRaw)
	if err := s.usecases.UpdateScores(ctx, useCaseID, uc.ScoreBase, modelRaw, final); err != nil {
		return domain.UseCaseScores{}, err
	}

	if uc.LastCalculatedAt == nil {
		// First-ever evaluation: no previous score to report.
		err = s.history.Record(ctx, domain.HistoryEntry{
			UseCaseID: useCaseID,
			ActorID:   actorID,
			EventType: domain.EventReevaluated,
			Metadata:  map[string]any{domain.MetaNewScore: final, domain.MetaPreviousScore: nil},
		})
	} else {
		err = s.history.RecordScoreChange(ctx, useCaseID, actorID, domain.EventReevaluated, uc.ScoreFinal, final)
	}
	if err != nil {
		log.Printf("reevaluate: history append failed for use case %s: %v", useCaseID, err)
	}

	return domain.UseCaseScores{
		ScoreBase:  uc.ScoreBase,
		ScoreModel: modelRaw,
		ScoreFinal: final,
		Eliminated: uc.Eliminated,
	}, nil
}

// ReevaluateCompany recomputes every use case the company owns, best-effort,
// and reports per-item counts so callers can show "N of M updated, K failed".
func (s *Service) ReevaluateCompany(ctx context.Context, actorID, companyID uuid.UUID) (domain.BulkResult, error) {
	result := domain.BulkResult{}
	if err := s.access.AuthorizeCompany(ctx, actorID, companyID); err != nil {
		return result, err
	}
	ids, err := s.usecases.ListCompanyUseCaseIDs(ctx, companyID)
	if err != nil {
		return result, err
	}
	result.Total = len(ids)
	for _, id := range ids {
		if _, err := s.ReevaluateUseCase(ctx, actorID, id); err != nil {
			log.Printf("reevaluate: company %s use case %s: %v", companyID, id, err)
			result.Failed++
			continue
		}
		result.Updated++
	}
	if result.Failed > 0 {
		result.Err = fmt.Sprintf("%d use case(s) failed to update", result.Failed)
	}
	return result, nil
}
