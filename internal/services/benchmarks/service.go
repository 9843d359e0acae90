// Package benchmarks normalizes raw external benchmark evaluations into the
// bounded per-principle and total model score.
package benchmarks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"maydai/internal/catalog"
	"maydai/internal/domain"
	"maydai/internal/ports"
)

type Service struct {
	evals ports.EvaluationRepository
	cat   *catalog.Catalog
}

func New(evals ports.EvaluationRepository, cat *catalog.Catalog) *Service {
	return &Service{evals: evals, cat: cat}
}

// NormalizeModel recomputes one model's per-principle and total contributions
// and persists each evaluation's normalized score back onto its row. A model
// with no evaluations scores 0 without error; a zero model id is a validation
// error. Recomputation with unchanged inputs reproduces identical outputs.
func (s *Service) NormalizeModel(ctx context.Context, modelID uuid.UUID) (domain.ModelScoreResult, error) {
	result := domain.ModelScoreResult{ModelID: modelID, PerPrinciple: map[string]float64{}}
	if modelID == uuid.Nil {
		return result, domain.Invalid("model_id", "must not be empty")
	}

	evals, err := s.evals.ListByModel(ctx, modelID)
	if err != nil {
		return result, err
	}

	byPrinciple := make(map[string][]domain.BenchmarkEvaluation)
	for _, ev := range evals {
		principle := ev.Principle
		if principle == "" {
			// Older importer rows carry only the benchmark id.
			p, ok := s.cat.PrincipleFor(ev.Benchmark)
			if !ok {
				continue
			}
			principle = p
		}
		byPrinciple[principle] = append(byPrinciple[principle], ev)
	}

	total := 0.0
	for principle, group := range byPrinciple {
		// Stable order so individual scores are reproducible across runs.
		sort.Slice(group, func(i, j int) bool {
			return group[i].ID.String() < group[j].ID.String()
		})

		n := 0
		for _, ev := range group {
			if ev.RawScore != nil {
				n++
			}
		}

		if n == 0 {
			// Absent benchmarks are never treated as zero.
			for _, ev := range group {
				if err := s.evals.SetMaydaiScore(ctx, ev.ID, nil); err != nil {
					return result, fmt.Errorf("clear score for evaluation %s: %w", ev.ID, err)
				}
			}
			result.PerPrinciple[principle] = 0
			continue
		}

		share := catalog.PrincipleMaxPoints / float64(n)
		sum := 0.0
		for _, ev := range group {
			if ev.RawScore == nil {
				if err := s.evals.SetMaydaiScore(ctx, ev.ID, nil); err != nil {
					return result, fmt.Errorf("clear score for evaluation %s: %w", ev.ID, err)
				}
				continue
			}
			contribution := *ev.RawScore * share
			if err := s.evals.SetMaydaiScore(ctx, ev.ID, &contribution); err != nil {
				return result, fmt.Errorf("persist score for evaluation %s: %w", ev.ID, err)
			}
			sum += contribution
		}
		result.PerPrinciple[principle] = clamp(sum, 0, catalog.PrincipleMaxPoints)
		total += result.PerPrinciple[principle]
	}

	result.Total = clamp(total, 0, catalog.ModelMaxPoints)
	return result, nil
}

// NormalizeAllModels recomputes every known model concurrently. Writes are
// scoped per model, so models may run in parallel; within a model the
// computation is re-entrant.
func (s *Service) NormalizeAllModels(ctx context.Context) ([]domain.ModelScoreResult, error) {
	ids, err := s.evals.ListModelIDs(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]domain.ModelScoreResult, 0, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, err := s.NormalizeModel(gctx, id)
			if err != nil {
				return fmt.Errorf("model %s: %w", id, err)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ModelID.String() < results[j].ModelID.String()
	})
	return results, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
