package benchmarks

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"maydai/internal/adapters/memory"
	"maydai/internal/catalog"
	"maydai/internal/domain"
)

const tolerance = 1e-9

func newService(store *memory.Store) *Service {
	return New(store, catalog.Default())
}

func addEval(store *memory.Store, modelID uuid.UUID, principle string, raw *float64) uuid.UUID {
	id := uuid.New()
	store.AddEvaluation(domain.BenchmarkEvaluation{
		ID:        id,
		ModelID:   modelID,
		Principle: principle,
		Benchmark: "bench_" + id.String()[:8],
		RawScore:  raw,
	})
	return id
}

func f(v float64) *float64 { return &v }

func TestNormalizeModelSpecExample(t *testing.T) {
	// Principle A has [0.8, 0.6] (n=2), principle B has [1.0] (n=1):
	// A = 4×0.7 = 2.8, B = 4×1.0 = 4.0, total = 6.8.
	store := memory.New()
	modelID := uuid.New()
	addEval(store, modelID, catalog.PrincipleFairness, f(0.8))
	addEval(store, modelID, catalog.PrincipleFairness, f(0.6))
	addEval(store, modelID, catalog.PrinciplePrivacy, f(1.0))

	res, err := newService(store).NormalizeModel(context.Background(), modelID)
	if err != nil {
		t.Fatalf("NormalizeModel: %v", err)
	}
	if math.Abs(res.PerPrinciple[catalog.PrincipleFairness]-2.8) > tolerance {
		t.Errorf("fairness = %v, want 2.8", res.PerPrinciple[catalog.PrincipleFairness])
	}
	if math.Abs(res.PerPrinciple[catalog.PrinciplePrivacy]-4.0) > tolerance {
		t.Errorf("privacy = %v, want 4.0", res.PerPrinciple[catalog.PrinciplePrivacy])
	}
	if math.Abs(res.Total-6.8) > tolerance {
		t.Errorf("total = %v, want 6.8", res.Total)
	}
}

func TestNormalizeModelAbsentScores(t *testing.T) {
	store := memory.New()
	modelID := uuid.New()
	// A principle with only absent scores contributes 0 and no evaluation
	// gets a normalized value.
	absent1 := addEval(store, modelID, catalog.PrincipleRobustness, nil)
	absent2 := addEval(store, modelID, catalog.PrincipleRobustness, nil)
	// Partial data scores on what it has: one of two present, n=1.
	present := addEval(store, modelID, catalog.PrincipleTransparency, f(0.5))
	absent3 := addEval(store, modelID, catalog.PrincipleTransparency, nil)

	res, err := newService(store).NormalizeModel(context.Background(), modelID)
	if err != nil {
		t.Fatalf("NormalizeModel: %v", err)
	}
	if got := res.PerPrinciple[catalog.PrincipleRobustness]; got != 0 {
		t.Errorf("robustness = %v, want 0", got)
	}
	for _, id := range []uuid.UUID{absent1, absent2, absent3} {
		if ev := store.Evaluation(id); ev.MaydaiScore != nil {
			t.Errorf("evaluation %s has normalized score %v, want nil", id, *ev.MaydaiScore)
		}
	}
	if got := res.PerPrinciple[catalog.PrincipleTransparency]; math.Abs(got-2.0) > tolerance {
		t.Errorf("transparency = %v, want 2.0 (0.5 × 4/1)", got)
	}
	if ev := store.Evaluation(present); ev.MaydaiScore == nil || math.Abs(*ev.MaydaiScore-2.0) > tolerance {
		t.Errorf("present evaluation not persisted as 2.0: %+v", ev.MaydaiScore)
	}
}

func TestNormalizeModelSumEqualsFourTimesMean(t *testing.T) {
	tests := []struct {
		name string
		raws []float64
	}{
		{name: "single", raws: []float64{0.42}},
		{name: "pair", raws: []float64{0.1, 0.9}},
		{name: "many", raws: []float64{0.33, 0.12, 0.77, 0.5, 1.0}},
		{name: "all max", raws: []float64{1, 1, 1}},
		{name: "all zero", raws: []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			modelID := uuid.New()
			mean := 0.0
			var ids []uuid.UUID
			for _, raw := range tt.raws {
				ids = append(ids, addEval(store, modelID, catalog.PrincipleFairness, f(raw)))
				mean += raw
			}
			mean /= float64(len(tt.raws))

			res, err := newService(store).NormalizeModel(context.Background(), modelID)
			if err != nil {
				t.Fatalf("NormalizeModel: %v", err)
			}

			sum := 0.0
			for _, id := range ids {
				ev := store.Evaluation(id)
				if ev.MaydaiScore == nil {
					t.Fatalf("evaluation %s missing normalized score", id)
				}
				sum += *ev.MaydaiScore
			}
			want := 4 * mean
			if math.Abs(sum-want) > tolerance {
				t.Errorf("sum of contributions = %v, want 4×mean = %v", sum, want)
			}
			got := res.PerPrinciple[catalog.PrincipleFairness]
			if got < 0 || got > 4 {
				t.Errorf("principle total %v out of [0,4]", got)
			}
			if math.Abs(got-want) > tolerance {
				t.Errorf("principle total = %v, want %v", got, want)
			}
		})
	}
}

func TestNormalizeModelIdempotent(t *testing.T) {
	store := memory.New()
	modelID := uuid.New()
	ids := []uuid.UUID{
		addEval(store, modelID, catalog.PrincipleFairness, f(0.25)),
		addEval(store, modelID, catalog.PrincipleFairness, f(0.75)),
		addEval(store, modelID, catalog.PrinciplePrivacy, nil),
	}
	svc := newService(store)

	first, err := svc.NormalizeModel(context.Background(), modelID)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	stored := make([]*float64, len(ids))
	for i, id := range ids {
		stored[i] = store.Evaluation(id).MaydaiScore
	}

	second, err := svc.NormalizeModel(context.Background(), modelID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Total != second.Total {
		t.Errorf("totals differ across runs: %v vs %v", first.Total, second.Total)
	}
	for i, id := range ids {
		after := store.Evaluation(id).MaydaiScore
		switch {
		case stored[i] == nil && after == nil:
		case stored[i] != nil && after != nil && *stored[i] == *after:
		default:
			t.Errorf("evaluation %s score changed across identical runs", id)
		}
	}
}

func TestNormalizeModelEdgeCases(t *testing.T) {
	t.Run("no evaluations is score zero", func(t *testing.T) {
		res, err := newService(memory.New()).NormalizeModel(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("NormalizeModel: %v", err)
		}
		if res.Total != 0 {
			t.Errorf("total = %v, want 0", res.Total)
		}
	})

	t.Run("missing model id is a validation error", func(t *testing.T) {
		_, err := newService(memory.New()).NormalizeModel(context.Background(), uuid.Nil)
		if !domain.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})
}

func TestNormalizeAllModels(t *testing.T) {
	store := memory.New()
	modelA := uuid.New()
	modelB := uuid.New()
	addEval(store, modelA, catalog.PrincipleFairness, f(1.0))
	addEval(store, modelB, catalog.PrinciplePrivacy, f(0.5))

	results, err := newService(store).NormalizeAllModels(context.Background())
	if err != nil {
		t.Fatalf("NormalizeAllModels: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	totals := map[uuid.UUID]float64{}
	for _, res := range results {
		totals[res.ModelID] = res.Total
	}
	if math.Abs(totals[modelA]-4.0) > tolerance {
		t.Errorf("model A total = %v, want 4.0", totals[modelA])
	}
	if math.Abs(totals[modelB]-2.0) > tolerance {
		t.Errorf("model B total = %v, want 2.0", totals[modelB])
	}
}
