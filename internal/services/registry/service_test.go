package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"maydai/internal/adapters/memory"
	"maydai/internal/catalog"
	"maydai/internal/domain"
	"maydai/internal/locks"
)

type fixture struct {
	store   *memory.Store
	svc     *Service
	actor   uuid.UUID
	company uuid.UUID
}

func newFixture(t *testing.T, useCases int) (*fixture, []uuid.UUID) {
	t.Helper()
	store := memory.New()
	actor := uuid.New()
	company := uuid.New()
	store.AddCompany(domain.Company{ID: company, LegalName: "Acme"}, actor)
	ids := make([]uuid.UUID, 0, useCases)
	for i := 0; i < useCases; i++ {
		id := uuid.New()
		store.AddUseCase(domain.UseCase{ID: id, CompanyID: company})
		ids = append(ids, id)
	}
	svc := New(store, store, store, locks.NewKeyed(), clockwork.NewFakeClock())
	return &fixture{store: store, svc: svc, actor: actor, company: company}, ids
}

func TestPropagateYesWritesConditionalAnswer(t *testing.T) {
	fx, ids := newFixture(t, 3)

	res, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, true)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if !res.Success || res.UpdatedCount != 3 || res.Err != "" {
		t.Errorf("result = %+v, want success with 3 updates", res)
	}

	for _, id := range ids {
		resp, found, _ := fx.store.GetResponse(context.Background(), id, catalog.RegistryQuestionCode)
		if !found {
			t.Fatalf("use case %s has no registry answer", id)
		}
		if resp.Kind != domain.AnswerConditional || resp.Value != catalog.RegistryAnswerYes {
			t.Errorf("answer = %+v, want conditional yes", resp)
		}
		if resp.Details[catalog.RegistryNameDetailKey] != catalog.RegistryNameMaydai {
			t.Errorf("details = %v, want registry_name = maydai", resp.Details)
		}
	}
}

func TestPropagateNoOverwritesExistingAnswer(t *testing.T) {
	fx, ids := newFixture(t, 2)

	if _, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, true); err != nil {
		t.Fatalf("first propagation: %v", err)
	}
	res, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, false)
	if err != nil {
		t.Fatalf("second propagation: %v", err)
	}
	if !res.Success || res.UpdatedCount != 2 {
		t.Errorf("result = %+v, want success with 2 updates", res)
	}

	for _, id := range ids {
		resp, _, _ := fx.store.GetResponse(context.Background(), id, catalog.RegistryQuestionCode)
		if resp.Kind != domain.AnswerSingle || resp.Value != catalog.RegistryAnswerNo {
			t.Errorf("answer = %+v, want single-value no (last write wins)", resp)
		}
		if len(resp.Details) != 0 {
			t.Errorf("details = %v, want none after overwrite", resp.Details)
		}
	}
}

func TestPropagateZeroUseCases(t *testing.T) {
	fx, _ := newFixture(t, 0)
	res, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, true)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if !res.Success || res.UpdatedCount != 0 || res.Err != "" {
		t.Errorf("result = %+v, want {success:true, updatedCount:0}", res)
	}
}

func TestPropagatePartialFailure(t *testing.T) {
	fx, ids := newFixture(t, 5)
	failing := map[uuid.UUID]bool{ids[1]: true, ids[3]: true}
	fx.store.FailUpsertResponse = func(id uuid.UUID) error {
		if failing[id] {
			return errors.New("row gone")
		}
		return nil
	}

	res, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, true)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if res.Success {
		t.Error("success = true with failed upserts")
	}
	if res.UpdatedCount != 3 {
		t.Errorf("updatedCount = %d, want 3", res.UpdatedCount)
	}
	if res.Err != "2 use case(s) failed to update" {
		t.Errorf("err = %q, want %q", res.Err, "2 use case(s) failed to update")
	}

	// The successful subset stuck; failures did not roll it back.
	for _, id := range ids {
		_, found, _ := fx.store.GetResponse(context.Background(), id, catalog.RegistryQuestionCode)
		if failing[id] == found {
			t.Errorf("use case %s: answer present = %v, want %v", id, found, !failing[id])
		}
	}
}

func TestPropagateDoesNotTouchScores(t *testing.T) {
	fx, ids := newFixture(t, 1)
	fx.store.AddUseCase(domain.UseCase{ID: ids[0], CompanyID: fx.company, ScoreBase: 55, ScoreFinal: 36.67})

	if _, err := fx.svc.Propagate(context.Background(), fx.actor, fx.company, true); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	uc := fx.store.UseCase(ids[0])
	if uc.ScoreBase != 55 || uc.ScoreFinal != 36.67 {
		t.Errorf("scores changed: %+v", uc)
	}
}

func TestPropagateAuthorization(t *testing.T) {
	fx, _ := newFixture(t, 1)

	if _, err := fx.svc.Propagate(context.Background(), fx.actor, uuid.New(), true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown company: err = %v, want ErrNotFound", err)
	}
	if _, err := fx.svc.Propagate(context.Background(), uuid.New(), fx.company, true); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("foreign actor: err = %v, want ErrAccessDenied", err)
	}
}
