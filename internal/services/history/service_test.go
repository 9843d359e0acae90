package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"maydai/internal/adapters/memory"
	"maydai/internal/domain"
)

func newFixture(t *testing.T) (*Service, *memory.Store, *clockwork.FakeClock, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := memory.New()
	clock := clockwork.NewFakeClock()
	actor := uuid.New()
	company := uuid.New()
	useCase := uuid.New()
	store.AddCompany(domain.Company{ID: company, LegalName: "Acme"}, actor)
	store.AddUseCase(domain.UseCase{ID: useCase, CompanyID: company})
	return New(store, store, clock), store, clock, actor, useCase
}

func TestRecordAssignsServerTimestamp(t *testing.T) {
	svc, store, clock, actor, useCase := newFixture(t)
	ctx := context.Background()

	err := svc.Record(ctx, domain.HistoryEntry{
		UseCaseID: useCase,
		ActorID:   actor,
		EventType: domain.EventCreated,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, _ := store.ListHistory(ctx, useCase)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !entries[0].CreatedAt.Equal(clock.Now().UTC()) {
		t.Errorf("created_at = %v, want clock time %v", entries[0].CreatedAt, clock.Now().UTC())
	}
	if entries[0].ID == uuid.Nil {
		t.Error("entry id not assigned")
	}
}

func TestRecordScoreChangeMetadata(t *testing.T) {
	svc, store, _, actor, useCase := newFixture(t)
	ctx := context.Background()

	if err := svc.RecordScoreChange(ctx, useCase, actor, domain.EventDocumentUploaded, 20, 26.67); err != nil {
		t.Fatalf("RecordScoreChange: %v", err)
	}
	entries, _ := store.ListHistory(ctx, useCase)
	meta := entries[0].Metadata
	if meta[domain.MetaPreviousScore] != 20.0 || meta[domain.MetaNewScore] != 26.67 {
		t.Errorf("metadata = %v", meta)
	}
	change := meta[domain.MetaScoreChange].(float64)
	if change != 26.67-20.0 {
		t.Errorf("score_change = %v, want %v", change, 26.67-20.0)
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	svc, _, clock, actor, useCase := newFixture(t)
	ctx := context.Background()

	events := []domain.HistoryEventType{domain.EventCreated, domain.EventDocumentUploaded, domain.EventReevaluated}
	for _, ev := range events {
		if err := svc.Record(ctx, domain.HistoryEntry{UseCaseID: useCase, ActorID: actor, EventType: ev}); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Minute)
	}

	entries, err := svc.GetHistory(ctx, actor, useCase)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	want := []domain.HistoryEventType{domain.EventReevaluated, domain.EventDocumentUploaded, domain.EventCreated}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, ev := range want {
		if entries[i].EventType != ev {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].EventType, ev)
		}
	}
}

func TestGetHistoryAuthorization(t *testing.T) {
	svc, _, _, actor, useCase := newFixture(t)
	ctx := context.Background()

	if _, err := svc.GetHistory(ctx, uuid.New(), useCase); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("foreign actor: err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.GetHistory(ctx, actor, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown use case: err = %v, want ErrNotFound", err)
	}
}
