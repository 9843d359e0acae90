// Package history is the append-only audit log of score-relevant events.
package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"maydai/internal/domain"
	"maydai/internal/ports"
)

type Service struct {
	repo   ports.HistoryRepository
	access ports.AccessRepository
	clock  clockwork.Clock
}

func New(repo ports.HistoryRepository, access ports.AccessRepository, clock clockwork.Clock) *Service {
	return &Service{repo: repo, access: access, clock: clock}
}

// Record appends one entry with a server-assigned timestamp. Entries are
// never updated or deleted.
func (s *Service) Record(ctx context.Context, entry domain.HistoryEntry) error {
	entry.ID = uuid.New()
	entry.CreatedAt = s.clock.Now().UTC()
	return s.repo.AppendHistory(ctx, entry)
}

// RecordScoreChange appends an entry whose metadata carries the previous and
// new final score and their signed difference.
func (s *Service) RecordScoreChange(ctx context.Context, useCaseID, actorID uuid.UUID, event domain.HistoryEventType, previous, next float64) error {
	return s.Record(ctx, domain.HistoryEntry{
		UseCaseID: useCaseID,
		ActorID:   actorID,
		EventType: event,
		Metadata: map[string]any{
			domain.MetaPreviousScore: previous,
			domain.MetaNewScore:      next,
			domain.MetaScoreChange:   next - previous,
		},
	})
}

// GetHistory returns the use case's entries, newest first.
func (s *Service) GetHistory(ctx context.Context, actorID, useCaseID uuid.UUID) ([]domain.HistoryEntry, error) {
	if err := s.access.AuthorizeUseCase(ctx, actorID, useCaseID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, useCaseID)
}
