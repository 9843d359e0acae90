// Package documents keeps a compliance document's completion state and the
// questionnaire answer it evidences in lock-step. Every score delta a document
// causes is applied exactly once, decided by the answer value read immediately
// before the write, never by the caller's claimed previous status.
package documents

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"maydai/internal/catalog"
	"maydai/internal/domain"
	"maydai/internal/locks"
	"maydai/internal/ports"
	"maydai/internal/scoring"
	hist "maydai/internal/services/history"
)

type Service struct {
	access    ports.AccessRepository
	usecases  ports.UseCaseRepository
	responses ports.ResponseRepository
	docs      ports.DocumentRepository
	history   *hist.Service
	agg       *scoring.Aggregator
	cat       *catalog.Catalog
	locks     *locks.Keyed
	clock     clockwork.Clock
}

func New(
	access ports.AccessRepository,
	usecases ports.UseCaseRepository,
	responses ports.ResponseRepository,
	docs ports.DocumentRepository,
	recorder *hist.Service,
	agg *scoring.Aggregator,
	cat *catalog.Catalog,
	keyed *locks.Keyed,
	clock clockwork.Clock,
) *Service {
	return &Service{
		access:    access,
		usecases:  usecases,
		responses: responses,
		docs:      docs,
		history:   recorder,
		agg:       agg,
		cat:       cat,
		locks:     keyed,
		clock:     clock,
	}
}

// Save applies one document lifecycle transition. The whole
// read-decide-write-recompute sequence holds the use case's lock.
func (s *Service) Save(ctx context.Context, actorID, useCaseID uuid.UUID, docType string, form map[string]any, fileRef *string, status domain.DocumentStatus) (domain.SaveOutcome, error) {
	out := domain.SaveOutcome{}
	if !s.cat.KnownDocumentType(docType) {
		return out, domain.Invalid("doc_type", "unknown document type "+docType)
	}
	switch status {
	case "":
		status = domain.DocumentComplete
	case domain.DocumentIncomplete, domain.DocumentComplete, domain.DocumentValidated:
	default:
		return out, domain.Invalid("status", "unknown status "+string(status))
	}

	s.locks.Lock(useCaseID)
	defer s.locks.Unlock(useCaseID)

	if err := s.access.AuthorizeUseCase(ctx, actorID, useCaseID); err != nil {
		return out, err
	}

	prev, existed, err := s.docs.GetDocument(ctx, useCaseID, docType)
	if err != nil {
		return out, err
	}
	prevStatus := domain.DocumentIncomplete
	if existed {
		prevStatus = prev.Status
	}

	doc := domain.ComplianceDocument{
		ID:        uuid.New(),
		UseCaseID: useCaseID,
		DocType:   docType,
		FormData:  form,
		FileRef:   fileRef,
		Status:    status,
		UpdatedAt: s.clock.Now().UTC(),
		UpdatedBy: actorID,
	}
	if existed {
		doc.ID = prev.ID
		if fileRef == nil {
			doc.FileRef = prev.FileRef
		}
	}
	// The document row is authoritative; persist it before any score work.
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return out, err
	}
	out.OK = true

	switch {
	case status.Positive() && !prevStatus.Positive():
		return s.firstCompletion(ctx, actorID, useCaseID, docType, out)
	case status.Positive():
		// Re-save while already complete or validated: editable forever,
		// never re-awards points.
		err := s.history.Record(ctx, domain.HistoryEntry{
			UseCaseID: useCaseID,
			ActorID:   actorID,
			EventType: domain.EventDocumentModified,
		})
		return out, err
	case prevStatus.Positive():
		return s.reset(ctx, actorID, useCaseID, docType, out)
	default:
		// Incomplete save of an incomplete document: form data only.
		return out, nil
	}
}

// firstCompletion awards the mapped points if, and only if, the answer
// actually flips to the positive value.
func (s *Service) firstCompletion(ctx context.Context, actorID, useCaseID uuid.UUID, docType string, out domain.SaveOutcome) (domain.SaveOutcome, error) {
	mapping, ok := s.cat.MappingFor(docType)
	if !ok {
		return out, nil
	}

	resp, found, err := s.responses.GetResponse(ctx, useCaseID, mapping.QuestionCode)
	if err != nil {
		return out, err
	}
	if found && resp.Value == mapping.PositiveValue {
		// Already answered positively through the questionnaire UI; the
		// points were counted there.
		err := s.history.Record(ctx, domain.HistoryEntry{
			UseCaseID: useCaseID,
			ActorID:   actorID,
			EventType: domain.EventDocumentUploaded,
		})
		return out, err
	}

	if err := s.upsertAnswer(ctx, useCaseID, mapping.QuestionCode, mapping.PositiveValue); err != nil {
		return out, err
	}
	return s.applyDelta(ctx, actorID, useCaseID, mapping.Points, domain.EventDocumentUploaded, out)
}

// reset withdraws the mapped points if the answer still holds the positive
// value a document once set.
func (s *Service) reset(ctx context.Context, actorID, useCaseID uuid.UUID, docType string, out domain.SaveOutcome) (domain.SaveOutcome, error) {
	entryWithoutScore := domain.HistoryEntry{
		UseCaseID: useCaseID,
		ActorID:   actorID,
		EventType: domain.EventDocumentReset,
	}

	mapping, ok := s.cat.MappingFor(docType)
	if !ok {
		return out, s.history.Record(ctx, entryWithoutScore)
	}
	resp, found, err := s.responses.GetResponse(ctx, useCaseID, mapping.QuestionCode)
	if err != nil {
		return out, err
	}
	if !found || resp.Value != mapping.PositiveValue {
		// Answer was changed manually in the meantime; nothing to withdraw.
		return out, s.history.Record(ctx, entryWithoutScore)
	}

	if err := s.upsertAnswer(ctx, useCaseID, mapping.QuestionCode, mapping.NegativeValue); err != nil {
		return out, err
	}
	return s.applyDelta(ctx, actorID, useCaseID, -mapping.Points, domain.EventDocumentReset, out)
}

func (s *Service) upsertAnswer(ctx context.Context, useCaseID uuid.UUID, questionCode, value string) error {
	return s.responses.UpsertResponse(ctx, domain.QuestionnaireResponse{
		ID:           uuid.New(),
		UseCaseID:    useCaseID,
		QuestionCode: questionCode,
		Kind:         domain.AnswerSingle,
		Value:        value,
		UpdatedAt:    s.clock.Now().UTC(),
	})
}

// applyDelta moves score_base by points (floored at 0), recomputes the final
// score, and records the change. A failed score persistence after the answer
// flip is partial success: the document and answer stand, reevaluation
// reconciles the score later.
func (s *Service) applyDelta(ctx context.Context, actorID, useCaseID uuid.UUID, points float64, event domain.HistoryEventType, out domain.SaveOutcome) (domain.SaveOutcome, error) {
	uc, err := s.usecases.GetUseCase(ctx, useCaseID)
	if err != nil {
		log.Printf("document sync: score read failed for use case %s after answer flip: %v", useCaseID, err)
		return out, nil
	}
	// Floored at zero on withdrawal; never clamped at the top, so an
	// upload/reset round trip returns the base to exactly where it was.
	newBase := uc.ScoreBase + points
	if newBase < 0 {
		newBase = 0
	}
	modelRaw := 0.0
	if uc.ModelID != nil {
		modelRaw = uc.ScoreModel
	}
	newFinal := s.agg.Final(newBase, modelRaw)

	if err := s.usecases.UpdateScores(ctx, useCaseID, newBase, uc.ScoreModel, newFinal); err != nil {
		log.Printf("document sync: score persist failed for use case %s after answer flip: %v", useCaseID, err)
		if herr := s.history.Record(ctx, domain.HistoryEntry{UseCaseID: useCaseID, ActorID: actorID, EventType: event}); herr != nil {
			log.Printf("document sync: history append failed for use case %s: %v", useCaseID, herr)
		}
		return out, nil
	}

	change := newFinal - uc.ScoreFinal
	out.ScoreChange = &change
	if err := s.history.RecordScoreChange(ctx, useCaseID, actorID, event, uc.ScoreFinal, newFinal); err != nil {
		log.Printf("document sync: history append failed for use case %s: %v", useCaseID, err)
	}
	return out, nil
}
