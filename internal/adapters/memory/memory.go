// Package memory is an in-process implementation of the repository ports,
// used by the service tests and by local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"maydai/internal/domain"
)

func nowUTC() time.Time { return time.Now().UTC() }

type Store struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]domain.Company
	members   map[uuid.UUID]map[uuid.UUID]bool // company -> actors
	usecases  map[uuid.UUID]domain.UseCase
	responses map[uuid.UUID]map[string]domain.QuestionnaireResponse
	documents map[uuid.UUID]map[string]domain.ComplianceDocument
	evals     map[uuid.UUID]domain.BenchmarkEvaluation
	history   []domain.HistoryEntry

	// Error hooks let tests force individual operations to fail.
	FailUpsertResponse func(useCaseID uuid.UUID) error
	FailUpdateScores   func(useCaseID uuid.UUID) error
}

func New() *Store {
	return &Store{
		companies: map[uuid.UUID]domain.Company{},
		members:   map[uuid.UUID]map[uuid.UUID]bool{},
		usecases:  map[uuid.UUID]domain.UseCase{},
		responses: map[uuid.UUID]map[string]domain.QuestionnaireResponse{},
		documents: map[uuid.UUID]map[string]domain.ComplianceDocument{},
		evals:     map[uuid.UUID]domain.BenchmarkEvaluation{},
	}
}

// Seed helpers

func (s *Store) AddCompany(c domain.Company, actors ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
	if s.members[c.ID] == nil {
		s.members[c.ID] = map[uuid.UUID]bool{}
	}
	for _, a := range actors {
		s.members[c.ID][a] = true
	}
}

func (s *Store) AddUseCase(uc domain.UseCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usecases[uc.ID] = uc
}

func (s *Store) AddEvaluation(ev domain.BenchmarkEvaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals[ev.ID] = ev
}

func (s *Store) UseCase(id uuid.UUID) domain.UseCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usecases[id]
}

func (s *Store) Evaluation(id uuid.UUID) domain.BenchmarkEvaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evals[id]
}

// AccessRepository

func (s *Store) AuthorizeUseCase(_ context.Context, actorID, useCaseID uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uc, ok := s.usecases[useCaseID]
	if !ok {
		return domain.ErrNotFound
	}
	if !s.members[uc.CompanyID][actorID] {
		return domain.ErrAccessDenied
	}
	return nil
}

func (s *Store) AuthorizeCompany(_ context.Context, actorID, companyID uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.companies[companyID]; !ok {
		return domain.ErrNotFound
	}
	if !s.members[companyID][actorID] {
		return domain.ErrAccessDenied
	}
	return nil
}

// UseCaseRepository

func (s *Store) GetUseCase(_ context.Context, id uuid.UUID) (domain.UseCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uc, ok := s.usecases[id]
	if !ok {
		return uc, domain.ErrNotFound
	}
	return uc, nil
}

func (s *Store) ListCompanyUseCaseIDs(_ context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for id, uc := range s.usecases {
		if uc.CompanyID == companyID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (s *Store) UpdateScores(_ context.Context, id uuid.UUID, scoreBase, scoreModel, scoreFinal float64) error {
	if s.FailUpdateScores != nil {
		if err := s.FailUpdateScores(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.usecases[id]
	if !ok {
		return domain.ErrNotFound
	}
	uc.ScoreBase = scoreBase
	uc.ScoreModel = scoreModel
	uc.ScoreFinal = scoreFinal
	now := nowUTC()
	uc.LastCalculatedAt = &now
	s.usecases[id] = uc
	return nil
}

// ResponseRepository

func (s *Store) GetResponse(_ context.Context, useCaseID uuid.UUID, questionCode string) (domain.QuestionnaireResponse, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[useCaseID][questionCode]
	return resp, ok, nil
}

func (s *Store) UpsertResponse(_ context.Context, resp domain.QuestionnaireResponse) error {
	if s.FailUpsertResponse != nil {
		if err := s.FailUpsertResponse(resp.UseCaseID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responses[resp.UseCaseID] == nil {
		s.responses[resp.UseCaseID] = map[string]domain.QuestionnaireResponse{}
	}
	if prev, ok := s.responses[resp.UseCaseID][resp.QuestionCode]; ok {
		resp.ID = prev.ID
	}
	s.responses[resp.UseCaseID][resp.QuestionCode] = resp
	return nil
}

// DocumentRepository

func (s *Store) GetDocument(_ context.Context, useCaseID uuid.UUID, docType string) (domain.ComplianceDocument, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[useCaseID][docType]
	return doc, ok, nil
}

func (s *Store) SaveDocument(_ context.Context, doc domain.ComplianceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents[doc.UseCaseID] == nil {
		s.documents[doc.UseCaseID] = map[string]domain.ComplianceDocument{}
	}
	s.documents[doc.UseCaseID][doc.DocType] = doc
	return nil
}

// EvaluationRepository

func (s *Store) ListByModel(_ context.Context, modelID uuid.UUID) ([]domain.BenchmarkEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var evals []domain.BenchmarkEvaluation
	for _, ev := range s.evals {
		if ev.ModelID == modelID {
			evals = append(evals, ev)
		}
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].ID.String() < evals[j].ID.String() })
	return evals, nil
}

func (s *Store) ListModelIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, ev := range s.evals {
		if !seen[ev.ModelID] {
			seen[ev.ModelID] = true
			ids = append(ids, ev.ModelID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (s *Store) SetMaydaiScore(_ context.Context, evaluationID uuid.UUID, score *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.evals[evaluationID]
	if !ok {
		return domain.ErrNotFound
	}
	ev.MaydaiScore = score
	s.evals[evaluationID] = ev
	return nil
}

// HistoryRepository

func (s *Store) AppendHistory(_ context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	return nil
}

func (s *Store) ListHistory(_ context.Context, useCaseID uuid.UUID) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Newest first; walk the append-only log backwards so insertion order
	// breaks timestamp ties.
	var entries []domain.HistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].UseCaseID == useCaseID {
			entries = append(entries, s.history[i])
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}
