package httpadapter

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"maydai/internal/domain"
	"maydai/internal/ports"
)

// Server exposes the scoring core's narrow contracts over HTTP. The outer
// application (questionnaire UI, admin screens, importer) talks to these
// routes; everything else stays behind the service layer.
type Server struct {
	documents   ports.Documents
	benchmarks  ports.Benchmarks
	registry    ports.Registry
	reevaluator ports.Reevaluator
	history     ports.History
}

func New(documents ports.Documents, benchmarks ports.Benchmarks, registry ports.Registry, reevaluator ports.Reevaluator, history ports.History) *Server {
	return &Server{
		documents:   documents,
		benchmarks:  benchmarks,
		registry:    registry,
		reevaluator: reevaluator,
		history:     history,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/usecases/{id}/documents/{docType}", s.handleSaveDocument)
		r.Post("/usecases/{id}/reevaluate", s.handleReevaluate)
		r.Get("/usecases/{id}/history", s.handleHistory)
		r.Post("/models/normalize", s.handleNormalizeAll)
		r.Post("/models/{id}/normalize", s.handleNormalizeModel)
		r.Post("/companies/{id}/registry", s.handleRegistry)
		r.Post("/companies/{id}/reevaluate", s.handleReevaluateCompany)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type saveDocumentRequest struct {
	FormData map[string]any `json:"form_data"`
	FileRef  *string        `json:"file_ref"`
	Status   string         `json:"status"`
}

type saveDocumentResponse struct {
	OK          bool     `json:"ok"`
	ScoreChange *float64 `json:"score_change,omitempty"`
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	useCaseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req saveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	out, err := s.documents.Save(r.Context(), actorID, useCaseID, chi.URLParam(r, "docType"), req.FormData, req.FileRef, domain.DocumentStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveDocumentResponse{OK: out.OK, ScoreChange: out.ScoreChange})
}

type modelScoreResponse struct {
	ModelID      uuid.UUID          `json:"model_id"`
	PerPrinciple map[string]float64 `json:"per_principle"`
	Total        float64            `json:"total"`
}

func (s *Server) handleNormalizeModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := s.benchmarks.NormalizeModel(r.Context(), modelID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelScoreResponse(res))
}

func (s *Server) handleNormalizeAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.benchmarks.NormalizeAllModels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]modelScoreResponse, 0, len(results))
	for _, res := range results {
		out = append(out, modelScoreResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

type registryRequest struct {
	UseMaydaiRegistry *bool `json:"use_maydai_registry"`
}

type registryResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updated_count"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	companyID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req registryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UseMaydaiRegistry == nil {
		writeError(w, http.StatusBadRequest, "use_maydai_registry must be a boolean")
		return
	}
	res, err := s.registry.Propagate(r.Context(), actorID, companyID, *req.UseMaydaiRegistry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registryResponse{Success: res.Success, UpdatedCount: res.UpdatedCount, Error: res.Err})
}

type scoresResponse struct {
	ScoreBase  float64 `json:"score_base"`
	ScoreModel float64 `json:"score_model"`
	ScoreFinal float64 `json:"score_final"`
	Eliminated bool    `json:"eliminated"`
}

func (s *Server) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	useCaseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	scores, err := s.reevaluator.ReevaluateUseCase(r.Context(), actorID, useCaseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse(scores))
}

type bulkResponse struct {
	Total   int    `json:"total"`
	Updated int    `json:"updated"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleReevaluateCompany(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	companyID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := s.reevaluator.ReevaluateCompany(r.Context(), actorID, companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkResponse{Total: res.Total, Updated: res.Updated, Failed: res.Failed, Error: res.Err})
}

type historyEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	EventType string         `json:"event_type"`
	FieldName *string        `json:"field_name,omitempty"`
	OldValue  *string        `json:"old_value,omitempty"`
	NewValue  *string        `json:"new_value,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	useCaseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := s.history.GetHistory(r.Context(), actorID, useCaseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			EventType: string(e.EventType),
			FieldName: e.FieldName,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// helpers

func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Actor-Id"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or malformed X-Actor-Id header")
		return uuid.Nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed "+name)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
