package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"maydai/internal/domain"
)

// AccessRepository
func (db *DB) AuthorizeUseCase(ctx context.Context, actorID, useCaseID uuid.UUID) error {
	var companyID uuid.UUID
	err := db.Pool.QueryRow(ctx, `SELECT company_id FROM use_cases WHERE id = $1`, useCaseID).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return db.AuthorizeCompany(ctx, actorID, companyID)
}

func (db *DB) AuthorizeCompany(ctx context.Context, actorID, companyID uuid.UUID) error {
	var exists, member bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1),
		       EXISTS (SELECT 1 FROM company_members WHERE company_id = $1 AND actor_id = $2)
	`, companyID, actorID).Scan(&exists, &member)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	if !member {
		return domain.ErrAccessDenied
	}
	return nil
}

// UseCaseRepository
func (db *DB) GetUseCase(ctx context.Context, id uuid.UUID) (domain.UseCase, error) {
	var uc domain.UseCase
	err := db.Pool.QueryRow(ctx, `
		SELECT id, company_id, model_id, score_base, score_model, score_final, eliminated, last_calculated_at
		FROM use_cases WHERE id = $1
	`, id).Scan(&uc.ID, &uc.CompanyID, &uc.ModelID, &uc.ScoreBase, &uc.ScoreModel, &uc.ScoreFinal, &uc.Eliminated, &uc.LastCalculatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uc, domain.ErrNotFound
	}
	return uc, err
}

func (db *DB) ListCompanyUseCaseIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id FROM use_cases WHERE company_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) UpdateScores(ctx context.Context, id uuid.UUID, scoreBase, scoreModel, scoreFinal float64) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE use_cases
		SET score_base = $2, score_model = $3, score_final = $4, last_calculated_at = now()
		WHERE id = $1
	`, id, scoreBase, scoreModel, scoreFinal)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResponseRepository
func (db *DB) GetResponse(ctx context.Context, useCaseID uuid.UUID, questionCode string) (domain.QuestionnaireResponse, bool, error) {
	var resp domain.QuestionnaireResponse
	var values, details []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT id, use_case_id, question_code, kind, value, multi_values, details, updated_at
		FROM questionnaire_responses
		WHERE use_case_id = $1 AND question_code = $2
	`, useCaseID, questionCode).Scan(&resp.ID, &resp.UseCaseID, &resp.QuestionCode, &resp.Kind, &resp.Value, &values, &details, &resp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return resp, false, nil
	}
	if err != nil {
		return resp, false, err
	}
	if values != nil {
		if err := json.Unmarshal(values, &resp.Values); err != nil {
			return resp, false, err
		}
	}
	if details != nil {
		if err := json.Unmarshal(details, &resp.Details); err != nil {
			return resp, false, err
		}
	}
	return resp, true, nil
}

func (db *DB) UpsertResponse(ctx context.Context, resp domain.QuestionnaireResponse) error {
	values, err := jsonOrNull(resp.Values)
	if err != nil {
		return err
	}
	details, err := jsonOrNull(resp.Details)
	if err != nil {
		return err
	}
	// One row per (use case, question); overwrite, never duplicate.
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO questionnaire_responses (id, use_case_id, question_code, kind, value, multi_values, details, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (use_case_id, question_code) DO UPDATE
		SET kind = EXCLUDED.kind,
		    value = EXCLUDED.value,
		    multi_values = EXCLUDED.multi_values,
		    details = EXCLUDED.details,
		    updated_at = EXCLUDED.updated_at
	`, resp.ID, resp.UseCaseID, resp.QuestionCode, resp.Kind, resp.Value, values, details, resp.UpdatedAt)
	return err
}

// DocumentRepository
func (db *DB) GetDocument(ctx context.Context, useCaseID uuid.UUID, docType string) (domain.ComplianceDocument, bool, error) {
	var doc domain.ComplianceDocument
	var form []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT id, use_case_id, doc_type, form_data, file_ref, status, updated_at, updated_by
		FROM compliance_documents
		WHERE use_case_id = $1 AND doc_type = $2
	`, useCaseID, docType).Scan(&doc.ID, &doc.UseCaseID, &doc.DocType, &form, &doc.FileRef, &doc.Status, &doc.UpdatedAt, &doc.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, err
	}
	if form != nil {
		if err := json.Unmarshal(form, &doc.FormData); err != nil {
			return doc, false, err
		}
	}
	return doc, true, nil
}

func (db *DB) SaveDocument(ctx context.Context, doc domain.ComplianceDocument) error {
	form, err := jsonOrNull(doc.FormData)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO compliance_documents (id, use_case_id, doc_type, form_data, file_ref, status, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (use_case_id, doc_type) DO UPDATE
		SET form_data = EXCLUDED.form_data,
		    file_ref = EXCLUDED.file_ref,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at,
		    updated_by = EXCLUDED.updated_by
	`, doc.ID, doc.UseCaseID, doc.DocType, form, doc.FileRef, doc.Status, doc.UpdatedAt, doc.UpdatedBy)
	return err
}

// EvaluationRepository
func (db *DB) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.BenchmarkEvaluation, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, model_id, principle, benchmark, raw_score, maydai_score
		FROM benchmark_evaluations
		WHERE model_id = $1
		ORDER BY id
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var evals []domain.BenchmarkEvaluation
	for rows.Next() {
		var ev domain.BenchmarkEvaluation
		if err := rows.Scan(&ev.ID, &ev.ModelID, &ev.Principle, &ev.Benchmark, &ev.RawScore, &ev.MaydaiScore); err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

func (db *DB) ListModelIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx, `SELECT DISTINCT model_id FROM benchmark_evaluations ORDER BY model_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) SetMaydaiScore(ctx context.Context, evaluationID uuid.UUID, score *float64) error {
	_, err := db.Pool.Exec(ctx, `UPDATE benchmark_evaluations SET maydai_score = $2 WHERE id = $1`, evaluationID, score)
	return err
}

// HistoryRepository
func (db *DB) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	meta, err := jsonOrNull(entry.Metadata)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO history_entries (id, use_case_id, actor_id, event_type, field_name, old_value, new_value, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.UseCaseID, entry.ActorID, entry.EventType, entry.FieldName, entry.OldValue, entry.NewValue, meta, entry.CreatedAt)
	return err
}

func (db *DB) ListHistory(ctx context.Context, useCaseID uuid.UUID) ([]domain.HistoryEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, use_case_id, actor_id, event_type, field_name, old_value, new_value, metadata, created_at
		FROM history_entries
		WHERE use_case_id = $1
		ORDER BY created_at DESC, id DESC
	`, useCaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.UseCaseID, &e.ActorID, &e.EventType, &e.FieldName, &e.OldValue, &e.NewValue, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if meta != nil {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func jsonOrNull(v any) ([]byte, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return nil, nil
		}
	case map[string]string:
		if t == nil {
			return nil, nil
		}
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
