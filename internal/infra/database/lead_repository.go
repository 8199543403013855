package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vocalia/voicedemo/internal/entity"
)

// PersistenceError indica que o row-store rejeitou uma escrita.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Create insere o lead ANTES de qualquer chamada ao provedor, pra sobrar
// registro durável mesmo se o disparo da ligação falhar depois.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	query := `
		INSERT INTO leads (id, name, email, phone, company, role, use_case, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Role,
		lead.UseCase,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)

	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return entity.ErrEmailAlreadyExists
		}
		return &PersistenceError{Op: "create_lead", Err: err}
	}

	return nil
}

// SetCallID grava a referência do provedor e marca a ligação como enfileirada.
func (r *LeadRepository) SetCallID(ctx context.Context, leadID, callID string) error {
	query := `
		UPDATE leads
		SET call_id = $2, call_status = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, leadID, callID, entity.CallStatusQueued)
	if err != nil {
		return &PersistenceError{Op: "set_call_id", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &PersistenceError{Op: "set_call_id", Err: sql.ErrNoRows}
	}

	return nil
}

// UpdateCall grava o snapshot mais recente. Colunas textuais usam COALESCE
// pra nunca regredir um valor já preenchido pra NULL; só o call_status é
// sempre sobrescrito com o que acabou de ser observado.
func (r *LeadRepository) UpdateCall(ctx context.Context, leadID string, snap *entity.CallSnapshot) error {
	transcripts, err := nullJSON(snap.Transcript)
	if err != nil {
		return &PersistenceError{Op: "update_call", Err: err}
	}
	analysis, err := nullJSON(snap.Analysis)
	if err != nil {
		return &PersistenceError{Op: "update_call", Err: err}
	}

	query := `
		UPDATE leads
		SET
			call_id                 = COALESCE($2, call_id),
			call_status             = $3,
			call_length             = COALESCE($4, call_length),
			recording_url           = COALESCE($5, recording_url),
			summary                 = COALESCE($6, summary),
			error_message           = COALESCE($7, error_message),
			answered_by             = COALESCE($8, answered_by),
			completed               = (completed OR $9),
			started_at              = COALESCE($10, started_at),
			ended_at                = COALESCE($11, ended_at),
			concatenated_transcript = COALESCE($12, concatenated_transcript),
			transcripts             = COALESCE($13, transcripts),
			analysis                = COALESCE($14, analysis),
			updated_at              = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query,
		leadID,
		nullString(snap.CallID),
		string(snap.Status),
		nullInt(snap.DurationSeconds),
		nullString(snap.RecordingURL),
		nullString(snap.Summary),
		nullString(snap.ErrorMessage),
		nullString(snap.AnsweredBy),
		snap.Completed,
		nullTime(snap.StartedAt),
		nullTime(snap.EndedAt),
		nullString(snap.ConcatenatedTranscript),
		transcripts,
		analysis,
	)
	if err != nil {
		return &PersistenceError{Op: "update_call", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &PersistenceError{Op: "update_call", Err: sql.ErrNoRows}
	}

	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func nullTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}

// nullJSON serializa pra jsonb, devolvendo NULL pra valores vazios pra não
// apagar o que já foi gravado. String e não []byte: o lib/pq mandaria bytes
// como bytea e o Postgres recusaria no cast pra jsonb.
func nullJSON(v any) (any, error) {
	switch val := v.(type) {
	case []entity.TranscriptTurn:
		if len(val) == 0 {
			return nil, nil
		}
	case *entity.CallAnalysis:
		if val == nil {
			return nil, nil
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
