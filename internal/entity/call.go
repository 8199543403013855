package entity

import (
	"encoding/json"
	"time"
)

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusError      CallStatus = "error"

	// CallStatusUnknown nunca vem do provedor: é atribuído localmente quando
	// o teto de polling estoura sem status terminal.
	CallStatusUnknown CallStatus = "unknown"
)

// Terminal indica se o status encerra o acompanhamento da ligação.
// Qualquer valor não reconhecido do provedor é tratado como em andamento.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusError, CallStatusUnknown:
		return true
	}
	return false
}

// TranscriptTurn é um turno da conversa como o provedor devolve.
type TranscriptTurn struct {
	ID   int    `json:"id,omitempty"`
	User string `json:"user"`
	Text string `json:"text"`
}

// CallAnalysis guarda as respostas extraídas pós-ligação. Answers mapeia a
// pergunta configurada para a resposta do provedor; Raw preserva o payload
// original para auditoria.
type CallAnalysis struct {
	Answers map[string]any  `json:"answers"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// CallSnapshot é o estado da ligação observado em um poll. O estado nunca é
// criado localmente: ele espelha o que a API do provedor respondeu.
type CallSnapshot struct {
	CallID          string         `json:"call_id"`
	Status          CallStatus     `json:"status"`
	DurationSeconds int            `json:"duration_seconds"`
	ToNumber        string         `json:"to_number"`
	FromNumber      string         `json:"from_number"`
	Completed       bool           `json:"completed"`
	AnsweredBy      string         `json:"answered_by,omitempty"`
	RecordingURL    string         `json:"recording_url,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	Transcript      []TranscriptTurn `json:"transcript,omitempty"`
	ConcatenatedTranscript string  `json:"concatenated_transcript,omitempty"`
	Analysis        *CallAnalysis  `json:"analysis,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
