package bland

import (
	"encoding/json"
	"math"
	"time"

	"github.com/vocalia/voicedemo/internal/entity"
)

type InitiateCallInput struct {
	LeadID      string
	Name        string
	Email       string
	PhoneNumber string
	Company     string
	Role        string
	UseCase     string
}

// Question é um par (pergunta, formato esperado da resposta). O formato é
// só uma dica semântica pro provedor ("string", "boolean",
// "human or voicemail") — não validamos aqui, apenas repassamos.
type Question struct {
	Prompt string
	Shape  string
}

// --- PAYLOADS: o que mandamos pra api.bland.ai ---

type sendCallRequest struct {
	PhoneNumber           string         `json:"phone_number"`
	Task                  string         `json:"task"`
	Voice                 string         `json:"voice"`
	FirstSentence         string         `json:"first_sentence"`
	WaitForGreeting       bool           `json:"wait_for_greeting"`
	InterruptionThreshold int            `json:"interruption_threshold"`
	Model                 string         `json:"model"`
	Temperature           float64        `json:"temperature"`
	Metadata              map[string]any `json:"metadata"`
}

type analyzeRequest struct {
	Goal      string      `json:"goal"`
	Questions [][2]string `json:"questions"`
}

// --- RESPONSES: o que o Bland devolve ---

type sendCallResponse struct {
	Status string `json:"status"`
	CallID string `json:"call_id"`
}

type analyzeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Answers []any  `json:"answers"`
}

type callDetailsResponse struct {
	CallID                 string          `json:"call_id"`
	Status                 string          `json:"status"`
	QueueStatus            string          `json:"queue_status"`
	CallLength             float64         `json:"call_length"`
	CorrectedDuration      json.Number     `json:"corrected_duration"`
	To                     string          `json:"to"`
	From                   string          `json:"from"`
	Completed              bool            `json:"completed"`
	AnsweredBy             string          `json:"answered_by"`
	RecordingURL           string          `json:"recording_url"`
	Summary                string          `json:"summary"`
	ErrorMessage           string          `json:"error_message"`
	StartedAt              string          `json:"started_at"`
	EndAt                  string          `json:"end_at"`
	ConcatenatedTranscript string          `json:"concatenated_transcript"`
	Transcripts            []transcriptRow `json:"transcripts"`
	Metadata               map[string]any  `json:"metadata"`
	Analysis               map[string]any  `json:"analysis"`
}

type transcriptRow struct {
	ID   int    `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
}

// toSnapshot converte a resposta crua em um CallSnapshot. Duração persistida
// é corrected_duration quando o provedor manda, senão call_length arredondado
// pra segundos inteiros.
func (r *callDetailsResponse) toSnapshot() *entity.CallSnapshot {
	snap := &entity.CallSnapshot{
		CallID:                 r.CallID,
		Status:                 entity.CallStatus(r.Status),
		DurationSeconds:        int(math.Round(r.CallLength)),
		ToNumber:               r.To,
		FromNumber:             r.From,
		Completed:              r.Completed,
		AnsweredBy:             r.AnsweredBy,
		RecordingURL:           r.RecordingURL,
		Summary:                r.Summary,
		ErrorMessage:           r.ErrorMessage,
		ConcatenatedTranscript: r.ConcatenatedTranscript,
		Metadata:               r.Metadata,
	}

	if d, err := r.CorrectedDuration.Float64(); err == nil && d > 0 {
		snap.DurationSeconds = int(math.Round(d))
	}

	for _, t := range r.Transcripts {
		snap.Transcript = append(snap.Transcript, entity.TranscriptTurn{
			ID:   t.ID,
			User: t.User,
			Text: t.Text,
		})
	}

	if ts := parseTime(r.StartedAt); ts != nil {
		snap.StartedAt = ts
	}
	if ts := parseTime(r.EndAt); ts != nil {
		snap.EndedAt = ts
	}

	return snap
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
