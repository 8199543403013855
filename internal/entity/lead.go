package entity

import (
	"context"
	"errors"
	"time"
)

var ErrEmailAlreadyExists = errors.New("a lead with this email already exists")

type Lead struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Company    string     `json:"company"`
	Role       string     `json:"role"`
	UseCase    string     `json:"use_case"`
	CallID     string     `json:"call_id,omitempty"`
	CallStatus CallStatus `json:"call_status,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error

	// SetCallID grava o call_id do provedor logo após o disparo da ligação,
	// antes do primeiro poll rodar.
	SetCallID(ctx context.Context, leadID, callID string) error

	// UpdateCall espelha o último snapshot observado da ligação na linha do
	// lead. Chamadas repetidas com snapshots evoluindo nunca podem regredir
	// uma coluna já preenchida de volta para NULL.
	UpdateCall(ctx context.Context, leadID string, snap *CallSnapshot) error
}
