package usecase

import (
	"context"

	"github.com/vocalia/voicedemo/internal/infra/integration/bland"
	"github.com/vocalia/voicedemo/internal/poller"
)

type VoiceGateway interface {
	InitiateCall(ctx context.Context, input bland.InitiateCallInput) (string, error)
}

// CallTrackerInterface destaca o acompanhamento da ligação do caminho da
// requisição. O handler não espera o Task terminar.
type CallTrackerInterface interface {
	Start(ctx context.Context, leadID, callID string) *poller.Task
}
