package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/vocalia/voicedemo/internal/entity"
	"github.com/vocalia/voicedemo/internal/infra/integration/bland"
)

type StartCallUseCase struct {
	Leads   entity.LeadRepositoryInterface
	Gateway VoiceGateway
	Tracker CallTrackerInterface
	Log     *logrus.Entry
}

func NewStartCallUseCase(
	leads entity.LeadRepositoryInterface,
	gateway VoiceGateway,
	tracker CallTrackerInterface,
	log *logrus.Entry,
) *StartCallUseCase {
	return &StartCallUseCase{
		Leads:   leads,
		Gateway: gateway,
		Tracker: tracker,
		Log:     log,
	}
}

func (uc *StartCallUseCase) Execute(ctx context.Context, input StartCallInput) (*StartCallOutput, error) {
	validationErrors := ValidateStartCallInput(input)
	if len(validationErrors) > 0 {
		errMsg := "validation failed: "
		for _, e := range validationErrors {
			errMsg += e.Field + " (" + e.Message + "), "
		}
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: errMsg,
		}
	}

	// Lead primeiro, ligação depois: se o provedor falhar, a linha durável
	// já existe e dá pra inspecionar o que foi submetido.
	lead := &entity.Lead{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.PhoneNumber,
		Company: input.Company,
		Role:    input.Role,
		UseCase: input.UseCase,
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{
				Code:    "DUPLICATE_LEAD",
				Message: "a lead with this email already exists",
			}
		}
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	callID, err := uc.Gateway.InitiateCall(ctx, bland.InitiateCallInput{
		LeadID:      lead.ID,
		Name:        input.Name,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Company:     input.Company,
		Role:        input.Role,
		UseCase:     input.UseCase,
	})
	if err != nil {
		var missing bland.ErrMissingAPIKey
		if errors.As(err, &missing) {
			return nil, &TechnicalError{
				Code:    "CONFIGURATION_ERROR",
				Message: "voice provider API key is not configured",
			}
		}
		// Lead órfão fica no banco de propósito (sem call_id).
		return nil, &TechnicalError{
			Code:    "PROVIDER_ERROR",
			Message: "failed to initiate call: " + err.Error(),
		}
	}

	if err := uc.Leads.SetCallID(ctx, lead.ID, callID); err != nil {
		// A ligação já está no ar; o primeiro UpdateCall do tracker repõe o
		// call_id via snapshot, então só registra e segue.
		uc.Log.WithError(err).WithField("lead_id", lead.ID).
			Warn("falha ao gravar call_id inicial")
	}

	// Destacado da requisição: cancelar o HTTP não derruba o polling.
	task := uc.Tracker.Start(context.WithoutCancel(ctx), lead.ID, callID)

	return &StartCallOutput{
		Success: true,
		CallID:  callID,
		LeadID:  lead.ID,
		Task:    task,
	}, nil
}
