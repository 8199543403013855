package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vocalia/voicedemo/internal/entity"
	"github.com/vocalia/voicedemo/internal/infra/integration/bland"
	"github.com/vocalia/voicedemo/internal/logger"
	"github.com/vocalia/voicedemo/internal/poller"
	"github.com/vocalia/voicedemo/internal/usecase"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	if args.Error(0) == nil && lead.ID == "" {
		lead.ID = "lead-123"
	}
	return args.Error(0)
}

func (m *MockLeadRepository) SetCallID(ctx context.Context, leadID, callID string) error {
	args := m.Called(ctx, leadID, callID)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateCall(ctx context.Context, leadID string, snap *entity.CallSnapshot) error {
	args := m.Called(ctx, leadID, snap)
	return args.Error(0)
}

// MockVoiceGateway
type MockVoiceGateway struct {
	mock.Mock
}

func (m *MockVoiceGateway) InitiateCall(ctx context.Context, input bland.InitiateCallInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockTracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Start(ctx context.Context, leadID, callID string) *poller.Task {
	args := m.Called(ctx, leadID, callID)
	return args.Get(0).(*poller.Task)
}

func validInput() usecase.StartCallInput {
	return usecase.StartCallInput{
		Name:        "Maria Souza",
		Email:       "maria@empresa.com",
		PhoneNumber: "+55 11 99999-9999",
		Company:     "Empresa X",
		Role:        "cto",
		UseCase:     "Interview call screening",
	}
}

// TestStartCallSuccess - fluxo feliz: lead criado ANTES do disparo, call_id
// gravado e tracker destacado.
func TestStartCallSuccess(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	var callOrder []string
	repo.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		callOrder = append(callOrder, "create_lead")
	})
	gateway.On("InitiateCall", ctx, mock.Anything).Return("call-abc", nil).Run(func(args mock.Arguments) {
		callOrder = append(callOrder, "initiate_call")
	})
	repo.On("SetCallID", ctx, "lead-123", "call-abc").Return(nil)
	tracker.On("Start", mock.Anything, "lead-123", "call-abc").Return(&poller.Task{LeadID: "lead-123", CallID: "call-abc"})

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, validInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.True(t, output.Success)
	assert.Equal(t, "call-abc", output.CallID)
	assert.Equal(t, "lead-123", output.LeadID)
	assert.NotNil(t, output.Task)

	// Durabilidade antes de efeito colateral: lead primeiro, ligação depois.
	assert.Equal(t, []string{"create_lead", "initiate_call"}, callOrder)

	gateway.AssertCalled(t, "InitiateCall", ctx, mock.MatchedBy(func(input bland.InitiateCallInput) bool {
		return input.LeadID == "lead-123" && input.PhoneNumber == "+55 11 99999-9999"
	}))
	tracker.AssertCalled(t, "Start", mock.Anything, "lead-123", "call-abc")
}

// TestStartCallInitiationFails - o lead órfão fica no banco e o handler
// recebe erro técnico; nada de tracker.
func TestStartCallInitiationFails(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	repo.On("Create", ctx, mock.Anything).Return(nil)
	gateway.On("InitiateCall", ctx, mock.Anything).
		Return("", &bland.ProviderError{Op: "send_call", StatusCode: 502, Body: "bad gateway"})

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, validInput())

	assert.Nil(t, output)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.Equal(t, "PROVIDER_ERROR", err.(*usecase.TechnicalError).Code)

	repo.AssertCalled(t, "Create", ctx, mock.Anything)
	repo.AssertNotCalled(t, "SetCallID", mock.Anything, mock.Anything, mock.Anything)
	tracker.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

// TestStartCallMissingAPIKey - credencial ausente é erro de configuração
// explícito, não no-op silencioso.
func TestStartCallMissingAPIKey(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	repo.On("Create", ctx, mock.Anything).Return(nil)
	gateway.On("InitiateCall", ctx, mock.Anything).Return("", bland.ErrMissingAPIKey{})

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, validInput())

	assert.Nil(t, output)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.Equal(t, "CONFIGURATION_ERROR", err.(*usecase.TechnicalError).Code)
}

// TestStartCallValidationFails - payload incompleto nem chega a criar lead.
func TestStartCallValidationFails(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	input := validInput()
	input.PhoneNumber = ""

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, input)

	assert.Nil(t, output)
	assert.True(t, usecase.IsDomainError(err))
	assert.Equal(t, "VALIDATION_ERROR", err.(*usecase.DomainError).Code)
	assert.Contains(t, err.Error(), "phoneNumber")

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "InitiateCall", mock.Anything, mock.Anything)
}

// TestStartCallDuplicateLead
func TestStartCallDuplicateLead(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	repo.On("Create", ctx, mock.Anything).Return(entity.ErrEmailAlreadyExists)

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, validInput())

	assert.Nil(t, output)
	assert.True(t, usecase.IsDomainError(err))
	assert.Equal(t, "DUPLICATE_LEAD", err.(*usecase.DomainError).Code)
	gateway.AssertNotCalled(t, "InitiateCall", mock.Anything, mock.Anything)
}

// TestStartCallSetCallIDFailureIsNonFatal - a ligação já está no ar; falha ao
// gravar o call_id inicial não derruba a resposta.
func TestStartCallSetCallIDFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()

	repo := new(MockLeadRepository)
	gateway := new(MockVoiceGateway)
	tracker := new(MockTracker)

	repo.On("Create", ctx, mock.Anything).Return(nil)
	gateway.On("InitiateCall", ctx, mock.Anything).Return("call-abc", nil)
	repo.On("SetCallID", ctx, "lead-123", "call-abc").Return(errors.New("store offline"))
	tracker.On("Start", mock.Anything, "lead-123", "call-abc").Return(&poller.Task{})

	uc := usecase.NewStartCallUseCase(repo, gateway, tracker, logger.New())
	output, err := uc.Execute(ctx, validInput())

	assert.NoError(t, err)
	assert.True(t, output.Success)
	tracker.AssertCalled(t, "Start", mock.Anything, "lead-123", "call-abc")
}
