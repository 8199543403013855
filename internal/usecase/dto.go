package usecase

import "github.com/vocalia/voicedemo/internal/poller"

type StartCallInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	UseCase     string `json:"useCase"`
}

type StartCallOutput struct {
	Success bool   `json:"success"`
	CallID  string `json:"callId"`
	LeadID  string `json:"leadId"`

	// Task expõe o acompanhamento destacado pra quem precisa aguardar o
	// desfecho (testes, shutdown). Não vai no JSON da resposta.
	Task *poller.Task `json:"-"`
}
