package bland

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vocalia/voicedemo/internal/entity"
)

const DefaultBaseURL = "https://api.bland.ai"

// ErrMissingAPIKey indica credencial ausente. Erro de configuração: não é
// retentável e deve subir até quem chamou.
type ErrMissingAPIKey struct{}

func (ErrMissingAPIKey) Error() string { return "bland: BLAND_API_KEY não configurada" }

// ProviderError carrega o status e o corpo que o Bland devolveu.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bland %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bland %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// InitiateCall dispara a ligação de verdade pro telefone do lead.
// NUNCA retente esse método às cegas: cada retry gera outra ligação real.
func (c *Client) InitiateCall(ctx context.Context, input InitiateCallInput) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey{}
	}

	payload := sendCallRequest{
		PhoneNumber: input.PhoneNumber,
		Task: fmt.Sprintf(
			"You are an AI assistant calling %s from %s. They recently submitted a form expressing interest in our AI voice agent demo. Their role is %s and their use case is: %s. Your task is to briefly introduce yourself, thank them for their interest, and demonstrate the capabilities of our AI voice agent based on their use case.",
			input.Name, input.Company, input.Role, input.UseCase,
		),
		Voice:                 "maya",
		FirstSentence:         fmt.Sprintf("Hello, is this %s?", input.Name),
		WaitForGreeting:       true,
		InterruptionThreshold: 123,
		Model:                 "enhanced",
		Temperature:           0.7,
		Metadata: map[string]any{
			"lead_id": input.LeadID,
			"name":    input.Name,
			"email":   input.Email,
			"company": input.Company,
			"role":    input.Role,
			"useCase": input.UseCase,
		},
	}

	var response sendCallResponse
	if err := c.doJSON(ctx, "send_call", http.MethodPost, "/v1/calls", payload, &response); err != nil {
		return "", err
	}

	if response.CallID == "" {
		return "", &ProviderError{Op: "send_call", StatusCode: http.StatusOK, Body: "resposta sem call_id"}
	}

	return response.CallID, nil
}

// FetchCallDetails é somente leitura e idempotente: seguro de retentar.
func (c *Client) FetchCallDetails(ctx context.Context, callID string) (*entity.CallSnapshot, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey{}
	}

	var response callDetailsResponse
	path := fmt.Sprintf("/v1/calls/%s", callID)
	if err := c.doJSON(ctx, "call_details", http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	return response.toSnapshot(), nil
}

// RequestAnalysis pede ao Bland a extração pós-ligação. Leitura sobre estado
// que já existe no provedor, então quem chama pode retentar com backoff.
func (c *Client) RequestAnalysis(ctx context.Context, callID, goal string, questions []Question) (*entity.CallAnalysis, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey{}
	}

	payload := analyzeRequest{Goal: goal}
	for _, q := range questions {
		payload.Questions = append(payload.Questions, [2]string{q.Prompt, q.Shape})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bland analyze: marshal: %w", err)
	}

	path := fmt.Sprintf("/v1/calls/%s/analyze", callID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "analyze", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Op: "analyze", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var response analyzeResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &ProviderError{Op: "analyze", StatusCode: resp.StatusCode, Err: err}
	}

	// As respostas vêm na mesma ordem das perguntas enviadas.
	answers := make(map[string]any, len(questions))
	for i, q := range questions {
		if i < len(response.Answers) {
			answers[q.Prompt] = response.Answers[i]
		}
	}

	return &entity.CallAnalysis{Answers: answers, Raw: raw}, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("bland %s: marshal: %w", op, err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	return nil
}

// setHeaders centraliza os headers obrigatórios. O Bland aceita a chave crua
// no Authorization, sem prefixo Bearer.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "VocaliaVoiceDemo/1.0")
}
