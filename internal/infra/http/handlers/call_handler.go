package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vocalia/voicedemo/internal/infra/http/middleware"
	"github.com/vocalia/voicedemo/internal/usecase"
)

type CallHandler struct {
	StartCallUC *usecase.StartCallUseCase
}

func NewCallHandler(uc *usecase.StartCallUseCase) *CallHandler {
	return &CallHandler{StartCallUC: uc}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handle recebe o formulário e responde assim que a ligação é disparada.
// O polling roda destacado: o cliente não espera minutos de ligação.
func (h *CallHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.StartCallInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	output, err := h.StartCallUC.Execute(r.Context(), input)
	if err != nil {
		if domainErr, ok := err.(*usecase.DomainError); ok {
			status := http.StatusBadRequest
			if domainErr.Code == "DUPLICATE_LEAD" {
				status = http.StatusConflict
			}
			writeError(w, status, domainErr.Code, domainErr.Message)
			return
		}

		middleware.RecordIntegrationError("bland")
		middleware.RecordCallInitiated("error")
		writeError(w, http.StatusInternalServerError, "Failed to initiate call", err.Error())
		return
	}

	middleware.RecordCallInitiated("ok")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(output)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Error:   msg,
		Details: details,
	})
}
