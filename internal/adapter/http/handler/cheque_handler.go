package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/chequer/internal/adapter/http/dto"
	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/usecase"
)

// SubmissionService covers the submission-side operations the handler needs.
type SubmissionService interface {
	SubmitCheque(ctx context.Context, input usecase.SubmitChequeInput) (*usecase.SubmitResult, error)
	CancelCheque(ctx context.Context, chequeID string) (*domain.Cheque, error)
}

// StatusService covers the read-side operations the handler needs.
type StatusService interface {
	GetStatus(ctx context.Context, chequeID string) (*usecase.ChequeStatus, error)
	ListAttempts(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error)
	ListEvents(ctx context.Context, input usecase.ListEventsInput) ([]*domain.OutboxEvent, error)
}

// ReversalService covers the reversal operation the handler needs.
type ReversalService interface {
	ReverseCheque(ctx context.Context, chequeID string) (*domain.Cheque, error)
}

// ChequeHandler handles cheque-related HTTP requests.
type ChequeHandler struct {
	submissionUC SubmissionService
	statusUC     StatusService
	reversalUC   ReversalService
}

// NewChequeHandler creates a new ChequeHandler.
func NewChequeHandler(
	submissionUC SubmissionService,
	statusUC StatusService,
	reversalUC ReversalService,
) *ChequeHandler {
	return &ChequeHandler{
		submissionUC: submissionUC,
		statusUC:     statusUC,
		reversalUC:   reversalUC,
	}
}

// Submit presents a cheque for clearing. An exact duplicate of an earlier
// submission returns the existing cheque with 200 instead of creating a
// second instrument.
func (h *ChequeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitChequeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue date", err.Error())
		return
	}

	result, err := h.submissionUC.SubmitCheque(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to submit cheque", err.Error())

		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}

	writeJSON(w, status, dto.ChequeFromDomain(result.Cheque))
}

// Get retrieves a cheque with its full clearing history.
func (h *ChequeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cheque ID", "")
		return
	}

	status, err := h.statusUC.GetStatus(r.Context(), id)
	if err != nil {
		code := mapDomainError(err)
		writeError(w, code, "failed to get cheque", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, &dto.ChequeStatusResponse{
		Cheque:  dto.ChequeFromDomain(status.Cheque),
		State:   string(status.State),
		History: dto.RecordsFromDomain(status.History),
	})
}

// ListAttempts retrieves the settlement attempt trail for a cheque.
func (h *ChequeHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cheque ID", "")
		return
	}

	attempts, err := h.statusUC.ListAttempts(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list attempts", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AttemptsFromDomain(attempts))
}

// ListEvents retrieves the committed status-change events for a cheque.
func (h *ChequeHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cheque ID", "")
		return
	}

	events, err := h.statusUC.ListEvents(r.Context(), usecase.ListEventsInput{
		ChequeID: id,
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list events", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EventsFromDomain(events))
}

// Cancel voids a cheque that has not begun settlement.
func (h *ChequeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cheque ID", "")
		return
	}

	cheque, err := h.submissionUC.CancelCheque(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to cancel cheque", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Reverse reverses a settled cheque within the reversal window.
func (h *ChequeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cheque ID", "")
		return
	}

	cheque, err := h.reversalUC.ReverseCheque(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to reverse cheque", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}
