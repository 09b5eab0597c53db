package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/splitledger/internal/api_gateway/middleware"
	"github.com/splitledger/internal/api_gateway/service"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
)

// ExpenseHandler handles HTTP requests for expense submission and lookup
type ExpenseHandler struct {
	expenseService service.ExpenseService
	logger         *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(logger *slog.Logger, expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// Submit accepts a shared expense for asynchronous processing
func (h *ExpenseHandler) Submit(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ledgerID, err := uuid.Parse(req.LedgerID)
	if err != nil {
		h.logger.Error("Invalid ledger ID", "ledger_id", req.LedgerID, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return
	}
	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.logger.Error("Invalid payer ID", "payer_id", req.PayerID, "error", err)
		RespondBadRequest(c, "Invalid payer ID")
		return
	}

	participants := make([]uuid.UUID, 0, len(req.Participants))
	for _, raw := range req.Participants {
		memberID, err := uuid.Parse(raw)
		if err != nil {
			h.logger.Error("Invalid participant ID", "participant_id", raw, "error", err)
			RespondBadRequest(c, "Invalid participant ID: "+raw)
			return
		}
		participants = append(participants, memberID)
	}

	rule, err := mapSplitRule(&req)
	if err != nil {
		h.logger.Error("Invalid split rule", "rule_kind", req.RuleKind, "error", err)
		RespondBadRequest(c, "Invalid split rule: "+err.Error())
		return
	}

	entry := &shared.ExpenseEntry{
		ExpenseID:     uuid.New(),
		LedgerID:      ledgerID,
		PayerID:       payerID,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		Rule:          rule,
		Participants:  participants,
		Description:   req.Description,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now(),
	}

	entry, err = h.expenseService.SubmitExpense(c.Request.Context(), entry)
	if err != nil {
		if isCallerError(err) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to submit expense", "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"expense_id": entry.ExpenseID,
		"status":     "PENDING",
	})
}

// GetByID retrieves a processed expense from the journal, returns 404 if the
// expense is unknown or has not been processed yet
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid expense ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid expense ID")
		return
	}

	entry, err := h.expenseService.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get expense", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if entry == nil {
		RespondNotFound(c, "Expense not found")
		return
	}

	RespondOK(c, mapJournalEntryToResponse(entry))
}

// GetByLedgerID retrieves paginated expense history for a ledger
func (h *ExpenseHandler) GetByLedgerID(c *gin.Context) {
	ledgerIDParam := c.Param("id")
	ledgerID, err := uuid.Parse(ledgerIDParam)
	if err != nil {
		h.logger.Error("Invalid ledger ID", "ledger_id", ledgerIDParam, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.expenseService.ListExpenses(
		c.Request.Context(),
		ledgerID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get expenses", "ledger_id", ledgerIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	var expenses []ExpenseResponse
	for _, entry := range entries {
		expenses = append(expenses, mapJournalEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, expenses, pagination.Page, pagination.PerPage, int(total))
}

// mapSplitRule converts the request's string-keyed rule maps into the wire
// rule config. Only the section matching the rule kind is read.
func mapSplitRule(req *SubmitExpenseRequest) (shared.SplitRuleConfig, error) {
	rule := shared.SplitRuleConfig{Kind: shared.RuleKind(req.RuleKind)}

	switch rule.Kind {
	case shared.RuleKindEqual:
	case shared.RuleKindPercentage:
		rule.Percentages = make(map[uuid.UUID]float64, len(req.Percentages))
		for raw, pct := range req.Percentages {
			memberID, err := uuid.Parse(raw)
			if err != nil {
				return shared.SplitRuleConfig{}, shared.ErrInvalidParameter{Field: "percentages", Reason: "invalid member id " + raw}
			}
			rule.Percentages[memberID] = pct
		}
	case shared.RuleKindFixedAmount:
		rule.Amounts = make(map[uuid.UUID]int64, len(req.Amounts))
		for raw, amount := range req.Amounts {
			memberID, err := uuid.Parse(raw)
			if err != nil {
				return shared.SplitRuleConfig{}, shared.ErrInvalidParameter{Field: "amounts", Reason: "invalid member id " + raw}
			}
			rule.Amounts[memberID] = amount
		}
	case shared.RuleKindWeighted:
		rule.Weights = make(map[uuid.UUID]float64, len(req.Weights))
		for raw, weight := range req.Weights {
			memberID, err := uuid.Parse(raw)
			if err != nil {
				return shared.SplitRuleConfig{}, shared.ErrInvalidParameter{Field: "weights", Reason: "invalid member id " + raw}
			}
			rule.Weights[memberID] = weight
		}
	case shared.RuleKindCustom:
		rule.Shares = make([]shared.CustomShare, 0, len(req.Shares))
		for _, share := range req.Shares {
			memberID, err := uuid.Parse(share.MemberID)
			if err != nil {
				return shared.SplitRuleConfig{}, shared.ErrInvalidParameter{Field: "shares", Reason: "invalid member id " + share.MemberID}
			}
			rule.Shares = append(rule.Shares, shared.CustomShare{
				MemberID:    memberID,
				Amount:      share.Amount,
				Description: share.Description,
			})
		}
	default:
		return shared.SplitRuleConfig{}, split.ErrUnknownRuleKind{Kind: rule.Kind}
	}

	return rule, nil
}

// isCallerError reports whether the error was caused by the request content
// rather than by the system, so handlers answer 400 instead of 500.
func isCallerError(err error) bool {
	var invalidParam shared.ErrInvalidParameter
	var validation shared.ValidationError
	var unknownKind split.ErrUnknownRuleKind
	switch {
	case errors.As(err, &invalidParam),
		errors.As(err, &validation),
		errors.As(err, &unknownKind):
		return true
	case errors.Is(err, shared.ErrInvalidCurrencyFormat),
		errors.Is(err, shared.ErrNonPositiveAmount),
		errors.Is(err, shared.ErrNoParticipants):
		return true
	}
	return false
}

// mapJournalEntryToResponse maps a journal entry to an expense response DTO
func mapJournalEntryToResponse(entry *expense.JournalEntry) ExpenseResponse {
	response := ExpenseResponse{
		ExpenseID:     entry.ExpenseID.String(),
		LedgerID:      entry.LedgerID.String(),
		PayerID:       entry.PayerID.String(),
		TotalAmount:   entry.TotalAmount,
		Currency:      entry.Currency,
		RuleKind:      string(entry.RuleKind),
		Description:   entry.Description,
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}

	for _, obligation := range entry.Obligations {
		response.Obligations = append(response.Obligations, ObligationResponse{
			CreditorID:  obligation.CreditorID.String(),
			DebtorID:    obligation.DebtorID.String(),
			Amount:      obligation.Amount,
			Description: obligation.Description,
		})
	}

	if entry.ProcessedAt != nil {
		response.ProcessedAt = entry.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
