package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/splitledger/internal/api_gateway/service"
)

// LedgerHandler handles HTTP requests for debt ledger operations
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// GetDebtSummary retrieves the netted view of a ledger's active debt
func (h *LedgerHandler) GetDebtSummary(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	summary, err := h.ledgerService.GetDebtSummary(c.Request.Context(), ledgerID)
	if err != nil {
		h.logger.Error("Failed to get debt summary", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, summary)
}

// GetDebtGraph retrieves the who-owes-whom graph of a ledger's active debt
func (h *LedgerHandler) GetDebtGraph(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	graph, err := h.ledgerService.GetDebtGraph(c.Request.Context(), ledgerID)
	if err != nil {
		h.logger.Error("Failed to get debt graph", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, graph)
}

// GetMemberSummary retrieves one member's gross and net position in a ledger
func (h *LedgerHandler) GetMemberSummary(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	memberIDParam := c.Param("memberId")
	memberID, err := uuid.Parse(memberIDParam)
	if err != nil {
		h.logger.Error("Invalid member ID", "member_id", memberIDParam, "error", err)
		RespondBadRequest(c, "Invalid member ID")
		return
	}

	summary, err := h.ledgerService.GetMemberSummary(c.Request.Context(), ledgerID, memberID)
	if err != nil {
		h.logger.Error("Failed to get member summary",
			"ledger_id", ledgerID.String(),
			"member_id", memberIDParam,
			"error", err,
		)
		RespondInternalError(c)
		return
	}

	RespondOK(c, summary)
}

// Recalculate rebuilds a ledger's active relations from its expense journal
func (h *LedgerHandler) Recalculate(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	summary, err := h.ledgerService.RecalculateDebts(c.Request.Context(), ledgerID)
	if err != nil {
		h.logger.Error("Failed to recalculate debts", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, summary)
}

// Settle marks the listed debt relations as settled
func (h *LedgerHandler) Settle(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	var req SettleDebtsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	relationIDs := make([]uuid.UUID, 0, len(req.RelationIDs))
	for _, raw := range req.RelationIDs {
		relationID, err := uuid.Parse(raw)
		if err != nil {
			h.logger.Error("Invalid relation ID", "relation_id", raw, "error", err)
			RespondBadRequest(c, "Invalid relation ID: "+raw)
			return
		}
		relationIDs = append(relationIDs, relationID)
	}

	settled, err := h.ledgerService.SettleDebts(c.Request.Context(), ledgerID, relationIDs, req.Notes)
	if err != nil {
		if isCallerError(err) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to settle debts", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{
		"ledger_id": ledgerID,
		"settled":   settled,
	})
}

func (h *LedgerHandler) parseLedgerID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	ledgerID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid ledger ID", "ledger_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return uuid.Nil, false
	}
	return ledgerID, true
}
