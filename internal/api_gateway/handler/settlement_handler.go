package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/splitledger/internal/api_gateway/service"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
)

// SettlementHandler handles HTTP requests for settlement operations
type SettlementHandler struct {
	settlementService service.SettlementService
	logger            *slog.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// GetSuggestion computes a transfer plan for the ledger's current balances.
// Pass compress=true to flatten transfer chains on top of the greedy plan.
func (h *SettlementHandler) GetSuggestion(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	compress := c.Query("compress") == "true"

	suggestion, err := h.settlementService.GetSuggestion(c.Request.Context(), ledgerID, compress)
	if err != nil {
		var validation shared.ValidationError
		if errors.As(err, &validation) {
			// Balances that do not sum to zero mean the ledger data itself is
			// inconsistent, not the request.
			h.logger.Error("Ledger balances are inconsistent", "ledger_id", ledgerID.String(), "error", err)
			RespondConflict(c, err.Error())
			return
		}
		h.logger.Error("Failed to build settlement suggestion", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapSuggestionToResponse(suggestion))
}

// Create persists a pending settlement record from the ledger's current plan
func (h *SettlementHandler) Create(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	var req CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initiatedBy, err := uuid.Parse(req.InitiatedBy)
	if err != nil {
		h.logger.Error("Invalid initiator ID", "initiated_by", req.InitiatedBy, "error", err)
		RespondBadRequest(c, "Invalid initiator ID")
		return
	}

	recordType := settlement.RecordTypeManual
	if req.Type != "" {
		recordType, err = settlement.ParseRecordType(req.Type)
		if err != nil {
			h.logger.Error("Invalid settlement type", "type", req.Type, "error", err)
			RespondBadRequest(c, err.Error())
			return
		}
	}

	record, err := h.settlementService.CreateSettlement(c.Request.Context(), ledgerID, initiatedBy, recordType)
	if err != nil {
		if errors.Is(err, settlement.ErrEmptyTransferPlan) {
			RespondConflict(c, "Ledger has no outstanding debt to settle")
			return
		}
		h.logger.Error("Failed to create settlement", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// GetByID retrieves a settlement record, returns 404 if not found
func (h *SettlementHandler) GetByID(c *gin.Context) {
	recordID, ok := h.parseRecordID(c)
	if !ok {
		return
	}

	record, err := h.settlementService.GetSettlement(c.Request.Context(), recordID)
	if err != nil {
		var notFound settlement.ErrRecordNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Settlement record not found")
			return
		}
		h.logger.Error("Failed to get settlement", "record_id", recordID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// ListByLedger retrieves a page of a ledger's settlement records, newest first
func (h *SettlementHandler) ListByLedger(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, err := h.settlementService.ListSettlements(
		c.Request.Context(),
		ledgerID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to list settlements", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	var settlements []SettlementResponse
	for _, record := range records {
		settlements = append(settlements, mapRecordToResponse(record))
	}

	RespondWithData(c, http.StatusOK, settlements)
}

// Start moves a pending settlement into execution
func (h *SettlementHandler) Start(c *gin.Context) {
	recordID, ok := h.parseRecordID(c)
	if !ok {
		return
	}

	record, err := h.settlementService.StartSettlement(c.Request.Context(), recordID)
	if err != nil {
		h.respondTransitionError(c, recordID, "start", err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Complete finalizes a settlement and settles the covered debt relations
func (h *SettlementHandler) Complete(c *gin.Context) {
	recordID, ok := h.parseRecordID(c)
	if !ok {
		return
	}

	var req CompleteSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	completedBy, err := uuid.Parse(req.CompletedBy)
	if err != nil {
		h.logger.Error("Invalid completer ID", "completed_by", req.CompletedBy, "error", err)
		RespondBadRequest(c, "Invalid completer ID")
		return
	}

	record, err := h.settlementService.CompleteSettlement(c.Request.Context(), recordID, completedBy)
	if err != nil {
		h.respondTransitionError(c, recordID, "complete", err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Cancel abandons a settlement without touching debt relations
func (h *SettlementHandler) Cancel(c *gin.Context) {
	recordID, ok := h.parseRecordID(c)
	if !ok {
		return
	}

	var req CancelSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.settlementService.CancelSettlement(c.Request.Context(), recordID, req.Reason)
	if err != nil {
		h.respondTransitionError(c, recordID, "cancel", err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// UpsertConfig creates or replaces a ledger's auto-settlement policy
func (h *SettlementHandler) UpsertConfig(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	var req AutoSettleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	config, err := h.settlementService.UpsertAutoSettleConfig(c.Request.Context(), ledgerID, req.Cycle, req.Threshold)
	if err != nil {
		if isCallerError(err) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to upsert settlement config", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapConfigToResponse(config))
}

// GetConfig retrieves a ledger's auto-settlement policy, returns 404 if none
func (h *SettlementHandler) GetConfig(c *gin.Context) {
	ledgerID, ok := h.parseLedgerID(c)
	if !ok {
		return
	}

	config, err := h.settlementService.GetAutoSettleConfig(c.Request.Context(), ledgerID)
	if err != nil {
		var notFound settlement.ErrConfigNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Settlement config not found")
			return
		}
		h.logger.Error("Failed to get settlement config", "ledger_id", ledgerID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapConfigToResponse(config))
}

// respondTransitionError maps status transition failures: unknown records are
// 404, illegal or concurrently clobbered transitions are 409.
func (h *SettlementHandler) respondTransitionError(c *gin.Context, recordID uuid.UUID, action string, err error) {
	var notFound settlement.ErrRecordNotFound
	var stale settlement.ErrStaleRecord
	var validation shared.ValidationError
	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Settlement record not found")
	case errors.As(err, &stale), errors.As(err, &validation):
		RespondConflict(c, err.Error())
	default:
		h.logger.Error("Failed to "+action+" settlement", "record_id", recordID.String(), "error", err)
		RespondInternalError(c)
	}
}

func (h *SettlementHandler) parseLedgerID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	ledgerID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid ledger ID", "ledger_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return uuid.Nil, false
	}
	return ledgerID, true
}

func (h *SettlementHandler) parseRecordID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	recordID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid settlement ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid settlement ID")
		return uuid.Nil, false
	}
	return recordID, true
}

// mapSuggestionToResponse maps a settlement plan to a response DTO
func mapSuggestionToResponse(suggestion *settlement.Suggestion) SuggestionResponse {
	response := SuggestionResponse{
		LedgerID:    suggestion.LedgerID.String(),
		Transfers:   mapTransfersToResponse(suggestion.Transfers),
		TotalAmount: suggestion.TotalAmount,
		Currency:    suggestion.Currency,
		GeneratedAt: suggestion.GeneratedAt.Format(time.RFC3339),
	}

	if suggestion.Metrics != nil {
		response.Metrics = &MetricsResponse{
			DirectTransfers:    suggestion.Metrics.DirectTransfers,
			OptimizedTransfers: suggestion.Metrics.OptimizedTransfers,
			ReductionRate:      suggestion.Metrics.ReductionRate,
		}
	}

	return response
}

// mapRecordToResponse maps a settlement record to a response DTO
func mapRecordToResponse(record *settlement.Record) SettlementResponse {
	response := SettlementResponse{
		ID:           record.ID.String(),
		LedgerID:     record.LedgerID.String(),
		Type:         string(record.Type),
		Status:       string(record.Status),
		Transfers:    mapTransfersToResponse(record.Transfers),
		TotalAmount:  record.TotalAmount,
		Currency:     record.Currency,
		InitiatedBy:  record.InitiatedBy.String(),
		CancelReason: record.CancelReason,
		CreatedAt:    record.CreatedAt.Format(time.RFC3339),
	}

	for _, participant := range record.Participants {
		response.Participants = append(response.Participants, participant.String())
	}
	if record.CompletedBy != nil {
		response.CompletedBy = record.CompletedBy.String()
	}
	if record.CompletedAt != nil {
		response.CompletedAt = record.CompletedAt.Format(time.RFC3339)
	}

	return response
}

// mapConfigToResponse maps an auto-settlement policy to a response DTO
func mapConfigToResponse(config *settlement.AutoSettleConfig) AutoSettleConfigResponse {
	response := AutoSettleConfigResponse{
		LedgerID:  config.LedgerID.String(),
		Cycle:     string(config.Cycle),
		Threshold: config.Threshold,
		Enabled:   config.Enabled,
		CreatedAt: config.CreatedAt.Format(time.RFC3339),
		UpdatedAt: config.UpdatedAt.Format(time.RFC3339),
	}

	if config.LastRunAt != nil {
		response.LastRunAt = config.LastRunAt.Format(time.RFC3339)
	}

	return response
}

func mapTransfersToResponse(transfers []settlement.Transfer) []TransferResponse {
	mapped := make([]TransferResponse, 0, len(transfers))
	for _, transfer := range transfers {
		mapped = append(mapped, TransferResponse{
			FromID: transfer.FromID.String(),
			ToID:   transfer.ToID.String(),
			Amount: transfer.Amount,
		})
	}
	return mapped
}
