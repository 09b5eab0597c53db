package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/expense_processor/service"
	"github.com/splitledger/internal/platform/messaging/producers"
)

// ExpenseEventHandler handles incoming expense entry messages from Kafka
type ExpenseEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewExpenseEventHandler creates a new handler
func NewExpenseEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *ExpenseEventHandler {
	return &ExpenseEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *ExpenseEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var entry shared.ExpenseEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal expense entry from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if entry.CorrelationID != "" {
		logger = h.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Received expense entry for processing",
		"expense_id", entry.ExpenseID.String(),
		"ledger_id", entry.LedgerID.String(),
		"rule_kind", string(entry.Rule.Kind),
		"total_amount", entry.TotalAmount,
	)

	if err := h.processingService.ProcessExpense(ctx, &entry); err != nil {
		logger.Error("Failed to process expense entry",
			"expense_id", entry.ExpenseID.String(),
			"ledger_id", entry.LedgerID.String(),
			"error", err,
		)
		return fmt.Errorf("processing expense %s failed: %w", entry.ExpenseID.String(), err)
	}

	logger.Info("Successfully processed expense entry", "expense_id", entry.ExpenseID.String())
	return nil // Success, commit offset
}
