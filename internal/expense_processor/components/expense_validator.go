package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
	"github.com/splitledger/internal/expense_processor/service"
)

type ExpenseValidatorImpl struct {
	journalRepo expense.Repository
	logger      *slog.Logger
}

func NewExpenseValidator(journalRepo expense.Repository, logger *slog.Logger) service.ExpenseValidator {
	return &ExpenseValidatorImpl{
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// Validate checks expense entry validity
func (v *ExpenseValidatorImpl) Validate(ctx context.Context, entry *shared.ExpenseEntry) error {
	logger := v.logger
	if entry.CorrelationID != "" {
		logger = v.logger.With("correlation_id", entry.CorrelationID)
	}

	if err := entry.Validate(); err != nil {
		logger.Error("Structurally invalid expense entry", "expense_id", entry.ExpenseID.String(), "error", err)
		return err
	}

	// A malformed rule config fails here, before any allocation runs
	if _, err := split.FromConfig(entry.Rule); err != nil {
		logger.Error("Invalid split rule config", "expense_id", entry.ExpenseID.String(), "rule_kind", string(entry.Rule.Kind), "error", err)
		return err
	}

	return nil
}

// CheckIdempotency checks if the expense was already processed
func (v *ExpenseValidatorImpl) CheckIdempotency(ctx context.Context, entry *shared.ExpenseEntry) (bool, error) {
	logger := v.logger
	if entry.CorrelationID != "" {
		logger = v.logger.With("correlation_id", entry.CorrelationID)
	}

	existingEntry, err := v.journalRepo.GetByExpenseID(ctx, entry.ExpenseID)
	if err != nil && !errors.Is(err, expense.ErrEntryNotFound{}) {
		logger.Error("Failed to check journal for idempotency", "expense_id", entry.ExpenseID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for expense %s: %w", entry.ExpenseID.String(), err)
	}

	if existingEntry != nil {
		// Every journal status is terminal for processing purposes
		logger.Info("Expense already processed (idempotency)", "expense_id", entry.ExpenseID.String(), "status", existingEntry.Status)
		return true, nil // Skip processing
	}

	return false, nil // Continue processing
}
