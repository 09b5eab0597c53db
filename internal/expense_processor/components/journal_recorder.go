package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
	"github.com/splitledger/internal/expense_processor/service"
)

type JournalRecorderImpl struct {
	journalRepo expense.Repository
	logger      *slog.Logger
}

func NewJournalRecorder(journalRepo expense.Repository, logger *slog.Logger) service.JournalRecorder {
	return &JournalRecorderImpl{
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// RecordApplied writes the journal entry for a successfully applied expense.
// A duplicate entry is treated as success since the journal already holds the
// same expense.
func (r *JournalRecorderImpl) RecordApplied(ctx context.Context, entry *shared.ExpenseEntry, result *split.Result) error {
	logger := r.logger
	if entry.CorrelationID != "" {
		logger = r.logger.With("correlation_id", entry.CorrelationID)
	}

	now := time.Now()
	journalEntry := &expense.JournalEntry{
		ExpenseID:     entry.ExpenseID,
		LedgerID:      entry.LedgerID,
		PayerID:       entry.PayerID,
		TotalAmount:   entry.TotalAmount,
		Currency:      entry.Currency,
		RuleKind:      entry.Rule.Kind,
		Obligations:   mapObligations(result.Obligations),
		Description:   entry.Description,
		CorrelationID: entry.CorrelationID,
		Status:        shared.ExpenseStatusApplied,
		CreatedAt:     entry.Timestamp,
		ProcessedAt:   &now,
	}

	if err := r.journalRepo.Create(ctx, journalEntry); err != nil {
		if errors.Is(err, expense.ErrDuplicateEntry{}) {
			logger.Info("Journal entry already exists", "expense_id", entry.ExpenseID.String())
			return nil
		}
		logger.Error("Failed to create journal entry", "expense_id", entry.ExpenseID.String(), "error", err)
		return err
	}

	logger.Info("Journal entry created", "expense_id", entry.ExpenseID.String(), "obligations", len(journalEntry.Obligations))
	return nil
}

// RecordFailure records a rejected expense in the journal
func (r *JournalRecorderImpl) RecordFailure(ctx context.Context, entry *shared.ExpenseEntry, failureReason string) error {
	logger := r.logger
	if entry.CorrelationID != "" {
		logger = r.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Recording failed expense", "expense_id", entry.ExpenseID.String(), "reason", failureReason)

	existingEntry, err := r.journalRepo.GetByExpenseID(ctx, entry.ExpenseID)
	if err != nil && !errors.Is(err, expense.ErrEntryNotFound{}) {
		logger.Error("Failed to get existing journal entry for failed expense", "expense_id", entry.ExpenseID.String(), "error", err)
	}

	if existingEntry != nil {
		if existingEntry.Status != shared.ExpenseStatusFailed {
			logger.Info("Updating existing journal entry to FAILED", "expense_id", entry.ExpenseID.String())
			updateErr := r.journalRepo.UpdateStatus(ctx, entry.ExpenseID, shared.ExpenseStatusFailed, failureReason)
			if updateErr != nil {
				logger.Error("Failed to update journal entry to FAILED", "expense_id", entry.ExpenseID.String(), "error", updateErr)
				return updateErr
			}
			return nil
		}
		logger.Info("Journal entry already marked as FAILED", "expense_id", entry.ExpenseID.String())
		return nil
	}

	now := time.Now()
	journalEntry := &expense.JournalEntry{
		ExpenseID:     entry.ExpenseID,
		LedgerID:      entry.LedgerID,
		PayerID:       entry.PayerID,
		TotalAmount:   entry.TotalAmount,
		Currency:      entry.Currency,
		RuleKind:      entry.Rule.Kind,
		Description:   entry.Description,
		CorrelationID: entry.CorrelationID,
		Status:        shared.ExpenseStatusFailed,
		FailureReason: failureReason,
		CreatedAt:     entry.Timestamp,
		ProcessedAt:   &now,
	}

	if createErr := r.journalRepo.Create(ctx, journalEntry); createErr != nil {
		logger.Error("Failed to create FAILED journal entry", "expense_id", entry.ExpenseID.String(), "error", createErr)
		return createErr
	}
	logger.Info("Created FAILED journal entry", "expense_id", entry.ExpenseID.String())
	return nil
}

// mapObligations converts split obligations to their journal representation
func mapObligations(obligations []split.Obligation) []expense.Obligation {
	mapped := make([]expense.Obligation, 0, len(obligations))
	for _, obligation := range obligations {
		mapped = append(mapped, expense.Obligation{
			CreditorID:  obligation.PayerID,
			DebtorID:    obligation.OwerID,
			Amount:      obligation.Amount,
			Description: obligation.Description,
		})
	}
	return mapped
}
