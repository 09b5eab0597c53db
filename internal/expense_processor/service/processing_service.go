package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
	"github.com/splitledger/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	pgDB            *persistence.PostgresDB
	validator       ExpenseValidator
	debtManager     DebtManager
	journalRecorder JournalRecorder
	alertNotifier   AlertNotifier
	logger          *slog.Logger
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator ExpenseValidator,
	debtManager DebtManager,
	journalRecorder JournalRecorder,
	alertNotifier AlertNotifier,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		pgDB:            pgDB,
		validator:       validator,
		debtManager:     debtManager,
		journalRecorder: journalRecorder,
		alertNotifier:   alertNotifier,
		logger:          logger,
	}
}

// ProcessExpense handles the core logic for applying one shared expense.
func (s *ProcessingServiceImpl) ProcessExpense(ctx context.Context, entry *shared.ExpenseEntry) error {
	logger := s.logger
	if entry.CorrelationID != "" {
		logger = s.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Processing expense entry", "expense_id", entry.ExpenseID.String(), "ledger_id", entry.LedgerID.String())

	// 1. Validate the entry
	if err := s.validator.Validate(ctx, entry); err != nil {
		logger.Error("Expense validation failed", "expense_id", entry.ExpenseID.String(), "error", err)

		if recordErr := s.journalRecorder.RecordFailure(ctx, entry, classifyFailure(err)); recordErr != nil {
			logger.Error("Failed to record expense failure", "expense_id", entry.ExpenseID.String(), "error", recordErr)
		}

		return nil // Return nil to Kafka consumer to acknowledge the message
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, entry)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil // Already processed, return success
	}

	// 3. Compute the split
	rule, err := split.FromConfig(entry.Rule)
	if err != nil {
		logger.Error("Malformed split rule", "expense_id", entry.ExpenseID.String(), "error", err)
		if recordErr := s.journalRecorder.RecordFailure(ctx, entry, string(shared.FailureReasonInvalidRule)); recordErr != nil {
			logger.Error("Failed to record invalid rule failure", "expense_id", entry.ExpenseID.String(), "error", recordErr)
		}
		return nil // Return nil to Kafka consumer
	}

	result, err := split.Calculate(split.Request{
		TotalAmount:  entry.TotalAmount,
		Currency:     entry.Currency,
		PayerID:      entry.PayerID,
		Participants: entry.Participants,
		Rule:         rule,
		Description:  entry.Description,
	})
	if err != nil {
		logger.Error("Split calculation failed", "expense_id", entry.ExpenseID.String(), "error", err)
		if recordErr := s.journalRecorder.RecordFailure(ctx, entry, classifyFailure(err)); recordErr != nil {
			logger.Error("Failed to record split failure", "expense_id", entry.ExpenseID.String(), "error", recordErr)
		}
		return nil // Return nil to Kafka consumer
	}

	if result.HasIssues() {
		logger.Error("Split produced validation issues, rejecting expense",
			"expense_id", entry.ExpenseID.String(),
			"issues", len(result.ValidationIssues),
			"first_issue", result.ValidationIssues[0].Error(),
		)
		if recordErr := s.journalRecorder.RecordFailure(ctx, entry, string(shared.FailureReasonInconsistentSplit)); recordErr != nil {
			logger.Error("Failed to record inconsistent split failure", "expense_id", entry.ExpenseID.String(), "error", recordErr)
		}
		return nil // Return nil to Kafka consumer
	}

	// 4. Begin database transaction
	var tx pgx.Tx
	tx, err = s.pgDB.Pool().Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "expense_id", entry.ExpenseID.String(), "error", err)
		return fmt.Errorf("failed to begin DB transaction for %s: %w", entry.ExpenseID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p, "expense_id", entry.ExpenseID.String())
			_ = tx.Rollback(ctx)
			panic(p) // Re-panic
		} else if err != nil {
			logger.Error("Error occurred, rolling back transaction", "error", err, "expense_id", entry.ExpenseID.String())
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err, "expense_id", entry.ExpenseID.String())
			}
		}
	}()

	// 5. Apply obligations to the debt relations
	if err = s.debtManager.ApplyObligations(ctx, tx, entry, result.Obligations); err != nil {
		return err // Let the defer handle rollback
	}

	// 6. Commit transaction
	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction",
			"expense_id", entry.ExpenseID.String(),
			"ledger_id", entry.LedgerID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to commit DB transaction for expense %s: %w", entry.ExpenseID.String(), err)
	}

	// 7. Record the journal entry. A retry after a journal write failure
	// re-applies the debt rows, but the journal rejects duplicates and a
	// ledger recalculation rebuilds the relations from it, so the journal
	// stays the source of truth.
	if err := s.journalRecorder.RecordApplied(ctx, entry, result); err != nil {
		logger.Error("Failed to record journal entry after applying debts", "expense_id", entry.ExpenseID.String(), "error", err)
		return err // Let Kafka retry
	}

	// 8. Best-effort threshold notification
	s.alertNotifier.CheckThreshold(ctx, entry.LedgerID)

	logger.Info("Expense entry applied", "expense_id", entry.ExpenseID.String(), "obligations", len(result.Obligations))
	return nil // SUCCESS!
}

// classifyFailure maps a validation or calculation error to a journal failure
// reason.
func classifyFailure(err error) string {
	var unknownKind split.ErrUnknownRuleKind
	var invalidParam shared.ErrInvalidParameter
	switch {
	case errors.Is(err, shared.ErrInvalidCurrencyFormat):
		return string(shared.FailureReasonInvalidCurrency)
	case errors.Is(err, shared.ErrNonPositiveAmount):
		return string(shared.FailureReasonInvalidAmount)
	case errors.Is(err, shared.ErrNoParticipants):
		return string(shared.FailureReasonInvalidRule)
	case errors.As(err, &unknownKind), errors.As(err, &invalidParam):
		return string(shared.FailureReasonInvalidRule)
	default:
		return string(shared.FailureReasonUnknownError)
	}
}
