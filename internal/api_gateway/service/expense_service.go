package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
	"github.com/splitledger/internal/platform/messaging/producers"
)

// ExpenseServiceImpl implements the ExpenseService interface
type ExpenseServiceImpl struct {
	expenseRepo expense.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
}

// NewExpenseService creates a new expense intake service
func NewExpenseService(logger *slog.Logger, expenseRepo expense.Repository, producer producers.MessagePublisher) ExpenseService {
	return &ExpenseServiceImpl{
		expenseRepo: expenseRepo,
		producer:    producer,
		logger:      logger,
	}
}

// SubmitExpense validates the entry and publishes it for asynchronous
// processing. The message is keyed by ledger ID so one ledger's expenses land
// on the same partition and stay ordered.
func (s *ExpenseServiceImpl) SubmitExpense(ctx context.Context, entry *shared.ExpenseEntry) (*shared.ExpenseEntry, error) {
	if entry.ExpenseID == uuid.Nil {
		entry.ExpenseID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	// Reject malformed rule configs at the door instead of in the processor
	if _, err := split.FromConfig(entry.Rule); err != nil {
		return nil, err
	}

	key := entry.LedgerID.String()
	if err := s.producer.Publish(ctx, key, entry); err != nil {
		s.logger.Error("Failed to publish expense entry",
			"expense_id", entry.ExpenseID.String(),
			"ledger_id", entry.LedgerID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Expense entry published",
		"expense_id", entry.ExpenseID.String(),
		"ledger_id", entry.LedgerID.String(),
		"rule_kind", string(entry.Rule.Kind),
		"total_amount", entry.TotalAmount,
	)
	return entry, nil
}

// GetExpense retrieves a processed expense from the journal. Returns nil if
// the expense has not been processed yet.
func (s *ExpenseServiceImpl) GetExpense(ctx context.Context, expenseID uuid.UUID) (*expense.JournalEntry, error) {
	entry, err := s.expenseRepo.GetByExpenseID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, expense.ErrEntryNotFound{}) {
			s.logger.Info("Expense not found in journal", "expense_id", expenseID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get expense", "expense_id", expenseID.String(), "error", err)
		return nil, err
	}
	return entry, nil
}

// ListExpenses retrieves a paginated slice of a ledger's journal with the total count
func (s *ExpenseServiceImpl) ListExpenses(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*expense.JournalEntry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.expenseRepo.GetByLedgerID(ctx, ledgerID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.expenseRepo.CountByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
