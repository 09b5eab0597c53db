package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
)

// ProcessingService defines the interface for processing expense entries.
type ProcessingService interface {
	ProcessExpense(ctx context.Context, entry *shared.ExpenseEntry) error
}

// ExpenseValidator validates expense entries before processing
type ExpenseValidator interface {
	Validate(ctx context.Context, entry *shared.ExpenseEntry) error
	CheckIdempotency(ctx context.Context, entry *shared.ExpenseEntry) (bool, error)
}

// DebtManager applies derived obligations to the ledger's debt relations
type DebtManager interface {
	ApplyObligations(ctx context.Context, tx pgx.Tx, entry *shared.ExpenseEntry, obligations []split.Obligation) error
}

// JournalRecorder persists processed expenses in the journal
type JournalRecorder interface {
	RecordApplied(ctx context.Context, entry *shared.ExpenseEntry, result *split.Result) error
	RecordFailure(ctx context.Context, entry *shared.ExpenseEntry, failureReason string) error
}

// AlertNotifier reports ledgers whose outstanding debt approaches their
// settlement threshold. Notification failures never fail expense processing.
type AlertNotifier interface {
	CheckThreshold(ctx context.Context, ledgerID uuid.UUID)
}
