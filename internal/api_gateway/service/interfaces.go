package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
)

// LedgerService defines the interface for debt ledger operations
type LedgerService interface {
	// GetDebtSummary returns the netted view of a ledger's active debt
	GetDebtSummary(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error)

	// GetMemberSummary returns one member's gross and net position
	GetMemberSummary(ctx context.Context, ledgerID, memberID uuid.UUID) (*debt.MemberSummary, error)

	// GetDebtGraph returns the who-owes-whom graph over active relations
	GetDebtGraph(ctx context.Context, ledgerID uuid.UUID) (*debt.Graph, error)

	// RecalculateDebts rebuilds the ledger's active relations from the
	// expense journal inside one transaction. Idempotent.
	RecalculateDebts(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error)

	// SettleDebts marks the listed relations settled. Unknown IDs are
	// silently ignored; an empty list is an error.
	SettleDebts(ctx context.Context, ledgerID uuid.UUID, relationIDs []uuid.UUID, notes string) (int64, error)
}

// SettlementService defines the interface for settlement operations
type SettlementService interface {
	// GetSuggestion computes a transfer plan for the ledger's current
	// balances without persisting anything.
	GetSuggestion(ctx context.Context, ledgerID uuid.UUID, compress bool) (*settlement.Suggestion, error)

	// CreateSettlement persists a pending record built from the ledger's
	// current suggestion.
	CreateSettlement(ctx context.Context, ledgerID, initiatedBy uuid.UUID, recordType settlement.RecordType) (*settlement.Record, error)

	StartSettlement(ctx context.Context, recordID uuid.UUID) (*settlement.Record, error)

	// CompleteSettlement finalizes the record and settles every active
	// relation between its participants in the same transaction.
	CompleteSettlement(ctx context.Context, recordID, completedBy uuid.UUID) (*settlement.Record, error)

	CancelSettlement(ctx context.Context, recordID uuid.UUID, reason string) (*settlement.Record, error)
	GetSettlement(ctx context.Context, recordID uuid.UUID) (*settlement.Record, error)
	ListSettlements(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*settlement.Record, error)

	UpsertAutoSettleConfig(ctx context.Context, ledgerID uuid.UUID, cycle string, threshold int64) (*settlement.AutoSettleConfig, error)
	GetAutoSettleConfig(ctx context.Context, ledgerID uuid.UUID) (*settlement.AutoSettleConfig, error)

	// CheckAutoSettlement builds a suggestion for the ledger if its policy
	// threshold has been reached. Returns nil when below threshold. Never
	// persists anything.
	CheckAutoSettlement(ctx context.Context, config *settlement.AutoSettleConfig) (*settlement.Suggestion, error)
}

// ExpenseService defines the interface for expense intake operations
type ExpenseService interface {
	// SubmitExpense validates the entry and publishes it for asynchronous
	// processing, keyed by ledger so one ledger's expenses stay ordered.
	SubmitExpense(ctx context.Context, entry *shared.ExpenseEntry) (*shared.ExpenseEntry, error)

	// GetExpense retrieves a processed expense from the journal.
	// Returns nil if the expense has not been processed yet.
	GetExpense(ctx context.Context, expenseID uuid.UUID) (*expense.JournalEntry, error)

	// ListExpenses retrieves a paginated slice of a ledger's journal
	// together with the total entry count.
	ListExpenses(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*expense.JournalEntry, int64, error)
}
