package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/domain/split"
	"github.com/splitledger/internal/expense_processor/service"
)

// DebtManagerImpl implements the DebtManager interface
type DebtManagerImpl struct {
	debtRepo debt.Repository
	logger   *slog.Logger
}

// NewDebtManager creates a new DebtManagerImpl
func NewDebtManager(debtRepo debt.Repository, logger *slog.Logger) service.DebtManager {
	return &DebtManagerImpl{
		debtRepo: debtRepo,
		logger:   logger,
	}
}

// ApplyObligations upserts one debt relation per obligation. Relations
// accumulate: an existing active row for the same (creditor, debtor) pair
// grows by the obligation amount instead of being replaced.
func (m *DebtManagerImpl) ApplyObligations(ctx context.Context, tx pgx.Tx, entry *shared.ExpenseEntry, obligations []split.Obligation) error {
	logger := m.logger
	if entry.CorrelationID != "" {
		logger = m.logger.With("correlation_id", entry.CorrelationID)
	}

	// Use the repository with the transaction
	debtRepoTx := m.debtRepo.WithTx(tx)

	// Serialize against recalculation and settlement completion on the same
	// ledger; released when the caller's transaction ends.
	if err := debtRepoTx.LockLedger(ctx, entry.LedgerID); err != nil {
		logger.Error("Failed to lock ledger for expense application",
			"expense_id", entry.ExpenseID.String(),
			"ledger_id", entry.LedgerID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to lock ledger for expense %s: %w", entry.ExpenseID.String(), err)
	}

	for _, obligation := range obligations {
		relation, err := debt.NewRelation(entry.LedgerID, obligation.PayerID, obligation.OwerID, obligation.Amount, entry.Currency)
		if err != nil {
			logger.Error("Obligation produced an invalid relation",
				"expense_id", entry.ExpenseID.String(),
				"creditor_id", obligation.PayerID.String(),
				"debtor_id", obligation.OwerID.String(),
				"amount", obligation.Amount,
				"error", err,
			)
			return fmt.Errorf("invalid relation for expense %s: %w", entry.ExpenseID.String(), err)
		}

		if err := debtRepoTx.Upsert(ctx, relation); err != nil {
			logger.Error("Failed to upsert debt relation",
				"expense_id", entry.ExpenseID.String(),
				"ledger_id", entry.LedgerID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to upsert relation for expense %s: %w", entry.ExpenseID.String(), err)
		}
	}

	logger.Info("Applied obligations to debt relations",
		"expense_id", entry.ExpenseID.String(),
		"ledger_id", entry.LedgerID.String(),
		"count", len(obligations),
	)
	return nil
}
