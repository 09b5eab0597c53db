// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the settlement engine.
package postgres

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/platform/persistence"
)

// DebtRepository implements the debt.Repository interface for PostgreSQL
type DebtRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewDebtRepository creates a new PostgreSQL debt relation repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewDebtRepository(logger *slog.Logger, db *persistence.PostgresDB) debt.Repository {
	return &DebtRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *DebtRepository) WithTx(tx pgx.Tx) debt.Repository {
	return &DebtRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Upsert accumulates the relation amount onto the active row for its
// (ledger, creditor, debtor) triple, inserting one if absent. The partial
// unique index over active rows makes the accumulation atomic, so concurrent
// expense applications never lose increments.
func (r *DebtRepository) Upsert(ctx context.Context, relation *debt.Relation) error {
	query := `
		INSERT INTO debt_relations (id, ledger_id, creditor_id, debtor_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ledger_id, creditor_id, debtor_id) WHERE status = 'ACTIVE'
		DO UPDATE SET amount = debt_relations.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		relation.ID,
		relation.LedgerID,
		relation.CreditorID,
		relation.DebtorID,
		relation.Amount,
		relation.Currency,
		relation.Status,
		relation.CreatedAt,
		relation.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert debt relation", "ledgerID", relation.LedgerID.String(), "error", err)
		return fmt.Errorf("failed to upsert debt relation: %w", err)
	}

	return nil
}

// FindActiveByLedger retrieves every active relation in a ledger
func (r *DebtRepository) FindActiveByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*debt.Relation, error) {
	query := `
		SELECT id, ledger_id, creditor_id, debtor_id, amount, currency, status, created_at, updated_at
		FROM debt_relations
		WHERE ledger_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to query debt relations", "ledgerID", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to query debt relations: %w", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// FindActiveByMember retrieves the active relations a member participates in,
// on either side.
func (r *DebtRepository) FindActiveByMember(ctx context.Context, ledgerID, memberID uuid.UUID) ([]*debt.Relation, error) {
	query := `
		SELECT id, ledger_id, creditor_id, debtor_id, amount, currency, status, created_at, updated_at
		FROM debt_relations
		WHERE ledger_id = $1 AND status = 'ACTIVE' AND (creditor_id = $2 OR debtor_id = $2)
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, memberID)
	if err != nil {
		r.logger.Error("Failed to query member debt relations", "ledgerID", ledgerID.String(), "memberID", memberID.String(), "error", err)
		return nil, fmt.Errorf("failed to query member debt relations: %w", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// FindSettledByLedger retrieves every settled relation in a ledger
func (r *DebtRepository) FindSettledByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*debt.Relation, error) {
	query := `
		SELECT id, ledger_id, creditor_id, debtor_id, amount, currency, status, created_at, updated_at
		FROM debt_relations
		WHERE ledger_id = $1 AND status = 'SETTLED'
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to query settled debt relations", "ledgerID", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to query settled debt relations: %w", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// ledgerLockKey derives the advisory lock key from the first eight bytes of
// the ledger UUID.
func ledgerLockKey(ledgerID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(ledgerID[0:8]))
}

// LockLedger takes the ledger's transaction-scoped advisory lock. Expense
// application, recalculation, and settlement completion all take it first, so
// mutations of one ledger's debt graph serialize across processes. The lock
// releases when the surrounding transaction commits or rolls back.
func (r *DebtRepository) LockLedger(ctx context.Context, ledgerID uuid.UUID) error {
	_, err := r.querier.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey(ledgerID))
	if err != nil {
		r.logger.Error("Failed to acquire ledger advisory lock", "ledgerID", ledgerID.String(), "error", err)
		return fmt.Errorf("failed to acquire ledger advisory lock: %w", err)
	}

	return nil
}

// MarkSettledByLedger transitions every active relation in the ledger to settled
func (r *DebtRepository) MarkSettledByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	query := `
		UPDATE debt_relations
		SET status = 'SETTLED', updated_at = NOW()
		WHERE ledger_id = $1 AND status = 'ACTIVE'
	`

	result, err := r.querier.Exec(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to settle ledger debt relations", "ledgerID", ledgerID.String(), "error", err)
		return 0, fmt.Errorf("failed to settle ledger debt relations: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteActiveByLedger removes every active relation in the ledger, making
// room for recalculation to reinsert the re-derived set.
func (r *DebtRepository) DeleteActiveByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM debt_relations
		WHERE ledger_id = $1 AND status = 'ACTIVE'
	`

	result, err := r.querier.Exec(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to delete active debt relations", "ledgerID", ledgerID.String(), "error", err)
		return 0, fmt.Errorf("failed to delete active debt relations: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkSettledPair settles the active relations between two members in both directions
func (r *DebtRepository) MarkSettledPair(ctx context.Context, ledgerID, memberA, memberB uuid.UUID) (int64, error) {
	query := `
		UPDATE debt_relations
		SET status = 'SETTLED', updated_at = NOW()
		WHERE ledger_id = $1 AND status = 'ACTIVE'
		  AND ((creditor_id = $2 AND debtor_id = $3) OR (creditor_id = $3 AND debtor_id = $2))
	`

	result, err := r.querier.Exec(ctx, query, ledgerID, memberA, memberB)
	if err != nil {
		r.logger.Error("Failed to settle debt relation pair", "ledgerID", ledgerID.String(), "error", err)
		return 0, fmt.Errorf("failed to settle debt relation pair: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkSettledByIDs settles the listed active relations, ignoring IDs that do
// not name an active relation in the ledger.
func (r *DebtRepository) MarkSettledByIDs(ctx context.Context, ledgerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE debt_relations
		SET status = 'SETTLED', updated_at = NOW()
		WHERE ledger_id = $1 AND status = 'ACTIVE' AND id = ANY($2)
	`

	result, err := r.querier.Exec(ctx, query, ledgerID, ids)
	if err != nil {
		r.logger.Error("Failed to settle debt relations by id", "ledgerID", ledgerID.String(), "error", err)
		return 0, fmt.Errorf("failed to settle debt relations by id: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanRelations(rows pgx.Rows) ([]*debt.Relation, error) {
	var relations []*debt.Relation
	for rows.Next() {
		var rel debt.Relation
		err := rows.Scan(
			&rel.ID,
			&rel.LedgerID,
			&rel.CreditorID,
			&rel.DebtorID,
			&rel.Amount,
			&rel.Currency,
			&rel.Status,
			&rel.CreatedAt,
			&rel.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt relation: %w", err)
		}
		relations = append(relations, &rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read debt relations: %w", err)
	}
	return relations, nil
}
