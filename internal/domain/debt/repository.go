package debt

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines debt relation persistence operations
type Repository interface {
	// Upsert accumulates amount onto the active relation for the
	// (ledger, creditor, debtor) triple, creating it if absent. The
	// accumulation happens inside the database so concurrent expense
	// applications never lose updates.
	Upsert(ctx context.Context, relation *Relation) error

	FindActiveByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*Relation, error)
	FindActiveByMember(ctx context.Context, ledgerID, memberID uuid.UUID) ([]*Relation, error)

	// FindSettledByLedger retrieves every settled relation in a ledger.
	// Recalculation subtracts these from the journal-derived totals so paid
	// debts stay paid.
	FindSettledByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*Relation, error)

	// LockLedger takes the ledger's transaction-scoped advisory lock,
	// serializing every mutation of the ledger's debt graph across
	// processes. Must be called inside a transaction; the lock releases on
	// commit or rollback.
	LockLedger(ctx context.Context, ledgerID uuid.UUID) error

	// MarkSettledByLedger transitions every active relation in the ledger to
	// settled and returns the number of relations affected.
	MarkSettledByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error)

	// DeleteActiveByLedger removes every active relation in the ledger. Used
	// only by recalculation, inside the transaction that reinserts the
	// re-derived relations.
	DeleteActiveByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error)

	// MarkSettledPair settles the active relations between two members in
	// both directions.
	MarkSettledPair(ctx context.Context, ledgerID, memberA, memberB uuid.UUID) (int64, error)

	// MarkSettledByIDs settles the listed active relations. IDs that do not
	// name an active relation in the ledger are ignored.
	MarkSettledByIDs(ctx context.Context, ledgerID uuid.UUID, ids []uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrRelationNotFound indicates no active relation for the requested scope
type ErrRelationNotFound struct {
	LedgerID uuid.UUID
}

func (e ErrRelationNotFound) Error() string {
	return "no active debt relations for ledger: " + e.LedgerID.String()
}
