package expense

import (
	"context"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// Repository manages expense journal persistence with pagination support
type Repository interface {
	Create(ctx context.Context, entry *JournalEntry) error
	GetByExpenseID(ctx context.Context, expenseID uuid.UUID) (*JournalEntry, error)
	GetByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*JournalEntry, error)
	CountByLedgerID(ctx context.Context, ledgerID uuid.UUID) (int64, error)

	// FindUnsettledByLedger returns applied entries whose obligations have not
	// been absorbed by a settlement yet. This is the recalculation source.
	FindUnsettledByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*JournalEntry, error)

	// MarkSettledByLedger flips every applied entry in the ledger to settled
	// once a full settlement completes.
	MarkSettledByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error)

	UpdateStatus(ctx context.Context, expenseID uuid.UUID, status shared.ExpenseStatus, reason string) error
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	ExpenseID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "expense journal entry not found: " + e.ExpenseID.String()
}

// Is treats a target with a nil ExpenseID as a match for any missing entry
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.ExpenseID == uuid.Nil {
		return true
	}
	return e.ExpenseID == t.ExpenseID
}

// ErrDuplicateEntry indicates expense uniqueness violation
type ErrDuplicateEntry struct {
	ExpenseID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate expense journal entry: " + e.ExpenseID.String()
}

// Is treats a target with a nil ExpenseID as a match for any duplicate
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.ExpenseID == uuid.Nil {
		return true
	}
	return e.ExpenseID == t.ExpenseID
}
