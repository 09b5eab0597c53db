package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/shared"
)

// Repository defines settlement record persistence operations
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByLedger(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*Record, error)

	// UpdateStatus persists a transition computed in memory, guarding on the
	// status it was computed from so concurrent transitions cannot clobber
	// each other. Returns ErrStaleRecord if the row has moved on.
	UpdateStatus(ctx context.Context, record *Record, fromStatus shared.SettlementStatus) error

	WithTx(tx pgx.Tx) Repository
}

// ConfigRepository defines auto-settlement policy persistence operations
type ConfigRepository interface {
	UpsertConfig(ctx context.Context, config *AutoSettleConfig) error
	GetConfig(ctx context.Context, ledgerID uuid.UUID) (*AutoSettleConfig, error)
	ListEnabledConfigs(ctx context.Context, limit int) ([]*AutoSettleConfig, error)
	MarkRun(ctx context.Context, ledgerID uuid.UUID) error
	WithTx(tx pgx.Tx) ConfigRepository
}

// ErrRecordNotFound indicates a missing settlement record
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "settlement record not found: " + e.RecordID.String()
}

// ErrStaleRecord indicates the record status changed underneath a transition
type ErrStaleRecord struct {
	RecordID uuid.UUID
}

func (e ErrStaleRecord) Error() string {
	return "settlement record was modified concurrently: " + e.RecordID.String()
}

// ErrConfigNotFound indicates a ledger without an auto-settlement policy
type ErrConfigNotFound struct {
	LedgerID uuid.UUID
}

func (e ErrConfigNotFound) Error() string {
	return "auto-settlement config not found for ledger: " + e.LedgerID.String()
}
