package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/platform/persistence"
)

// SettlementRepository implements the settlement.Repository interface for PostgreSQL
type SettlementRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewSettlementRepository creates a new PostgreSQL settlement record repository
func NewSettlementRepository(logger *slog.Logger, db *persistence.PostgresDB) settlement.Repository {
	return &SettlementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *SettlementRepository) WithTx(tx pgx.Tx) settlement.Repository {
	return &SettlementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new settlement record. Transfers and participants are kept
// as JSONB documents since they are only ever read back whole.
func (r *SettlementRepository) Create(ctx context.Context, record *settlement.Record) error {
	transfers, err := json.Marshal(record.Transfers)
	if err != nil {
		return fmt.Errorf("failed to encode settlement transfers: %w", err)
	}
	participants, err := json.Marshal(record.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode settlement participants: %w", err)
	}

	query := `
		INSERT INTO settlement_records (id, ledger_id, type, status, transfers, participants, total_amount, currency, initiated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.querier.Exec(ctx, query,
		record.ID,
		record.LedgerID,
		record.Type,
		record.Status,
		transfers,
		participants,
		record.TotalAmount,
		record.Currency,
		record.InitiatedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create settlement record", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to create settlement record: %w", err)
	}

	return nil
}

// GetByID retrieves a settlement record by its ID
func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.Record, error) {
	query := `
		SELECT id, ledger_id, type, status, transfers, participants, total_amount, currency, initiated_by, completed_by, cancel_reason, created_at, updated_at, completed_at
		FROM settlement_records
		WHERE id = $1
	`

	record, err := scanRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settlement.ErrRecordNotFound{RecordID: id}
		}
		r.logger.Error("Failed to get settlement record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get settlement record: %w", err)
	}

	return record, nil
}

// ListByLedger retrieves a ledger's settlement records, newest first
func (r *SettlementRepository) ListByLedger(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*settlement.Record, error) {
	query := `
		SELECT id, ledger_id, type, status, transfers, participants, total_amount, currency, initiated_by, completed_by, cancel_reason, created_at, updated_at, completed_at
		FROM settlement_records
		WHERE ledger_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list settlement records", "ledgerID", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list settlement records: %w", err)
	}
	defer rows.Close()

	var records []*settlement.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settlement records: %w", err)
	}

	return records, nil
}

// UpdateStatus persists a status transition, guarding on the status it was
// computed from. A zero row count means another transition won the race.
func (r *SettlementRepository) UpdateStatus(ctx context.Context, record *settlement.Record, fromStatus shared.SettlementStatus) error {
	query := `
		UPDATE settlement_records
		SET status = $1, completed_by = $2, cancel_reason = $3, updated_at = $4, completed_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.querier.Exec(ctx, query,
		record.Status,
		record.CompletedBy,
		record.CancelReason,
		record.UpdatedAt,
		record.CompletedAt,
		record.ID,
		fromStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update settlement record status", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to update settlement record status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return settlement.ErrStaleRecord{RecordID: record.ID}
	}

	return nil
}

func scanRecord(row pgx.Row) (*settlement.Record, error) {
	var record settlement.Record
	var transfers, participants []byte
	err := row.Scan(
		&record.ID,
		&record.LedgerID,
		&record.Type,
		&record.Status,
		&transfers,
		&participants,
		&record.TotalAmount,
		&record.Currency,
		&record.InitiatedBy,
		&record.CompletedBy,
		&record.CancelReason,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(transfers, &record.Transfers); err != nil {
		return nil, fmt.Errorf("failed to decode settlement transfers: %w", err)
	}
	if err := json.Unmarshal(participants, &record.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode settlement participants: %w", err)
	}

	return &record, nil
}
