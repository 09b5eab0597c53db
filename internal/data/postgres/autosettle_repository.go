package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/platform/persistence"
)

// AutoSettleRepository implements the settlement.ConfigRepository interface for PostgreSQL
type AutoSettleRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAutoSettleRepository creates a new PostgreSQL auto-settlement policy repository
func NewAutoSettleRepository(logger *slog.Logger, db *persistence.PostgresDB) settlement.ConfigRepository {
	return &AutoSettleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *AutoSettleRepository) WithTx(tx pgx.Tx) settlement.ConfigRepository {
	return &AutoSettleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// UpsertConfig creates or replaces a ledger's auto-settlement policy
func (r *AutoSettleRepository) UpsertConfig(ctx context.Context, config *settlement.AutoSettleConfig) error {
	query := `
		INSERT INTO ledger_settlement_configs (ledger_id, cycle, threshold, enabled, last_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ledger_id)
		DO UPDATE SET cycle = EXCLUDED.cycle, threshold = EXCLUDED.threshold, enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		config.LedgerID,
		config.Cycle,
		config.Threshold,
		config.Enabled,
		config.LastRunAt,
		config.CreatedAt,
		config.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert auto-settlement config", "ledgerID", config.LedgerID.String(), "error", err)
		return fmt.Errorf("failed to upsert auto-settlement config: %w", err)
	}

	return nil
}

// GetConfig retrieves a ledger's auto-settlement policy
func (r *AutoSettleRepository) GetConfig(ctx context.Context, ledgerID uuid.UUID) (*settlement.AutoSettleConfig, error) {
	query := `
		SELECT ledger_id, cycle, threshold, enabled, last_run_at, created_at, updated_at
		FROM ledger_settlement_configs
		WHERE ledger_id = $1
	`

	var config settlement.AutoSettleConfig
	err := r.querier.QueryRow(ctx, query, ledgerID).Scan(
		&config.LedgerID,
		&config.Cycle,
		&config.Threshold,
		&config.Enabled,
		&config.LastRunAt,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settlement.ErrConfigNotFound{LedgerID: ledgerID}
		}
		r.logger.Error("Failed to get auto-settlement config", "ledgerID", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to get auto-settlement config: %w", err)
	}

	return &config, nil
}

// ListEnabledConfigs retrieves enabled policies for the settlement poller,
// least recently run first so no ledger starves.
func (r *AutoSettleRepository) ListEnabledConfigs(ctx context.Context, limit int) ([]*settlement.AutoSettleConfig, error) {
	query := `
		SELECT ledger_id, cycle, threshold, enabled, last_run_at, created_at, updated_at
		FROM ledger_settlement_configs
		WHERE enabled = TRUE
		ORDER BY last_run_at NULLS FIRST
		LIMIT $1
	`

	rows, err := r.querier.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list auto-settlement configs", "error", err)
		return nil, fmt.Errorf("failed to list auto-settlement configs: %w", err)
	}
	defer rows.Close()

	var configs []*settlement.AutoSettleConfig
	for rows.Next() {
		var config settlement.AutoSettleConfig
		err := rows.Scan(
			&config.LedgerID,
			&config.Cycle,
			&config.Threshold,
			&config.Enabled,
			&config.LastRunAt,
			&config.CreatedAt,
			&config.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auto-settlement config: %w", err)
		}
		configs = append(configs, &config)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read auto-settlement configs: %w", err)
	}

	return configs, nil
}

// MarkRun stamps the policy with the current time after a poller pass
func (r *AutoSettleRepository) MarkRun(ctx context.Context, ledgerID uuid.UUID) error {
	query := `
		UPDATE ledger_settlement_configs
		SET last_run_at = NOW(), updated_at = NOW()
		WHERE ledger_id = $1
	`

	result, err := r.querier.Exec(ctx, query, ledgerID)
	if err != nil {
		r.logger.Error("Failed to mark auto-settlement run", "ledgerID", ledgerID.String(), "error", err)
		return fmt.Errorf("failed to mark auto-settlement run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return settlement.ErrConfigNotFound{LedgerID: ledgerID}
	}

	return nil
}
