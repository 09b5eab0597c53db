package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/platform/persistence"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	debtRepo       debt.Repository
	settlementRepo settlement.Repository
	configRepo     settlement.ConfigRepository
	expenseRepo    expense.Repository
	db             *persistence.PostgresDB
	logger         *slog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	logger *slog.Logger,
	debtRepo debt.Repository,
	settlementRepo settlement.Repository,
	configRepo settlement.ConfigRepository,
	expenseRepo expense.Repository,
	db *persistence.PostgresDB,
) SettlementService {
	return &SettlementServiceImpl{
		debtRepo:       debtRepo,
		settlementRepo: settlementRepo,
		configRepo:     configRepo,
		expenseRepo:    expenseRepo,
		db:             db,
		logger:         logger,
	}
}

// GetSuggestion computes a transfer plan for the ledger's current balances
func (s *SettlementServiceImpl) GetSuggestion(ctx context.Context, ledgerID uuid.UUID, compress bool) (*settlement.Suggestion, error) {
	return s.buildSuggestion(ctx, ledgerID, compress)
}

func (s *SettlementServiceImpl) buildSuggestion(ctx context.Context, ledgerID uuid.UUID, compress bool) (*settlement.Suggestion, error) {
	relations, err := s.debtRepo.FindActiveByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	currency := "USD"
	if len(relations) > 0 {
		currency = relations[0].Currency
	}

	suggestion, err := settlement.Optimize(ledgerID, currency, debt.NetBalances(relations))
	if err != nil {
		return nil, err
	}

	if compress && len(suggestion.Transfers) > 1 {
		suggestion.Transfers = settlement.CompressTransfers(suggestion.Transfers)
		suggestion.Metrics.OptimizedTransfers = len(suggestion.Transfers)
	}

	return suggestion, nil
}

// CreateSettlement persists a pending record built from the current suggestion
func (s *SettlementServiceImpl) CreateSettlement(ctx context.Context, ledgerID, initiatedBy uuid.UUID, recordType settlement.RecordType) (*settlement.Record, error) {
	suggestion, err := s.buildSuggestion(ctx, ledgerID, false)
	if err != nil {
		return nil, err
	}

	record, err := settlement.NewRecordFromSuggestion(suggestion, initiatedBy, recordType)
	if err != nil {
		return nil, err
	}

	if err := s.settlementRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Created settlement record",
		"record_id", record.ID.String(),
		"ledger_id", ledgerID.String(),
		"type", string(recordType),
		"transfers", len(record.Transfers),
		"total_amount", record.TotalAmount,
	)
	return record, nil
}

// StartSettlement moves a pending record into execution
func (s *SettlementServiceImpl) StartSettlement(ctx context.Context, recordID uuid.UUID) (*settlement.Record, error) {
	record, err := s.settlementRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	fromStatus := record.Status
	if err := record.Start(); err != nil {
		return nil, err
	}
	if err := s.settlementRepo.UpdateStatus(ctx, record, fromStatus); err != nil {
		return nil, err
	}
	return record, nil
}

// CompleteSettlement finalizes the record and, in the same transaction,
// settles every active relation whose creditor and debtor both belong to the
// record's participant set. The journal is marked settled afterwards only if
// the ledger was fully cleared.
func (s *SettlementServiceImpl) CompleteSettlement(ctx context.Context, recordID, completedBy uuid.UUID) (*settlement.Record, error) {
	record, err := s.settlementRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	fromStatus := record.Status
	if err := record.Complete(completedBy); err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.completeInTx(ctx, record, fromStatus, s.settlementRepo.WithTx(tx), s.debtRepo.WithTx(tx))
	})
	if err != nil {
		return nil, err
	}

	// A fully cleared ledger closes out its journal entries too, so the next
	// recalculation starts from a clean slate.
	remaining, err := s.debtRepo.FindActiveByLedger(ctx, record.LedgerID)
	if err == nil && len(remaining) == 0 {
		if _, err := s.expenseRepo.MarkSettledByLedger(ctx, record.LedgerID); err != nil {
			s.logger.Error("Failed to close out expense journal after settlement",
				"ledger_id", record.LedgerID.String(),
				"error", err,
			)
		}
	}

	return record, nil
}

// completeInTx persists the completion inside the caller's transaction: the
// ledger's advisory lock first, then the guarded status flip, then the
// pairwise settlement of relations between record participants.
func (s *SettlementServiceImpl) completeInTx(
	ctx context.Context,
	record *settlement.Record,
	fromStatus shared.SettlementStatus,
	txSettlementRepo settlement.Repository,
	txDebtRepo debt.Repository,
) error {
	if err := txDebtRepo.LockLedger(ctx, record.LedgerID); err != nil {
		return err
	}

	if err := txSettlementRepo.UpdateStatus(ctx, record, fromStatus); err != nil {
		return err
	}

	var settled int64
	participants := record.Participants
	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			count, err := txDebtRepo.MarkSettledPair(ctx, record.LedgerID, participants[i], participants[j])
			if err != nil {
				return err
			}
			settled += count
		}
	}

	s.logger.Info("Completed settlement record",
		"record_id", record.ID.String(),
		"ledger_id", record.LedgerID.String(),
		"settled_relations", settled,
	)
	return nil
}

// CancelSettlement abandons the record without touching debt relations
func (s *SettlementServiceImpl) CancelSettlement(ctx context.Context, recordID uuid.UUID, reason string) (*settlement.Record, error) {
	record, err := s.settlementRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	fromStatus := record.Status
	if err := record.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.settlementRepo.UpdateStatus(ctx, record, fromStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Cancelled settlement record",
		"record_id", record.ID.String(),
		"ledger_id", record.LedgerID.String(),
		"reason", reason,
	)
	return record, nil
}

// GetSettlement retrieves a settlement record by ID
func (s *SettlementServiceImpl) GetSettlement(ctx context.Context, recordID uuid.UUID) (*settlement.Record, error) {
	return s.settlementRepo.GetByID(ctx, recordID)
}

// ListSettlements retrieves a page of a ledger's settlement records
func (s *SettlementServiceImpl) ListSettlements(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*settlement.Record, error) {
	offset := (page - 1) * perPage
	return s.settlementRepo.ListByLedger(ctx, ledgerID, perPage, offset)
}

// UpsertAutoSettleConfig creates or replaces a ledger's auto-settlement policy
func (s *SettlementServiceImpl) UpsertAutoSettleConfig(ctx context.Context, ledgerID uuid.UUID, cycle string, threshold int64) (*settlement.AutoSettleConfig, error) {
	parsedCycle, err := shared.ParseSettlementCycle(cycle)
	if err != nil {
		return nil, err
	}

	config, err := settlement.NewAutoSettleConfig(ledgerID, parsedCycle, threshold)
	if err != nil {
		return nil, err
	}

	if err := s.configRepo.UpsertConfig(ctx, config); err != nil {
		return nil, err
	}
	return config, nil
}

// GetAutoSettleConfig retrieves a ledger's auto-settlement policy
func (s *SettlementServiceImpl) GetAutoSettleConfig(ctx context.Context, ledgerID uuid.UUID) (*settlement.AutoSettleConfig, error) {
	return s.configRepo.GetConfig(ctx, ledgerID)
}

// CheckAutoSettlement builds a suggestion for the ledger if the outstanding
// total has reached the policy threshold. Nothing is persisted; the caller
// decides what to do with the suggestion.
func (s *SettlementServiceImpl) CheckAutoSettlement(ctx context.Context, config *settlement.AutoSettleConfig) (*settlement.Suggestion, error) {
	relations, err := s.debtRepo.FindActiveByLedger(ctx, config.LedgerID)
	if err != nil {
		return nil, err
	}

	outstanding := debt.TotalOutstanding(relations)
	if !config.ThresholdReached(outstanding) {
		s.logger.Debug("Auto-settlement threshold not reached",
			"ledger_id", config.LedgerID.String(),
			"outstanding", outstanding,
			"threshold", config.Threshold,
		)
		return nil, nil
	}

	currency := "USD"
	if len(relations) > 0 {
		currency = relations[0].Currency
	}
	return settlement.Optimize(config.LedgerID, currency, debt.NetBalances(relations))
}
