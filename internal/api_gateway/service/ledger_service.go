package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/platform/persistence"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	debtRepo    debt.Repository
	expenseRepo expense.Repository
	db          *persistence.PostgresDB
	logger      *slog.Logger
}

// NewLedgerService creates a new debt ledger service
func NewLedgerService(logger *slog.Logger, debtRepo debt.Repository, expenseRepo expense.Repository, db *persistence.PostgresDB) LedgerService {
	return &LedgerServiceImpl{
		debtRepo:    debtRepo,
		expenseRepo: expenseRepo,
		db:          db,
		logger:      logger,
	}
}

// GetDebtSummary returns the netted view of a ledger's active debt
func (s *LedgerServiceImpl) GetDebtSummary(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error) {
	relations, err := s.debtRepo.FindActiveByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return debt.BuildSummary(ledgerID, relations), nil
}

// GetMemberSummary returns one member's gross and net position
func (s *LedgerServiceImpl) GetMemberSummary(ctx context.Context, ledgerID, memberID uuid.UUID) (*debt.MemberSummary, error) {
	relations, err := s.debtRepo.FindActiveByMember(ctx, ledgerID, memberID)
	if err != nil {
		return nil, err
	}
	return debt.BuildMemberSummary(memberID, relations), nil
}

// GetDebtGraph returns the who-owes-whom graph over active relations
func (s *LedgerServiceImpl) GetDebtGraph(ctx context.Context, ledgerID uuid.UUID) (*debt.Graph, error) {
	relations, err := s.debtRepo.FindActiveByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return debt.BuildGraph(ledgerID, relations), nil
}

// RecalculateDebts rebuilds the ledger's active relations from the unsettled
// expense journal: delete the active set, merge journal obligations per
// (creditor, debtor) pair minus what has already been settled, reinsert. The
// rebuild runs under the ledger's advisory lock so a concurrent expense
// application cannot commit between the journal read and the reinsert.
func (s *LedgerServiceImpl) RecalculateDebts(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error) {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.rebuildLedger(ctx, ledgerID, s.debtRepo.WithTx(tx))
	})
	if err != nil {
		return nil, err
	}

	relations, err := s.debtRepo.FindActiveByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return debt.BuildSummary(ledgerID, relations), nil
}

// rebuildLedger re-derives the active relations inside the caller's
// transaction. The lock comes first: an expense application holding it has
// either journaled already (its entry is read here) or will re-apply on its
// own retry, so the rebuild never drops a committed expense.
func (s *LedgerServiceImpl) rebuildLedger(ctx context.Context, ledgerID uuid.UUID, txRepo debt.Repository) error {
	if err := txRepo.LockLedger(ctx, ledgerID); err != nil {
		return err
	}

	entries, err := s.expenseRepo.FindUnsettledByLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	settled, err := txRepo.FindSettledByLedger(ctx, ledgerID)
	if err != nil {
		return err
	}

	merged := mergeObligations(ledgerID, entries, settled)

	deleted, err := txRepo.DeleteActiveByLedger(ctx, ledgerID)
	if err != nil {
		return err
	}
	for _, rel := range merged {
		if err := txRepo.Upsert(ctx, rel); err != nil {
			return err
		}
	}
	s.logger.Info("Recalculated ledger debts",
		"ledger_id", ledgerID.String(),
		"deleted_relations", deleted,
		"rebuilt_relations", len(merged),
		"journal_entries", len(entries),
	)
	return nil
}

// SettleDebts marks the listed relations settled. Unknown IDs are silently
// ignored; an empty list is an error since it is always a caller bug.
func (s *LedgerServiceImpl) SettleDebts(ctx context.Context, ledgerID uuid.UUID, relationIDs []uuid.UUID, notes string) (int64, error) {
	if len(relationIDs) == 0 {
		return 0, shared.ErrInvalidParameter{Field: "relation_ids", Reason: "at least one relation id is required"}
	}

	settled, err := s.debtRepo.MarkSettledByIDs(ctx, ledgerID, relationIDs)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Settled debt relations",
		"ledger_id", ledgerID.String(),
		"requested", len(relationIDs),
		"settled", settled,
		"notes", notes,
	)
	return settled, nil
}

// mergeObligations folds journal obligations into one relation per
// (creditor, debtor) pair, preserving first-seen pair order, then subtracts
// what has already been settled on each pair so paid debts are not
// resurrected. Pairs whose remainder is zero or negative are dropped.
func mergeObligations(ledgerID uuid.UUID, entries []*expense.JournalEntry, settled []*debt.Relation) []*debt.Relation {
	type pairKey struct {
		creditor, debtor uuid.UUID
	}
	totals := make(map[pairKey]int64)
	currencies := make(map[pairKey]string)
	var order []pairKey

	for _, entry := range entries {
		for _, obligation := range entry.Obligations {
			if obligation.Amount <= 0 {
				// Journal entries are validated before they are written,
				// so a malformed obligation here is data corruption.
				continue
			}
			key := pairKey{creditor: obligation.CreditorID, debtor: obligation.DebtorID}
			if _, ok := totals[key]; !ok {
				order = append(order, key)
				currencies[key] = entry.Currency
			}
			totals[key] += obligation.Amount
		}
	}

	for _, rel := range settled {
		key := pairKey{creditor: rel.CreditorID, debtor: rel.DebtorID}
		if _, ok := totals[key]; ok {
			totals[key] -= rel.Amount
		}
	}

	relations := make([]*debt.Relation, 0, len(order))
	for _, key := range order {
		remaining := totals[key]
		if remaining <= 0 {
			continue
		}
		rel, err := debt.NewRelation(ledgerID, key.creditor, key.debtor, remaining, currencies[key])
		if err != nil {
			continue
		}
		relations = append(relations, rel)
	}
	return relations
}
