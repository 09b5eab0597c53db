package settlement_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/platform/messaging/producers"
)

// SuggestionNotifier evaluates a due policy and notifies the ledger's members
type SuggestionNotifier interface {
	NotifyLedger(ctx context.Context, config *settlement.AutoSettleConfig) (bool, error)
}

// SuggestionNotifierImpl implements SuggestionNotifier
type SuggestionNotifierImpl struct {
	debtRepo debt.Repository
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewSuggestionNotifier creates a new notifier
func NewSuggestionNotifier(
	debtRepo debt.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) SuggestionNotifier {
	return &SuggestionNotifierImpl{
		debtRepo: debtRepo,
		producer: producer,
		logger:   logger,
	}
}

// NotifyLedger checks the ledger's outstanding total against the policy
// threshold and, if reached, publishes a settlement-due notice. It returns
// whether a notice was published; a below-threshold ledger is not an error
// and leaves the policy eligible for later ticks in the same period.
func (n *SuggestionNotifierImpl) NotifyLedger(ctx context.Context, config *settlement.AutoSettleConfig) (bool, error) {
	relations, err := n.debtRepo.FindActiveByLedger(ctx, config.LedgerID)
	if err != nil {
		return false, fmt.Errorf("failed to load relations for ledger %s: %w", config.LedgerID.String(), err)
	}

	outstanding := debt.TotalOutstanding(relations)
	if !config.ThresholdReached(outstanding) {
		n.logger.Debug("Outstanding total below settlement threshold",
			"ledger_id", config.LedgerID.String(),
			"outstanding", outstanding,
			"threshold", config.Threshold,
		)
		return false, nil
	}

	currency := "USD"
	if len(relations) > 0 {
		currency = relations[0].Currency
	}

	suggestion, err := settlement.Optimize(config.LedgerID, currency, debt.NetBalances(relations))
	if err != nil {
		return false, fmt.Errorf("failed to build settlement plan for ledger %s: %w", config.LedgerID.String(), err)
	}

	notice := &shared.SettlementDueNotice{
		LedgerID:      config.LedgerID.String(),
		Cycle:         config.Cycle,
		Outstanding:   outstanding,
		Currency:      suggestion.Currency,
		TransferCount: len(suggestion.Transfers),
		TotalAmount:   suggestion.TotalAmount,
		GeneratedAt:   time.Now(),
	}

	if err := n.producer.Publish(ctx, config.LedgerID.String(), notice); err != nil {
		return false, fmt.Errorf("failed to publish settlement-due notice for ledger %s: %w", config.LedgerID.String(), err)
	}

	n.logger.Info("Published settlement-due notice",
		"ledger_id", config.LedgerID.String(),
		"cycle", string(config.Cycle),
		"outstanding", outstanding,
		"transfers", len(suggestion.Transfers),
	)
	return true, nil
}
