package settlement_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitledger/internal/config"
	"github.com/splitledger/internal/domain/settlement"
)

// Poller periodically evaluates recurring settlement policies
type Poller struct {
	configRepo   settlement.ConfigRepository
	notifier     SuggestionNotifier
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewPoller(
	cfg *config.AutoSettleConfig,
	configRepo settlement.ConfigRepository,
	notifier SuggestionNotifier,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		configRepo:   configRepo,
		notifier:     notifier,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
		batchSize:    cfg.BatchSize,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Settlement Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Settlement Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Settlement Poller tick: evaluating policies")
			if err := p.processDuePolicies(ctx); err != nil {
				p.logger.Error("Error during batch evaluation of settlement policies", "error", err)
			}
		}
	}
}

func (p *Poller) processDuePolicies(ctx context.Context) error {
	configs, err := p.configRepo.ListEnabledConfigs(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list enabled settlement policies: %w", err)
	}

	if len(configs) == 0 {
		p.logger.Debug("No enabled settlement policies found.")
		return nil
	}

	now := time.Now()
	for _, policy := range configs {
		if !policy.Due(now) {
			continue
		}

		notified, err := p.notifier.NotifyLedger(ctx, policy)
		if err != nil {
			p.logger.Error("Failed to evaluate settlement policy",
				"ledger_id", policy.LedgerID.String(), "cycle", string(policy.Cycle), "error", err,
			)
			// Leave LastRunAt untouched so the next tick retries
			continue
		}

		if !notified {
			// Below threshold: the policy stays due for the rest of the period
			continue
		}

		if err := p.configRepo.MarkRun(ctx, policy.LedgerID); err != nil {
			p.logger.Error("Failed to mark settlement policy as run",
				"ledger_id", policy.LedgerID.String(), "error", err,
			)
			continue
		}
		p.logger.Info("Settlement policy run recorded", "ledger_id", policy.LedgerID.String(), "cycle", string(policy.Cycle))
	}
	return nil
}
