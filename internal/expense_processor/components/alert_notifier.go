package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
	"github.com/splitledger/internal/expense_processor/service"
	"github.com/splitledger/internal/platform/messaging/producers"
)

// approachingPercentage is the usage level at which an approaching alert is
// published, short of the threshold itself.
const approachingPercentage = 80.0

type AlertNotifierImpl struct {
	configRepo settlement.ConfigRepository
	debtRepo   debt.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewAlertNotifier(
	configRepo settlement.ConfigRepository,
	debtRepo debt.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) service.AlertNotifier {
	return &AlertNotifierImpl{
		configRepo: configRepo,
		debtRepo:   debtRepo,
		producer:   producer,
		logger:     logger,
	}
}

// CheckThreshold compares the ledger's outstanding total against its
// settlement policy and publishes an alert when usage is high. Ledgers
// without a policy are skipped; every failure here is logged and swallowed
// because alerting must never fail expense processing.
func (n *AlertNotifierImpl) CheckThreshold(ctx context.Context, ledgerID uuid.UUID) {
	config, err := n.configRepo.GetConfig(ctx, ledgerID)
	if err != nil {
		var notFound settlement.ErrConfigNotFound
		if !errors.As(err, &notFound) {
			n.logger.Error("Failed to load settlement config for threshold check", "ledger_id", ledgerID.String(), "error", err)
		}
		return
	}
	if !config.Enabled {
		return
	}

	relations, err := n.debtRepo.FindActiveByLedger(ctx, ledgerID)
	if err != nil {
		n.logger.Error("Failed to load relations for threshold check", "ledger_id", ledgerID.String(), "error", err)
		return
	}

	outstanding := debt.TotalOutstanding(relations)
	usage := config.UsagePercentage(outstanding)

	var alertType shared.AlertType
	switch {
	case usage >= 100.0:
		alertType = shared.AlertTypeThresholdReached
	case usage >= approachingPercentage:
		alertType = shared.AlertTypeThresholdApproaching
	default:
		return
	}

	alert := &shared.ThresholdAlert{
		LedgerID:        ledgerID.String(),
		AlertType:       alertType,
		UsagePercentage: usage,
		Message:         fmt.Sprintf("outstanding debt is at %.1f%% of the settlement threshold", usage),
	}

	if err := n.producer.Publish(ctx, ledgerID.String(), alert); err != nil {
		n.logger.Error("Failed to publish threshold alert", "ledger_id", ledgerID.String(), "error", err)
		return
	}

	n.logger.Info("Published threshold alert",
		"ledger_id", ledgerID.String(),
		"alert_type", string(alertType),
		"usage_percentage", usage,
	)
}
