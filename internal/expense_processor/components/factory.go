package components

import (
	"log/slog"

	"github.com/splitledger/internal/config"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/expense_processor/service"
	"github.com/splitledger/internal/platform/messaging/producers"
	"github.com/splitledger/internal/platform/persistence"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	debtRepo debt.Repository,
	journalRepo expense.Repository,
	configRepo settlement.ConfigRepository,
	alertProducer producers.MessagePublisher,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewExpenseValidator(journalRepo, logger)
	debtManager := NewDebtManager(debtRepo, logger)
	journalRecorder := NewJournalRecorder(journalRepo, logger)
	alertNotifier := NewAlertNotifier(configRepo, debtRepo, alertProducer, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		debtManager,
		journalRecorder,
		alertNotifier,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
