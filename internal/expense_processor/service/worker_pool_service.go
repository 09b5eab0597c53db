package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/splitledger/internal/domain/shared"
)

// WorkerPoolProcessingService implements the ProcessingService interface
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
	// One mutex per ledger: a ledger's expenses must apply in submission
	// order even though the pool interleaves different ledgers freely.
	ledgerLocks sync.Map
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessExpense submits an expense entry to the worker pool for processing.
func (s *WorkerPoolProcessingService) ProcessExpense(ctx context.Context, entry *shared.ExpenseEntry) error {
	logger := s.logger
	if entry.CorrelationID != "" {
		logger = s.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Submitting expense to worker pool",
		"expense_id", entry.ExpenseID.String(),
		"ledger_id", entry.LedgerID.String(),
	)

	// Create a channel to receive the result of the expense processing
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	expenseID := entry.ExpenseID.String()
	s.mu.Lock()
	s.results[expenseID] = resultChan
	s.mu.Unlock()

	// Create a copy of the entry to avoid data races
	entryCopy := *entry

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		lock := s.ledgerLock(entryCopy.LedgerID)
		lock.Lock()
		err := s.baseService.ProcessExpense(ctx, &entryCopy)
		lock.Unlock()

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, expenseID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, expenseID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit expense to worker pool",
			"expense_id", entry.ExpenseID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

func (s *WorkerPoolProcessingService) ledgerLock(ledgerID uuid.UUID) *sync.Mutex {
	lock, _ := s.ledgerLocks.LoadOrStore(ledgerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
