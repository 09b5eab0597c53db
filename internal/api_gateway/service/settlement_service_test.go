package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/settlement"
	"github.com/splitledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, record *settlement.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Record), args.Error(1)
}

func (m *MockSettlementRepository) ListByLedger(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*settlement.Record, error) {
	args := m.Called(ctx, ledgerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Record), args.Error(1)
}

func (m *MockSettlementRepository) UpdateStatus(ctx context.Context, record *settlement.Record, fromStatus shared.SettlementStatus) error {
	args := m.Called(ctx, record, fromStatus)
	return args.Error(0)
}

func (m *MockSettlementRepository) WithTx(tx pgx.Tx) settlement.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(settlement.Repository)
}

type MockSettlementConfigRepository struct {
	mock.Mock
}

func (m *MockSettlementConfigRepository) UpsertConfig(ctx context.Context, config *settlement.AutoSettleConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockSettlementConfigRepository) GetConfig(ctx context.Context, ledgerID uuid.UUID) (*settlement.AutoSettleConfig, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.AutoSettleConfig), args.Error(1)
}

func (m *MockSettlementConfigRepository) ListEnabledConfigs(ctx context.Context, limit int) ([]*settlement.AutoSettleConfig, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.AutoSettleConfig), args.Error(1)
}

func (m *MockSettlementConfigRepository) MarkRun(ctx context.Context, ledgerID uuid.UUID) error {
	args := m.Called(ctx, ledgerID)
	return args.Error(0)
}

func (m *MockSettlementConfigRepository) WithTx(tx pgx.Tx) settlement.ConfigRepository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(settlement.ConfigRepository)
}

func newSettlementService(
	debtRepo debt.Repository,
	settlementRepo settlement.Repository,
	configRepo settlement.ConfigRepository,
) SettlementService {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewSettlementService(logger, debtRepo, settlementRepo, configRepo, new(MockExpenseRepository), nil)
}

func TestSettlementServiceImpl_GetSuggestion(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		memberA := uuid.New()
		memberB := uuid.New()
		relations := []*debt.Relation{
			activeRelation(t, ledgerID, memberA, memberB, 4000),
		}

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(relations, nil).Once()

		suggestion, err := service.GetSuggestion(ctx, ledgerID, false)

		assert.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, ledgerID, suggestion.LedgerID)
		assert.Equal(t, "USD", suggestion.Currency)
		require.Len(t, suggestion.Transfers, 1)
		assert.Equal(t, memberB, suggestion.Transfers[0].FromID)
		assert.Equal(t, memberA, suggestion.Transfers[0].ToID)
		assert.Equal(t, int64(4000), suggestion.Transfers[0].Amount)
		assert.Equal(t, int64(4000), suggestion.TotalAmount)
		mockDebtRepo.AssertExpectations(t)
	})

	t.Run("EmptyLedger", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return([]*debt.Relation{}, nil).Once()

		suggestion, err := service.GetSuggestion(ctx, ledgerID, false)

		assert.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Empty(t, suggestion.Transfers)
		assert.Zero(t, suggestion.TotalAmount)
		mockDebtRepo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		repoError := errors.New("db error")

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(nil, repoError).Once()

		suggestion, err := service.GetSuggestion(ctx, ledgerID, false)

		assert.Error(t, err)
		assert.Nil(t, suggestion)
		mockDebtRepo.AssertExpectations(t)
	})
}

func TestSettlementServiceImpl_CreateSettlement(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()
	initiatedBy := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		memberA := uuid.New()
		memberB := uuid.New()
		relations := []*debt.Relation{
			activeRelation(t, ledgerID, memberA, memberB, 2500),
		}

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(relations, nil).Once()
		mockSettlementRepo.On("Create", ctx, mock.MatchedBy(func(record *settlement.Record) bool {
			return record.LedgerID == ledgerID &&
				record.Type == settlement.RecordTypeManual &&
				record.Status == shared.SettlementStatusPending &&
				record.InitiatedBy == initiatedBy &&
				len(record.Transfers) == 1 &&
				record.TotalAmount == 2500
		})).Return(nil).Once()

		record, err := service.CreateSettlement(ctx, ledgerID, initiatedBy, settlement.RecordTypeManual)

		assert.NoError(t, err)
		require.NotNil(t, record)
		assert.Len(t, record.Participants, 2)
		mockDebtRepo.AssertExpectations(t)
		mockSettlementRepo.AssertExpectations(t)
	})

	t.Run("NothingToSettle", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return([]*debt.Relation{}, nil).Once()

		record, err := service.CreateSettlement(ctx, ledgerID, initiatedBy, settlement.RecordTypeManual)

		assert.Error(t, err)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, settlement.ErrEmptyTransferPlan)
		mockSettlementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RepositoryCreateError", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		relations := []*debt.Relation{
			activeRelation(t, ledgerID, uuid.New(), uuid.New(), 2500),
		}
		createError := errors.New("db error")

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(relations, nil).Once()
		mockSettlementRepo.On("Create", ctx, mock.AnythingOfType("*settlement.Record")).Return(createError).Once()

		record, err := service.CreateSettlement(ctx, ledgerID, initiatedBy, settlement.RecordTypeManual)

		assert.Error(t, err)
		assert.Nil(t, record)
		assert.Equal(t, createError, err)
		mockSettlementRepo.AssertExpectations(t)
	})
}

func pendingRecord(ledgerID uuid.UUID) *settlement.Record {
	memberA := uuid.New()
	memberB := uuid.New()
	return &settlement.Record{
		ID:       uuid.New(),
		LedgerID: ledgerID,
		Type:     settlement.RecordTypeManual,
		Status:   shared.SettlementStatusPending,
		Transfers: []settlement.Transfer{
			{FromID: memberB, ToID: memberA, Amount: 2500},
		},
		Participants: []uuid.UUID{memberB, memberA},
		TotalAmount:  2500,
		Currency:     "USD",
		InitiatedBy:  memberA,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestSettlementServiceImpl_StartSettlement(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		record := pendingRecord(ledgerID)

		mockSettlementRepo.On("GetByID", ctx, record.ID).Return(record, nil).Once()
		mockSettlementRepo.On("UpdateStatus", ctx, record, shared.SettlementStatusPending).Return(nil).Once()

		updated, err := service.StartSettlement(ctx, record.ID)

		assert.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, shared.SettlementStatusInProgress, updated.Status)
		mockSettlementRepo.AssertExpectations(t)
	})

	t.Run("RecordNotFound", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		recordID := uuid.New()
		notFoundError := settlement.ErrRecordNotFound{RecordID: recordID}

		mockSettlementRepo.On("GetByID", ctx, recordID).Return(nil, notFoundError).Once()

		updated, err := service.StartSettlement(ctx, recordID)

		assert.Error(t, err)
		assert.Nil(t, updated)
		mockSettlementRepo.AssertExpectations(t)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		record := pendingRecord(ledgerID)
		record.Status = shared.SettlementStatusCompleted

		mockSettlementRepo.On("GetByID", ctx, record.ID).Return(record, nil).Once()

		updated, err := service.StartSettlement(ctx, record.ID)

		assert.Error(t, err)
		assert.Nil(t, updated)
		var validationErr shared.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		mockSettlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettlementServiceImpl_CompleteInTx(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	newService := func(debtRepo debt.Repository, settlementRepo settlement.Repository) *SettlementServiceImpl {
		return newSettlementService(debtRepo, settlementRepo, new(MockSettlementConfigRepository)).(*SettlementServiceImpl)
	}

	completedRecord := func() *settlement.Record {
		record := pendingRecord(ledgerID)
		record.Status = shared.SettlementStatusCompleted
		return record
	}

	t.Run("LocksThenSettlesParticipantPairs", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		service := newService(mockDebtRepo, mockSettlementRepo)
		record := completedRecord()
		memberB := record.Participants[0]
		memberA := record.Participants[1]

		mockDebtRepo.On("LockLedger", ctx, ledgerID).Return(nil).Once()
		mockSettlementRepo.On("UpdateStatus", ctx, record, shared.SettlementStatusInProgress).Return(nil).Once()
		mockDebtRepo.On("MarkSettledPair", ctx, ledgerID, memberB, memberA).Return(int64(1), nil).Once()

		err := service.completeInTx(ctx, record, shared.SettlementStatusInProgress, mockSettlementRepo, mockDebtRepo)

		assert.NoError(t, err)
		mockDebtRepo.AssertExpectations(t)
		mockSettlementRepo.AssertExpectations(t)
	})

	t.Run("LockErrorAbortsBeforeStatusUpdate", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		service := newService(mockDebtRepo, mockSettlementRepo)
		record := completedRecord()
		lockError := errors.New("lock timeout")

		mockDebtRepo.On("LockLedger", ctx, ledgerID).Return(lockError).Once()

		err := service.completeInTx(ctx, record, shared.SettlementStatusInProgress, mockSettlementRepo, mockDebtRepo)

		assert.Error(t, err)
		assert.Equal(t, lockError, err)
		mockSettlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		mockDebtRepo.AssertNotCalled(t, "MarkSettledPair", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StatusUpdateErrorPropagates", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		service := newService(mockDebtRepo, mockSettlementRepo)
		record := completedRecord()
		updateError := errors.New("status changed concurrently")

		mockDebtRepo.On("LockLedger", ctx, ledgerID).Return(nil).Once()
		mockSettlementRepo.On("UpdateStatus", ctx, record, shared.SettlementStatusInProgress).Return(updateError).Once()

		err := service.completeInTx(ctx, record, shared.SettlementStatusInProgress, mockSettlementRepo, mockDebtRepo)

		assert.Error(t, err)
		assert.Equal(t, updateError, err)
		mockDebtRepo.AssertNotCalled(t, "MarkSettledPair", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PairSettlementErrorPropagates", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		service := newService(mockDebtRepo, mockSettlementRepo)
		record := completedRecord()
		pairError := errors.New("db error")

		mockDebtRepo.On("LockLedger", ctx, ledgerID).Return(nil).Once()
		mockSettlementRepo.On("UpdateStatus", ctx, record, shared.SettlementStatusInProgress).Return(nil).Once()
		mockDebtRepo.On("MarkSettledPair", ctx, ledgerID, mock.Anything, mock.Anything).Return(int64(0), pairError).Once()

		err := service.completeInTx(ctx, record, shared.SettlementStatusInProgress, mockSettlementRepo, mockDebtRepo)

		assert.Error(t, err)
		assert.Equal(t, pairError, err)
	})
}

func TestSettlementServiceImpl_CancelSettlement(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		record := pendingRecord(ledgerID)

		mockSettlementRepo.On("GetByID", ctx, record.ID).Return(record, nil).Once()
		mockSettlementRepo.On("UpdateStatus", ctx, record, shared.SettlementStatusPending).Return(nil).Once()

		cancelled, err := service.CancelSettlement(ctx, record.ID, "changed our minds")

		assert.NoError(t, err)
		require.NotNil(t, cancelled)
		assert.Equal(t, shared.SettlementStatusCancelled, cancelled.Status)
		assert.Equal(t, "changed our minds", cancelled.CancelReason)
		mockSettlementRepo.AssertExpectations(t)
	})

	t.Run("AlreadyTerminal", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		record := pendingRecord(ledgerID)
		record.Status = shared.SettlementStatusCancelled

		mockSettlementRepo.On("GetByID", ctx, record.ID).Return(record, nil).Once()

		cancelled, err := service.CancelSettlement(ctx, record.ID, "too late")

		assert.Error(t, err)
		assert.Nil(t, cancelled)
		mockSettlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettlementServiceImpl_ListSettlements(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		expectedRecords := []*settlement.Record{pendingRecord(ledgerID)}

		mockSettlementRepo.On("ListByLedger", ctx, ledgerID, 20, 20).Return(expectedRecords, nil).Once()

		records, err := service.ListSettlements(ctx, ledgerID, 2, 20)

		assert.NoError(t, err)
		assert.Equal(t, expectedRecords, records)
		mockSettlementRepo.AssertExpectations(t)
	})
}

func TestSettlementServiceImpl_UpsertAutoSettleConfig(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)

		mockConfigRepo.On("UpsertConfig", ctx, mock.MatchedBy(func(config *settlement.AutoSettleConfig) bool {
			return config.LedgerID == ledgerID &&
				config.Cycle == shared.SettlementCycleMonthly &&
				config.Threshold == 50000 &&
				config.Enabled
		})).Return(nil).Once()

		config, err := service.UpsertAutoSettleConfig(ctx, ledgerID, "MONTHLY", 50000)

		assert.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, shared.SettlementCycleMonthly, config.Cycle)
		mockConfigRepo.AssertExpectations(t)
	})

	t.Run("InvalidCycle", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)

		config, err := service.UpsertAutoSettleConfig(ctx, ledgerID, "FORTNIGHTLY", 50000)

		assert.Error(t, err)
		assert.Nil(t, config)
		var invalidParam shared.ErrInvalidParameter
		assert.ErrorAs(t, err, &invalidParam)
		assert.Equal(t, "cycle", invalidParam.Field)
		mockConfigRepo.AssertNotCalled(t, "UpsertConfig", mock.Anything, mock.Anything)
	})

	t.Run("NonPositiveThreshold", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)

		config, err := service.UpsertAutoSettleConfig(ctx, ledgerID, "WEEKLY", 0)

		assert.Error(t, err)
		assert.Nil(t, config)
		mockConfigRepo.AssertNotCalled(t, "UpsertConfig", mock.Anything, mock.Anything)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		repoError := errors.New("db error")

		mockConfigRepo.On("UpsertConfig", ctx, mock.AnythingOfType("*settlement.AutoSettleConfig")).Return(repoError).Once()

		config, err := service.UpsertAutoSettleConfig(ctx, ledgerID, "MONTHLY", 50000)

		assert.Error(t, err)
		assert.Nil(t, config)
		assert.Equal(t, repoError, err)
		mockConfigRepo.AssertExpectations(t)
	})
}

func TestSettlementServiceImpl_CheckAutoSettlement(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	policy := func(threshold int64) *settlement.AutoSettleConfig {
		return &settlement.AutoSettleConfig{
			LedgerID:  ledgerID,
			Cycle:     shared.SettlementCycleMonthly,
			Threshold: threshold,
			Enabled:   true,
		}
	}

	t.Run("ThresholdReached", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		relations := []*debt.Relation{
			activeRelation(t, ledgerID, uuid.New(), uuid.New(), 12000),
		}

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(relations, nil).Once()

		suggestion, err := service.CheckAutoSettlement(ctx, policy(10000))

		assert.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, int64(12000), suggestion.TotalAmount)
		mockDebtRepo.AssertExpectations(t)
	})

	t.Run("BelowThreshold", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		relations := []*debt.Relation{
			activeRelation(t, ledgerID, uuid.New(), uuid.New(), 4000),
		}

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(relations, nil).Once()

		suggestion, err := service.CheckAutoSettlement(ctx, policy(10000))

		assert.NoError(t, err)
		assert.Nil(t, suggestion)
		mockDebtRepo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockDebtRepo := new(MockDebtRepository)
		mockSettlementRepo := new(MockSettlementRepository)
		mockConfigRepo := new(MockSettlementConfigRepository)
		service := newSettlementService(mockDebtRepo, mockSettlementRepo, mockConfigRepo)
		repoError := errors.New("db error")

		mockDebtRepo.On("FindActiveByLedger", ctx, ledgerID).Return(nil, repoError).Once()

		suggestion, err := service.CheckAutoSettlement(ctx, policy(10000))

		assert.Error(t, err)
		assert.Nil(t, suggestion)
		mockDebtRepo.AssertExpectations(t)
	})
}

var _ settlement.Repository = (*MockSettlementRepository)(nil)
var _ settlement.ConfigRepository = (*MockSettlementConfigRepository)(nil)
