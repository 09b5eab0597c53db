package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/expense"
	"github.com/splitledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, entry *expense.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockExpenseRepository) GetByExpenseID(ctx context.Context, expenseID uuid.UUID) (*expense.JournalEntry, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.JournalEntry), args.Error(1)
}

func (m *MockExpenseRepository) GetByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*expense.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.JournalEntry), args.Error(1)
}

func (m *MockExpenseRepository) CountByLedgerID(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ledgerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) FindUnsettledByLedger(ctx context.Context, ledgerID uuid.UUID) ([]*expense.JournalEntry, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.JournalEntry), args.Error(1)
}

func (m *MockExpenseRepository) MarkSettledByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ledgerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) UpdateStatus(ctx context.Context, expenseID uuid.UUID, status shared.ExpenseStatus, reason string) error {
	args := m.Called(ctx, expenseID, status, reason)
	return args.Error(0)
}

func TestNewExpenseRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewExpenseRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &ExpenseRepository{}, repo)
}

func TestJournalIndexModels(t *testing.T) {
	models := journalIndexModels()
	require.Len(t, models, 2)

	unique := models[0]
	keys, ok := unique.Keys.(bson.D)
	require.True(t, ok)
	require.Len(t, keys, 1)
	assert.Equal(t, "expense_id", keys[0].Key)
	require.NotNil(t, unique.Options.Unique)
	assert.True(t, *unique.Options.Unique)

	compound := models[1]
	keys, ok = compound.Keys.(bson.D)
	require.True(t, ok)
	require.Len(t, keys, 3)
	assert.Equal(t, "ledger_id", keys[0].Key)
	assert.Equal(t, "status", keys[1].Key)
	assert.Equal(t, "created_at", keys[2].Key)
}

func TestExpenseRepository_Create(t *testing.T) {
	mockRepo := &MockExpenseRepository{}

	expenseID := uuid.New()
	ledgerID := uuid.New()
	entry := &expense.JournalEntry{
		ExpenseID:   expenseID,
		LedgerID:    ledgerID,
		PayerID:     uuid.New(),
		TotalAmount: 10000,
		Currency:    "USD",
		RuleKind:    shared.RuleKindEqual,
		Obligations: []expense.Obligation{
			{CreditorID: uuid.New(), DebtorID: uuid.New(), Amount: 5000},
		},
		CorrelationID: "corr1",
		Status:        shared.ExpenseStatusApplied,
		CreatedAt:     time.Now(),
	}

	tests := []struct {
		name          string
		setupMocks    func()
		expectedError error
	}{
		{
			name: "successful creation",
			setupMocks: func() {
				mockRepo.On("Create", mock.Anything, entry).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "duplicate entry",
			setupMocks: func() {
				mockRepo.On("Create", mock.Anything, entry).Return(expense.ErrDuplicateEntry{ExpenseID: expenseID})
			},
			expectedError: expense.ErrDuplicateEntry{ExpenseID: expenseID},
		},
		{
			name: "database error",
			setupMocks: func() {
				mockRepo.On("Create", mock.Anything, entry).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo = &MockExpenseRepository{}
			tt.setupMocks()

			ctx := context.Background()
			err := mockRepo.Create(ctx, entry)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestExpenseRepository_UpdateStatus(t *testing.T) {
	mockRepo := &MockExpenseRepository{}

	expenseID := uuid.New()
	status := shared.ExpenseStatusFailed
	reason := string(shared.FailureReasonInconsistentSplit)

	tests := []struct {
		name          string
		setupMocks    func()
		expectedError error
	}{
		{
			name: "successful update",
			setupMocks: func() {
				mockRepo.On("UpdateStatus", mock.Anything, expenseID, status, reason).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "entry not found",
			setupMocks: func() {
				mockRepo.On("UpdateStatus", mock.Anything, expenseID, status, reason).Return(expense.ErrEntryNotFound{ExpenseID: expenseID})
			},
			expectedError: expense.ErrEntryNotFound{ExpenseID: expenseID},
		},
		{
			name: "database error",
			setupMocks: func() {
				mockRepo.On("UpdateStatus", mock.Anything, expenseID, status, reason).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo = &MockExpenseRepository{}
			tt.setupMocks()

			ctx := context.Background()
			err := mockRepo.UpdateStatus(ctx, expenseID, status, reason)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestExpenseRepository_MarkSettledByLedger(t *testing.T) {
	mockRepo := &MockExpenseRepository{}
	ledgerID := uuid.New()

	mockRepo.On("MarkSettledByLedger", mock.Anything, ledgerID).Return(int64(5), nil)

	count, err := mockRepo.MarkSettledByLedger(context.Background(), ledgerID)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
	mockRepo.AssertExpectations(t)
}
