package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/splitledger/internal/api_gateway/service"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetDebtSummary(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Summary), args.Error(1)
}

func (m *MockLedgerService) GetMemberSummary(ctx context.Context, ledgerID, memberID uuid.UUID) (*debt.MemberSummary, error) {
	args := m.Called(ctx, ledgerID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.MemberSummary), args.Error(1)
}

func (m *MockLedgerService) GetDebtGraph(ctx context.Context, ledgerID uuid.UUID) (*debt.Graph, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Graph), args.Error(1)
}

func (m *MockLedgerService) RecalculateDebts(ctx context.Context, ledgerID uuid.UUID) (*debt.Summary, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Summary), args.Error(1)
}

func (m *MockLedgerService) SettleDebts(ctx context.Context, ledgerID uuid.UUID, relationIDs []uuid.UUID, notes string) (int64, error) {
	args := m.Called(ctx, ledgerID, relationIDs, notes)
	return args.Get(0).(int64), args.Error(1)
}

func TestLedgerHandler_GetDebtSummary(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		creditorID := uuid.New()
		debtorID := uuid.New()
		summary := &debt.Summary{
			LedgerID: ledgerID,
			Pairs: []debt.PairBalance{
				{CreditorID: creditorID, DebtorID: debtorID, Amount: 5000, Currency: "USD"},
			},
			Balances: []debt.MemberBalance{
				{MemberID: creditorID, NetAmount: 5000},
				{MemberID: debtorID, NetAmount: -5000},
			},
			TotalOutstanding: 5000,
		}
		mockService.On("GetDebtSummary", mock.Anything, ledgerID).Return(summary, nil)

		router := gin.Default()
		router.GET("/ledgers/:id/debts", handler.GetDebtSummary)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+ledgerID.String()+"/debts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)
		require.NotNil(t, topLevelResponse.Data)

		var respBody debt.Summary
		dataBytes, marshalErr := json.Marshal(topLevelResponse.Data)
		require.NoError(t, marshalErr)
		require.NoError(t, json.Unmarshal(dataBytes, &respBody))

		assert.Equal(t, ledgerID, respBody.LedgerID)
		assert.Equal(t, int64(5000), respBody.TotalOutstanding)
		assert.Len(t, respBody.Pairs, 1)
		assert.Len(t, respBody.Balances, 2)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidLedgerID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		router := gin.Default()
		router.GET("/ledgers/:id/debts", handler.GetDebtSummary)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/not-a-uuid/debts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		ledgerID := uuid.New()
		mockService.On("GetDebtSummary", mock.Anything, ledgerID).Return(nil, errors.New("db error"))

		router := gin.Default()
		router.GET("/ledgers/:id/debts", handler.GetDebtSummary)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+ledgerID.String()+"/debts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetDebtGraph(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		creditorID := uuid.New()
		debtorID := uuid.New()
		graph := &debt.Graph{
			LedgerID: ledgerID,
			Nodes: []debt.GraphNode{
				{MemberID: creditorID, NetAmount: 5000},
				{MemberID: debtorID, NetAmount: -5000},
			},
			Edges: []debt.GraphEdge{
				{CreditorID: creditorID, DebtorID: debtorID, Amount: 5000, Currency: "USD"},
			},
		}
		mockService.On("GetDebtGraph", mock.Anything, ledgerID).Return(graph, nil)

		router := gin.Default()
		router.GET("/ledgers/:id/debts/graph", handler.GetDebtGraph)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+ledgerID.String()+"/debts/graph", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		ledgerID := uuid.New()
		mockService.On("GetDebtGraph", mock.Anything, ledgerID).Return(nil, errors.New("db error"))

		router := gin.Default()
		router.GET("/ledgers/:id/debts/graph", handler.GetDebtGraph)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+ledgerID.String()+"/debts/graph", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_GetMemberSummary(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		memberID := uuid.New()
		summary := &debt.MemberSummary{
			MemberID:          memberID,
			TotalCredit:       8000,
			TotalDebt:         3000,
			NetBalance:        5000,
			ActiveCreditCount: 2,
			ActiveDebtCount:   1,
		}
		mockService.On("GetMemberSummary", mock.Anything, ledgerID, memberID).Return(summary, nil)

		router := gin.Default()
		router.GET("/ledgers/:id/members/:memberId/summary", handler.GetMemberSummary)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+ledgerID.String()+"/members/"+memberID.String()+"/summary", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)

		var respBody debt.MemberSummary
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &respBody))

		assert.Equal(t, memberID, respBody.MemberID)
		assert.Equal(t, int64(5000), respBody.NetBalance)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidMemberID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		router := gin.Default()
		router.GET("/ledgers/:id/members/:memberId/summary", handler.GetMemberSummary)

		req, _ := http.NewRequest(http.MethodGet, "/ledgers/"+uuid.New().String()+"/members/not-a-uuid/summary", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_Recalculate(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		summary := &debt.Summary{LedgerID: ledgerID, TotalOutstanding: 12000}
		mockService.On("RecalculateDebts", mock.Anything, ledgerID).Return(summary, nil)

		router := gin.Default()
		router.POST("/ledgers/:id/debts/recalculate", handler.Recalculate)

		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+ledgerID.String()+"/debts/recalculate", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		ledgerID := uuid.New()
		mockService.On("RecalculateDebts", mock.Anything, ledgerID).Return(nil, errors.New("db error"))

		router := gin.Default()
		router.POST("/ledgers/:id/debts/recalculate", handler.Recalculate)

		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+ledgerID.String()+"/debts/recalculate", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLedgerHandler_Settle(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		relationID := uuid.New()
		mockService.On("SettleDebts", mock.Anything, ledgerID, []uuid.UUID{relationID}, "paid in cash").
			Return(int64(1), nil)

		router := gin.Default()
		router.POST("/ledgers/:id/debts/settle", handler.Settle)

		reqBody := SettleDebtsRequest{
			RelationIDs: []string{relationID.String()},
			Notes:       "paid in cash",
		}
		jsonBody, _ := json.Marshal(reqBody)
		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+ledgerID.String()+"/debts/settle", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse map[string]interface{}
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)
		responseBody, ok := topLevelResponse["data"].(map[string]interface{})
		require.True(t, ok, "'data' field should be a map")
		assert.Equal(t, float64(1), responseBody["settled"])
		mockService.AssertExpectations(t)
	})

	t.Run("EmptyRelationIDs", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		router := gin.Default()
		router.POST("/ledgers/:id/debts/settle", handler.Settle)

		jsonBody, _ := json.Marshal(SettleDebtsRequest{RelationIDs: []string{}})
		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+uuid.New().String()+"/debts/settle", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRelationID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)
		router := gin.Default()
		router.POST("/ledgers/:id/debts/settle", handler.Settle)

		jsonBody := []byte(`{"relation_ids": ["not-a-uuid"]}`)
		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+uuid.New().String()+"/debts/settle", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("CallerError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		relationID := uuid.New()
		mockService.On("SettleDebts", mock.Anything, ledgerID, []uuid.UUID{relationID}, "").
			Return(int64(0), shared.ErrInvalidParameter{Field: "relation_ids", Reason: "at least one relation id is required"})

		router := gin.Default()
		router.POST("/ledgers/:id/debts/settle", handler.Settle)

		jsonBody, _ := json.Marshal(SettleDebtsRequest{RelationIDs: []string{relationID.String()}})
		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+ledgerID.String()+"/debts/settle", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		ledgerID := uuid.New()
		relationID := uuid.New()
		mockService.On("SettleDebts", mock.Anything, ledgerID, []uuid.UUID{relationID}, "").
			Return(int64(0), errors.New("db error"))

		router := gin.Default()
		router.POST("/ledgers/:id/debts/settle", handler.Settle)

		jsonBody, _ := json.Marshal(SettleDebtsRequest{RelationIDs: []string{relationID.String()}})
		req, _ := http.NewRequest(http.MethodPost, "/ledgers/"+ledgerID.String()+"/debts/settle", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.LedgerService = (*MockLedgerService)(nil)
