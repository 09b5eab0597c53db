package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/splitledger/internal/api_gateway/handler"
	"github.com/splitledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	settlementHandler *handler.SettlementHandler,
	expenseHandler *handler.ExpenseHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Per-ledger operations
		ledgers := v1.Group("/ledgers")
		{
			ledgers.GET("/:id/debts", ledgerHandler.GetDebtSummary)
			ledgers.GET("/:id/debts/graph", ledgerHandler.GetDebtGraph)
			ledgers.POST("/:id/debts/recalculate", ledgerHandler.Recalculate)
			ledgers.POST("/:id/debts/settle", ledgerHandler.Settle)
			ledgers.GET("/:id/members/:memberId/summary", ledgerHandler.GetMemberSummary)

			ledgers.GET("/:id/expenses", expenseHandler.GetByLedgerID)

			ledgers.GET("/:id/settlements", settlementHandler.ListByLedger)
			ledgers.POST("/:id/settlements", settlementHandler.Create)
			ledgers.GET("/:id/settlements/suggestion", settlementHandler.GetSuggestion)
			ledgers.PUT("/:id/settlement-config", settlementHandler.UpsertConfig)
			ledgers.GET("/:id/settlement-config", settlementHandler.GetConfig)
		}

		// Settlement record lifecycle
		settlements := v1.Group("/settlements")
		{
			settlements.GET("/:id", settlementHandler.GetByID)
			settlements.POST("/:id/start", settlementHandler.Start)
			settlements.POST("/:id/complete", settlementHandler.Complete)
			settlements.POST("/:id/cancel", settlementHandler.Cancel)
		}

		// Expense intake
		expenses := v1.Group("/expenses")
		{
			expenses.POST("", expenseHandler.Submit)
			expenses.GET("/:id", expenseHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
