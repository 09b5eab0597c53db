package handler

// SubmitExpenseRequest represents a request to submit a shared expense
type SubmitExpenseRequest struct {
	LedgerID     string             `json:"ledger_id" binding:"required,uuid"`
	PayerID      string             `json:"payer_id" binding:"required,uuid"`
	TotalAmount  int64              `json:"total_amount" binding:"required,gt=0"`
	Currency     string             `json:"currency" binding:"required,len=3"`
	RuleKind     string             `json:"rule_kind" binding:"required,oneof=EQUAL PERCENTAGE FIXED_AMOUNT WEIGHTED CUSTOM"`
	Percentages  map[string]float64 `json:"percentages,omitempty"`
	Amounts      map[string]int64   `json:"amounts,omitempty"`
	Weights      map[string]float64 `json:"weights,omitempty"`
	Shares       []CustomShareDTO   `json:"shares,omitempty"`
	Participants []string           `json:"participants" binding:"required,min=1,dive,uuid"`
	Description  string             `json:"description,omitempty"`
}

// CustomShareDTO represents one explicit allocation in a custom split
type CustomShareDTO struct {
	MemberID    string `json:"member_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description,omitempty"`
}

// ExpenseResponse represents a journal entry in API responses
type ExpenseResponse struct {
	ExpenseID     string               `json:"expense_id"`
	LedgerID      string               `json:"ledger_id"`
	PayerID       string               `json:"payer_id"`
	TotalAmount   int64                `json:"total_amount"`
	Currency      string               `json:"currency"`
	RuleKind      string               `json:"rule_kind"`
	Obligations   []ObligationResponse `json:"obligations,omitempty"`
	Description   string               `json:"description,omitempty"`
	Status        string               `json:"status"`
	FailureReason string               `json:"failure_reason,omitempty"`
	CreatedAt     string               `json:"created_at"`
	ProcessedAt   string               `json:"processed_at,omitempty"`
}

// ObligationResponse represents one derived debt in API responses
type ObligationResponse struct {
	CreditorID  string `json:"creditor_id"`
	DebtorID    string `json:"debtor_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// SettleDebtsRequest represents a request to settle specific relations
type SettleDebtsRequest struct {
	RelationIDs []string `json:"relation_ids" binding:"required,min=1,dive,uuid"`
	Notes       string   `json:"notes,omitempty"`
}

// CreateSettlementRequest represents a request to create a settlement record
type CreateSettlementRequest struct {
	InitiatedBy string `json:"initiated_by" binding:"required,uuid"`
	Type        string `json:"type" binding:"omitempty,oneof=MANUAL AUTO"`
}

// CompleteSettlementRequest represents a request to complete a settlement
type CompleteSettlementRequest struct {
	CompletedBy string `json:"completed_by" binding:"required,uuid"`
}

// CancelSettlementRequest represents a request to cancel a settlement
type CancelSettlementRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AutoSettleConfigRequest represents a request to set a ledger's settlement policy
type AutoSettleConfigRequest struct {
	Cycle     string `json:"cycle" binding:"required,oneof=WEEKLY MONTHLY QUARTERLY"`
	Threshold int64  `json:"threshold" binding:"required,gt=0"`
}

// SettlementResponse represents a settlement record in API responses
type SettlementResponse struct {
	ID           string             `json:"id"`
	LedgerID     string             `json:"ledger_id"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	Transfers    []TransferResponse `json:"transfers"`
	Participants []string           `json:"participants"`
	TotalAmount  int64              `json:"total_amount"`
	Currency     string             `json:"currency"`
	InitiatedBy  string             `json:"initiated_by"`
	CompletedBy  string             `json:"completed_by,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
	CreatedAt    string             `json:"created_at"`
	CompletedAt  string             `json:"completed_at,omitempty"`
}

// TransferResponse represents one suggested payment in API responses
type TransferResponse struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Amount int64  `json:"amount"`
}

// SuggestionResponse represents a settlement plan in API responses
type SuggestionResponse struct {
	LedgerID    string             `json:"ledger_id"`
	Transfers   []TransferResponse `json:"transfers"`
	TotalAmount int64              `json:"total_amount"`
	Currency    string             `json:"currency"`
	Metrics     *MetricsResponse   `json:"metrics,omitempty"`
	GeneratedAt string             `json:"generated_at"`
}

// MetricsResponse represents plan efficiency numbers in API responses
type MetricsResponse struct {
	DirectTransfers    int     `json:"direct_transfers"`
	OptimizedTransfers int     `json:"optimized_transfers"`
	ReductionRate      float64 `json:"reduction_rate"`
}

// AutoSettleConfigResponse represents a ledger's settlement policy in API responses
type AutoSettleConfigResponse struct {
	LedgerID  string `json:"ledger_id"`
	Cycle     string `json:"cycle"`
	Threshold int64  `json:"threshold"`
	Enabled   bool   `json:"enabled"`
	LastRunAt string `json:"last_run_at,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
