package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrNonPositiveAmount     = errors.New("amount must be positive")
	ErrNoParticipants        = errors.New("participant list cannot be empty")
)

// RuleKind identifies a split rule variant
type RuleKind string

const (
	RuleKindEqual       RuleKind = "EQUAL"
	RuleKindPercentage  RuleKind = "PERCENTAGE"
	RuleKindFixedAmount RuleKind = "FIXED_AMOUNT"
	RuleKindWeighted    RuleKind = "WEIGHTED"
	RuleKindCustom      RuleKind = "CUSTOM"
)

// CustomShare is one explicit allocation within a custom split rule
type CustomShare struct {
	MemberID    uuid.UUID `json:"member_id"`
	Amount      int64     `json:"amount"` // Stored in cents/minor units
	Description string    `json:"description,omitempty"`
}

// SplitRuleConfig is the wire shape of a split rule inside an expense entry
// message. Only the field matching Kind is populated; the split package
// converts it into a validated rule before any calculation runs.
type SplitRuleConfig struct {
	Kind        RuleKind              `json:"kind"`
	Percentages map[uuid.UUID]float64 `json:"percentages,omitempty"`
	Amounts     map[uuid.UUID]int64   `json:"amounts,omitempty"`
	Weights     map[uuid.UUID]float64 `json:"weights,omitempty"`
	Shares      []CustomShare         `json:"shares,omitempty"`
}

// ExpenseEntry defines a Kafka message carrying one shared expense from the
// expense-entry subsystem into the processor.
type ExpenseEntry struct {
	ExpenseID     uuid.UUID       `json:"expense_id"`
	LedgerID      uuid.UUID       `json:"ledger_id"`
	PayerID       uuid.UUID       `json:"payer_id"`
	TotalAmount   int64           `json:"total_amount"` // Stored in cents/minor units
	Currency      string          `json:"currency"`
	Rule          SplitRuleConfig `json:"rule"`
	Participants  []uuid.UUID     `json:"participants"`
	Description   string          `json:"description,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Validate checks the structural invariants of the message before any split
// calculation is attempted.
func (e *ExpenseEntry) Validate() error {
	if len(e.Currency) != 3 {
		return ErrInvalidCurrencyFormat
	}
	if e.TotalAmount <= 0 {
		return ErrNonPositiveAmount
	}
	if len(e.Participants) == 0 {
		return ErrNoParticipants
	}
	return nil
}
