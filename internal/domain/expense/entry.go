// Package expense models the append-only expense journal. Every processed
// expense is recorded here with its derived obligations; the journal is the
// source for full ledger recalculation and the audit trail of where each debt
// came from.
package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// Obligation is one derived payer←ower debt stored alongside its expense
type Obligation struct {
	CreditorID  uuid.UUID `json:"creditor_id" bson:"creditor_id"`
	DebtorID    uuid.UUID `json:"debtor_id" bson:"debtor_id"`
	Amount      int64     `json:"amount" bson:"amount"` // Stored in cents/minor units
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
}

// JournalEntry records one processed expense and the obligations it produced
type JournalEntry struct {
	ExpenseID     uuid.UUID            `json:"expense_id" bson:"expense_id"`
	LedgerID      uuid.UUID            `json:"ledger_id" bson:"ledger_id"`
	PayerID       uuid.UUID            `json:"payer_id" bson:"payer_id"`
	TotalAmount   int64                `json:"total_amount" bson:"total_amount"` // Stored in cents/minor units
	Currency      string               `json:"currency" bson:"currency"`
	RuleKind      shared.RuleKind      `json:"rule_kind" bson:"rule_kind"`
	Obligations   []Obligation         `json:"obligations" bson:"obligations"`
	Description   string               `json:"description,omitempty" bson:"description,omitempty"`
	CorrelationID string               `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Status        shared.ExpenseStatus `json:"status" bson:"status"`
	FailureReason string               `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}
