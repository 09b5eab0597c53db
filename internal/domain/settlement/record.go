package settlement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// Common errors
var (
	ErrEmptyTransferPlan = errors.New("settlement record requires at least one transfer")
)

// RecordType distinguishes how a settlement was initiated
type RecordType string

const (
	RecordTypeManual RecordType = "MANUAL"
	RecordTypeAuto   RecordType = "AUTO"
)

// ParseRecordType validates a raw record type string
func ParseRecordType(raw string) (RecordType, error) {
	switch RecordType(raw) {
	case RecordTypeManual, RecordTypeAuto:
		return RecordType(raw), nil
	default:
		return "", shared.ErrInvalidParameter{
			Field:  "type",
			Reason: "must be one of MANUAL, AUTO, got " + raw,
		}
	}
}

// Record tracks one settlement plan from suggestion through execution.
// Status moves Pending → InProgress → Completed or Cancelled; the transition
// methods are the only legal way to change it.
type Record struct {
	ID           uuid.UUID               `json:"id"`
	LedgerID     uuid.UUID               `json:"ledger_id"`
	Type         RecordType              `json:"type"`
	Status       shared.SettlementStatus `json:"status"`
	Transfers    []Transfer              `json:"transfers"`
	Participants []uuid.UUID             `json:"participants"`
	TotalAmount  int64                   `json:"total_amount"` // Stored in cents/minor units
	Currency     string                  `json:"currency"`
	InitiatedBy  uuid.UUID               `json:"initiated_by"`
	CompletedBy  *uuid.UUID              `json:"completed_by,omitempty"`
	CancelReason string                  `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
}

// NewRecordFromSuggestion creates a pending record from a settlement plan
func NewRecordFromSuggestion(suggestion *Suggestion, initiatedBy uuid.UUID, recordType RecordType) (*Record, error) {
	if len(suggestion.Transfers) == 0 {
		return nil, ErrEmptyTransferPlan
	}

	now := time.Now()
	return &Record{
		ID:           uuid.New(),
		LedgerID:     suggestion.LedgerID,
		Type:         recordType,
		Status:       shared.SettlementStatusPending,
		Transfers:    suggestion.Transfers,
		Participants: suggestion.Participants(),
		TotalAmount:  suggestion.TotalAmount,
		Currency:     suggestion.Currency,
		InitiatedBy:  initiatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// invalidTransition builds the error reported for an illegal status change
func (r *Record) invalidTransition(expected string) error {
	return shared.ValidationError{
		Field:    "status",
		Expected: expected,
		Actual:   string(r.Status),
		Message:  "illegal settlement status transition",
	}
}

// Start marks the record as being executed by its participants
func (r *Record) Start() error {
	if r.Status != shared.SettlementStatusPending {
		return r.invalidTransition(string(shared.SettlementStatusPending))
	}
	r.Status = shared.SettlementStatusInProgress
	r.UpdatedAt = time.Now()
	return nil
}

// Complete finalizes the record. Legal from Pending and InProgress; the caller
// settles the covered debt relations in the same transaction as this flip.
func (r *Record) Complete(completedBy uuid.UUID) error {
	if r.Status != shared.SettlementStatusPending && r.Status != shared.SettlementStatusInProgress {
		return r.invalidTransition(string(shared.SettlementStatusPending) + " or " + string(shared.SettlementStatusInProgress))
	}
	now := time.Now()
	r.Status = shared.SettlementStatusCompleted
	r.CompletedBy = &completedBy
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// Cancel abandons the record. Legal from any non-terminal state and never
// touches debt relations.
func (r *Record) Cancel(reason string) error {
	if r.Status.IsTerminal() {
		return r.invalidTransition(string(shared.SettlementStatusPending) + " or " + string(shared.SettlementStatusInProgress))
	}
	r.Status = shared.SettlementStatusCancelled
	r.CancelReason = reason
	r.UpdatedAt = time.Now()
	return nil
}
