package shared

import "time"

// RelationStatus defines debt relation lifecycle states
type RelationStatus string

const (
	RelationStatusActive  RelationStatus = "ACTIVE"
	RelationStatusSettled RelationStatus = "SETTLED"
)

// SettlementStatus defines settlement record lifecycle states
type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "PENDING"
	SettlementStatusInProgress SettlementStatus = "IN_PROGRESS"
	SettlementStatusCompleted  SettlementStatus = "COMPLETED"
	SettlementStatusCancelled  SettlementStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed from the status
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusCompleted || s == SettlementStatusCancelled
}

// SettlementCycle defines recurring auto-settlement periods
type SettlementCycle string

const (
	SettlementCycleWeekly    SettlementCycle = "WEEKLY"
	SettlementCycleMonthly   SettlementCycle = "MONTHLY"
	SettlementCycleQuarterly SettlementCycle = "QUARTERLY"
)

// ParseSettlementCycle converts a raw string into a SettlementCycle.
// Unrecognized values return ErrInvalidParameter rather than a silent default:
// a mis-classified settlement period is a financial correctness problem.
func ParseSettlementCycle(raw string) (SettlementCycle, error) {
	switch SettlementCycle(raw) {
	case SettlementCycleWeekly, SettlementCycleMonthly, SettlementCycleQuarterly:
		return SettlementCycle(raw), nil
	default:
		return "", ErrInvalidParameter{
			Field:  "cycle",
			Reason: "must be one of WEEKLY, MONTHLY, QUARTERLY, got " + raw,
		}
	}
}

// ExpenseStatus defines expense journal entry states
type ExpenseStatus string

const (
	ExpenseStatusApplied ExpenseStatus = "APPLIED"
	ExpenseStatusFailed  ExpenseStatus = "FAILED"
	ExpenseStatusSettled ExpenseStatus = "SETTLED"
)

// FailureReason defines expense processing failure categories
type FailureReason string

const (
	FailureReasonInvalidCurrency   FailureReason = "INVALID_CURRENCY"
	FailureReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	FailureReasonInvalidRule       FailureReason = "INVALID_RULE"
	FailureReasonInconsistentSplit FailureReason = "INCONSISTENT_SPLIT"
	FailureReasonUnknownError      FailureReason = "UNKNOWN_ERROR"
)

// AlertType classifies threshold alert notifications
type AlertType string

const (
	AlertTypeThresholdApproaching AlertType = "THRESHOLD_APPROACHING"
	AlertTypeThresholdReached     AlertType = "THRESHOLD_REACHED"
)

// ThresholdAlert is the payload published for the notification subsystem when
// a ledger's outstanding debt crosses a fraction of its settlement threshold.
type ThresholdAlert struct {
	LedgerID        string    `json:"ledger_id"`
	AlertType       AlertType `json:"alert_type"`
	UsagePercentage float64   `json:"usage_percentage"`
	Message         string    `json:"message"`
}

// SettlementDueNotice is published when a ledger's recurring settlement policy
// comes due with the threshold reached. It carries plan totals rather than the
// transfer list; members fetch the current suggestion when they act on it.
type SettlementDueNotice struct {
	LedgerID      string          `json:"ledger_id"`
	Cycle         SettlementCycle `json:"cycle"`
	Outstanding   int64           `json:"outstanding"`
	Currency      string          `json:"currency"`
	TransferCount int             `json:"transfer_count"`
	TotalAmount   int64           `json:"total_amount"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
