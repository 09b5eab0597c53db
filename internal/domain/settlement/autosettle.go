package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// AutoSettleConfig is a ledger's recurring settlement policy: once per cycle,
// if the outstanding total has reached the threshold, a settlement suggestion
// is generated for the ledger's members.
type AutoSettleConfig struct {
	LedgerID  uuid.UUID              `json:"ledger_id"`
	Cycle     shared.SettlementCycle `json:"cycle"`
	Threshold int64                  `json:"threshold"` // Stored in cents/minor units
	Enabled   bool                   `json:"enabled"`
	LastRunAt *time.Time             `json:"last_run_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewAutoSettleConfig creates an enabled policy for a ledger
func NewAutoSettleConfig(ledgerID uuid.UUID, cycle shared.SettlementCycle, threshold int64) (*AutoSettleConfig, error) {
	if threshold <= 0 {
		return nil, shared.ErrInvalidParameter{Field: "threshold", Reason: "must be positive"}
	}
	now := time.Now()
	return &AutoSettleConfig{
		LedgerID:  ledgerID,
		Cycle:     cycle,
		Threshold: threshold,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PeriodBounds returns the start (inclusive) and end (exclusive) of the cycle
// period containing ref. Weeks start on Monday; quarters on Jan/Apr/Jul/Oct 1.
func PeriodBounds(cycle shared.SettlementCycle, ref time.Time) (time.Time, time.Time) {
	year, month, day := ref.Date()
	loc := ref.Location()

	switch cycle {
	case shared.SettlementCycleWeekly:
		weekday := int(ref.Weekday())
		if weekday == 0 { // Sunday belongs to the week that started the previous Monday
			weekday = 7
		}
		start := time.Date(year, month, day-(weekday-1), 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7)
	case shared.SettlementCycleQuarterly:
		quarterStart := time.Month(((int(month)-1)/3)*3 + 1)
		start := time.Date(year, quarterStart, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, 0)
	default: // Monthly
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}

// Due reports whether the policy should run at ref: it is enabled and has not
// run yet inside the current cycle period.
func (c *AutoSettleConfig) Due(ref time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.LastRunAt == nil {
		return true
	}
	start, _ := PeriodBounds(c.Cycle, ref)
	return c.LastRunAt.Before(start)
}

// ThresholdReached reports whether an outstanding total warrants settlement
func (c *AutoSettleConfig) ThresholdReached(outstanding int64) bool {
	return outstanding >= c.Threshold
}

// UsagePercentage is the outstanding total as a fraction of the threshold,
// used for the approaching/reached alert classification.
func (c *AutoSettleConfig) UsagePercentage(outstanding int64) float64 {
	if c.Threshold <= 0 {
		return 0
	}
	return float64(outstanding) / float64(c.Threshold) * 100.0
}
