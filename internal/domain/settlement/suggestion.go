// Package settlement contains the settlement optimizer, which turns net member
// balances into a minimal transfer plan, and the settlement record lifecycle
// that tracks a plan from suggestion to completion.
package settlement

import (
	"time"

	"github.com/google/uuid"
)

// Transfer is one suggested payment: FromID pays ToID.
type Transfer struct {
	FromID uuid.UUID `json:"from_id"`
	ToID   uuid.UUID `json:"to_id"`
	Amount int64     `json:"amount"` // Stored in cents/minor units
}

// Suggestion is a complete settlement plan for a ledger. It is never persisted
// on its own; a record is created from it only when a member acts on it.
type Suggestion struct {
	LedgerID    uuid.UUID          `json:"ledger_id"`
	Transfers   []Transfer         `json:"transfers"`
	TotalAmount int64              `json:"total_amount"`
	Currency    string             `json:"currency"`
	Metrics     *EfficiencyMetrics `json:"metrics,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Participants returns the distinct members appearing in the plan
func (s *Suggestion) Participants() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var members []uuid.UUID
	for _, transfer := range s.Transfers {
		if _, ok := seen[transfer.FromID]; !ok {
			seen[transfer.FromID] = struct{}{}
			members = append(members, transfer.FromID)
		}
		if _, ok := seen[transfer.ToID]; !ok {
			seen[transfer.ToID] = struct{}{}
			members = append(members, transfer.ToID)
		}
	}
	return members
}
