// Package debt models directional debt relations between ledger members and
// the netting arithmetic over them. Relations are stored gross (both A→B and
// B→A may be active at once); every read path nets them algebraically.
package debt

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount    = errors.New("debt amount must be positive")
	ErrSelfDebt         = errors.New("creditor and debtor cannot be the same member")
	ErrCurrencyMismatch = errors.New("relations in one ledger must share a currency")
)

// Relation represents one directional debt: debtor owes creditor.
type Relation struct {
	ID         uuid.UUID             `json:"id"`
	LedgerID   uuid.UUID             `json:"ledger_id"`
	CreditorID uuid.UUID             `json:"creditor_id"`
	DebtorID   uuid.UUID             `json:"debtor_id"`
	Amount     int64                 `json:"amount"` // Stored in cents/minor units
	Currency   string                `json:"currency"`
	Status     shared.RelationStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewRelation creates an active debt relation with the given parameters
func NewRelation(ledgerID, creditorID, debtorID uuid.UUID, amount int64, currency string) (*Relation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if creditorID == debtorID {
		return nil, ErrSelfDebt
	}
	if len(currency) != 3 {
		return nil, shared.ErrInvalidCurrencyFormat
	}

	return &Relation{
		ID:         uuid.New(),
		LedgerID:   ledgerID,
		CreditorID: creditorID,
		DebtorID:   debtorID,
		Amount:     amount,
		Currency:   currency,
		Status:     shared.RelationStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}, nil
}

// MemberBalance is one member's net position across a set of relations.
// Positive means the ledger owes the member, negative means the member owes.
type MemberBalance struct {
	MemberID  uuid.UUID `json:"member_id"`
	NetAmount int64     `json:"net_amount"` // Stored in cents/minor units
}

// PairBalance is the net debt between two members after opposite directions
// cancel. Amount is always positive and runs debtor → creditor.
type PairBalance struct {
	CreditorID uuid.UUID `json:"creditor_id"`
	DebtorID   uuid.UUID `json:"debtor_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
}

// Summary is the read model for one ledger's outstanding debt
type Summary struct {
	LedgerID         uuid.UUID       `json:"ledger_id"`
	Pairs            []PairBalance   `json:"pairs"`
	Balances         []MemberBalance `json:"balances"`
	TotalOutstanding int64           `json:"total_outstanding"`
}

// NetBalances folds gross relations into per-member net positions. The result
// is sorted by net amount descending, ties broken by member ID, so callers
// iterate in a deterministic order. Members whose position nets to zero are
// omitted. The sum of all returned amounts is always zero.
func NetBalances(relations []*Relation) []MemberBalance {
	nets := make(map[uuid.UUID]int64)
	for _, rel := range relations {
		nets[rel.CreditorID] += rel.Amount
		nets[rel.DebtorID] -= rel.Amount
	}

	balances := make([]MemberBalance, 0, len(nets))
	for memberID, net := range nets {
		if net == 0 {
			continue
		}
		balances = append(balances, MemberBalance{MemberID: memberID, NetAmount: net})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].NetAmount != balances[j].NetAmount {
			return balances[i].NetAmount > balances[j].NetAmount
		}
		return balances[i].MemberID.String() < balances[j].MemberID.String()
	})
	return balances
}

// NetPairs collapses opposite-direction relations between the same two members
// into a single directional balance. Pairs that cancel exactly are omitted.
// The result is sorted by creditor then debtor ID.
func NetPairs(relations []*Relation) []PairBalance {
	type pairKey struct {
		a, b uuid.UUID
	}
	// Canonical key orders the two IDs; sign tracks which direction a→b means.
	amounts := make(map[pairKey]int64)
	currencies := make(map[pairKey]string)
	for _, rel := range relations {
		key := pairKey{a: rel.CreditorID, b: rel.DebtorID}
		sign := int64(1)
		if key.b.String() < key.a.String() {
			key.a, key.b = key.b, key.a
			sign = -1
		}
		amounts[key] += sign * rel.Amount
		currencies[key] = rel.Currency
	}

	pairs := make([]PairBalance, 0, len(amounts))
	for key, net := range amounts {
		if net == 0 {
			continue
		}
		pair := PairBalance{CreditorID: key.a, DebtorID: key.b, Amount: net, Currency: currencies[key]}
		if net < 0 {
			pair.CreditorID, pair.DebtorID = key.b, key.a
			pair.Amount = -net
		}
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].CreditorID != pairs[j].CreditorID {
			return pairs[i].CreditorID.String() < pairs[j].CreditorID.String()
		}
		return pairs[i].DebtorID.String() < pairs[j].DebtorID.String()
	})
	return pairs
}

// TotalOutstanding is the sum of positive net member positions, i.e. the
// amount of money that would change hands if every member settled to zero.
func TotalOutstanding(relations []*Relation) int64 {
	var total int64
	for _, balance := range NetBalances(relations) {
		if balance.NetAmount > 0 {
			total += balance.NetAmount
		}
	}
	return total
}

// BuildSummary assembles the full read model for one ledger
func BuildSummary(ledgerID uuid.UUID, relations []*Relation) *Summary {
	return &Summary{
		LedgerID:         ledgerID,
		Pairs:            NetPairs(relations),
		Balances:         NetBalances(relations),
		TotalOutstanding: TotalOutstanding(relations),
	}
}
