package settlement

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/debt"
	"github.com/splitledger/internal/domain/shared"
)

// balanceTolerance is the residual allowed per member, in minor units. One
// minor unit absorbs the rounding the split calculator may have introduced.
const balanceTolerance = 1

// Optimize computes a transfer plan that zeroes every member's net position
// using greedy largest-creditor/largest-debtor matching. The plan never
// exceeds creditors+debtors-1 transfers. Balances whose sum drifts more than
// one minor unit from zero cannot be settled and fail with a ValidationError
// carrying the imbalance.
func Optimize(ledgerID uuid.UUID, currency string, balances []debt.MemberBalance) (*Suggestion, error) {
	var imbalance int64
	for _, balance := range balances {
		imbalance += balance.NetAmount
	}
	if imbalance > balanceTolerance || imbalance < -balanceTolerance {
		return nil, shared.ValidationError{
			Field:    "balances",
			Expected: "net amounts summing to zero",
			Actual:   fmt.Sprintf("%d", imbalance),
			Message:  "member balances do not balance",
		}
	}

	creditors, debtors := partition(balances)

	suggestion := &Suggestion{
		LedgerID:    ledgerID,
		Currency:    currency,
		GeneratedAt: time.Now(),
	}

	// Largest creditor against largest debtor; each match extinguishes at
	// least one side, bounding the transfer count.
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		credit := creditors[i].NetAmount
		owed := -debtors[j].NetAmount
		amount := credit
		if owed < amount {
			amount = owed
		}

		suggestion.Transfers = append(suggestion.Transfers, Transfer{
			FromID: debtors[j].MemberID,
			ToID:   creditors[i].MemberID,
			Amount: amount,
		})
		suggestion.TotalAmount += amount

		creditors[i].NetAmount -= amount
		debtors[j].NetAmount += amount
		if creditors[i].NetAmount <= balanceTolerance {
			i++
		}
		if -debtors[j].NetAmount <= balanceTolerance {
			j++
		}
	}

	suggestion.Metrics = ComputeMetrics(len(creditors), len(debtors), len(suggestion.Transfers))
	return suggestion, nil
}

// partition splits balances into creditors (positive net, descending) and
// debtors (negative net, most indebted first). Copies are returned so the
// greedy loop can mutate them.
func partition(balances []debt.MemberBalance) (creditors, debtors []debt.MemberBalance) {
	for _, balance := range balances {
		switch {
		case balance.NetAmount > 0:
			creditors = append(creditors, balance)
		case balance.NetAmount < 0:
			debtors = append(debtors, balance)
		}
	}
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].NetAmount != creditors[j].NetAmount {
			return creditors[i].NetAmount > creditors[j].NetAmount
		}
		return creditors[i].MemberID.String() < creditors[j].MemberID.String()
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].NetAmount != debtors[j].NetAmount {
			return debtors[i].NetAmount < debtors[j].NetAmount
		}
		return debtors[i].MemberID.String() < debtors[j].MemberID.String()
	})
	return creditors, debtors
}

// ValidateTransfers checks that executing the transfers would zero every
// member's net position within one minor unit. The first offending member is
// reported with its residual.
func ValidateTransfers(balances []debt.MemberBalance, transfers []Transfer) error {
	residuals := make(map[uuid.UUID]int64, len(balances))
	order := make([]uuid.UUID, 0, len(balances))
	for _, balance := range balances {
		residuals[balance.MemberID] = balance.NetAmount
		order = append(order, balance.MemberID)
	}
	for _, transfer := range transfers {
		for _, memberID := range []uuid.UUID{transfer.FromID, transfer.ToID} {
			if _, ok := residuals[memberID]; !ok {
				residuals[memberID] = 0
				order = append(order, memberID)
			}
		}
		residuals[transfer.FromID] += transfer.Amount
		residuals[transfer.ToID] -= transfer.Amount
	}

	for _, memberID := range order {
		if residual := residuals[memberID]; residual > balanceTolerance || residual < -balanceTolerance {
			return shared.ValidationError{
				Field:    fmt.Sprintf("transfers[%s]", memberID),
				Expected: "zero residual",
				Actual:   fmt.Sprintf("%d", residual),
				Message:  "transfers do not settle member",
			}
		}
	}
	return nil
}
