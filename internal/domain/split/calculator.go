package split

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// sumTolerance is how far a configured sum may drift from its target before a
// validation issue is reported, in minor units (0.01 of a currency unit).
const sumTolerance = 1

// percentageTolerance is the allowed drift of a percentage sum from 100.
const percentageTolerance = 0.01

// Request describes one shared expense to be divided
type Request struct {
	TotalAmount  int64 // Stored in cents/minor units
	Currency     string
	PayerID      uuid.UUID
	Participants []uuid.UUID // Payer may or may not be included
	Rule         Rule
	Description  string
}

// Obligation is one directed payer←ower debt derived from a split
type Obligation struct {
	PayerID     uuid.UUID
	OwerID      uuid.UUID
	Amount      int64 // Stored in cents/minor units, always > 0
	RuleKind    shared.RuleKind
	Description string
}

// Result carries the computed obligations together with any soft validation
// issues. Issues do not abort the calculation; the caller decides whether a
// result with issues is acceptable.
type Result struct {
	TotalAmount      int64
	Obligations      []Obligation
	ValidationIssues []shared.ValidationError
}

// HasIssues reports whether any soft validation issue was recorded
func (r *Result) HasIssues() bool {
	return len(r.ValidationIssues) > 0
}

// Calculate divides the requested total into per-member obligations according
// to the rule. Obligations exclude the payer; the payer's own share is implicit.
// Structural impossibilities (no participants, non-positive total, unknown rule)
// are hard errors; per-participant configuration gaps and sum mismatches are
// accumulated as validation issues on the result instead.
func Calculate(req Request) (*Result, error) {
	if req.TotalAmount <= 0 {
		return nil, shared.ErrInvalidParameter{Field: "total_amount", Reason: fmt.Sprintf("must be positive, got %d", req.TotalAmount)}
	}
	if len(req.Participants) == 0 {
		return nil, shared.ErrInvalidParameter{Field: "participants", Reason: "participant list cannot be empty"}
	}

	result := &Result{TotalAmount: req.TotalAmount}

	switch req.Rule.kind {
	case shared.RuleKindEqual:
		calculateEqual(req, result)
	case shared.RuleKindPercentage:
		calculatePercentage(req, result)
	case shared.RuleKindFixedAmount:
		calculateFixedAmount(req, result)
	case shared.RuleKindWeighted:
		if err := calculateWeighted(req, result); err != nil {
			return nil, err
		}
	case shared.RuleKindCustom:
		calculateCustom(req, result)
	default:
		return nil, ErrUnknownRuleKind{Kind: req.Rule.kind}
	}

	return result, nil
}

// calculateEqual splits the total evenly. The integer residual left by the
// division is handed out one minor unit at a time, in participant list order,
// to members other than the payer, so the obligation sum plus the payer's
// implicit share always reproduces the total exactly.
func calculateEqual(req Request, result *Result) {
	n := int64(len(req.Participants))
	base := req.TotalAmount / n
	residual := req.TotalAmount - base*n

	for _, memberID := range req.Participants {
		if memberID == req.PayerID {
			continue
		}
		amount := base
		if residual > 0 {
			amount++
			residual--
		}
		result.Obligations = appendObligation(result.Obligations, req, memberID, amount, req.Description)
	}
}

// calculatePercentage allocates round(total×pct/100) per member. The
// percentage sum is checked against 100 after allocation; a mismatch is a
// soft issue because partial results are still useful for correction flows.
func calculatePercentage(req Request, result *Result) {
	var pctSum float64
	for _, memberID := range req.Participants {
		pct, ok := req.Rule.percentages[memberID]
		if !ok {
			result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
				Field:    fmt.Sprintf("percentages[%s]", memberID),
				Expected: "percentage for participant",
				Actual:   "missing",
				Message:  "participant has no percentage configured",
			})
			continue
		}
		pctSum += pct
		if memberID == req.PayerID {
			continue
		}
		amount := int64(math.Round(float64(req.TotalAmount) * pct / 100.0))
		result.Obligations = appendObligation(result.Obligations, req, memberID, amount, req.Description)
	}

	if math.Abs(pctSum-100.0) > percentageTolerance {
		result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
			Field:    "percentages",
			Expected: "100",
			Actual:   fmt.Sprintf("%g", pctSum),
			Message:  "percentages do not sum to 100",
		})
	}
}

// calculateFixedAmount uses explicit per-member amounts and checks their sum
// against the expense total.
func calculateFixedAmount(req Request, result *Result) {
	var amountSum int64
	for _, memberID := range req.Participants {
		amount, ok := req.Rule.amounts[memberID]
		if !ok {
			result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
				Field:    fmt.Sprintf("amounts[%s]", memberID),
				Expected: "amount for participant",
				Actual:   "missing",
				Message:  "participant has no amount configured",
			})
			continue
		}
		amountSum += amount
		if memberID == req.PayerID {
			continue
		}
		result.Obligations = appendObligation(result.Obligations, req, memberID, amount, req.Description)
	}

	if diff := amountSum - req.TotalAmount; diff > sumTolerance || diff < -sumTolerance {
		result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
			Field:    "amounts",
			Expected: fmt.Sprintf("%d", req.TotalAmount),
			Actual:   fmt.Sprintf("%d", amountSum),
			Message:  "fixed amounts do not sum to the expense total",
		})
	}
}

// calculateWeighted allocates round(total×weight/Σweights) per member. A
// non-positive weight sum over the actual participants makes the allocation
// impossible and is a hard error, unlike the soft sum checks elsewhere.
func calculateWeighted(req Request, result *Result) error {
	var weightSum float64
	for _, memberID := range req.Participants {
		if w, ok := req.Rule.weights[memberID]; ok {
			weightSum += w
		}
	}
	if weightSum <= 0 {
		return shared.ErrInvalidParameter{
			Field:  "weights",
			Reason: fmt.Sprintf("weight sum over participants must be positive, got %g", weightSum),
		}
	}

	for _, memberID := range req.Participants {
		weight, ok := req.Rule.weights[memberID]
		if !ok {
			result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
				Field:    fmt.Sprintf("weights[%s]", memberID),
				Expected: "weight for participant",
				Actual:   "missing",
				Message:  "participant has no weight configured",
			})
			continue
		}
		if weight <= 0 {
			result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
				Field:    fmt.Sprintf("weights[%s]", memberID),
				Expected: "positive weight",
				Actual:   fmt.Sprintf("%g", weight),
				Message:  "participant weight must be positive",
			})
			continue
		}
		if memberID == req.PayerID {
			continue
		}
		amount := int64(math.Round(float64(req.TotalAmount) * weight / weightSum))
		result.Obligations = appendObligation(result.Obligations, req, memberID, amount, req.Description)
	}

	return nil
}

// calculateCustom uses the caller-supplied share list verbatim, checking the
// share sum against the expense total.
func calculateCustom(req Request, result *Result) {
	var shareSum int64
	for _, share := range req.Rule.shares {
		shareSum += share.Amount
		if share.Amount <= 0 {
			result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
				Field:    fmt.Sprintf("shares[%s]", share.MemberID),
				Expected: "positive amount",
				Actual:   fmt.Sprintf("%d", share.Amount),
				Message:  "custom share amount must be positive",
			})
			continue
		}
		if share.MemberID == req.PayerID {
			continue
		}
		description := share.Description
		if description == "" {
			description = req.Description
		}
		result.Obligations = appendObligation(result.Obligations, req, share.MemberID, share.Amount, description)
	}

	if diff := shareSum - req.TotalAmount; diff > sumTolerance || diff < -sumTolerance {
		result.ValidationIssues = append(result.ValidationIssues, shared.ValidationError{
			Field:    "shares",
			Expected: fmt.Sprintf("%d", req.TotalAmount),
			Actual:   fmt.Sprintf("%d", shareSum),
			Message:  "custom shares do not sum to the expense total",
		})
	}
}

// appendObligation adds one obligation, dropping zero allocations since an
// obligation of nothing is meaningless in the debt graph.
func appendObligation(obligations []Obligation, req Request, owerID uuid.UUID, amount int64, description string) []Obligation {
	if amount <= 0 {
		return obligations
	}
	return append(obligations, Obligation{
		PayerID:     req.PayerID,
		OwerID:      owerID,
		Amount:      amount,
		RuleKind:    req.Rule.kind,
		Description: description,
	})
}
