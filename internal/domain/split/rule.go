// Package split implements the pure split allocation logic that turns one
// shared expense into per-member obligations under a chosen splitting rule.
// It performs no I/O and is safe to call concurrently.
package split

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/splitledger/internal/domain/shared"
)

// ErrUnknownRuleKind indicates an unrecognized split rule variant
type ErrUnknownRuleKind struct {
	Kind shared.RuleKind
}

func (e ErrUnknownRuleKind) Error() string {
	return fmt.Sprintf("unknown split rule kind: %q", string(e.Kind))
}

// Rule is a validated split rule. Construct one through the New*Rule
// constructors or FromConfig; the zero value is not usable.
type Rule struct {
	kind        shared.RuleKind
	percentages map[uuid.UUID]float64
	amounts     map[uuid.UUID]int64
	weights     map[uuid.UUID]float64
	shares      []shared.CustomShare
}

// Kind returns the rule variant
func (r Rule) Kind() shared.RuleKind {
	return r.kind
}

// NewEqualRule creates a rule splitting the total evenly across participants
func NewEqualRule() Rule {
	return Rule{kind: shared.RuleKindEqual}
}

// NewPercentageRule creates a rule allocating a percentage of the total per member
func NewPercentageRule(percentages map[uuid.UUID]float64) (Rule, error) {
	if len(percentages) == 0 {
		return Rule{}, shared.ErrInvalidParameter{Field: "percentages", Reason: "at least one percentage is required"}
	}
	return Rule{kind: shared.RuleKindPercentage, percentages: percentages}, nil
}

// NewFixedAmountRule creates a rule with an explicit amount per member
func NewFixedAmountRule(amounts map[uuid.UUID]int64) (Rule, error) {
	if len(amounts) == 0 {
		return Rule{}, shared.ErrInvalidParameter{Field: "amounts", Reason: "at least one amount is required"}
	}
	return Rule{kind: shared.RuleKindFixedAmount, amounts: amounts}, nil
}

// NewWeightedRule creates a rule allocating the total proportionally to member weights.
// A non-positive weight sum makes the allocation impossible, so it is rejected here.
func NewWeightedRule(weights map[uuid.UUID]float64) (Rule, error) {
	if len(weights) == 0 {
		return Rule{}, shared.ErrInvalidParameter{Field: "weights", Reason: "at least one weight is required"}
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return Rule{}, shared.ErrInvalidParameter{Field: "weights", Reason: fmt.Sprintf("weight sum must be positive, got %g", sum)}
	}
	return Rule{kind: shared.RuleKindWeighted, weights: weights}, nil
}

// NewCustomRule creates a rule from explicit per-member allocations
func NewCustomRule(shares []shared.CustomShare) (Rule, error) {
	if len(shares) == 0 {
		return Rule{}, shared.ErrInvalidParameter{Field: "shares", Reason: "at least one share is required"}
	}
	return Rule{kind: shared.RuleKindCustom, shares: shares}, nil
}

// FromConfig converts the wire-level rule configuration into a validated Rule,
// catching malformed configs before any calculation runs.
func FromConfig(cfg shared.SplitRuleConfig) (Rule, error) {
	switch cfg.Kind {
	case shared.RuleKindEqual:
		return NewEqualRule(), nil
	case shared.RuleKindPercentage:
		return NewPercentageRule(cfg.Percentages)
	case shared.RuleKindFixedAmount:
		return NewFixedAmountRule(cfg.Amounts)
	case shared.RuleKindWeighted:
		return NewWeightedRule(cfg.Weights)
	case shared.RuleKindCustom:
		return NewCustomRule(cfg.Shares)
	default:
		return Rule{}, ErrUnknownRuleKind{Kind: cfg.Kind}
	}
}
