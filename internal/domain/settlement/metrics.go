package settlement

// EfficiencyMetrics compares the optimized plan against pairwise settlement,
// where every debtor would pay every creditor separately.
type EfficiencyMetrics struct {
	DirectTransfers    int     `json:"direct_transfers"`
	OptimizedTransfers int     `json:"optimized_transfers"`
	ReductionRate      float64 `json:"reduction_rate"` // Percentage saved
}

// ComputeMetrics derives the efficiency comparison for a plan
func ComputeMetrics(creditors, debtors, optimized int) *EfficiencyMetrics {
	metrics := &EfficiencyMetrics{
		DirectTransfers:    creditors * debtors,
		OptimizedTransfers: optimized,
	}
	if metrics.DirectTransfers > 0 {
		metrics.ReductionRate = float64(metrics.DirectTransfers-optimized) / float64(metrics.DirectTransfers) * 100.0
	}
	return metrics
}
