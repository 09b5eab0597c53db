package settlement

import (
	"sort"

	"github.com/google/uuid"
)

// CompressTransfers flattens multi-hop payment chains (A pays B, B pays C)
// into direct edges (A pays C) and cancels circular flow. It works on a flat
// index-addressed adjacency matrix over the members appearing in the plan,
// relaxing i→k→j triples Floyd–Warshall style until no chain remains. Net
// positions are preserved exactly; only the routing changes.
func CompressTransfers(transfers []Transfer) []Transfer {
	if len(transfers) < 2 {
		return transfers
	}

	index := make(map[uuid.UUID]int)
	var members []uuid.UUID
	memberIndex := func(id uuid.UUID) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(members)
		members = append(members, id)
		return index[id]
	}

	n := 0
	for _, transfer := range transfers {
		memberIndex(transfer.FromID)
		memberIndex(transfer.ToID)
	}
	n = len(members)

	flow := make([]int64, n*n)
	for _, transfer := range transfers {
		flow[memberIndex(transfer.FromID)*n+memberIndex(transfer.ToID)] += transfer.Amount
	}

	// Each relaxation moves min(i→k, k→j) off the chain onto the direct edge,
	// strictly shrinking total flow, so the loop terminates.
	for changed := true; changed; {
		changed = false
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				if i == k || flow[i*n+k] == 0 {
					continue
				}
				for j := 0; j < n; j++ {
					if j == k || flow[k*n+j] == 0 {
						continue
					}
					amount := flow[i*n+k]
					if flow[k*n+j] < amount {
						amount = flow[k*n+j]
					}
					flow[i*n+k] -= amount
					flow[k*n+j] -= amount
					if i != j {
						flow[i*n+j] += amount
					}
					changed = true
					if flow[i*n+k] == 0 {
						break
					}
				}
			}
		}
	}

	var compressed []Transfer
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if flow[i*n+j] > 0 {
				compressed = append(compressed, Transfer{FromID: members[i], ToID: members[j], Amount: flow[i*n+j]})
			}
		}
	}
	sort.Slice(compressed, func(a, b int) bool {
		if compressed[a].FromID != compressed[b].FromID {
			return compressed[a].FromID.String() < compressed[b].FromID.String()
		}
		return compressed[a].ToID.String() < compressed[b].ToID.String()
	})
	return compressed
}
