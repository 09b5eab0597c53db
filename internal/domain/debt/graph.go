package debt

import (
	"sort"

	"github.com/google/uuid"
)

// MemberSummary is one member's position in a ledger, split into gross credit
// and gross debt over the active relations, plus the net of the two.
type MemberSummary struct {
	MemberID          uuid.UUID `json:"member_id"`
	TotalCredit       int64     `json:"total_credit"`
	TotalDebt         int64     `json:"total_debt"`
	NetBalance        int64     `json:"net_balance"`
	ActiveCreditCount int       `json:"active_credit_count"`
	ActiveDebtCount   int       `json:"active_debt_count"`
}

// BuildMemberSummary folds the relations a member participates in into their
// position. Relations not involving the member are ignored, so callers may
// pass either a pre-filtered set or the whole ledger.
func BuildMemberSummary(memberID uuid.UUID, relations []*Relation) *MemberSummary {
	summary := &MemberSummary{MemberID: memberID}
	for _, rel := range relations {
		switch memberID {
		case rel.CreditorID:
			summary.TotalCredit += rel.Amount
			summary.ActiveCreditCount++
		case rel.DebtorID:
			summary.TotalDebt += rel.Amount
			summary.ActiveDebtCount++
		}
	}
	summary.NetBalance = summary.TotalCredit - summary.TotalDebt
	return summary
}

// GraphNode is a member vertex carrying its net position
type GraphNode struct {
	MemberID  uuid.UUID `json:"member_id"`
	NetAmount int64     `json:"net_amount"`
}

// GraphEdge is one directed gross debt edge
type GraphEdge struct {
	CreditorID uuid.UUID `json:"creditor_id"`
	DebtorID   uuid.UUID `json:"debtor_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
}

// Graph is the who-owes-whom view of a ledger: every member as a node with
// its net position, and every active relation as a directed edge.
type Graph struct {
	LedgerID uuid.UUID   `json:"ledger_id"`
	Nodes    []GraphNode `json:"nodes"`
	Edges    []GraphEdge `json:"edges"`
}

// BuildGraph assembles the debt graph from a ledger's active relations.
// Unlike NetBalances, members whose position nets to zero still appear as
// nodes as long as they sit on an edge.
func BuildGraph(ledgerID uuid.UUID, relations []*Relation) *Graph {
	graph := &Graph{LedgerID: ledgerID}

	nets := make(map[uuid.UUID]int64)
	for _, rel := range relations {
		nets[rel.CreditorID] += rel.Amount
		nets[rel.DebtorID] -= rel.Amount
		graph.Edges = append(graph.Edges, GraphEdge{
			CreditorID: rel.CreditorID,
			DebtorID:   rel.DebtorID,
			Amount:     rel.Amount,
			Currency:   rel.Currency,
		})
	}

	for memberID, net := range nets {
		graph.Nodes = append(graph.Nodes, GraphNode{MemberID: memberID, NetAmount: net})
	}
	sort.Slice(graph.Nodes, func(i, j int) bool {
		return graph.Nodes[i].MemberID.String() < graph.Nodes[j].MemberID.String()
	})

	return graph
}
