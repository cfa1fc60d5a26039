package pipeline

import (
	"woldo/internal"
)

// Resolve classifies one order's ranked candidates: none, a single automatic
// match, or an ambiguity left for the operator.
func Resolve(candidates []internal.Candidate) internal.MatchDecision {
	switch len(candidates) {
	case 0:
		return internal.MatchDecision{Kind: internal.DecisionNone, Candidates: []internal.Candidate{}}
	case 1:
		row := candidates[0].Row
		return internal.MatchDecision{Kind: internal.DecisionAuto, Row: &row, Candidates: candidates}
	default:
		return internal.MatchDecision{Kind: internal.DecisionPending, Candidates: candidates}
	}
}

type Ambiguity struct {
	OrderRow   int
	OptionInfo string
	Order      internal.OrderRecord
	Candidates []internal.Candidate
}

func (a Ambiguity) Labels() []string {
	out := make([]string, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		out = append(out, c.Label())
	}
	return out
}

// Proposal is the first phase of an order run. Auto and AutoOrders are keyed
// by order row index; Unmatched lists orders with no qualifying catalog row.
type Proposal struct {
	Orders     int
	Auto       map[int]internal.CatalogRow
	AutoOrders map[int]internal.OrderRecord
	AutoRows   []int
	Pending    []Ambiguity
	Unmatched  []int
}

func Propose(orders []internal.OrderRecord, rows []internal.CatalogRow) Proposal {
	matcher := NewMatcher(rows)
	p := Proposal{
		Orders:     len(orders),
		Auto:       map[int]internal.CatalogRow{},
		AutoOrders: map[int]internal.OrderRecord{},
	}

	for _, order := range orders {
		candidates := matcher.Candidates(order)
		decision := Resolve(candidates)
		switch decision.Kind {
		case internal.DecisionAuto:
			p.Auto[order.RowIndex] = *decision.Row
			p.AutoOrders[order.RowIndex] = order
			p.AutoRows = append(p.AutoRows, order.RowIndex)
		case internal.DecisionPending:
			p.Pending = append(p.Pending, Ambiguity{
				OrderRow:   order.RowIndex,
				OptionInfo: order.OptionInfo,
				Order:      order,
				Candidates: decision.Candidates,
			})
		default:
			p.Unmatched = append(p.Unmatched, order.RowIndex)
		}
	}

	return p
}
