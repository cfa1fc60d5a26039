package pipeline

import (
	"sort"

	"github.com/cockroachdb/errors"

	"woldo/internal"
)

// Session carries the resolution state of one order run. It is created from
// a Proposal and never shared between runs. Every matched or pending order is
// kept as read at propose time, so finalizing never goes back to the file.
type Session struct {
	ID string

	orders   map[int]internal.OrderRecord
	auto     map[int]internal.CatalogRow
	autoRows []int

	pending     map[int]Ambiguity
	pendingRows []int
	selected    map[int]int
}

func NewSession(id string, p Proposal) *Session {
	s := &Session{
		ID:       id,
		orders:   map[int]internal.OrderRecord{},
		auto:     map[int]internal.CatalogRow{},
		pending:  map[int]Ambiguity{},
		selected: map[int]int{},
	}
	for _, row := range p.AutoRows {
		s.auto[row] = p.Auto[row]
		s.orders[row] = p.AutoOrders[row]
		s.autoRows = append(s.autoRows, row)
	}
	for _, a := range p.Pending {
		s.pending[a.OrderRow] = a
		s.orders[a.OrderRow] = a.Order
		s.pendingRows = append(s.pendingRows, a.OrderRow)
	}
	return s
}

// RestoreSession rebuilds a session from its persisted rows.
func RestoreSession(id string, rows []internal.SessionRow) *Session {
	s := NewSession(id, Proposal{})
	for _, r := range rows {
		s.orders[r.OrderRow] = r.Order
		switch r.Kind {
		case internal.DecisionAuto:
			if len(r.Candidates) == 0 {
				continue
			}
			s.auto[r.OrderRow] = r.Candidates[0].Row
			s.autoRows = append(s.autoRows, r.OrderRow)
		case internal.DecisionPending:
			s.pending[r.OrderRow] = Ambiguity{OrderRow: r.OrderRow, OptionInfo: r.OptionInfo, Order: r.Order, Candidates: r.Candidates}
			s.pendingRows = append(s.pendingRows, r.OrderRow)
			if r.Selected != nil && *r.Selected >= 0 && *r.Selected < len(r.Candidates) {
				s.selected[r.OrderRow] = *r.Selected
			}
		}
	}
	sort.Ints(s.autoRows)
	sort.Ints(s.pendingRows)
	return s
}

// Select records the operator's choice (0-based, in ranked order) for a
// pending order row. A later selection for the same row replaces it.
func (s *Session) Select(orderRow, choice int) error {
	a, ok := s.pending[orderRow]
	if !ok {
		return errors.Wrapf(internal.ErrUnknownSelection, "order row %d is not pending", orderRow)
	}
	if choice < 0 || choice >= len(a.Candidates) {
		return errors.WithHintf(
			errors.Wrapf(internal.ErrUnknownSelection, "order row %d has no candidate %d", orderRow, choice+1),
			"choose between 1 and %d", len(a.Candidates),
		)
	}
	s.selected[orderRow] = choice
	return nil
}

// SelectLabel selects the first candidate whose label equals label.
func (s *Session) SelectLabel(orderRow int, label string) error {
	a, ok := s.pending[orderRow]
	if !ok {
		return errors.Wrapf(internal.ErrUnknownSelection, "order row %d is not pending", orderRow)
	}
	for i, l := range a.Labels() {
		if l == label {
			s.selected[orderRow] = i
			return nil
		}
	}
	return errors.Wrapf(internal.ErrUnknownSelection, "order row %d has no candidate %q", orderRow, label)
}

func (s *Session) Pending() []Ambiguity {
	out := make([]Ambiguity, 0, len(s.pendingRows))
	for _, row := range s.pendingRows {
		out = append(out, s.pending[row])
	}
	return out
}

func (s *Session) Selection(orderRow int) (int, bool) {
	choice, ok := s.selected[orderRow]
	return choice, ok
}

// Unresolved lists pending order rows without a selection.
func (s *Session) Unresolved() []int {
	out := []int{}
	for _, row := range s.pendingRows {
		if _, ok := s.selected[row]; !ok {
			out = append(out, row)
		}
	}
	return out
}

// Resolved merges automatic matches and operator selections.
func (s *Session) Resolved() map[int]internal.CatalogRow {
	out := make(map[int]internal.CatalogRow, len(s.auto)+len(s.selected))
	for row, match := range s.auto {
		out[row] = match
	}
	for row, choice := range s.selected {
		out[row] = s.pending[row].Candidates[choice].Row
	}
	return out
}

// Finalize builds the output rows in order-row order from the orders bound
// at propose time. In strict mode every pending row must have a selection;
// otherwise unresolved rows are left out.
func (s *Session) Finalize(sender internal.Sender, strict bool) ([]internal.OutputRecord, error) {
	if unresolved := s.Unresolved(); strict && len(unresolved) > 0 {
		return nil, errors.WithDetailf(
			errors.Wrapf(internal.ErrPendingUnresolved, "%d order rows need a selection", len(unresolved)),
			"order rows: %v", unresolved,
		)
	}

	resolved := s.Resolved()
	rows := make([]int, 0, len(resolved))
	for row := range resolved {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	out := make([]internal.OutputRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, BuildOutputRecord(s.orders[row], resolved[row], sender))
	}
	return out, nil
}

// Rows converts the session to its persisted form.
func (s *Session) Rows() []internal.SessionRow {
	out := make([]internal.SessionRow, 0, len(s.autoRows)+len(s.pendingRows))
	for _, row := range s.autoRows {
		match := s.auto[row]
		order := s.orders[row]
		out = append(out, internal.SessionRow{
			OrderRow:   row,
			Order:      order,
			OptionInfo: order.OptionInfo,
			Kind:       internal.DecisionAuto,
			Candidates: []internal.Candidate{{RowIndex: match.RowIndex, Row: match}},
		})
	}
	for _, row := range s.pendingRows {
		a := s.pending[row]
		r := internal.SessionRow{OrderRow: row, Order: a.Order, Kind: internal.DecisionPending, OptionInfo: a.OptionInfo, Candidates: a.Candidates}
		if choice, ok := s.selected[row]; ok {
			c := choice
			r.Selected = &c
		}
		out = append(out, r)
	}
	return out
}
