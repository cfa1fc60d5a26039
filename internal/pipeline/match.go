package pipeline

import (
	"sort"

	"woldo/internal"
	"woldo/internal/catalog"
	"woldo/internal/util"
)

type Matcher struct {
	index *catalog.Index
}

func NewMatcher(rows []internal.CatalogRow) *Matcher {
	return &Matcher{index: catalog.BuildIndex(rows)}
}

// Candidates scores every catalog row against the order. A row qualifies only
// when both its product name and its option name share a keyword with the
// order; the result is ranked by score, ties in catalog order.
func (m *Matcher) Candidates(order internal.OrderRecord) []internal.Candidate {
	return m.rankCandidates(NormalizeOrder(order))
}

func (m *Matcher) rankCandidates(order NormalizedOrder) []internal.Candidate {
	out := []internal.Candidate{}
	if len(order.OptionKeywords) == 0 {
		return out
	}

	// Rows outside the product-keyword postings have zero product matches.
	for _, pos := range m.index.RowsSharing(order.ProductKeywords) {
		productMatches := util.CountIn(order.ProductKeywords, m.index.ProductKeywords[pos])
		optionMatches := util.CountIn(order.OptionKeywords, m.index.OptionKeywords[pos])
		if productMatches == 0 || optionMatches == 0 {
			continue
		}
		row := m.index.Rows[pos]
		out = append(out, internal.Candidate{
			Score:          productMatches + optionMatches,
			RowIndex:       row.RowIndex,
			ProductMatches: productMatches,
			OptionMatches:  optionMatches,
			Row:            row,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].RowIndex < out[j].RowIndex
	})
	return out
}
