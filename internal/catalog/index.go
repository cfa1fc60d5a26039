package catalog

import (
	"sort"

	"woldo/internal"
	"woldo/internal/util"
)

// Index holds pre-tokenized catalog rows and an inverted index from
// product-name keyword to row position.
type Index struct {
	Rows            []internal.CatalogRow
	ProductKeywords []util.KeywordSet
	OptionKeywords  []util.KeywordSet
	TokenToRows     map[string][]int
}

func BuildIndex(rows []internal.CatalogRow) *Index {
	idx := &Index{
		Rows:            rows,
		ProductKeywords: make([]util.KeywordSet, len(rows)),
		OptionKeywords:  make([]util.KeywordSet, len(rows)),
		TokenToRows:     map[string][]int{},
	}

	for pos, row := range rows {
		productSet := util.NewKeywordSet(util.ExtractKeywords(row.ProductName))
		idx.ProductKeywords[pos] = productSet
		idx.OptionKeywords[pos] = util.NewKeywordSet(util.ExtractKeywords(row.OptionName))
		for token := range productSet {
			idx.TokenToRows[token] = append(idx.TokenToRows[token], pos)
		}
	}

	return idx
}

// RowsSharing returns, in ascending order, the positions of rows whose
// product name contains at least one of keywords.
func (idx *Index) RowsSharing(keywords []string) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, k := range keywords {
		for _, pos := range idx.TokenToRows[k] {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			out = append(out, pos)
		}
	}
	sort.Ints(out)
	return out
}
