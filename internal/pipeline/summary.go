package pipeline

import (
	"github.com/shopspring/decimal"

	"woldo/internal"
	"woldo/internal/util"
)

type Summary struct {
	Count    int
	Total    decimal.Decimal
	Unpriced int
}

// Summarize totals sale price times quantity. Rows whose price or quantity is
// not numeric are counted in Unpriced and left out of Total.
func Summarize(records []internal.OutputRecord) Summary {
	s := Summary{Count: len(records), Total: decimal.Zero}
	for _, r := range records {
		price, ok := util.ParseAmount(r.SalePrice)
		qty := util.ParseQty(r.Quantity)
		if !ok || !qty.OK {
			s.Unpriced++
			continue
		}
		s.Total = s.Total.Add(price.Mul(qty.Qty))
	}
	return s
}

// Preview returns at most n leading records.
func Preview(records []internal.OutputRecord, n int) []internal.OutputRecord {
	if n <= 0 {
		return nil
	}
	if len(records) < n {
		n = len(records)
	}
	return records[:n]
}
