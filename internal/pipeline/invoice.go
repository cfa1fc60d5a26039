package pipeline

import (
	"woldo/internal"
	"woldo/internal/util"
)

type orderKeywords struct {
	order internal.OrderRecord
	set   util.KeywordSet
}

func invoiceKeywords(inv internal.InvoiceRow) util.KeywordSet {
	return util.NewKeywordSet(util.ExtractKeywords(inv.ProductName + " " + inv.OptionName))
}

func orderKeywordSets(orders []internal.OrderRecord) []orderKeywords {
	out := make([]orderKeywords, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderKeywords{order: o, set: util.NewKeywordSet(util.ExtractKeywords(o.OptionInfo))})
	}
	return out
}

// BestOrder finds the order whose option info shares the most keywords with
// the invoice row. The first order reaching the maximum wins; no shared
// keyword means no match.
func BestOrder(inv internal.InvoiceRow, orders []internal.OrderRecord) (internal.OrderRecord, bool) {
	return bestOrder(invoiceKeywords(inv), orderKeywordSets(orders))
}

func bestOrder(target util.KeywordSet, orders []orderKeywords) (internal.OrderRecord, bool) {
	var best internal.OrderRecord
	found := false
	maxScore := 0
	for _, o := range orders {
		score := target.Intersect(o.set)
		if score > maxScore {
			maxScore = score
			best = o.order
			found = true
		}
	}
	return best, found
}

func BuildInvoiceOutput(inv internal.InvoiceRow, order internal.OrderRecord) internal.InvoiceOutputRecord {
	return internal.InvoiceOutputRecord{
		OrderID:        order.OrderID,
		DeliveryMethod: internal.DeliveryMethodParcel,
		Carrier:        inv.Carrier,
		TrackingNo:     inv.TrackingNo,
	}
}

type InvoiceResult struct {
	Records   []internal.InvoiceOutputRecord
	Unmatched []int
}

// MatchInvoices links every invoice row to an order id.
func MatchInvoices(invoices []internal.InvoiceRow, orders []internal.OrderRecord) InvoiceResult {
	sets := orderKeywordSets(orders)
	res := InvoiceResult{Records: []internal.InvoiceOutputRecord{}}
	for _, inv := range invoices {
		order, ok := bestOrder(invoiceKeywords(inv), sets)
		if !ok {
			res.Unmatched = append(res.Unmatched, inv.RowIndex)
			continue
		}
		res.Records = append(res.Records, BuildInvoiceOutput(inv, order))
	}
	return res
}
