package pipeline

import (
	"woldo/internal"
	"woldo/internal/util"
)

// BuildOutputRecord copies the catalog row verbatim and takes shipping details
// from the order. The seller reference columns are left for the supplier.
func BuildOutputRecord(order internal.OrderRecord, row internal.CatalogRow, sender internal.Sender) internal.OutputRecord {
	return internal.OutputRecord{
		Seq:            row.Seq,
		ProductNo:      row.ProductNo,
		ProductName:    row.ProductName,
		OptionNo:       row.OptionNo,
		OptionName:     row.OptionName,
		ShippingTerms:  row.ShippingTerms,
		SalePrice:      row.SalePrice,
		Quantity:       util.Quantity(order.Quantity),
		SenderName:     sender.Name,
		SenderPhone:    sender.Phone,
		RecipientName:  order.RecipientName,
		RecipientPhone: order.RecipientPhone,
		Address:        order.Address,
		Message:        order.Message,
	}
}
