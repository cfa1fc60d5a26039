package table

import (
	"strings"

	"woldo/internal"
	"woldo/internal/util"
)

const (
	TableOrders  = "order"
	TableCatalog = "catalog"
	TableInvoice = "invoice"
)

const (
	ColOptionInfo     = "옵션정보"
	ColQuantity       = "수량"
	ColRecipientName  = "수취인명"
	ColRecipientPhone = "수취인연락처1"
	ColAddress        = "통합배송지"
	ColMessage        = "배송메세지"
	ColOrderID        = "상품주문번호"

	ColSeq           = "순서"
	ColProductNo     = "상품번호"
	ColProductName   = "상품명"
	ColOptionNo      = "옵션번호"
	ColOptionName    = "옵션명"
	ColShippingTerms = "배송비조건"
	ColSalePrice     = "판매가격"

	// The supplier reuses these two columns for carrier and tracking number.
	ColCarrier    = "판매사 주문번호"
	ColTrackingNo = "판매사 옵션번호"
)

// column describes one schema field. Optional columns that are absent, and
// blank cells of optional columns, read as fallback. Cells are trimmed unless
// the column is verbatim.
type column struct {
	name     string
	required bool
	verbatim bool
	fallback string
}

var orderSchema = []column{
	{name: ColOptionInfo, required: true},
	{name: ColQuantity, fallback: util.DefaultQuantity},
	{name: ColRecipientName},
	{name: ColRecipientPhone},
	{name: ColAddress},
	{name: ColMessage},
}

// Catalog cells are copied into the supplier sheet as they are.
var catalogSchema = []column{
	{name: ColSeq, required: true, verbatim: true},
	{name: ColProductNo, required: true, verbatim: true},
	{name: ColProductName, required: true, verbatim: true},
	{name: ColOptionNo, required: true, verbatim: true},
	{name: ColOptionName, required: true, verbatim: true},
	{name: ColShippingTerms, required: true, verbatim: true},
	{name: ColSalePrice, required: true, verbatim: true},
}

var invoiceSchema = []column{
	{name: ColProductName, required: true},
	{name: ColOptionName, required: true},
	{name: ColCarrier, required: true},
	{name: ColTrackingNo, required: true},
}

func validate(table string, sheet Sheet, schema []column) error {
	for _, col := range schema {
		if col.required && !sheet.HasColumn(col.name) {
			return &internal.MissingColumnError{Table: table, Column: col.name}
		}
	}
	return nil
}

// fields reads every schema column of row, applying fallbacks.
func fields(row Row, schema []column) map[string]string {
	out := make(map[string]string, len(schema))
	for _, col := range schema {
		v, ok := row.Cells[col.name]
		if !col.verbatim {
			v = strings.TrimSpace(v)
		}
		if (!ok || v == "") && !col.required {
			v = col.fallback
		}
		out[col.name] = v
	}
	return out
}

// Orders binds an order export. The order id column is only required for the
// invoice pipeline.
func Orders(sheet Sheet, requireOrderID bool) ([]internal.OrderRecord, error) {
	schema := append([]column{}, orderSchema...)
	schema = append(schema, column{name: ColOrderID, required: requireOrderID})
	if err := validate(TableOrders, sheet, schema); err != nil {
		return nil, err
	}

	out := make([]internal.OrderRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		f := fields(row, schema)
		out = append(out, internal.OrderRecord{
			RowIndex:       row.Index,
			OptionInfo:     f[ColOptionInfo],
			Quantity:       f[ColQuantity],
			RecipientName:  f[ColRecipientName],
			RecipientPhone: f[ColRecipientPhone],
			Address:        f[ColAddress],
			Message:        f[ColMessage],
			OrderID:        f[ColOrderID],
		})
	}
	return out, nil
}

func Catalog(sheet Sheet) ([]internal.CatalogRow, error) {
	if err := validate(TableCatalog, sheet, catalogSchema); err != nil {
		return nil, err
	}

	out := make([]internal.CatalogRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		f := fields(row, catalogSchema)
		out = append(out, internal.CatalogRow{
			RowIndex:      row.Index,
			Seq:           f[ColSeq],
			ProductNo:     f[ColProductNo],
			ProductName:   f[ColProductName],
			OptionNo:      f[ColOptionNo],
			OptionName:    f[ColOptionName],
			ShippingTerms: f[ColShippingTerms],
			SalePrice:     f[ColSalePrice],
		})
	}
	return out, nil
}

func Invoices(sheet Sheet) ([]internal.InvoiceRow, error) {
	if err := validate(TableInvoice, sheet, invoiceSchema); err != nil {
		return nil, err
	}

	out := make([]internal.InvoiceRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		f := fields(row, invoiceSchema)
		out = append(out, internal.InvoiceRow{
			RowIndex:    row.Index,
			ProductName: f[ColProductName],
			OptionName:  f[ColOptionName],
			Carrier:     f[ColCarrier],
			TrackingNo:  f[ColTrackingNo],
		})
	}
	return out, nil
}
