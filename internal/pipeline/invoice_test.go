package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"woldo/internal"
)

func TestBestOrder(t *testing.T) {
	orders := []internal.OrderRecord{
		{RowIndex: 0, OrderID: "A", OptionInfo: "사과 세트: 5kg"},
		{RowIndex: 1, OrderID: "B", OptionInfo: "사과 세트: 5kg"},
		{RowIndex: 2, OrderID: "C", OptionInfo: "배 세트: 3kg"},
	}

	cases := []struct {
		name    string
		inv     internal.InvoiceRow
		wantID  string
		matched bool
	}{
		{name: "first maximum wins", inv: internal.InvoiceRow{ProductName: "사과 세트", OptionName: "5kg"}, wantID: "A", matched: true},
		{name: "higher overlap later", inv: internal.InvoiceRow{ProductName: "배 세트", OptionName: "3kg"}, wantID: "C", matched: true},
		{name: "repeated keywords count once", inv: internal.InvoiceRow{ProductName: "배 배 배", OptionName: "세트"}, wantID: "C", matched: true},
		{name: "no overlap", inv: internal.InvoiceRow{ProductName: "감귤", OptionName: "2kg"}, matched: false},
		{name: "empty invoice", inv: internal.InvoiceRow{}, matched: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BestOrder(tc.inv, orders)
			require.Equal(t, tc.matched, ok)
			if ok {
				require.Equal(t, tc.wantID, got.OrderID)
			}
		})
	}
}

func TestMatchInvoices(t *testing.T) {
	invoices := []internal.InvoiceRow{
		{RowIndex: 0, ProductName: "사과 세트", OptionName: "5kg", Carrier: "CJ대한통운", TrackingNo: "123456789012"},
		{RowIndex: 1, ProductName: "포도", OptionName: "샤인머스캣", Carrier: "롯데택배", TrackingNo: "999"},
		{RowIndex: 2, ProductName: "배 세트", OptionName: "3kg", Carrier: "우체국택배", TrackingNo: "555"},
	}

	res := MatchInvoices(invoices, orderRows())
	require.Equal(t, []int{1}, res.Unmatched)
	require.Equal(t, []internal.InvoiceOutputRecord{
		{OrderID: "2024010100000001", DeliveryMethod: internal.DeliveryMethodParcel, Carrier: "CJ대한통운", TrackingNo: "123456789012"},
		{OrderID: "2024010100000002", DeliveryMethod: internal.DeliveryMethodParcel, Carrier: "우체국택배", TrackingNo: "555"},
	}, res.Records)
}

func TestMatchInvoicesEmpty(t *testing.T) {
	res := MatchInvoices(nil, orderRows())
	require.NotNil(t, res.Records)
	require.Empty(t, res.Records)
	require.Empty(t, res.Unmatched)
}
