package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"woldo/internal"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func writeSheet(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, mkXLSX(rows), 0o644))
	return path
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

var catalogSheet = [][]any{
	{"순서", "상품번호", "상품명", "옵션번호", "옵션명", "배송비조건", "판매가격"},
	{1, "1001", "사과 세트", "11", "5kg 박스", "무료", 30000},
	{2, "1002", "사과 세트", "12", "10kg 박스", "무료", 50000},
	{3, "1003", "배 세트", "21", "3kg 박스", "무료", 25000},
}

// Rows 0 and 1 match one catalog row each, row 2 ties between the two apple
// rows and row 3 matches nothing.
var orderSheet = [][]any{
	{"상품주문번호", "옵션정보", "수량", "수취인명", "수취인연락처1", "통합배송지", "배송메세지"},
	{"2024010100000001", "사과 세트: 5kg", 2, "홍길동", "010-1111-2222", "서울시 강남구", "문 앞"},
	{"2024010100000002", "배 세트: 3kg", "", "김철수", "010-3333-4444", "부산시 해운대구", ""},
	{"2024010100000003", "사과: 박스", 1, "이영희", "010-5555-6666", "대전시 서구", "경비실"},
	{"2024010100000004", "감귤: 2kg", 1, "박민수", "010-7777-8888", "제주시", ""},
}

func catalogRows() []internal.CatalogRow {
	out := []internal.CatalogRow{}
	for i, r := range catalogSheet[1:] {
		out = append(out, internal.CatalogRow{
			RowIndex:      i,
			Seq:           toString(r[0]),
			ProductNo:     r[1].(string),
			ProductName:   r[2].(string),
			OptionNo:      r[3].(string),
			OptionName:    r[4].(string),
			ShippingTerms: r[5].(string),
			SalePrice:     toString(r[6]),
		})
	}
	return out
}

func orderRows() []internal.OrderRecord {
	out := []internal.OrderRecord{}
	for i, r := range orderSheet[1:] {
		qty := toString(r[2])
		if qty == "" {
			qty = "1"
		}
		out = append(out, internal.OrderRecord{
			RowIndex:       i,
			OrderID:        r[0].(string),
			OptionInfo:     r[1].(string),
			Quantity:       qty,
			RecipientName:  r[3].(string),
			RecipientPhone: r[4].(string),
			Address:        r[5].(string),
			Message:        r[6].(string),
		})
	}
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	}
	return ""
}
