package table

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
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

func TestLoadXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"순서", "상품명", "판매가격"},
		{1, "사과 세트", 12000},
		{},
		{2, "배 세트", 15000},
	})

	sheet, err := Load("catalog.xlsx", blob)
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, sheet.Format)
	require.Equal(t, []string{"순서", "상품명", "판매가격"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	require.Equal(t, "12000", sheet.Rows[0].Get("판매가격"))
	require.Equal(t, "배 세트", sheet.Rows[1].Get("상품명"))
	require.Equal(t, 0, sheet.Rows[0].Index)
	require.Equal(t, 2, sheet.Rows[1].Index)
}

func TestLoadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, os.WriteFile(path, mkXLSX([][]any{{"옵션정보"}, {"사과: 5kg"}}), 0o644))

	sheet, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "orders.xlsx", sheet.Name)
	require.Len(t, sheet.Rows, 1)
}

func TestLoadCSV(t *testing.T) {
	blob := append([]byte{0xEF, 0xBB, 0xBF}, []byte("옵션정보,수량\n사과 세트: 5kg,2\n배: 3kg,\n")...)

	sheet, err := Load("orders.csv", blob)
	require.NoError(t, err)
	require.Equal(t, FormatCSV, sheet.Format)
	require.Equal(t, []string{"옵션정보", "수량"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	require.Equal(t, "사과 세트: 5kg", sheet.Rows[0].Get("옵션정보"))
	require.Equal(t, "", sheet.Rows[1].Get("수량"))
}

func TestLoadCSVEUCKR(t *testing.T) {
	blob, err := korean.EUCKR.NewEncoder().Bytes([]byte("상품명,옵션명\n사과,5kg\n"))
	require.NoError(t, err)

	sheet, err := Load("invoice.csv", blob)
	require.NoError(t, err)
	require.Equal(t, []string{"상품명", "옵션명"}, sheet.Headers)
	require.Equal(t, "사과", sheet.Rows[0].Get("상품명"))
}

func TestLoadHTMLTable(t *testing.T) {
	html := `<html><body><table>
<tr><th>상품주문번호</th><th>옵션정보</th></tr>
<tr><td> 2024010112345 </td><td>사과 세트: 5kg 박스</td></tr>
</table></body></html>`

	sheet, err := Load("orders.xls", []byte(html))
	require.NoError(t, err)
	require.Equal(t, FormatHTML, sheet.Format)
	require.Len(t, sheet.Rows, 1)
	require.Equal(t, " 2024010112345 ", sheet.Rows[0].Get("상품주문번호"))

	orders, err := Orders(sheet, true)
	require.NoError(t, err)
	require.Equal(t, "2024010112345", orders[0].OrderID)
}

func TestLoadKeepsCellWhitespace(t *testing.T) {
	blob := mkXLSX([][]any{
		{" 상품명 ", "옵션명"},
		{"  사과 세트 ", "5kg 박스 "},
	})

	sheet, err := Load("catalog.xlsx", blob)
	require.NoError(t, err)
	require.Equal(t, []string{"상품명", "옵션명"}, sheet.Headers)
	require.Equal(t, "  사과 세트 ", sheet.Rows[0].Get("상품명"))
	require.Equal(t, "5kg 박스 ", sheet.Rows[0].Get("옵션명"))
}

func TestDuplicateHeadersRenamed(t *testing.T) {
	sheet, err := Load("dup.csv", []byte("상품명,상품명, 옵션명 \na,b,c\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"상품명", "상품명_2", "옵션명"}, sheet.Headers)
	require.Equal(t, "b", sheet.Rows[0].Get("상품명_2"))
}

func TestEmptyInput(t *testing.T) {
	sheet, err := Load("empty.csv", []byte(""))
	require.NoError(t, err)
	require.Empty(t, sheet.Headers)
	require.Empty(t, sheet.Rows)
}
