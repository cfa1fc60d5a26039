package catalog

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"woldo/internal"
	"woldo/internal/storage"
)

func writeCatalog(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	path := filepath.Join(dir, "catalog.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()
	svc := NewImportService(db)

	_, _, err = svc.Current()
	require.Error(t, err)

	path := writeCatalog(t, dir, [][]any{
		{"순서", "상품번호", "상품명", "옵션번호", "옵션명", "배송비조건", "판매가격"},
		{1, 1001, "사과 세트", 11, "5kg 박스", "무료", 30000},
		{2, 1002, "배 세트", 21, "3kg 박스", "3,000원", 25000},
	})
	count, err := svc.Import(path)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	importedAt, err := db.GetMetadata(metaImportedAt)
	require.NoError(t, err)
	require.NotNil(t, importedAt)
	require.NotEmpty(t, *importedAt)

	rows, source, err := svc.Current()
	require.NoError(t, err)
	require.Equal(t, path, source)
	require.Equal(t, internal.CatalogRow{
		RowIndex: 1, Seq: "2", ProductNo: "1002", ProductName: "배 세트",
		OptionNo: "21", OptionName: "3kg 박스", ShippingTerms: "3,000원", SalePrice: "25000",
	}, rows[1])

	fromFile, _, err := svc.Rows(path)
	require.NoError(t, err)
	require.Equal(t, rows, fromFile)
}

func TestImportMissingColumn(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	path := writeCatalog(t, dir, [][]any{{"상품명", "옵션명"}, {"사과", "5kg"}})
	_, err = NewImportService(db).Import(path)

	var missing *internal.MissingColumnError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "순서", missing.Column)
}

func TestImportMetadataFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	raw, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`DROP TABLE metadata`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	path := writeCatalog(t, dir, [][]any{
		{"순서", "상품번호", "상품명", "옵션번호", "옵션명", "배송비조건", "판매가격"},
		{1, 1001, "사과 세트", 11, "5kg 박스", "무료", 30000},
	})
	_, err = NewImportService(db).Import(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "store catalog source")
}
