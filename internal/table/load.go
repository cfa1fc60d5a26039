// Package table turns uploaded spreadsheets into header-keyed rows and binds
// them to the order, catalog and invoice schemas.
package table

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/h2non/filetype"
	"github.com/jfyne/csvd"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"

	"woldo/internal/util"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data row. Index is its 0-based position below the header,
// counting blank rows, so it identifies the row in the source file. Cells
// hold the text as read; trimming is left to the schema.
type Row struct {
	Index int
	Cells map[string]string
}

func (r Row) Get(column string) string {
	return r.Cells[column]
}

type Sheet struct {
	Name    string
	Format  Format
	Headers []string
	Rows    []Row
}

func (s Sheet) HasColumn(column string) bool {
	for _, h := range s.Headers {
		if h == column {
			return true
		}
	}
	return false
}

func LoadFile(path string) (Sheet, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, errors.Wrapf(err, "read %s", path)
	}
	return Load(filepath.Base(path), blob)
}

// Load parses blob according to its sniffed content type. Only the first
// worksheet (or the first HTML table) is read.
func Load(name string, blob []byte) (Sheet, error) {
	format := Detect(blob)
	if len(bytes.TrimSpace(bytes.TrimPrefix(blob, utf8BOM))) == 0 {
		return Sheet{Name: name, Format: format}, nil
	}

	var records [][]string
	var err error
	switch format {
	case FormatXLSX:
		records, err = readXLSX(blob)
	case FormatHTML:
		records, err = readHTML(blob)
	case FormatCSV:
		records, err = readCSV(blob)
	default:
		return Sheet{}, errors.WithHint(
			errors.Newf("%s: unsupported spreadsheet format %s", name, format),
			"save the file as .xlsx and upload it again",
		)
	}
	if err != nil {
		return Sheet{}, errors.Wrapf(err, "parse %s", name)
	}

	sheet := fromRecords(records)
	sheet.Name = name
	sheet.Format = format
	return sheet, nil
}

func Detect(blob []byte) Format {
	kind, _ := filetype.Match(blob)
	switch kind.Extension {
	case "xlsx", "zip":
		return FormatXLSX
	case "xls", "doc", "ppt":
		return FormatXLS
	}
	if looksLikeHTML(blob) {
		return FormatHTML
	}
	return FormatCSV
}

func looksLikeHTML(blob []byte) bool {
	head := blob
	if len(head) > 2048 {
		head = head[:2048]
	}
	lower := bytes.ToLower(bytes.TrimPrefix(head, utf8BOM))
	return bytes.Contains(lower, []byte("<table")) || bytes.Contains(lower, []byte("<html"))
}

func readXLSX(blob []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readHTML(blob []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(toUTF8(blob)))
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table element")
	}

	var records [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		records = append(records, cells)
	})
	return records, nil
}

func readCSV(blob []byte) ([][]string, error) {
	reader := csvd.NewReader(bytes.NewReader(toUTF8(blob)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// toUTF8 strips a BOM and decodes EUC-KR, which Excel uses for Korean CSV.
func toUTF8(blob []byte) []byte {
	blob = bytes.TrimPrefix(blob, utf8BOM)
	if utf8.Valid(blob) {
		return blob
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(blob)
	if err != nil {
		return blob
	}
	return decoded
}

func fromRecords(records [][]string) Sheet {
	headerAt := -1
	for i, rec := range records {
		if !isBlank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return Sheet{}
	}

	headers := renameDuplicates(records[headerAt])
	sheet := Sheet{Headers: headers}
	for i, rec := range records[headerAt+1:] {
		if isBlank(rec) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for c, h := range headers {
			if h == "" {
				continue
			}
			if c < len(rec) {
				cells[h] = rec[c]
			} else {
				cells[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, Row{Index: i, Cells: cells})
	}
	return sheet
}

func renameDuplicates(raw []string) []string {
	seen := map[string]int{}
	out := make([]string, len(raw))
	for i, h := range raw {
		h = util.NormalizeHeader(h)
		if h == "" {
			continue
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
		}
		out[i] = h
	}
	return out
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
