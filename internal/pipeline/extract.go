package pipeline

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jhillyerd/enmime"

	"woldo/internal/table"
)

type Attachment struct {
	Name    string
	Content []byte
}

type MailContent struct {
	Subject         string
	Text            string
	HTML            string
	AttachmentNames []string
	Sheets          []Attachment
}

// ExtractMail parses a raw RFC 822 message and keeps the spreadsheet
// attachments. Inline parts count too, since some mailers attach files inline.
func ExtractMail(raw []byte) (MailContent, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailContent{}, errors.Wrap(err, "read envelope")
	}

	out := MailContent{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}

	parts := append([]*enmime.Part{}, env.Attachments...)
	parts = append(parts, env.Inlines...)
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		if name == "" {
			name = "attachment"
		}
		out.AttachmentNames = append(out.AttachmentNames, name)
		if !IsSpreadsheetName(name) {
			continue
		}
		out.Sheets = append(out.Sheets, Attachment{Name: name, Content: part.Content})
	}

	return out, nil
}

// InvoiceSheets returns the attachments that bind to the invoice schema.
// Spreadsheets that fail to load or lack invoice columns are skipped.
func InvoiceSheets(content MailContent) ([]table.Sheet, []error) {
	var sheets []table.Sheet
	var errs []error
	for _, att := range content.Sheets {
		sheet, err := table.Load(att.Name, att.Content)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !sheet.HasColumn(table.ColCarrier) || !sheet.HasColumn(table.ColTrackingNo) {
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets, errs
}
