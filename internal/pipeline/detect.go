package pipeline

import "strings"

type DetectResult struct {
	IsInvoice bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{"송장", "운송장", "택배", "발주서", "배송", "invoice", "tracking"}

// DetectInvoiceMail scores whether a supplier mail carries an invoice
// spreadsheet. A spreadsheet attachment is necessary but not sufficient.
func DetectInvoiceMail(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	hasSheet := false
	for _, name := range attachmentNames {
		if IsSpreadsheetName(name) {
			hasSheet = true
			break
		}
	}
	if !hasSheet {
		return DetectResult{Reason: "no_spreadsheet"}
	}

	points := 4
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			points += 3
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			points++
		}
	}
	for _, name := range attachmentNames {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "송장") || strings.Contains(lower, "발주") || strings.Contains(lower, "invoice") {
			points += 3
			break
		}
	}
	if points > 10 {
		points = 10
	}

	isInvoice := points >= 7
	reason := "rules_negative"
	if isInvoice {
		reason = "rules_positive"
	}
	score := float64(points) / 10

	return DetectResult{IsInvoice: isInvoice, Score: score, Reason: reason}
}

func IsSpreadsheetName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") || strings.HasSuffix(lower, ".csv")
}
