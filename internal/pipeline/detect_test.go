package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectInvoiceMail(t *testing.T) {
	cases := []struct {
		name        string
		subject     string
		text        string
		attachments []string
		want        bool
	}{
		{name: "invoice subject and sheet", subject: "3월 9일 송장 전달드립니다", attachments: []string{"list.xlsx"}, want: true},
		{name: "named attachment", subject: "자료", attachments: []string{"발주서_0309.xls"}, want: true},
		{name: "body keywords only", subject: "안녕하세요", text: "택배 배송 건입니다", attachments: []string{"data.csv"}, want: false},
		{name: "no spreadsheet", subject: "송장 전달", attachments: []string{"scan.pdf"}, want: false},
		{name: "no attachments", subject: "송장", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectInvoiceMail(tc.subject, tc.text, "", tc.attachments)
			require.Equal(t, tc.want, got.IsInvoice)
			require.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func TestIsSpreadsheetName(t *testing.T) {
	require.True(t, IsSpreadsheetName("송장.XLSX"))
	require.True(t, IsSpreadsheetName(" a.csv "))
	require.False(t, IsSpreadsheetName("a.pdf"))
}
