package catalog

import (
	"reflect"
	"testing"

	"woldo/internal"
)

func TestRowsSharing(t *testing.T) {
	idx := BuildIndex([]internal.CatalogRow{
		{RowIndex: 0, ProductName: "사과 세트", OptionName: "5kg"},
		{RowIndex: 1, ProductName: "배 세트", OptionName: "3kg"},
		{RowIndex: 2, ProductName: "감귤", OptionName: "5kg"},
	})

	cases := []struct {
		name     string
		keywords []string
		want     []int
	}{
		{name: "shared token", keywords: []string{"세트"}, want: []int{0, 1}},
		{name: "ascending regardless of keyword order", keywords: []string{"감귤", "사과"}, want: []int{0, 2}},
		{name: "option name is not indexed", keywords: []string{"5kg"}, want: []int{}},
		{name: "no keywords", keywords: nil, want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.RowsSharing(tc.keywords)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}

	if !idx.OptionKeywords[0].Has("5kg") {
		t.Fatal("option keywords not built")
	}
}
