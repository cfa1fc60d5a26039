package pipeline

import (
	"strings"

	"woldo/internal"
	"woldo/internal/util"
)

type NormalizedOrder struct {
	internal.OrderRecord
	ProductPart     string
	OptionPart      string
	ProductKeywords []string
	OptionKeywords  []string
}

// SplitOptionInfo splits "<product>: <option>" on the first colon. Without a
// colon the whole text is the product part.
func SplitOptionInfo(optionInfo string) (product, option string) {
	before, after, found := strings.Cut(optionInfo, ":")
	if !found {
		return strings.TrimSpace(optionInfo), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

func NormalizeOrder(order internal.OrderRecord) NormalizedOrder {
	product, option := SplitOptionInfo(order.OptionInfo)
	return NormalizedOrder{
		OrderRecord:     order,
		ProductPart:     product,
		OptionPart:      option,
		ProductKeywords: util.ExtractKeywords(product),
		OptionKeywords:  util.ExtractKeywords(option),
	}
}
