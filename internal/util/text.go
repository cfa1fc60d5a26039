package util

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"woldo/internal"
)

// ToText renders a cell-like value as text. nil is the empty string.
func ToText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case fmt.Stringer:
		return t.String(), nil
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", &internal.MalformedValueError{Type: fmt.Sprintf("%T", v)}
	}
	return fmt.Sprint(v), nil
}

// Text is ToText with malformed values read as "".
func Text(v any) string {
	s, err := ToText(v)
	if err != nil {
		return ""
	}
	return s
}

// ExtractKeywords keeps letters, digits and whitespace, lowercases, and splits
// on whitespace. Token order follows the input.
func ExtractKeywords(v any) []string {
	s := norm.NFC.String(Text(v))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	fields := strings.Fields(strings.ToLower(s))
	if fields == nil {
		return []string{}
	}
	return fields
}

type KeywordSet map[string]struct{}

func NewKeywordSet(keywords []string) KeywordSet {
	set := make(KeywordSet, len(keywords))
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	return set
}

func (s KeywordSet) Has(keyword string) bool {
	_, ok := s[keyword]
	return ok
}

// CountIn counts keywords present in set; repeated keywords count each time.
func CountIn(keywords []string, set KeywordSet) int {
	n := 0
	for _, k := range keywords {
		if set.Has(k) {
			n++
		}
	}
	return n
}

// Intersect returns the size of the intersection of two sets.
func (s KeywordSet) Intersect(other KeywordSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for k := range small {
		if large.Has(k) {
			n++
		}
	}
	return n
}

// NormalizeHeader trims a column header and composes Hangul jamo.
func NormalizeHeader(input string) string {
	return strings.TrimSpace(norm.NFC.String(strings.ReplaceAll(input, "\u00a0", " ")))
}
