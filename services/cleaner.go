package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrNoPrice is returned when price text carries no numeric amount.
var ErrNoPrice = errors.New("no numeric amount in price text")

var (
	// amountRegexp captures the first decimal amount after separators are
	// removed, including amounts written without a leading zero (".99")
	amountRegexp = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
	// currencyReplacer drops currency symbols and thousands separators
	currencyReplacer = strings.NewReplacer("$", "", "US", "", "£", "", "€", "", ",", "")
)

// ParsePrice converts listing price text into an amount.
// Examples:
//
//	"$1,234.56"          → 1234.56
//	"$20.00 to $35.00"   → 20 (the lower bound of a range)
//	"US $45"             → 45
//	"$.99"               → 0.99
//	"Sold"               → ErrNoPrice
func ParsePrice(raw string) (float64, error) {
	cleaned := currencyReplacer.Replace(raw)
	match := amountRegexp.FindString(cleaned)
	if match == "" {
		return 0, ErrNoPrice
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// ParseShipping converts shipping text into a cost. Text without a dollar
// amount ("Free shipping", "Shipping not specified") costs nothing.
func ParseShipping(raw string) float64 {
	if !strings.Contains(raw, "$") {
		return 0
	}
	cost, err := ParsePrice(raw)
	if err != nil {
		return 0
	}
	return cost
}

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
