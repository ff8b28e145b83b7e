package field

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Sign is the two-character credit/debit indicator attached to amount
// fields. The empty value is legal and reads as positive.
type Sign string

const (
	SignCredit Sign = "CR"
	SignDebit  Sign = "DB"
	SignNone   Sign = ""
)

// Zero is the canonical zero amount at scale 2.
func Zero() decimal.Decimal {
	return decimal.New(0, -2)
}

// ParseAmount decodes a 15-character amount field of ASCII digits with
// optional left padding by '0' or ' ' into a fixed-point decimal with two
// implied decimal places. All-zero and all-space fields decode to exactly
// zero. Any other non-digit content is a MalformedField error; callers in
// lenient mode coerce the result to zero and record the error text.
func ParseAmount(raw, name string, lineNo int, format Format) (decimal.Decimal, error) {
	trimmed := strings.TrimLeft(raw, " ")
	if trimmed == "" {
		return Zero(), nil
	}

	var cents int64
	for _, c := range trimmed {
		if c < '0' || c > '9' {
			return Zero(), NewMalformed(format, lineNo, name, "15 digits", raw)
		}
		cents = cents*10 + int64(c-'0')
	}
	return decimal.New(cents, -2), nil
}

// ParseCount decodes a 15-digit count field into an integer. Same padding
// rules as ParseAmount.
func ParseCount(raw, name string, lineNo int, format Format) (int64, error) {
	trimmed := strings.TrimLeft(raw, " ")
	if trimmed == "" {
		return 0, nil
	}

	var n int64
	for _, c := range trimmed {
		if c < '0' || c > '9' {
			return 0, NewMalformed(format, lineNo, name, "15 digits", raw)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// ParseSign normalizes a two-character sign field. Only "CR", "DB" and
// blank are legal.
func ParseSign(raw, name string, lineNo int, format Format) (Sign, error) {
	switch strings.TrimSpace(raw) {
	case "CR":
		return SignCredit, nil
	case "DB":
		return SignDebit, nil
	case "":
		return SignNone, nil
	}
	return SignNone, NewMalformed(format, lineNo, name, `"CR", "DB" or blank`, raw)
}

// Apply returns the amount signed per the indicator: DB negates, CR and
// blank leave it positive.
func (s Sign) Apply(amount decimal.Decimal) decimal.Decimal {
	if s == SignDebit {
		return amount.Neg()
	}
	return amount
}

// SignOf returns the indicator matching a signed value: CR for positive,
// DB for negative, blank for zero.
func SignOf(amount decimal.Decimal) Sign {
	switch amount.Sign() {
	case 1:
		return SignCredit
	case -1:
		return SignDebit
	}
	return SignNone
}
