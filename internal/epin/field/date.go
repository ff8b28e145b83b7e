package field

import (
	"strings"
	"time"
)

// The accepted date window: settlement reports before 2000 do not occur in
// EPIN feeds, and anything more than a year ahead is a mangled field.
var dateWindowLow = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultDate is substituted for malformed dates in lenient mode.
var DefaultDate = time.Unix(0, 0).UTC()

func dateWindowHigh() time.Time {
	return time.Now().UTC().AddDate(1, 0, 0)
}

// ParseDateCCYYDDD decodes a 7-digit CCYYDDD field (4-digit year plus
// day-of-year). A blank field decodes to nil. In strict mode a malformed or
// out-of-window value is an error; in lenient mode malformed values fall
// back to DefaultDate with the error returned alongside for the caller to
// record.
func ParseDateCCYYDDD(raw, name string, lineNo int, format Format, opts Options) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) != 7 || !allDigits(trimmed) {
		return lenientDate(opts, NewMalformed(format, lineNo, name, "CCYYDDD (7 digits)", raw))
	}
	year := atoi(trimmed[:4])
	return yearDay(year, atoi(trimmed[4:]), raw, name, lineNo, format, opts)
}

// ParseDateCCYDDD decodes the 6-digit funds-transfer date form: a 3-digit
// year-within-millennium and a day-of-year. Visa's convention prefixes "2"
// to the year digits, so "026001" is day 1 of 2026.
func ParseDateCCYDDD(raw, name string, lineNo int, format Format, opts Options) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) != 6 || !allDigits(trimmed) {
		return lenientDate(opts, NewMalformed(format, lineNo, name, "CCYDDD (6 digits)", raw))
	}
	year := 2000 + atoi(trimmed[:3])
	return yearDay(year, atoi(trimmed[3:]), raw, name, lineNo, format, opts)
}

// ParseDateYYDDD decodes the truncated 5-digit YYDDD form found in older
// files, mapping the 2-digit year into 2000-2099. Only lenient mode accepts
// it; strict mode reports the field as malformed.
func ParseDateYYDDD(raw, name string, lineNo int, format Format, opts Options) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) != 5 || !allDigits(trimmed) || !opts.Lenient {
		return lenientDate(opts, NewMalformed(format, lineNo, name, "YYDDD (5 digits)", raw))
	}
	year := 2000 + atoi(trimmed[:2])
	return yearDay(year, atoi(trimmed[2:]), raw, name, lineNo, format, opts)
}

func yearDay(year, day int, raw, name string, lineNo int, format Format, opts Options) (*time.Time, error) {
	if day < 1 || day > 366 {
		return lenientDate(opts, NewMalformed(format, lineNo, name, "day-of-year 001-366", raw))
	}
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	if t.Year() != year {
		// Day 366 of a non-leap year.
		return lenientDate(opts, NewMalformed(format, lineNo, name, "valid day-of-year", raw))
	}
	if t.Before(dateWindowLow) || t.After(dateWindowHigh()) {
		err := NewOutOfRange(format, lineNo, name, "[2000-01-01, today+1y]", raw)
		if opts.Lenient {
			return &t, err
		}
		return nil, err
	}
	return &t, nil
}

func lenientDate(opts Options, err *Error) (*time.Time, error) {
	if opts.Lenient {
		d := DefaultDate
		return &d, err
	}
	return nil, err
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
