package epin

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openclearing/epinflow/internal/epin/field"
)

// Shared field patterns.
var (
	reTwoDigitCode = regexp.MustCompile(`^46$`)
	reSixDigits    = regexp.MustCompile(`^\d{6}$`)
	reThreeDigits  = regexp.MustCompile(`^\d{3}$`)
)

// lineParser accumulates validation errors on a record envelope while
// extracting fields, so a single bad field never loses the rest of the line.
type lineParser struct {
	line   string
	lineNo int
	format field.Format
	opts   field.Options
	env    *Envelope
}

// raw extracts a required field, tolerating short lines by space-padding
// after recording the miss.
func (p *lineParser) raw(start, end int, name string) string {
	v, err := field.Extract(p.line, start, end, name, p.lineNo, p.format)
	if err != nil {
		p.env.Invalidate(err.Error())
		return field.ExtractPadded(p.line, start, end)
	}
	return v
}

// optional extracts a trailing field that short lines may omit.
func (p *lineParser) optional(start, end int) string {
	return field.ExtractPadded(p.line, start, end)
}

// match validates a field against a pattern, recording a malformed-field
// error on mismatch.
func (p *lineParser) match(value, name string, re *regexp.Regexp, expected string) string {
	if !re.MatchString(value) {
		p.env.Invalidate(field.NewMalformed(p.format, p.lineNo, name, expected, value).Error())
	}
	return value
}

// oneOf validates a field against an enumerated set.
func (p *lineParser) oneOf(value, name, expected string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	p.env.Invalidate(field.NewMalformed(p.format, p.lineNo, name, expected, value).Error())
	return value
}

// amount decodes a 15-digit amount; malformed fields coerce to zero with
// the error recorded.
func (p *lineParser) amount(start, end int, name string) decimal.Decimal {
	v, err := field.ParseAmount(p.raw(start, end, name), name, p.lineNo, p.format)
	if err != nil {
		p.env.Invalidate(err.Error())
		return field.Zero()
	}
	return v
}

// count decodes a 15-digit count field.
func (p *lineParser) count(start, end int, name string) int64 {
	v, err := field.ParseCount(p.raw(start, end, name), name, p.lineNo, p.format)
	if err != nil {
		p.env.Invalidate(err.Error())
		return 0
	}
	return v
}

// sign decodes a two-character CR/DB indicator.
func (p *lineParser) sign(start, end int, name string) field.Sign {
	v, err := field.ParseSign(p.optional(start, end), name, p.lineNo, p.format)
	if err != nil {
		p.env.Invalidate(err.Error())
		return field.SignNone
	}
	return v
}

// date7 decodes a CCYYDDD date, keeping the raw string for audit.
func (p *lineParser) date7(start, end int, name string) (*time.Time, string) {
	raw := p.raw(start, end, name)
	t, err := field.ParseDateCCYYDDD(raw, name, p.lineNo, p.format, p.opts)
	if err != nil {
		p.env.Invalidate(err.Error())
	}
	return t, raw
}

// date6 decodes the CCYDDD funds-transfer date form.
func (p *lineParser) date6(start, end int, name string) (*time.Time, string) {
	raw := p.optional(start, end)
	t, err := field.ParseDateCCYDDD(raw, name, p.lineNo, p.format, p.opts)
	if err != nil {
		p.env.Invalidate(err.Error())
	}
	return t, raw
}
