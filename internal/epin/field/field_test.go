package field

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	testcases := []struct {
		name     string
		line     string
		start    int
		end      int
		expected string
		wantErr  error
	}{
		{name: "first two chars", line: "460123", start: 1, end: 2, expected: "46"},
		{name: "single char", line: "460123", start: 4, end: 4, expected: "1"},
		{name: "full line", line: "abc", start: 1, end: 3, expected: "abc"},
		{name: "line too short", line: "abc", start: 1, end: 5, wantErr: ErrMissingField},
		{name: "inverted range", line: "abc", start: 3, end: 1, wantErr: ErrMalformedField},
		{name: "zero start", line: "abc", start: 0, end: 2, wantErr: ErrMalformedField},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Extract(tc.line, tc.start, tc.end, "f", 1, FormatVss110)
			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, v)
		})
	}
}

func TestExtractPadded(t *testing.T) {
	require.Equal(t, "ab", ExtractPadded("ab", 1, 2))
	require.Equal(t, "b ", ExtractPadded("ab", 2, 3))
	require.Equal(t, "   ", ExtractPadded("ab", 5, 7))
	require.Equal(t, "", ExtractPadded("ab", 3, 1))
}

func TestParseAmount(t *testing.T) {
	testcases := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "zero padded", raw: "000000000050000", expected: "500.00"},
		{name: "space padded", raw: "          50000", expected: "500.00"},
		{name: "all zeros", raw: "000000000000000", expected: "0.00"},
		{name: "all spaces", raw: "               ", expected: "0.00"},
		{name: "one cent", raw: "000000000000001", expected: "0.01"},
		{name: "letters", raw: "0000000000000AB", wantErr: true},
		{name: "embedded space", raw: "0000000 0000000", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseAmount(tc.raw, "amount", 1, FormatVss110)
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrMalformedField))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, v.StringFixed(2))
			require.Equal(t, int32(-2), v.Exponent())
		})
	}
}

func TestParseCount(t *testing.T) {
	v, err := ParseCount("000000000000100", "count", 1, FormatVss110)
	require.NoError(t, err)
	require.Equal(t, int64(100), v)

	v, err = ParseCount("               ", "count", 1, FormatVss110)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)

	_, err = ParseCount("00000000000010X", "count", 1, FormatVss110)
	require.Error(t, err)
}

func TestParseSign(t *testing.T) {
	testcases := []struct {
		raw      string
		expected Sign
		wantErr  bool
	}{
		{raw: "CR", expected: SignCredit},
		{raw: "DB", expected: SignDebit},
		{raw: "  ", expected: SignNone},
		{raw: "", expected: SignNone},
		{raw: "XX", wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.raw, func(t *testing.T) {
			v, err := ParseSign(tc.raw, "sign", 1, FormatVss110)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, v)
		})
	}
}

func TestSignApply(t *testing.T) {
	amount := decimal.New(12345, -2)
	require.True(t, SignCredit.Apply(amount).Equal(amount))
	require.True(t, SignNone.Apply(amount).Equal(amount))
	require.True(t, SignDebit.Apply(amount).Equal(amount.Neg()))
}

func TestSignOf(t *testing.T) {
	require.Equal(t, SignCredit, SignOf(decimal.New(1, -2)))
	require.Equal(t, SignDebit, SignOf(decimal.New(-1, -2)))
	require.Equal(t, SignNone, SignOf(decimal.Zero))
}

func TestParseDateCCYYDDD(t *testing.T) {
	strict := Options{}

	v, err := ParseDateCCYYDDD("2026031", "d", 1, FormatVss110, strict)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *v)

	// Blank decodes to nil, no error
	v, err = ParseDateCCYYDDD("       ", "d", 1, FormatVss110, strict)
	require.NoError(t, err)
	require.Nil(t, v)

	// Day 366 of a leap year
	v, err = ParseDateCCYYDDD("2024366", "d", 1, FormatVss110, strict)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), *v)

	// Day 366 of a non-leap year
	_, err = ParseDateCCYYDDD("2025366", "d", 1, FormatVss110, strict)
	require.Error(t, err)

	// Day zero
	_, err = ParseDateCCYYDDD("2026000", "d", 1, FormatVss110, strict)
	require.Error(t, err)

	// Pre-2000 dates are outside the window
	_, err = ParseDateCCYYDDD("1999031", "d", 1, FormatVss110, strict)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOutOfRangeDate))
}

func TestParseDateCCYYDDDLenient(t *testing.T) {
	lenient := Options{Lenient: true}

	// Malformed falls back to the default date, error still reported
	v, err := ParseDateCCYYDDD("20260AB", "d", 1, FormatVss110, lenient)
	require.Error(t, err)
	require.NotNil(t, v)
	require.Equal(t, DefaultDate, *v)

	// Out-of-window keeps the parsed value in lenient mode
	v, err = ParseDateCCYYDDD("1999031", "d", 1, FormatVss110, lenient)
	require.Error(t, err)
	require.NotNil(t, v)
	require.Equal(t, 1999, v.Year())
}

func TestParseDateCCYDDD(t *testing.T) {
	v, err := ParseDateCCYDDD("026001", "d", 1, FormatVss110, Options{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *v)

	v, err = ParseDateCCYDDD("      ", "d", 1, FormatVss110, Options{})
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestParseDateYYDDD(t *testing.T) {
	// Only lenient mode accepts the truncated form
	v, err := ParseDateYYDDD("26031", "d", 1, FormatVss110, Options{Lenient: true})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *v)

	_, err = ParseDateYYDDD("26031", "d", 1, FormatVss110, Options{})
	require.Error(t, err)
}
