// Package field implements the positional field codec for EPIN fixed-width
// records: substring extraction over 1-based inclusive position ranges,
// 15-digit implied-decimal amounts, CR/DB sign application and the CCYYDDD
// family of date encodings.
package field

import "strings"

// Options controls how tolerant the codec is of malformed input.
// Strict mode (the zero value) rejects malformed amounts and out-of-range
// dates; lenient mode coerces them to documented defaults so the record can
// still be persisted for audit.
type Options struct {
	Lenient bool
}

// Extract returns the substring occupying the 1-based inclusive position
// range [start, end]. A line shorter than end yields a MissingField error.
func Extract(line string, start, end int, name string, lineNo int, format Format) (string, error) {
	if start < 1 || end < start {
		return "", NewMalformed(format, lineNo, name, "valid position range", "")
	}
	if len(line) < end {
		return "", NewMissing(format, lineNo, name, end)
	}
	return line[start-1 : end], nil
}

// ExtractPadded behaves like Extract but tolerates short lines by padding
// with spaces. Used for trailing reserved fields that real files sometimes
// truncate.
func ExtractPadded(line string, start, end int) string {
	if start < 1 || end < start {
		return ""
	}
	if len(line) >= end {
		return line[start-1 : end]
	}
	if len(line) < start-1 {
		return strings.Repeat(" ", end-start+1)
	}
	return line[start-1:] + strings.Repeat(" ", end-len(line))
}

// Blank reports whether a raw field holds only spaces.
func Blank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
