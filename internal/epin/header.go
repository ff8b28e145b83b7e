package epin

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EpinFileHeader is the optional first line of an EPIN file: a 13-digit
// routing number followed by space-separated timestamp, sequence number,
// client id and file-sequence tokens. Parsed best-effort, preserved
// verbatim.
type EpinFileHeader struct {
	ID               uuid.UUID  `json:"id"`
	JobID            uuid.UUID  `json:"job_id"`
	RoutingNumber    string     `json:"routing_number"`
	FileTimestampRaw string     `json:"file_timestamp_raw"`
	FileTimestamp    *time.Time `json:"file_timestamp,omitempty"`
	SequenceNumber   string     `json:"sequence_number"`
	ClientID         string     `json:"client_id"`
	FileSequence     string     `json:"file_sequence"`
	RawLine          string     `json:"raw_line"`
	IsValid          bool       `json:"is_valid"`
	ValidationErrors []string   `json:"validation_errors,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

// Timestamp layouts seen in EPIN transmission headers.
var headerTimestampLayouts = []string{
	"2006-01-02-15.04.05",
	"20060102150405",
	"2006010215.04.05",
}

// IsHeaderLine reports whether a line looks like a transmission header:
// at least 14 characters, the first 13 all digits, followed by whitespace.
func IsHeaderLine(line string) bool {
	if len(line) < 14 {
		return false
	}
	for i := 0; i < 13; i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return line[13] == ' ' || line[13] == '\t'
}

// ParseHeader decodes a transmission header line. Tokens beyond the routing
// number are positional but loosely validated; a short header is still
// persisted with what could be read.
func ParseHeader(jobID uuid.UUID, line string) *EpinFileHeader {
	now := time.Now().UTC()
	h := &EpinFileHeader{
		ID:        uuid.New(),
		JobID:     jobID,
		RawLine:   line,
		IsValid:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		h.IsValid = false
		h.ValidationErrors = append(h.ValidationErrors, "empty header line")
		return h
	}

	h.RoutingNumber = tokens[0]
	if len(tokens) > 1 {
		h.FileTimestampRaw = tokens[1]
		for _, layout := range headerTimestampLayouts {
			if t, err := time.Parse(layout, tokens[1]); err == nil {
				ts := t.UTC()
				h.FileTimestamp = &ts
				break
			}
		}
	}
	if len(tokens) > 2 {
		h.SequenceNumber = tokens[2]
	}
	if len(tokens) > 3 {
		h.ClientID = tokens[3]
	}
	if len(tokens) > 4 {
		h.FileSequence = tokens[4]
	}

	if len(tokens) < 5 {
		h.IsValid = false
		h.ValidationErrors = append(h.ValidationErrors, "header line has fewer tokens than expected")
	}
	return h
}
