// Package epin models Visa EPIN settlement file records and implements the
// line classifier and per-record-type parsers. Parsers are best-effort: they
// always return a record carrying the raw line and any validation errors, so
// malformed input stays auditable.
package epin

import (
	"time"

	"github.com/google/uuid"
)

// RecordType is the classification assigned to an input line.
type RecordType int

const (
	RecordUnknown RecordType = iota
	RecordHeader
	RecordV2110
	RecordV4120
	RecordV4130
	RecordV4140
	RecordTcr1
)

func (t RecordType) String() string {
	switch t {
	case RecordHeader:
		return "HEADER"
	case RecordV2110:
		return "V2110"
	case RecordV4120:
		return "V4120"
	case RecordV4130:
		return "V4130"
	case RecordV4140:
		return "V4140"
	case RecordTcr1:
		return "TCR1"
	}
	return "UNKNOWN"
}

// ReportFormat is the VSS report family detected for a job.
type ReportFormat string

const (
	FormatUnknown ReportFormat = "UNKNOWN"
	FormatVss110  ReportFormat = "VSS_110"
	FormatVss120  ReportFormat = "VSS_120"
	FormatVss130  ReportFormat = "VSS_130"
	FormatVss140  ReportFormat = "VSS_140"
	FormatMixed   ReportFormat = "MIXED"
)

// formatOf maps a record type to the report family it belongs to.
func formatOf(t RecordType) ReportFormat {
	switch t {
	case RecordV2110:
		return FormatVss110
	case RecordV4120:
		return FormatVss120
	case RecordV4130:
		return FormatVss130
	case RecordV4140:
		return FormatVss140
	}
	return FormatUnknown
}

// MergeFormat folds a newly seen record type into the job's detected format,
// upgrading to MIXED when families differ.
func MergeFormat(current ReportFormat, t RecordType) ReportFormat {
	next := formatOf(t)
	if next == FormatUnknown {
		return current
	}
	if current == FormatUnknown {
		return next
	}
	if current != next {
		return FormatMixed
	}
	return current
}

// Envelope carries the identity, audit and concurrency fields shared by all
// persisted record types.
type Envelope struct {
	ID               uuid.UUID `json:"id"`
	JobID            uuid.UUID `json:"job_id"`
	RawLine          string    `json:"raw_line"`
	LineNumber       int       `json:"line_number"`
	IsValid          bool      `json:"is_valid"`
	ValidationErrors []string  `json:"validation_errors,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int64     `json:"version"`
}

// NewEnvelope initializes the shared fields for a freshly parsed record.
func NewEnvelope(jobID uuid.UUID, rawLine string, lineNumber int) Envelope {
	now := time.Now().UTC()
	return Envelope{
		ID:         uuid.New(),
		JobID:      jobID,
		RawLine:    rawLine,
		LineNumber: lineNumber,
		IsValid:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Invalidate marks the record invalid and appends the error text to the
// audit trail.
func (e *Envelope) Invalidate(msg string) {
	e.IsValid = false
	e.ValidationErrors = append(e.ValidationErrors, msg)
}
