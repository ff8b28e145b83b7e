package epin

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIsHeaderLine(t *testing.T) {
	testcases := []struct {
		name     string
		line     string
		expected bool
	}{
		{name: "valid header", line: headerLine, expected: true},
		{name: "tab separator", line: "0123456789012\tx", expected: true},
		{name: "too short", line: "0123456789012", expected: false},
		{name: "letter in routing number", line: "01234567890AB rest", expected: false},
		{name: "no separator", line: "01234567890123", expected: false},
		{name: "empty", line: "", expected: false},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, IsHeaderLine(tc.line))
		})
	}
}

func TestParseHeader(t *testing.T) {
	jobID := uuid.New()
	h := ParseHeader(jobID, headerLine)
	require.True(t, h.IsValid)
	require.Equal(t, jobID, h.JobID)
	require.Equal(t, "0123456789012", h.RoutingNumber)
	require.Equal(t, "2026-01-31-12.00.00", h.FileTimestampRaw)
	require.NotNil(t, h.FileTimestamp)
	require.Equal(t, time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC), *h.FileTimestamp)
	require.Equal(t, "000001", h.SequenceNumber)
	require.Equal(t, "CLIENT01", h.ClientID)
	require.Equal(t, "001", h.FileSequence)
	require.Equal(t, headerLine, h.RawLine)
}

func TestParseHeaderShort(t *testing.T) {
	h := ParseHeader(uuid.New(), "0123456789012 20260131120000")
	require.False(t, h.IsValid)
	require.Equal(t, "0123456789012", h.RoutingNumber)
	// Compact timestamp layout still parses
	require.NotNil(t, h.FileTimestamp)
	require.Empty(t, h.ClientID)
	require.NotEmpty(t, h.ValidationErrors)
}

func TestParseHeaderUnparseableTimestamp(t *testing.T) {
	h := ParseHeader(uuid.New(), "0123456789012 not-a-time 000001 CLIENT01 001")
	require.True(t, h.IsValid)
	require.Nil(t, h.FileTimestamp)
	require.Equal(t, "not-a-time", h.FileTimestampRaw)
}
