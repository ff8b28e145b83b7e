package epin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobTransitions(t *testing.T) {
	testcases := []struct {
		name    string
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{name: "uploaded to processing", from: StatusUploaded, to: StatusProcessing, allowed: true},
		{name: "uploaded to cancelled", from: StatusUploaded, to: StatusCancelled, allowed: true},
		{name: "uploaded to completed", from: StatusUploaded, to: StatusCompleted, allowed: false},
		{name: "processing to completed", from: StatusProcessing, to: StatusCompleted, allowed: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, allowed: true},
		{name: "processing to cancelled", from: StatusProcessing, to: StatusCancelled, allowed: true},
		{name: "processing to uploaded", from: StatusProcessing, to: StatusUploaded, allowed: false},
		{name: "failed to uploaded", from: StatusFailed, to: StatusUploaded, allowed: true},
		{name: "completed to uploaded", from: StatusCompleted, to: StatusUploaded, allowed: true},
		{name: "cancelled to uploaded", from: StatusCancelled, to: StatusUploaded, allowed: true},
		{name: "completed to processing", from: StatusCompleted, to: StatusProcessing, allowed: false},
		{name: "failed to failed", from: StatusFailed, to: StatusFailed, allowed: false},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			jb := NewJob("test.epin", 100, 3)
			jb.Status = tc.from

			err := jb.TransitionTo(tc.to)
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, tc.to, jb.Status)
				return
			}
			require.Error(t, err)
			var stErr *StateTransitionError
			require.ErrorAs(t, err, &stErr)
			require.Equal(t, tc.from, stErr.From)
			require.Equal(t, tc.to, stErr.To)
			// A rejected transition leaves the status untouched
			require.Equal(t, tc.from, jb.Status)
		})
	}
}

func TestJobStatusPredicates(t *testing.T) {
	require.True(t, StatusUploaded.IsActive())
	require.True(t, StatusProcessing.IsActive())
	require.False(t, StatusCompleted.IsActive())

	require.True(t, StatusCompleted.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
	require.True(t, StatusCancelled.IsTerminal())
	require.False(t, StatusProcessing.IsTerminal())
}

func TestJobCanRetry(t *testing.T) {
	jb := NewJob("test.epin", 100, 2)
	require.False(t, jb.CanRetry(), "active jobs cannot retry")

	jb.Status = StatusFailed
	require.True(t, jb.CanRetry())

	jb.RetryCount = 2
	require.False(t, jb.CanRetry(), "retry budget exhausted")
}

func TestNewJob(t *testing.T) {
	jb := NewJob("march.epin", 2048, 3)
	require.Equal(t, StatusUploaded, jb.Status)
	require.Equal(t, FileTypeEpin, jb.FileType)
	require.Equal(t, FormatUnknown, jb.ReportFormat)
	require.Equal(t, int64(2048), jb.FileSize)
	require.Equal(t, 3, jb.MaxRetries)
	require.NotNil(t, jb.Metadata)
}
