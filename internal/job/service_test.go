package job

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/blobstore"
	"github.com/openclearing/epinflow/internal/storage/recorddb/memory"
)

func newService(t *testing.T) (*Service, *memory.Store, blobstore.Store) {
	t.Helper()
	store := newStore(t)
	blobs, err := blobstore.Open(blobstore.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	svc, err := NewService(store, blobs, DefaultConfig(), nil)
	require.NoError(t, err)
	return svc, store, blobs
}

func TestSubmitCompletesValidFile(t *testing.T) {
	ctx := context.Background()
	svc, store, blobs := newService(t)

	content := strings.Join([]string{headerLine, vss110Line(), vss110Line()}, "\n")
	jb, err := svc.Submit(ctx, "jan.epin", []byte(content), int64(len(content)))
	require.NoError(t, err)

	require.Equal(t, epin.StatusCompleted, jb.Status)
	require.Equal(t, int64(3), jb.TotalRecords)
	require.Equal(t, int64(3), jb.ProcessedRecords)
	require.Equal(t, int64(0), jb.FailedRecords)
	require.Equal(t, epin.FormatVss110, jb.ReportFormat)
	require.Equal(t, "CLIENT01", jb.ClientID)
	require.NotNil(t, jb.ProcessingStartedAt)
	require.NotNil(t, jb.ProcessingCompletedAt)

	// Upload retained for retry
	ok, err := blobs.Has(ctx, jb.ID.String())
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := store.Jobs().FindByID(ctx, jb.ID)
	require.NoError(t, err)
	require.Equal(t, epin.StatusCompleted, stored.Status)
}

func TestSubmitEmptyContent(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Submit(context.Background(), "empty.epin", nil, 0)
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestSubmitAllInvalidFails(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	jb, err := svc.Submit(ctx, "bad.epin", []byte("nothing parseable here"), 22)
	require.NoError(t, err)
	require.Equal(t, epin.StatusFailed, jb.Status)
	require.Equal(t, int64(0), jb.ProcessedRecords)
	require.NotEmpty(t, jb.ErrorSummary)
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Status(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestRetryPurgesAndReprocesses(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	// First run fails: no valid records
	jb, err := svc.Submit(ctx, "retry.epin", []byte("garbage only"), 12)
	require.NoError(t, err)
	require.Equal(t, epin.StatusFailed, jb.Status)

	// Retry with corrected content
	content := strings.Join([]string{vss110Line(), vss110Line()}, "\n")
	retried, err := svc.Retry(ctx, jb.ID, []byte(content))
	require.NoError(t, err)
	require.Equal(t, epin.StatusCompleted, retried.Status)
	require.Equal(t, 1, retried.RetryCount)
	require.Equal(t, int64(2), retried.TotalRecords)
	require.Equal(t, int64(2), retried.ProcessedRecords)
	require.Empty(t, retried.ErrorSummary)

	records, err := store.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRetryFromStoredContent(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	jb, err := svc.Submit(ctx, "stored.epin", []byte(vss110Line()), 168)
	require.NoError(t, err)
	require.Equal(t, epin.StatusCompleted, jb.Status)

	// A completed job may be reprocessed; nil content reads the blob back
	retried, err := svc.Retry(ctx, jb.ID, nil)
	require.NoError(t, err)
	require.Equal(t, epin.StatusCompleted, retried.Status)
	require.Equal(t, 1, retried.RetryCount)

	// The purge keeps record counts stable across the rerun
	records, err := store.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRetryRequiresTerminalState(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	jb := epin.NewJob("active.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	_, err := svc.Retry(ctx, jb.ID, []byte("x"))
	var bad *BadStateError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, "retry", bad.Action)
}

func TestRetryBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	jb := epin.NewJob("spent.epin", 1, 1)
	jb.Status = epin.StatusFailed
	jb.RetryCount = 1
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	_, err := svc.Retry(ctx, jb.ID, []byte(vss110Line()))
	require.ErrorIs(t, err, ErrRetryExhausted)
}

func TestCancelUploadedJob(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	jb := epin.NewJob("pending.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	cancelled, err := svc.Cancel(ctx, jb.ID)
	require.NoError(t, err)
	require.Equal(t, epin.StatusCancelled, cancelled.Status)

	// Terminal jobs cannot be cancelled again
	_, err = svc.Cancel(ctx, jb.ID)
	var bad *BadStateError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, "cancel", bad.Action)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	jb, err := svc.Submit(ctx, "one.epin", []byte(vss110Line()), 168)
	require.NoError(t, err)
	require.Equal(t, epin.StatusCompleted, jb.Status)

	failed, err := svc.Submit(ctx, "two.epin", []byte("junk"), 4)
	require.NoError(t, err)
	require.Equal(t, epin.StatusFailed, failed.Status)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalJobs)
	require.Equal(t, int64(1), stats.CompletedJobs)
	require.Equal(t, int64(1), stats.FailedJobs)
	require.Equal(t, int64(0), stats.ActiveJobs)
	require.InDelta(t, 0.5, stats.SuccessRate, 0.001)
	require.Len(t, stats.RecentJobs, 2)
	require.Equal(t, int64(1), stats.MaxRecords)
}
