package job

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/blobstore"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
	"github.com/openclearing/epinflow/internal/storage/recorddb/memory"
)

// Fixture lines are built positionally over the 168-character layouts.
func putField(b []byte, start int, s string) {
	copy(b[start-1:], s)
}

func vss110Line() string {
	b := bytes.Repeat([]byte{' '}, 168)
	putField(b, 1, "4600")
	putField(b, 5, "123456")
	putField(b, 11, "654321")
	putField(b, 47, "001")
	putField(b, 50, "840")
	putField(b, 59, "V2110")
	putField(b, 66, "2026031")
	putField(b, 73, "2026031")
	putField(b, 80, "2026031")
	putField(b, 87, "2026031")
	putField(b, 94, "T")
	putField(b, 95, "9")
	putField(b, 96, "000000000000100")
	putField(b, 111, "000000000050000")
	putField(b, 126, "000000000000000")
	putField(b, 141, "000000000050000")
	putField(b, 156, "CR")
	return string(b)
}

func subGroup4Line(reportID string) string {
	b := bytes.Repeat([]byte{' '}, 168)
	putField(b, 1, "4600")
	putField(b, 5, "123456")
	putField(b, 11, "654321")
	putField(b, 47, "001")
	putField(b, 50, "840")
	putField(b, 56, "1")
	putField(b, 59, "V4")
	putField(b, 61, reportID)
	putField(b, 66, "2026031")
	putField(b, 97, "123")
	putField(b, 100, "1")
	putField(b, 103, "00")
	return string(b)
}

func tcr1Line() string {
	b := bytes.Repeat([]byte{' '}, 168)
	putField(b, 1, "4601")
	putField(b, 5, "00001")
	putField(b, 12, "000000000000010")
	putField(b, 42, "000000000025000")
	putField(b, 57, "CR")
	putField(b, 59, "000000000030000")
	putField(b, 76, "000000000005000")
	return string(b)
}

const headerLine = "0123456789012 2026-01-31-12.00.00 000001 CLIENT01 001"

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Open(context.Background()))
	return s
}

func runPipeline(t *testing.T, store recorddb.RepositoryManager, jb *epin.ProcessingJob, content string, cfg *Config) (*batchState, error) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &pipeline{store: store, config: cfg, log: NewDefaultLogger()}
	return p.run(context.Background(), jb, []byte(content))
}

func TestPipelineProcessesMixedFile(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("mixed.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	content := strings.Join([]string{
		headerLine,
		vss110Line(),
		"",
		subGroup4Line("120"),
		tcr1Line(),
	}, "\n")

	state, err := runPipeline(t, store, jb, content, nil)
	require.NoError(t, err)

	// Blank line skipped entirely
	require.Equal(t, int64(4), state.total)
	require.Equal(t, int64(4), state.processed)
	require.Equal(t, int64(0), state.failed)
	require.Equal(t, epin.FormatMixed, state.format)
	require.Equal(t, "CLIENT01", jb.ClientID)

	headers, err := store.Headers().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, headers, 1)

	vss, err := store.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, vss, 1)

	parents, err := store.SubGroup4().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)

	children, err := store.Tcr1().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.NotNil(t, children[0].ParentID)
	require.Equal(t, parents[0].ID, *children[0].ParentID)
	require.Equal(t, "123456", children[0].DestinationID)
	require.Equal(t, "120", children[0].ParentReportNumber)
}

func TestPipelineParentCarriesAcrossBatches(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("carry.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	content := strings.Join([]string{
		subGroup4Line("140"),
		tcr1Line(),
		tcr1Line(),
		tcr1Line(),
	}, "\n")

	cfg := DefaultConfig()
	cfg.BatchSize = 2

	_, err := runPipeline(t, store, jb, content, cfg)
	require.NoError(t, err)

	parents, err := store.SubGroup4().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)

	children, err := store.Tcr1().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	for _, child := range children {
		require.NotNil(t, child.ParentID)
		require.Equal(t, parents[0].ID, *child.ParentID)
		require.Equal(t, "140", child.ParentReportNumber)
	}
}

func TestPipelineOrphanTcr1KeptWithDefaults(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("orphan.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	// A lone TCR1 with no TCR0 anywhere in the job
	state, err := runPipeline(t, store, jb, tcr1Line(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), state.total)
	require.Equal(t, int64(0), state.processed)
	require.Equal(t, int64(1), state.failed)

	children, err := store.Tcr1().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.False(t, children[0].IsValid)
	require.Nil(t, children[0].ParentID)
	require.Equal(t, epin.OrphanDestinationID, children[0].DestinationID)
	require.Equal(t, epin.OrphanReportNumber, children[0].ParentReportNumber)
}

func TestLinkTcr1RecoversParentFromStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("recover.epin", 1, 3)

	mkParent := func(reportID string, lineNo int) *epin.SubGroup4Record {
		rec := &epin.SubGroup4Record{Envelope: epin.NewEnvelope(jb.ID, "p", lineNo)}
		rec.ReportIDNumber = reportID
		rec.DestinationID = "777777"
		return rec
	}
	// 130 and 140 parents persisted; recovery prefers 140
	require.NoError(t, store.SubGroup4().Insert(ctx, mkParent("130", 1)))
	require.NoError(t, store.SubGroup4().Insert(ctx, mkParent("140", 2)))

	p := &pipeline{store: store, config: DefaultConfig(), log: NewDefaultLogger()}
	state := &batchState{}

	err := store.WithTransaction(ctx, func(tx recorddb.TransactionContext) error {
		rec := &epin.Tcr1Record{
			Envelope:           epin.NewEnvelope(jb.ID, "c", 3),
			DestinationID:      epin.OrphanDestinationID,
			ParentReportNumber: epin.OrphanReportNumber,
		}
		if err := p.linkTcr1(ctx, tx, jb, rec, state); err != nil {
			return err
		}
		require.NotNil(t, rec.ParentID)
		require.Equal(t, "140", rec.ParentReportNumber)
		require.Equal(t, "777777", rec.DestinationID)
		require.True(t, rec.IsValid)
		// The recovered parent becomes the active parent for what follows
		require.NotNil(t, state.activeParent)
		require.Equal(t, "140", state.activeParent.ReportIDNumber)
		return nil
	})
	require.NoError(t, err)
}

func TestPipelineCountsInvalidRecords(t *testing.T) {
	store := newStore(t)
	jb := epin.NewJob("invalid.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(context.Background(), jb))

	content := strings.Join([]string{
		vss110Line(),
		"garbage line that matches nothing",
		vss110Line(),
	}, "\n")

	state, err := runPipeline(t, store, jb, content, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), state.total)
	require.Equal(t, int64(2), state.processed)
	require.Equal(t, int64(1), state.failed)
	require.Contains(t, state.summary.String(), "unknown record type")
}

func TestPipelineStrictModeFailsOnInvalid(t *testing.T) {
	store := newStore(t)
	jb := epin.NewJob("strict.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(context.Background(), jb))

	cfg := DefaultConfig()
	cfg.SkipInvalidRecords = false

	_, err := runPipeline(t, store, jb, "garbage line that matches nothing", cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown record type")
}

func TestPipelineSavesCountersWithBatch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("counters.epin", 1, 3)
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	content := strings.Join([]string{vss110Line(), vss110Line(), vss110Line()}, "\n")
	cfg := DefaultConfig()
	cfg.BatchSize = 2

	_, err := runPipeline(t, store, jb, content, cfg)
	require.NoError(t, err)

	// Counters were persisted alongside the final batch
	stored, err := store.Jobs().FindByID(ctx, jb.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), stored.TotalRecords)
	require.Equal(t, int64(3), stored.ProcessedRecords)
	require.Equal(t, epin.FormatVss110, stored.ReportFormat)
}

func TestPipelineObservesCancellation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	jb := epin.NewJob("cancel.epin", 1, 3)
	require.NoError(t, jb.TransitionTo(epin.StatusProcessing))
	require.NoError(t, store.Jobs().Insert(ctx, jb))

	// Mark the stored row cancelled; processing keeps its in-memory copy
	stored, err := store.Jobs().FindByID(ctx, jb.ID)
	require.NoError(t, err)
	require.NoError(t, stored.TransitionTo(epin.StatusCancelled))
	require.NoError(t, store.Jobs().Save(ctx, stored))

	cfg := DefaultConfig()
	cfg.BatchSize = 1

	content := strings.Join([]string{vss110Line(), vss110Line(), vss110Line()}, "\n")
	_, err = runPipeline(t, store, jb, content, cfg)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, epin.StatusCancelled, jb.Status)

	// Only the first batch committed before the mark was observed
	records, err := store.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

// commitFailStore runs each transaction body and then forces a rollback, as
// if the commit itself had failed.
type commitFailStore struct {
	*memory.Store
	failErr error
}

func (s *commitFailStore) WithTransaction(ctx context.Context, fn func(recorddb.TransactionContext) error) error {
	return s.Store.WithTransaction(ctx, func(tx recorddb.TransactionContext) error {
		if err := fn(tx); err != nil {
			return err
		}
		return s.failErr
	})
}

func TestPipelineFailedBatchLeavesCountersUntouched(t *testing.T) {
	ctx := context.Background()
	inner := newStore(t)
	store := &commitFailStore{Store: inner, failErr: errors.New("commit failed: disk full")}

	jb := epin.NewJob("rollback.epin", 1, 3)
	require.NoError(t, inner.Jobs().Insert(ctx, jb))

	_, err := runPipeline(t, store, jb, vss110Line(), nil)
	require.ErrorIs(t, err, store.failErr)

	// The rolled-back attempt must not leak into the job's counters
	require.Equal(t, int64(0), jb.TotalRecords)
	require.Equal(t, int64(0), jb.ProcessedRecords)
	require.Equal(t, int64(0), jb.FailedRecords)
	require.Equal(t, epin.FormatUnknown, jb.ReportFormat)

	records, err := inner.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestSubmitFailedBatchPersistsNoProgress(t *testing.T) {
	ctx := context.Background()
	inner := newStore(t)
	store := &commitFailStore{Store: inner, failErr: errors.New("commit failed: disk full")}

	blobs, err := blobstore.Open(blobstore.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	svc, err := NewService(store, blobs, DefaultConfig(), nil)
	require.NoError(t, err)

	jb, err := svc.Submit(ctx, "rollback.epin", []byte(vss110Line()), 168)
	require.NoError(t, err)
	require.Equal(t, epin.StatusFailed, jb.Status)

	// The persisted row claims nothing that was rolled back
	stored, err := inner.Jobs().FindByID(ctx, jb.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), stored.TotalRecords)
	require.Equal(t, int64(0), stored.ProcessedRecords)

	records, err := inner.Vss110().FindByJob(ctx, jb.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestErrorSummaryCapsLines(t *testing.T) {
	var s errorSummary
	for i := 0; i < maxSummaryLines+5; i++ {
		s.add("line error")
	}
	text := s.String()
	require.Contains(t, text, "and 5 more errors")
	require.Equal(t, maxSummaryLines, strings.Count(text, "line error"))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.BatchSize = 0
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.MaxBatchAttempts = 0
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.MaxJobRetries = -1
	require.Error(t, bad.Validate())
}
