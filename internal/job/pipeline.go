package job

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Config tunes the batch pipeline.
type Config struct {
	// BatchSize is the number of lines written per transaction.
	BatchSize int `json:"batch_size" mapstructure:"batch_size"`
	// BatchTimeout bounds each batch transaction.
	BatchTimeout time.Duration `json:"batch_timeout" mapstructure:"batch_timeout"`
	// JobTimeout bounds one submit or retry end to end.
	JobTimeout time.Duration `json:"job_timeout" mapstructure:"job_timeout"`
	// MaxBatchAttempts is the per-batch retry budget for transient store
	// failures.
	MaxBatchAttempts int `json:"max_batch_attempts" mapstructure:"max_batch_attempts"`
	// MaxJobRetries is the per-job retry budget exposed through Retry.
	MaxJobRetries int `json:"max_job_retries" mapstructure:"max_job_retries"`
	// SkipInvalidRecords keeps processing past per-record validation
	// failures. When false the first invalid record fails the batch.
	SkipInvalidRecords bool `json:"skip_invalid_records" mapstructure:"skip_invalid_records"`
	// Lenient relaxes the field codec: malformed dates fall back to the
	// epoch default instead of invalidating the record.
	Lenient bool `json:"lenient" mapstructure:"lenient"`
}

// DefaultConfig returns the recommended pipeline settings.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:          250,
		BatchTimeout:       60 * time.Second,
		JobTimeout:         300 * time.Second,
		MaxBatchAttempts:   3,
		MaxJobRetries:      3,
		SkipInvalidRecords: true,
	}
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("batch_timeout must be positive")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("job_timeout must be positive")
	}
	if c.MaxBatchAttempts <= 0 {
		return fmt.Errorf("max_batch_attempts must be positive, got %d", c.MaxBatchAttempts)
	}
	if c.MaxJobRetries < 0 {
		return fmt.Errorf("max_job_retries must not be negative, got %d", c.MaxJobRetries)
	}
	return nil
}

// orphanParentOrder is the family preference used when recovering a parent
// TCR0 for a TCR1 that arrived without one in memory. Kept as data so the
// order can be revisited without touching the recovery logic.
var orphanParentOrder = []string{"140", "130", "120"}

// inputLine pairs a raw line with its 1-based position in the file.
type inputLine struct {
	text   string
	number int
}

// batchState is the carry-over context threaded between batch invocations
// of one job. It is confined to that job's processing goroutine.
type batchState struct {
	// activeParent is the single-slot cache linking TCR1 rows to the most
	// recently written subgroup-4 TCR0.
	activeParent *epin.SubGroup4Record

	format  epin.ReportFormat
	summary errorSummary

	total     int64
	processed int64
	failed    int64
}

// clone returns a copy so a failed batch attempt can be replayed from the
// pre-attempt state.
func (s *batchState) clone() *batchState {
	c := *s
	c.summary.lines = append([]string(nil), s.summary.lines...)
	return &c
}

// pipeline drives one job's content through batched transactional writes.
type pipeline struct {
	store  recorddb.RepositoryManager
	config *Config
	log    Logger
}

// run processes the file content for job, committing one transaction per
// batch and updating the job's counters as it goes. The returned state
// carries the error summary and final counts; err is non-nil only for
// failures that should fail the job.
func (p *pipeline) run(ctx context.Context, jb *epin.ProcessingJob, content []byte) (*batchState, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	state := &batchState{format: jb.ReportFormat}
	batch := make([]inputLine, 0, p.config.BatchSize)
	lineNo := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		next, err := p.writeBatchWithRetry(ctx, jb, batch, state)
		if err != nil {
			return err
		}
		state = next
		batch = batch[:0]

		cancelled, err := p.observeCancellation(ctx, jb)
		if err != nil {
			return err
		}
		if cancelled {
			return context.Canceled
		}
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		batch = append(batch, inputLine{text: line, number: lineNo})
		if len(batch) >= p.config.BatchSize {
			if err := flush(); err != nil {
				return state, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return state, fmt.Errorf("failed to read file content: %w", err)
	}
	if err := flush(); err != nil {
		return state, err
	}
	return state, nil
}

// writeBatchWithRetry retries the transactional batch writer on transient
// store errors with linear backoff. Validation and state errors fail fast.
func (p *pipeline) writeBatchWithRetry(ctx context.Context, jb *epin.ProcessingJob, batch []inputLine, state *batchState) (*batchState, error) {
	var lastErr error
	for attempt := 1; attempt <= p.config.MaxBatchAttempts; attempt++ {
		next, err := p.writeBatch(ctx, jb, batch, state)
		if err == nil {
			return next, nil
		}
		lastErr = err

		if !recorddb.IsRetryable(err) {
			return state, err
		}
		if attempt == p.config.MaxBatchAttempts {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		p.log.Warn("batch attempt %d/%d failed for job %s, retrying in %s: %v",
			attempt, p.config.MaxBatchAttempts, jb.ID, backoff, err)

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return state, fmt.Errorf("batch failed after %d attempts: %w", p.config.MaxBatchAttempts, lastErr)
}

// writeBatch runs one batch in its own transaction. It operates on clones of
// the carry-over state and the job row, so a rollback leaves the caller's
// state and counters untouched.
func (p *pipeline) writeBatch(ctx context.Context, jb *epin.ProcessingJob, batch []inputLine, state *batchState) (*batchState, error) {
	next := state.clone()
	row := *jb

	batchCtx, cancel := context.WithTimeout(ctx, p.config.BatchTimeout)
	defer cancel()

	err := p.store.WithTransaction(batchCtx, func(tx recorddb.TransactionContext) error {
		for _, line := range batch {
			if err := p.writeLine(batchCtx, tx, &row, line, next); err != nil {
				return err
			}
		}

		// A cancel issued since the last boundary must not be overwritten by
		// the counter save.
		fresh, err := tx.Jobs().FindByID(batchCtx, row.ID)
		if err != nil {
			return err
		}
		if fresh.Status == epin.StatusCancelled {
			row.Status = epin.StatusCancelled
			row.Version = fresh.Version
		}

		// Counters ride in the same transaction as the records they count.
		row.TotalRecords = next.total
		row.ProcessedRecords = next.processed
		row.FailedRecords = next.failed
		row.ReportFormat = next.format
		return tx.Jobs().Save(batchCtx, &row)
	})
	if err != nil {
		return state, err
	}
	*jb = row
	return next, nil
}

// writeLine classifies, parses and persists a single input line.
func (p *pipeline) writeLine(ctx context.Context, tx recorddb.TransactionContext, jb *epin.ProcessingJob, line inputLine, state *batchState) error {
	opts := field.Options{Lenient: p.config.Lenient}
	state.total++

	recordType := epin.Classify(line.text)
	state.format = epin.MergeFormat(state.format, recordType)

	switch recordType {
	case epin.RecordHeader:
		h := epin.ParseHeader(jb.ID, line.text)
		if err := tx.Headers().Insert(ctx, h); err != nil {
			return err
		}
		if jb.ClientID == "" && h.ClientID != "" {
			jb.ClientID = h.ClientID
		}
		p.account(state, line, h.IsValid, h.ValidationErrors)
		if !h.IsValid && !p.config.SkipInvalidRecords {
			return fmt.Errorf("invalid header at line %d: %s", line.number, h.ValidationErrors[0])
		}
		return nil

	case epin.RecordV2110:
		rec, parseErr := epin.ParseVss110(jb.ID, line.text, line.number, opts)
		if err := tx.Vss110().Insert(ctx, rec); err != nil {
			return err
		}
		p.account(state, line, rec.IsValid, rec.ValidationErrors)
		if parseErr != nil && !p.config.SkipInvalidRecords {
			return parseErr
		}
		return nil

	case epin.RecordV4120, epin.RecordV4130, epin.RecordV4140:
		rec, parseErr := epin.ParseSubGroup4(jb.ID, line.text, line.number, opts)
		if err := tx.SubGroup4().Insert(ctx, rec); err != nil {
			return err
		}
		// Written TCR0 becomes the active parent, valid or not.
		state.activeParent = rec
		p.account(state, line, rec.IsValid, rec.ValidationErrors)
		if parseErr != nil && !p.config.SkipInvalidRecords {
			return parseErr
		}
		return nil

	case epin.RecordTcr1:
		rec, parseErr := epin.ParseTcr1(jb.ID, line.text, line.number, opts)
		if err := p.linkTcr1(ctx, tx, jb, rec, state); err != nil {
			return err
		}
		if err := tx.Tcr1().Insert(ctx, rec); err != nil {
			return err
		}
		p.account(state, line, rec.IsValid, rec.ValidationErrors)
		if parseErr != nil && !p.config.SkipInvalidRecords {
			return parseErr
		}
		return nil
	}

	// Unrecognized line: counted as skipped-invalid, nothing persisted.
	state.failed++
	state.summary.add(fmt.Sprintf("line %d: unknown record type", line.number))
	if !p.config.SkipInvalidRecords {
		return fmt.Errorf("unknown record type at line %d", line.number)
	}
	return nil
}

// linkTcr1 attaches an amount row to its parent TCR0. The in-memory active
// parent wins; otherwise the most recently persisted subgroup-4 TCR0 of the
// job is recovered from the store. A TCR1 with no parent at all keeps the
// orphan defaults and is marked invalid for audit.
func (p *pipeline) linkTcr1(ctx context.Context, tx recorddb.TransactionContext, jb *epin.ProcessingJob, rec *epin.Tcr1Record, state *batchState) error {
	if state.activeParent != nil {
		rec.LinkParent(state.activeParent)
		return nil
	}

	for _, family := range orphanParentOrder {
		parent, err := tx.SubGroup4().FindLastByJobAndFamily(ctx, jb.ID, family)
		if err != nil {
			return err
		}
		if parent != nil {
			rec.LinkParent(parent)
			state.activeParent = parent
			return nil
		}
	}

	rec.Invalidate(fmt.Sprintf("line %d: TCR1 has no parent TCR0", rec.LineNumber))
	return nil
}

// account updates the per-job counters and error summary for one record.
func (p *pipeline) account(state *batchState, line inputLine, valid bool, errs []string) {
	if valid {
		state.processed++
		return
	}
	state.failed++
	if len(errs) > 0 {
		state.summary.add(fmt.Sprintf("line %d: %s", line.number, errs[0]))
	} else {
		state.summary.add(fmt.Sprintf("line %d: invalid record", line.number))
	}
}

// observeCancellation re-reads the job after a committed batch; a cancel
// issued elsewhere takes effect at this boundary.
func (p *pipeline) observeCancellation(ctx context.Context, jb *epin.ProcessingJob) (bool, error) {
	fresh, err := p.store.Jobs().FindByID(ctx, jb.ID)
	if err != nil {
		return false, err
	}
	if fresh.Status == epin.StatusCancelled {
		jb.Status = epin.StatusCancelled
		return true, nil
	}
	return false, nil
}
