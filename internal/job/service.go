// Package job implements the processing-job orchestrator: submit, retry,
// cancel and stats over uploaded settlement files, with batched
// transactional persistence and a strict job state machine.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/blobstore"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Stats is the aggregate view returned by Service.Stats.
type Stats struct {
	TotalJobs            int64                    `json:"total_jobs"`
	ActiveJobs           int64                    `json:"active_jobs"`
	CompletedJobs        int64                    `json:"completed_jobs"`
	FailedJobs           int64                    `json:"failed_jobs"`
	SuccessRate          float64                  `json:"success_rate"`
	AvgProcessingSeconds float64                  `json:"avg_processing_seconds"`
	AvgRecordsPerJob     float64                  `json:"avg_records_per_job"`
	MaxRecords           int64                    `json:"max_records"`
	MinRecords           int64                    `json:"min_records"`
	StatusDistribution   map[epin.JobStatus]int64 `json:"status_distribution"`
	RecentJobs           []*epin.ProcessingJob    `json:"recent_jobs"`
}

// recentJobsWindow is the number of jobs included in Stats.RecentJobs.
const recentJobsWindow = 5

// Service is the synchronous job orchestrator. Submit and Retry drive a job
// to a terminal state on the caller's goroutine; concurrent calls for the
// same job are rejected with ErrJobInFlight.
type Service struct {
	store  recorddb.RepositoryManager
	blobs  blobstore.Store
	config *Config
	log    Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewService creates a job service. A nil config uses DefaultConfig; a nil
// logger uses the default logger.
func NewService(store recorddb.RepositoryManager, blobs blobstore.Store, config *Config, logger Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &Service{
		store:    store,
		blobs:    blobs,
		config:   config,
		log:      logger,
		inflight: make(map[uuid.UUID]struct{}),
	}, nil
}

// Submit registers a new job for the uploaded file and synchronously
// processes it to a terminal state.
func (s *Service) Submit(ctx context.Context, filename string, content []byte, size int64) (*epin.ProcessingJob, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if err := s.store.System().Ping(ctx); err != nil {
		return nil, err
	}

	jb := epin.NewJob(filename, size, s.config.MaxJobRetries)

	if err := s.blobs.Put(ctx, jb.ID.String(), content); err != nil {
		return nil, err
	}
	if err := s.store.Jobs().Insert(ctx, jb); err != nil {
		return nil, err
	}

	return s.process(ctx, jb, content)
}

// Status returns the current snapshot of a job.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*epin.ProcessingJob, error) {
	jb, err := s.store.Jobs().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, recorddb.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return jb, nil
}

// ListByClient returns the client's jobs, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*epin.ProcessingJob, error) {
	return s.store.Jobs().FindByClient(ctx, clientID)
}

// Retry purges all records owned by the job and re-runs submit semantics.
// When content is nil the original upload is read back from the blob store.
func (s *Service) Retry(ctx context.Context, id uuid.UUID, content []byte) (*epin.ProcessingJob, error) {
	jb, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}

	if !jb.Status.IsTerminal() {
		return nil, &BadStateError{JobID: jb.ID, Status: jb.Status, Action: "retry"}
	}
	if !jb.CanRetry() {
		return nil, ErrRetryExhausted
	}

	if content == nil {
		content, err = s.blobs.Get(ctx, jb.ID.String())
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrEmptyContent
			}
			return nil, err
		}
	} else {
		if err := s.blobs.Put(ctx, jb.ID.String(), content); err != nil {
			return nil, err
		}
		jb.FileSize = int64(len(content))
	}

	// Purge before re-processing so the retried run starts from a clean
	// slate; one transaction keeps purge-and-reset atomic.
	err = s.store.WithTransaction(ctx, func(tx recorddb.TransactionContext) error {
		if err := tx.Headers().DeleteByJob(ctx, jb.ID); err != nil {
			return err
		}
		if err := tx.Vss110().DeleteByJob(ctx, jb.ID); err != nil {
			return err
		}
		if err := tx.Tcr1().DeleteByJob(ctx, jb.ID); err != nil {
			return err
		}
		if err := tx.SubGroup4().DeleteByJob(ctx, jb.ID); err != nil {
			return err
		}

		if err := jb.TransitionTo(epin.StatusUploaded); err != nil {
			return err
		}
		jb.RetryCount++
		jb.TotalRecords = 0
		jb.ProcessedRecords = 0
		jb.FailedRecords = 0
		jb.ErrorSummary = ""
		jb.ReportFormat = epin.FormatUnknown
		jb.ProcessingStartedAt = nil
		jb.ProcessingCompletedAt = nil
		return tx.Jobs().Save(ctx, jb)
	})
	if err != nil {
		return nil, err
	}

	return s.process(ctx, jb, content)
}

// Cancel marks an active job CANCELLED. Processing observes the mark at the
// next batch boundary.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*epin.ProcessingJob, error) {
	jb, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if !jb.Status.IsActive() {
		return nil, &BadStateError{JobID: jb.ID, Status: jb.Status, Action: "cancel"}
	}

	if err := jb.TransitionTo(epin.StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.store.Jobs().Save(ctx, jb); err != nil {
		return nil, err
	}
	return jb, nil
}

// Stats gathers the aggregate job counters, throughput figures and a
// recent-jobs window. The three store scans run concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		counts map[epin.JobStatus]int64
		proc   *recorddb.ProcessingStats
		recent []*epin.ProcessingJob
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.Jobs().CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		proc, err = s.store.Jobs().ProcessingStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.Jobs().Recent(gctx, recentJobsWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{
		CompletedJobs:        counts[epin.StatusCompleted],
		FailedJobs:           counts[epin.StatusFailed],
		ActiveJobs:           counts[epin.StatusUploaded] + counts[epin.StatusProcessing],
		AvgProcessingSeconds: proc.AvgProcessingSeconds,
		AvgRecordsPerJob:     proc.AvgRecordsPerJob,
		MaxRecords:           proc.MaxRecords,
		MinRecords:           proc.MinRecords,
		StatusDistribution:   counts,
		RecentJobs:           recent,
	}
	for _, n := range counts {
		stats.TotalJobs += n
	}
	if finished := stats.CompletedJobs + stats.FailedJobs; finished > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(finished)
	}
	return stats, nil
}

// process drives a job from UPLOADED to a terminal state. The inflight
// guard rejects a second submit or retry racing on the same id.
func (s *Service) process(ctx context.Context, jb *epin.ProcessingJob, content []byte) (*epin.ProcessingJob, error) {
	s.mu.Lock()
	if _, busy := s.inflight[jb.ID]; busy {
		s.mu.Unlock()
		return nil, ErrJobInFlight
	}
	s.inflight[jb.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, jb.ID)
		s.mu.Unlock()
	}()

	if err := jb.TransitionTo(epin.StatusProcessing); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	jb.ProcessingStartedAt = &now
	if err := s.store.Jobs().Save(ctx, jb); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	p := &pipeline{store: s.store, config: s.config, log: s.log}
	state, runErr := p.run(jobCtx, jb, content)

	if errors.Is(runErr, context.Canceled) && jb.Status == epin.StatusCancelled {
		// Cancellation observed at a batch boundary; committed progress is
		// kept and the CANCELLED status set by Cancel stands.
		s.log.Info("job %s cancelled after %d records", jb.ID, jb.ProcessedRecords+jb.FailedRecords)
		return jb, nil
	}

	done := time.Now().UTC()
	jb.ProcessingCompletedAt = &done
	jb.ErrorSummary = state.summary.String()

	var terminalErr error
	switch {
	case runErr != nil:
		terminalErr = jb.TransitionTo(epin.StatusFailed)
		if jb.ErrorSummary == "" {
			jb.ErrorSummary = runErr.Error()
		}
		s.log.Error("job %s failed: %v", jb.ID, runErr)
	case state.processed == 0:
		// A run that produced no valid record is a failure even when every
		// line was handled.
		terminalErr = jb.TransitionTo(epin.StatusFailed)
		if jb.ErrorSummary == "" {
			jb.ErrorSummary = "no valid records found"
		}
		s.log.Warn("job %s produced no valid records", jb.ID)
	default:
		terminalErr = jb.TransitionTo(epin.StatusCompleted)
		s.log.Info("job %s completed: %d processed, %d failed",
			jb.ID, jb.ProcessedRecords, jb.FailedRecords)
	}
	if terminalErr != nil {
		return nil, terminalErr
	}

	if err := s.store.Jobs().Save(ctx, jb); err != nil {
		return nil, err
	}
	return jb, nil
}
