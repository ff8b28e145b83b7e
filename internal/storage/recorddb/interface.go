// Package recorddb defines the abstract record store contract: typed
// repositories over the EPIN entities, transaction contexts for per-batch
// atomic writes, and the filtered queries the report aggregators consume.
package recorddb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
)

// Filter is the conjunction of optional predicates applied to report
// queries. Zero values mean "no constraint".
type Filter struct {
	StartDate         *time.Time
	EndDate           *time.Time
	CurrencyCode      string
	DestinationPrefix string
	BusinessMode      string
}

// Matches evaluates the filter against a record's settlement date,
// currency, destination id and business mode. Records with no settlement
// date fail any date-bounded filter.
func (f Filter) Matches(settlementDate *time.Time, currency, destination, businessMode string) bool {
	if f.StartDate != nil && (settlementDate == nil || settlementDate.Before(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && (settlementDate == nil || settlementDate.After(*f.EndDate)) {
		return false
	}
	if f.CurrencyCode != "" && currency != f.CurrencyCode {
		return false
	}
	if f.DestinationPrefix != "" && !hasPrefix(destination, f.DestinationPrefix) {
		return false
	}
	if f.BusinessMode != "" && businessMode != f.BusinessMode {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// JoinedSubGroup4 pairs a TCR0 row with its TCR1 children, as returned by
// the aggregator join query.
type JoinedSubGroup4 struct {
	Record   *epin.SubGroup4Record
	Children []*epin.Tcr1Record
}

// ProcessingStats summarizes completed-job throughput for the stats
// surface.
type ProcessingStats struct {
	CompletedJobs        int64
	AvgProcessingSeconds float64
	AvgRecordsPerJob     float64
	MaxRecords           int64
	MinRecords           int64
}

// JobRepository handles processing-job persistence.
type JobRepository interface {
	Insert(ctx context.Context, job *epin.ProcessingJob) error
	// Save upserts by id and bumps the optimistic-concurrency token.
	Save(ctx context.Context, job *epin.ProcessingJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*epin.ProcessingJob, error)
	// FindByClient returns the client's jobs in reverse-chronological order.
	FindByClient(ctx context.Context, clientID string) ([]*epin.ProcessingJob, error)
	Recent(ctx context.Context, limit int) ([]*epin.ProcessingJob, error)
	CountByStatus(ctx context.Context) (map[epin.JobStatus]int64, error)
	ProcessingStats(ctx context.Context) (*ProcessingStats, error)
}

// HeaderRepository handles file-header persistence.
type HeaderRepository interface {
	Insert(ctx context.Context, h *epin.EpinFileHeader) error
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.EpinFileHeader, error)
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
}

// Vss110Repository handles VSS-110 record persistence and the stats scan.
type Vss110Repository interface {
	Insert(ctx context.Context, rec *epin.Vss110Record) error
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Vss110Record, error)
	FindByFilter(ctx context.Context, f Filter) ([]*epin.Vss110Record, error)
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
}

// SubGroup4Repository handles subgroup-4 TCR0 persistence, the orphan-TCR1
// recovery lookup and the aggregator join.
type SubGroup4Repository interface {
	Insert(ctx context.Context, rec *epin.SubGroup4Record) error
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.SubGroup4Record, error)
	// FindLastByJobAndFamily returns the record of the given family with the
	// highest line number for the job, or nil when the job has none.
	FindLastByJobAndFamily(ctx context.Context, jobID uuid.UUID, family string) (*epin.SubGroup4Record, error)
	// FindWithChildren joins TCR0 rows of a family matching the filter with
	// their TCR1 children, ordered by (businessMode, businessTransactionType,
	// businessTransactionCycle).
	FindWithChildren(ctx context.Context, family string, f Filter) ([]JoinedSubGroup4, error)
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
}

// Tcr1Repository handles TCR1 amount-row persistence.
type Tcr1Repository interface {
	Insert(ctx context.Context, rec *epin.Tcr1Record) error
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Tcr1Record, error)
	FindByParent(ctx context.Context, parentID uuid.UUID) ([]*epin.Tcr1Record, error)
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
}

// SystemRepository handles connection-level operations.
type SystemRepository interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (TransactionContext, error)
}

// TransactionContext exposes the repositories bound to one open
// transaction. Commit or Rollback closes it.
type TransactionContext interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Jobs() JobRepository
	Headers() HeaderRepository
	Vss110() Vss110Repository
	SubGroup4() SubGroup4Repository
	Tcr1() Tcr1Repository
}

// RepositoryManager provides repository access and transaction management.
type RepositoryManager interface {
	Jobs() JobRepository
	Headers() HeaderRepository
	Vss110() Vss110Repository
	SubGroup4() SubGroup4Repository
	Tcr1() Tcr1Repository
	System() SystemRepository

	Open(ctx context.Context) error
	Close(ctx context.Context) error

	// WithTransaction runs fn inside a transaction, committing on nil and
	// rolling back on error or panic.
	WithTransaction(ctx context.Context, fn func(TransactionContext) error) error
}
