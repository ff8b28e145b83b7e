package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// JobRepository implements recorddb.JobRepository for SQL backends.
type JobRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func NewJobRepositoryWithTx(tx *sql.Tx) *JobRepository {
	return &JobRepository{tx: tx}
}

func (r *JobRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const jobColumns = `id, filename, file_size, file_type, report_format, client_id, status,
	total_records, processed_records, failed_records,
	processing_started_at, processing_completed_at,
	retry_count, max_retries, error_summary, metadata,
	created_at, updated_at, version`

func (r *JobRepository) Insert(ctx context.Context, job *epin.ProcessingJob) error {
	query := `INSERT INTO processing_jobs (` + jobColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		job.ID.String(), job.Filename, job.FileSize, job.FileType, string(job.ReportFormat),
		job.ClientID, string(job.Status),
		job.TotalRecords, job.ProcessedRecords, job.FailedRecords,
		nullTime(job.ProcessingStartedAt), nullTime(job.ProcessingCompletedAt),
		job.RetryCount, job.MaxRetries, job.ErrorSummary, marshalMetadata(job.Metadata),
		job.CreatedAt, job.UpdatedAt, job.Version)

	if err != nil {
		return recorddb.NewQueryError("insert_job", "failed to insert job", err)
	}
	return nil
}

func (r *JobRepository) Save(ctx context.Context, job *epin.ProcessingJob) error {
	job.Version++

	query := `UPDATE processing_jobs SET
			  filename = $2, file_size = $3, file_type = $4, report_format = $5,
			  client_id = $6, status = $7,
			  total_records = $8, processed_records = $9, failed_records = $10,
			  processing_started_at = $11, processing_completed_at = $12,
			  retry_count = $13, max_retries = $14, error_summary = $15, metadata = $16,
			  updated_at = $17, version = $18
			  WHERE id = $1`

	res, err := r.getExecutor().ExecContext(ctx, query,
		job.ID.String(), job.Filename, job.FileSize, job.FileType, string(job.ReportFormat),
		job.ClientID, string(job.Status),
		job.TotalRecords, job.ProcessedRecords, job.FailedRecords,
		nullTime(job.ProcessingStartedAt), nullTime(job.ProcessingCompletedAt),
		job.RetryCount, job.MaxRetries, job.ErrorSummary, marshalMetadata(job.Metadata),
		job.UpdatedAt, job.Version)

	if err != nil {
		job.Version--
		return recorddb.NewQueryError("save_job", "failed to save job", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		job.Version--
		return recorddb.ErrNotFound
	}
	return nil
}

func (r *JobRepository) scanJob(scan func(dest ...interface{}) error) (*epin.ProcessingJob, error) {
	var (
		job                epin.ProcessingJob
		id, format, status string
		started, completed sql.NullTime
		metadata           string
	)

	err := scan(&id, &job.Filename, &job.FileSize, &job.FileType, &format, &job.ClientID, &status,
		&job.TotalRecords, &job.ProcessedRecords, &job.FailedRecords,
		&started, &completed,
		&job.RetryCount, &job.MaxRetries, &job.ErrorSummary, &metadata,
		&job.CreatedAt, &job.UpdatedAt, &job.Version)
	if err != nil {
		return nil, err
	}

	job.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	job.ReportFormat = epin.ReportFormat(format)
	job.Status = epin.JobStatus(status)
	job.ProcessingStartedAt = timePtr(started)
	job.ProcessingCompletedAt = timePtr(completed)
	job.Metadata = unmarshalMetadata(metadata)
	return &job, nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*epin.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE id = $1`

	row := r.getExecutor().QueryRowContext(ctx, query, id.String())
	job, err := r.scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recorddb.ErrNotFound
		}
		return nil, recorddb.NewQueryError("find_job_by_id", "failed to query job", err)
	}
	return job, nil
}

func (r *JobRepository) queryJobs(ctx context.Context, operation, query string, args ...interface{}) ([]*epin.ProcessingJob, error) {
	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recorddb.NewQueryError(operation, "failed to query jobs", err)
	}
	defer rows.Close()

	var jobs []*epin.ProcessingJob
	for rows.Next() {
		job, err := r.scanJob(rows.Scan)
		if err != nil {
			return nil, recorddb.NewQueryError(operation, "failed to scan row", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, recorddb.NewQueryError(operation, "error iterating rows", err)
	}
	return jobs, nil
}

func (r *JobRepository) FindByClient(ctx context.Context, clientID string) ([]*epin.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE client_id = $1 ORDER BY created_at DESC`
	return r.queryJobs(ctx, "find_jobs_by_client", query, clientID)
}

func (r *JobRepository) Recent(ctx context.Context, limit int) ([]*epin.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs ORDER BY created_at DESC LIMIT $1`
	return r.queryJobs(ctx, "recent_jobs", query, limit)
}

func (r *JobRepository) CountByStatus(ctx context.Context) (map[epin.JobStatus]int64, error) {
	rows, err := r.getExecutor().QueryContext(ctx,
		`SELECT status, COUNT(*) FROM processing_jobs GROUP BY status`)
	if err != nil {
		return nil, recorddb.NewQueryError("count_jobs_by_status", "failed to count jobs", err)
	}
	defer rows.Close()

	counts := make(map[epin.JobStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, recorddb.NewQueryError("count_jobs_by_status", "failed to scan row", err)
		}
		counts[epin.JobStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, recorddb.NewQueryError("count_jobs_by_status", "error iterating rows", err)
	}
	return counts, nil
}

// ProcessingStats aggregates in Go rather than SQL so the duration math
// stays identical across both drivers.
func (r *JobRepository) ProcessingStats(ctx context.Context) (*recorddb.ProcessingStats, error) {
	query := `SELECT total_records, processing_started_at, processing_completed_at
			  FROM processing_jobs WHERE status = $1`

	rows, err := r.getExecutor().QueryContext(ctx, query, string(epin.StatusCompleted))
	if err != nil {
		return nil, recorddb.NewQueryError("processing_stats", "failed to query completed jobs", err)
	}
	defer rows.Close()

	stats := &recorddb.ProcessingStats{}
	var totalSeconds, totalRecords float64

	for rows.Next() {
		var records int64
		var started, completed sql.NullTime
		if err := rows.Scan(&records, &started, &completed); err != nil {
			return nil, recorddb.NewQueryError("processing_stats", "failed to scan row", err)
		}

		stats.CompletedJobs++
		if started.Valid && completed.Valid {
			totalSeconds += completed.Time.Sub(started.Time).Seconds()
		}
		totalRecords += float64(records)
		if records > stats.MaxRecords {
			stats.MaxRecords = records
		}
		if stats.MinRecords == 0 || records < stats.MinRecords {
			stats.MinRecords = records
		}
	}
	if err := rows.Err(); err != nil {
		return nil, recorddb.NewQueryError("processing_stats", "error iterating rows", err)
	}

	if stats.CompletedJobs > 0 {
		stats.AvgProcessingSeconds = totalSeconds / float64(stats.CompletedJobs)
		stats.AvgRecordsPerJob = totalRecords / float64(stats.CompletedJobs)
	}
	return stats, nil
}
