package epin

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	StatusUploaded   JobStatus = "UPLOADED"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
	StatusCancelled  JobStatus = "CANCELLED"
)

// Allowed status transitions. Terminal states re-enter UPLOADED only
// through retry.
var jobTransitions = map[JobStatus][]JobStatus{
	StatusUploaded:   {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusUploaded},
	StatusCompleted:  {StatusUploaded},
	StatusCancelled:  {StatusUploaded},
}

// IsTerminal reports whether the status ends processing.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the job may still make progress.
func (s JobStatus) IsActive() bool {
	return s == StatusUploaded || s == StatusProcessing
}

// StateTransitionError reports an attempted status change outside the job
// state machine.
type StateTransitionError struct {
	JobID uuid.UUID
	From  JobStatus
	To    JobStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("job %s: illegal status transition %s -> %s", e.JobID, e.From, e.To)
}

// FileTypeEpin is the only file type this engine ingests.
const FileTypeEpin = "EPIN"

// ProcessingJob tracks one uploaded settlement file through its lifecycle.
// Jobs are never deleted; a retry purges the job's dependent records and
// re-runs submit semantics on the same row.
type ProcessingJob struct {
	ID           uuid.UUID    `json:"id"`
	Filename     string       `json:"filename"`
	FileSize     int64        `json:"file_size"`
	FileType     string       `json:"file_type"`
	ReportFormat ReportFormat `json:"report_format"`
	ClientID     string       `json:"client_id,omitempty"`
	Status       JobStatus    `json:"status"`

	TotalRecords     int64 `json:"total_records"`
	ProcessedRecords int64 `json:"processed_records"`
	FailedRecords    int64 `json:"failed_records"`

	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time `json:"processing_completed_at,omitempty"`

	RetryCount   int    `json:"retry_count"`
	MaxRetries   int    `json:"max_retries"`
	ErrorSummary string `json:"error_summary,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// NewJob creates a job in UPLOADED for a freshly received file.
func NewJob(filename string, size int64, maxRetries int) *ProcessingJob {
	now := time.Now().UTC()
	return &ProcessingJob{
		ID:           uuid.New(),
		Filename:     filename,
		FileSize:     size,
		FileType:     FileTypeEpin,
		ReportFormat: FormatUnknown,
		Status:       StatusUploaded,
		MaxRetries:   maxRetries,
		Metadata:     make(map[string]string),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TransitionTo validates and applies a status change. Every status write
// goes through here so the state machine cannot be bypassed.
func (j *ProcessingJob) TransitionTo(next JobStatus) error {
	for _, allowed := range jobTransitions[j.Status] {
		if allowed == next {
			j.Status = next
			j.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return &StateTransitionError{JobID: j.ID, From: j.Status, To: next}
}

// CanRetry reports whether a retry is currently permitted.
func (j *ProcessingJob) CanRetry() bool {
	return j.Status.IsTerminal() && j.RetryCount < j.MaxRetries
}
