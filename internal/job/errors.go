package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
)

var (
	// ErrJobNotFound is returned when a job id does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobInFlight is returned when a submit or retry is attempted while
	// the same job is still being processed. Callers must serialise.
	ErrJobInFlight = errors.New("job is currently being processed")

	// ErrRetryExhausted is returned when a retry is requested past the
	// job's retry budget.
	ErrRetryExhausted = errors.New("retry limit exceeded")

	// ErrEmptyContent is returned when a submit carries no payload and no
	// stored blob exists for the job.
	ErrEmptyContent = errors.New("no file content available")
)

// BadStateError reports an operation attempted against a job whose current
// status does not permit it.
type BadStateError struct {
	JobID  uuid.UUID
	Status epin.JobStatus
	Action string
}

func (e *BadStateError) Error() string {
	return fmt.Sprintf("job %s: cannot %s in status %s", e.JobID, e.Action, e.Status)
}

// maxSummaryLines bounds the per-job error summary; further errors are
// folded into an overflow count.
const maxSummaryLines = 10

// errorSummary accumulates record-level error lines for the job summary.
type errorSummary struct {
	lines    []string
	overflow int
}

func (s *errorSummary) add(line string) {
	if len(s.lines) >= maxSummaryLines {
		s.overflow++
		return
	}
	s.lines = append(s.lines, line)
}

func (s *errorSummary) empty() bool {
	return len(s.lines) == 0 && s.overflow == 0
}

func (s *errorSummary) String() string {
	if s.empty() {
		return ""
	}
	out := strings.Join(s.lines, "\n")
	if s.overflow > 0 {
		out += fmt.Sprintf("\n... and %d more errors", s.overflow)
	}
	return out
}
