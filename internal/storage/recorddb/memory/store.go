// Package memory implements the record store contract with mutex-guarded
// in-process collections. It backs unit tests and dev runs; transactions
// stage their writes and apply them atomically on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Store holds all collections behind one lock. Write amplification is not
// a concern at test scale; correctness of commit atomicity is.
type Store struct {
	mu   sync.RWMutex
	open bool

	jobs     map[uuid.UUID]*epin.ProcessingJob
	jobOrder []uuid.UUID
	headers  []*epin.EpinFileHeader
	vss110   []*epin.Vss110Record
	sub4     []*epin.SubGroup4Record
	tcr1     []*epin.Tcr1Record
}

// New creates an empty store.
func New() *Store {
	return &Store{jobs: make(map[uuid.UUID]*epin.ProcessingJob)}
}

func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *Store) Jobs() recorddb.JobRepository           { return &jobRepo{s: s} }
func (s *Store) Headers() recorddb.HeaderRepository     { return &headerRepo{s: s} }
func (s *Store) Vss110() recorddb.Vss110Repository      { return &vss110Repo{s: s} }
func (s *Store) SubGroup4() recorddb.SubGroup4Repository { return &sub4Repo{s: s} }
func (s *Store) Tcr1() recorddb.Tcr1Repository          { return &tcr1Repo{s: s} }
func (s *Store) System() recorddb.SystemRepository      { return &systemRepo{s: s} }

func (s *Store) WithTransaction(ctx context.Context, fn func(recorddb.TransactionContext) error) error {
	tx, err := s.System().Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) checkOpen() error {
	if !s.open {
		return recorddb.ErrDatabaseClosed
	}
	return nil
}

// tx stages mutations and applies them under the store lock on commit.
type tx struct {
	s    *Store
	mu   sync.Mutex
	ops  []func(*Store)
	done bool
}

func (t *tx) stage(op func(*Store)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return recorddb.ErrTransactionClosed
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return recorddb.ErrTransactionClosed
	}
	t.done = true

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, op := range t.ops {
		op(t.s)
	}
	t.ops = nil
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.ops = nil
	return nil
}

func (t *tx) Jobs() recorddb.JobRepository            { return &jobRepo{s: t.s, tx: t} }
func (t *tx) Headers() recorddb.HeaderRepository      { return &headerRepo{s: t.s, tx: t} }
func (t *tx) Vss110() recorddb.Vss110Repository       { return &vss110Repo{s: t.s, tx: t} }
func (t *tx) SubGroup4() recorddb.SubGroup4Repository { return &sub4Repo{s: t.s, tx: t} }
func (t *tx) Tcr1() recorddb.Tcr1Repository           { return &tcr1Repo{s: t.s, tx: t} }

type systemRepo struct{ s *Store }

func (r *systemRepo) Ping(ctx context.Context) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.checkOpen()
}

func (r *systemRepo) Begin(ctx context.Context) (recorddb.TransactionContext, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.checkOpen(); err != nil {
		return nil, err
	}
	return &tx{s: r.s}, nil
}

// ----- jobs -----

type jobRepo struct {
	s  *Store
	tx *tx
}

func cloneJob(j *epin.ProcessingJob) *epin.ProcessingJob {
	c := *j
	if j.Metadata != nil {
		c.Metadata = make(map[string]string, len(j.Metadata))
		for k, v := range j.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func (r *jobRepo) apply(op func(*Store)) error {
	if r.tx != nil {
		return r.tx.stage(op)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOpen(); err != nil {
		return err
	}
	op(r.s)
	return nil
}

func (r *jobRepo) Insert(ctx context.Context, job *epin.ProcessingJob) error {
	c := cloneJob(job)
	return r.apply(func(s *Store) {
		if _, ok := s.jobs[c.ID]; !ok {
			s.jobOrder = append(s.jobOrder, c.ID)
		}
		s.jobs[c.ID] = c
	})
}

func (r *jobRepo) Save(ctx context.Context, job *epin.ProcessingJob) error {
	job.Version++
	job.UpdatedAt = time.Now().UTC()
	return r.Insert(ctx, job)
}

func (r *jobRepo) FindByID(ctx context.Context, id uuid.UUID) (*epin.ProcessingJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.checkOpen(); err != nil {
		return nil, err
	}
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, recorddb.ErrNotFound
	}
	return cloneJob(j), nil
}

func (r *jobRepo) FindByClient(ctx context.Context, clientID string) ([]*epin.ProcessingJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.ProcessingJob
	for _, id := range r.s.jobOrder {
		if j := r.s.jobs[id]; j.ClientID == clientID {
			out = append(out, cloneJob(j))
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (r *jobRepo) Recent(ctx context.Context, limit int) ([]*epin.ProcessingJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*epin.ProcessingJob, 0, len(r.s.jobOrder))
	for _, id := range r.s.jobOrder {
		out = append(out, cloneJob(r.s.jobs[id]))
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *jobRepo) CountByStatus(ctx context.Context) (map[epin.JobStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[epin.JobStatus]int64)
	for _, j := range r.s.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (r *jobRepo) ProcessingStats(ctx context.Context) (*recorddb.ProcessingStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &recorddb.ProcessingStats{}
	var totalSeconds, totalRecords float64
	for _, j := range r.s.jobs {
		if j.Status != epin.StatusCompleted {
			continue
		}
		stats.CompletedJobs++
		if j.ProcessingStartedAt != nil && j.ProcessingCompletedAt != nil {
			totalSeconds += j.ProcessingCompletedAt.Sub(*j.ProcessingStartedAt).Seconds()
		}
		totalRecords += float64(j.TotalRecords)
		if j.TotalRecords > stats.MaxRecords {
			stats.MaxRecords = j.TotalRecords
		}
		if stats.MinRecords == 0 || j.TotalRecords < stats.MinRecords {
			stats.MinRecords = j.TotalRecords
		}
	}
	if stats.CompletedJobs > 0 {
		stats.AvgProcessingSeconds = totalSeconds / float64(stats.CompletedJobs)
		stats.AvgRecordsPerJob = totalRecords / float64(stats.CompletedJobs)
	}
	return stats, nil
}

// ----- headers -----

type headerRepo struct {
	s  *Store
	tx *tx
}

func (r *headerRepo) apply(op func(*Store)) error {
	if r.tx != nil {
		return r.tx.stage(op)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOpen(); err != nil {
		return err
	}
	op(r.s)
	return nil
}

func (r *headerRepo) Insert(ctx context.Context, h *epin.EpinFileHeader) error {
	c := *h
	c.ValidationErrors = append([]string(nil), h.ValidationErrors...)
	return r.apply(func(s *Store) { s.headers = append(s.headers, &c) })
}

func (r *headerRepo) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.EpinFileHeader, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.EpinFileHeader
	for _, h := range r.s.headers {
		if h.JobID == jobID {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *headerRepo) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return r.apply(func(s *Store) {
		kept := s.headers[:0]
		for _, h := range s.headers {
			if h.JobID != jobID {
				kept = append(kept, h)
			}
		}
		s.headers = kept
	})
}

// ----- VSS-110 -----

type vss110Repo struct {
	s  *Store
	tx *tx
}

func cloneVss110(rec *epin.Vss110Record) *epin.Vss110Record {
	c := *rec
	c.ValidationErrors = append([]string(nil), rec.ValidationErrors...)
	return &c
}

func (r *vss110Repo) apply(op func(*Store)) error {
	if r.tx != nil {
		return r.tx.stage(op)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOpen(); err != nil {
		return err
	}
	op(r.s)
	return nil
}

func (r *vss110Repo) Insert(ctx context.Context, rec *epin.Vss110Record) error {
	c := cloneVss110(rec)
	return r.apply(func(s *Store) { s.vss110 = append(s.vss110, c) })
}

func (r *vss110Repo) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Vss110Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.Vss110Record
	for _, rec := range r.s.vss110 {
		if rec.JobID == jobID {
			out = append(out, cloneVss110(rec))
		}
	}
	return out, nil
}

func (r *vss110Repo) FindByFilter(ctx context.Context, f recorddb.Filter) ([]*epin.Vss110Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.Vss110Record
	for _, rec := range r.s.vss110 {
		if f.Matches(rec.SettlementDate, rec.CurrencyCode, rec.DestinationID, rec.BusinessMode) {
			out = append(out, cloneVss110(rec))
		}
	}
	return out, nil
}

func (r *vss110Repo) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return r.apply(func(s *Store) {
		kept := s.vss110[:0]
		for _, rec := range s.vss110 {
			if rec.JobID != jobID {
				kept = append(kept, rec)
			}
		}
		s.vss110 = kept
	})
}

// ----- subgroup-4 TCR0 -----

type sub4Repo struct {
	s  *Store
	tx *tx
}

func cloneSub4(rec *epin.SubGroup4Record) *epin.SubGroup4Record {
	c := *rec
	c.ValidationErrors = append([]string(nil), rec.ValidationErrors...)
	return &c
}

func (r *sub4Repo) apply(op func(*Store)) error {
	if r.tx != nil {
		return r.tx.stage(op)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOpen(); err != nil {
		return err
	}
	op(r.s)
	return nil
}

func (r *sub4Repo) Insert(ctx context.Context, rec *epin.SubGroup4Record) error {
	c := cloneSub4(rec)
	return r.apply(func(s *Store) { s.sub4 = append(s.sub4, c) })
}

func (r *sub4Repo) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.SubGroup4Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.SubGroup4Record
	for _, rec := range r.s.sub4 {
		if rec.JobID == jobID {
			out = append(out, cloneSub4(rec))
		}
	}
	return out, nil
}

func (r *sub4Repo) FindLastByJobAndFamily(ctx context.Context, jobID uuid.UUID, family string) (*epin.SubGroup4Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *epin.SubGroup4Record
	for _, rec := range r.s.sub4 {
		if rec.JobID == jobID && rec.Family() == family {
			if best == nil || rec.LineNumber > best.LineNumber {
				best = rec
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneSub4(best), nil
}

func (r *sub4Repo) FindWithChildren(ctx context.Context, family string, f recorddb.Filter) ([]recorddb.JoinedSubGroup4, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var parents []*epin.SubGroup4Record
	for _, rec := range r.s.sub4 {
		if rec.Family() != family {
			continue
		}
		if !f.Matches(rec.SettlementDate, rec.SettlementCurrencyCode, rec.DestinationID, rec.BusinessMode) {
			continue
		}
		parents = append(parents, rec)
	}
	sort.SliceStable(parents, func(i, k int) bool {
		a, b := parents[i], parents[k]
		if a.BusinessMode != b.BusinessMode {
			return a.BusinessMode < b.BusinessMode
		}
		if a.BusinessTransactionType != b.BusinessTransactionType {
			return a.BusinessTransactionType < b.BusinessTransactionType
		}
		return a.BusinessTransactionCycle < b.BusinessTransactionCycle
	})

	out := make([]recorddb.JoinedSubGroup4, 0, len(parents))
	for _, parent := range parents {
		joined := recorddb.JoinedSubGroup4{Record: cloneSub4(parent)}
		for _, child := range r.s.tcr1 {
			if child.ParentID != nil && *child.ParentID == parent.ID {
				joined.Children = append(joined.Children, cloneTcr1(child))
			}
		}
		sort.SliceStable(joined.Children, func(i, k int) bool {
			return joined.Children[i].LineNumber < joined.Children[k].LineNumber
		})
		out = append(out, joined)
	}
	return out, nil
}

func (r *sub4Repo) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return r.apply(func(s *Store) {
		kept := s.sub4[:0]
		for _, rec := range s.sub4 {
			if rec.JobID != jobID {
				kept = append(kept, rec)
			}
		}
		s.sub4 = kept
	})
}

// ----- TCR1 -----

type tcr1Repo struct {
	s  *Store
	tx *tx
}

func cloneTcr1(rec *epin.Tcr1Record) *epin.Tcr1Record {
	c := *rec
	c.ValidationErrors = append([]string(nil), rec.ValidationErrors...)
	if rec.ParentID != nil {
		id := *rec.ParentID
		c.ParentID = &id
	}
	return &c
}

func (r *tcr1Repo) apply(op func(*Store)) error {
	if r.tx != nil {
		return r.tx.stage(op)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkOpen(); err != nil {
		return err
	}
	op(r.s)
	return nil
}

func (r *tcr1Repo) Insert(ctx context.Context, rec *epin.Tcr1Record) error {
	c := cloneTcr1(rec)
	return r.apply(func(s *Store) { s.tcr1 = append(s.tcr1, c) })
}

func (r *tcr1Repo) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Tcr1Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.Tcr1Record
	for _, rec := range r.s.tcr1 {
		if rec.JobID == jobID {
			out = append(out, cloneTcr1(rec))
		}
	}
	return out, nil
}

func (r *tcr1Repo) FindByParent(ctx context.Context, parentID uuid.UUID) ([]*epin.Tcr1Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*epin.Tcr1Record
	for _, rec := range r.s.tcr1 {
		if rec.ParentID != nil && *rec.ParentID == parentID {
			out = append(out, cloneTcr1(rec))
		}
	}
	return out, nil
}

func (r *tcr1Repo) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return r.apply(func(s *Store) {
		kept := s.tcr1[:0]
		for _, rec := range s.tcr1 {
			if rec.JobID != jobID {
				kept = append(kept, rec)
			}
		}
		s.tcr1 = kept
	})
}
