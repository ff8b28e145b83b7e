package report

import (
	"context"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Service answers report queries against the record store, caching built
// trees until Invalidate is called.
type Service struct {
	store recorddb.RepositoryManager
	cache *reportCache
}

// NewService creates a report service with a cache of cacheSize trees
// (<= 0 uses the default size).
func NewService(store recorddb.RepositoryManager, cacheSize int) (*Service, error) {
	cache, err := newReportCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, cache: cache}, nil
}

// Invalidate must be called after records change (a job completes or is
// retried) so subsequent queries rebuild from the store.
func (s *Service) Invalidate() {
	s.cache.invalidate()
}

// Vss110Stats builds the settlement summary stats tree for the filter.
func (s *Service) Vss110Stats(ctx context.Context, f recorddb.Filter) (*Vss110Stats, error) {
	key := s.cache.key("vss110", f)
	if cached, ok := s.cache.get(key); ok {
		return cached.(*Vss110Stats), nil
	}

	records, err := s.store.Vss110().FindByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	tree := BuildVss110Stats(records)
	s.cache.put(key, tree)
	return tree, nil
}

// Vss120Report builds the interchange value report for the filter.
func (s *Service) Vss120Report(ctx context.Context, f recorddb.Filter) (*Vss120Report, error) {
	key := s.cache.key("vss120", f)
	if cached, ok := s.cache.get(key); ok {
		return cached.(*Vss120Report), nil
	}

	joined, err := s.store.SubGroup4().FindWithChildren(ctx, "120", f)
	if err != nil {
		return nil, err
	}
	tree := BuildVss120Report(joined)
	s.cache.put(key, tree)
	return tree, nil
}

// Vss130Report builds the reimbursement fees report for the filter.
func (s *Service) Vss130Report(ctx context.Context, f recorddb.Filter) (*Vss130Report, error) {
	key := s.cache.key("vss130", f)
	if cached, ok := s.cache.get(key); ok {
		return cached.(*Vss130Report), nil
	}

	joined, err := s.store.SubGroup4().FindWithChildren(ctx, "130", f)
	if err != nil {
		return nil, err
	}
	tree := BuildVss130Report(joined)
	s.cache.put(key, tree)
	return tree, nil
}

// Vss140Report builds the charges report for the filter.
func (s *Service) Vss140Report(ctx context.Context, f recorddb.Filter) (*Vss140Report, error) {
	key := s.cache.key("vss140", f)
	if cached, ok := s.cache.get(key); ok {
		return cached.(*Vss140Report), nil
	}

	joined, err := s.store.SubGroup4().FindWithChildren(ctx, "140", f)
	if err != nil {
		return nil, err
	}
	tree := BuildVss140Report(joined)
	s.cache.put(key, tree)
	return tree, nil
}
