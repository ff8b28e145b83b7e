package report

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// reportCache memoizes built report trees. Keys embed a generation counter
// that Invalidate bumps whenever new records land, so stale trees simply
// fall out of the LRU instead of needing explicit eviction.
type reportCache struct {
	trees      *lru.Cache[string, interface{}]
	generation atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

const defaultCacheSize = 64

func newReportCache(size int) (*reportCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	trees, err := lru.New[string, interface{}](size)
	if err != nil {
		return nil, err
	}
	return &reportCache{trees: trees}, nil
}

// key fingerprints a report request together with the current generation.
func (c *reportCache) key(report string, f recorddb.Filter) string {
	start, end := "", ""
	if f.StartDate != nil {
		start = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		end = f.EndDate.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|gen%d",
		report, start, end, f.CurrencyCode, f.DestinationPrefix, f.BusinessMode, c.generation.Load())
}

func (c *reportCache) get(key string) (interface{}, bool) {
	v, ok := c.trees.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *reportCache) put(key string, tree interface{}) {
	c.trees.Add(key, tree)
}

// invalidate starts a new generation; entries from older generations become
// unreachable.
func (c *reportCache) invalidate() {
	c.generation.Add(1)
}
