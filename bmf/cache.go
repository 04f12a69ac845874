package bmf

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"bmfapprox/bitmat"
	"bmfapprox/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache materializes each (partition, k) factorization at most once.
// Concurrent requests for the same key share one computation. When Dir is
// set, results are persisted as <Dir>/<partition>.truth_{h,w,wh,d}_<k> and
// reloaded from there on later runs when the stored digest matches the table.
type Cache struct {
	Dir      string
	Weighted bool

	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	results map[string]Result
	group   singleflight.Group
}

func NewCache(dir string, weighted bool, logger *zap.Logger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Cache{
		Dir:      dir,
		Weighted: weighted,
		logger:   logger,
		metrics:  m,
		results:  make(map[string]Result),
	}
}

func cacheKey(partition string, k int) string {
	return fmt.Sprintf("%s/%d", partition, k)
}

func (c *Cache) prefix(partition string) string {
	return filepath.Join(c.Dir, partition+".truth")
}

func (c *Cache) lookup(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[key]
	return r, ok
}

// Get returns the rank-k factorization of the partition's truth table.
func (c *Cache) Get(partition string, table *bitmat.Matrix, k int) (Result, error) {
	key := cacheKey(partition, k)
	if r, ok := c.lookup(key); ok {
		c.metrics.CacheHits.Inc()
		return r, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if r, ok := c.lookup(key); ok {
			c.metrics.CacheHits.Inc()
			return r, nil
		}
		r, err := c.materialize(partition, table, k)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.results[key] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cache) materialize(partition string, table *bitmat.Matrix, k int) (Result, error) {
	if c.Dir != "" {
		r, ok, err := ReadFiles(c.prefix(partition), table, k, c.Weighted)
		if err != nil {
			c.logger.Warn("ignoring stored factorization", zap.String("partition", partition), zap.Int("k", k), zap.Error(err))
		} else if ok {
			c.metrics.CacheHits.Inc()
			c.logger.Debug("loaded factorization", zap.String("partition", partition), zap.Int("k", k), zap.Int64("score", r.Score))
			return r, nil
		}
	}

	c.metrics.CacheMisses.Inc()
	start := time.Now()
	r, err := Factorize(table, k, c.Weighted)
	if err != nil {
		return Result{}, err
	}
	c.metrics.FactorizeSeconds.Observe(time.Since(start).Seconds())
	c.logger.Debug("factorized",
		zap.String("partition", partition),
		zap.Int("k", k),
		zap.Int64("score", r.Score),
		zap.Float64("tau", r.Tau),
		zap.Duration("took", time.Since(start)))

	if c.Dir != "" {
		if err := WriteFiles(c.prefix(partition), table, r); err != nil {
			return Result{}, err
		}
	}
	return r, nil
}

// Len reports how many factorizations are held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
