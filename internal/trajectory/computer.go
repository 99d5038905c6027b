package trajectory

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-skydome/internal/logging"
)

// DefaultCacheSize is the number of samples a Computer keeps.
const DefaultCacheSize = 256

// Result pairs a request with its outcome in ComputeAll.
type Result struct {
	Request Request
	Sample  *Sample
	Err     error
}

// Computer memoizes trajectory samples. Safe for concurrent use.
type Computer struct {
	cache   *lru.Cache
	log     *logging.Logger
	workers int

	mu           sync.Mutex
	hits, misses int
}

// NewComputer creates a Computer holding up to size samples.
func NewComputer(size int, log *logging.Logger) (*Computer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("trajectory cache: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Computer{
		cache:   cache,
		log:     log.With("trajectory"),
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// SetWorkers limits ComputeAll concurrency.
func (c *Computer) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.workers = n
}

// cacheKey identifies a request. Static bodies are keyed by position so two
// objects with the same label do not collide.
type cacheKey struct {
	name             string
	ra, dec          float64
	static           bool
	lat, lon, offset float64
	epoch            float64
	start, duration  float64
	segments         int
	radius           float64
	strategy         Strategy
}

func keyFor(req Request) cacheKey {
	obs := req.Observer.Normalized()
	k := cacheKey{
		name:     req.Body.Name(),
		static:   req.Body.Static(),
		lat:      obs.LatDeg,
		lon:      obs.LonDeg,
		offset:   obs.UTCOffset,
		epoch:    req.EpochJD,
		start:    req.StartOffsetHours,
		duration: req.DurationHours,
		segments: req.Segments,
		radius:   req.Radius,
		strategy: req.Strategy,
	}
	if k.static {
		eq := req.Body.Equatorial(req.EpochJD)
		k.ra, k.dec = eq.RA, eq.Dec
	}
	return k
}

// Compute returns a cached sample or computes and stores a new one.
func (c *Computer) Compute(req Request) (*Sample, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := keyFor(req)
	if v, ok := c.cache.Get(key); ok {
		c.count(true)
		return v.(*Sample), nil
	}
	c.count(false)

	s, err := Compute(req)
	if err != nil {
		return nil, err
	}
	if !finitePoints(s) {
		c.log.Warn("%s: non-finite trajectory point", s.Name)
	}
	c.cache.Add(key, s)
	c.log.Debug("computed %s (%s, %d segments)", s.Name, s.Strategy, req.Segments)
	return s, nil
}

// ComputeAll computes every request concurrently. Results keep request
// order; a failed request records its error without stopping the others.
// The returned error is non-nil only when ctx is cancelled.
func (c *Computer) ComputeAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := c.Compute(req)
			results[i] = Result{Request: req, Sample: s, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Purge drops every cached sample.
func (c *Computer) Purge() {
	c.cache.Purge()
}

// Len reports the number of cached samples.
func (c *Computer) Len() int {
	return c.cache.Len()
}

// Stats reports cache hits and misses since creation.
func (c *Computer) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Computer) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

func finitePoints(s *Sample) bool {
	for _, p := range s.Points {
		if !p.Position.IsFinite() {
			return false
		}
	}
	return true
}
