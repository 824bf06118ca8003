package graph

import "sync"

// ScratchPool reuses the per-call float64/int64/bool slices Dijkstra needs
// (dist, prev, visited) across repeated per-origin calls, so a full solver
// run doesn't reallocate O(N) arrays on every origin.
type ScratchPool struct {
	floatPool sync.Pool
	int64Pool sync.Pool
	boolPool  sync.Pool
}

var globalPool = NewScratchPool()

// GetPool returns the process-global scratch pool.
func GetPool() *ScratchPool {
	return globalPool
}

func NewScratchPool() *ScratchPool {
	return &ScratchPool{}
}

// AcquireFloats returns a []float64 of length n with the pooled backing
// array reused when possible.
func (p *ScratchPool) AcquireFloats(n int) []float64 {
	if v := p.floatPool.Get(); v != nil {
		s := v.([]float64)
		if cap(s) >= n {
			return s[:n]
		}
	}
	return make([]float64, n)
}

// ReleaseFloats returns s to the pool for reuse.
func (p *ScratchPool) ReleaseFloats(s []float64) {
	p.floatPool.Put(s) //nolint:staticcheck // intentional: reuse backing array regardless of length
}

// AcquireInt64s returns a []int64 of length n.
func (p *ScratchPool) AcquireInt64s(n int) []int64 {
	if v := p.int64Pool.Get(); v != nil {
		s := v.([]int64)
		if cap(s) >= n {
			return s[:n]
		}
	}
	return make([]int64, n)
}

func (p *ScratchPool) ReleaseInt64s(s []int64) {
	p.int64Pool.Put(s) //nolint:staticcheck
}

// AcquireBools returns a []bool of length n.
func (p *ScratchPool) AcquireBools(n int) []bool {
	if v := p.boolPool.Get(); v != nil {
		s := v.([]bool)
		if cap(s) >= n {
			return s[:n]
		}
	}
	return make([]bool, n)
}

func (p *ScratchPool) ReleaseBools(s []bool) {
	p.boolPool.Put(s) //nolint:staticcheck
}

// DijkstraScratch bundles the per-call arrays one Dijkstra invocation needs,
// indexed by (nodeID-1) so ids 1..N map directly without a map lookup.
// Keeping this state off the shared Node objects makes concurrent
// per-origin Dijkstra runs safe.
type DijkstraScratch struct {
	Dist    []float64
	Prev    []int64 // 0 means "no predecessor"
	Visited []bool
	pool    *ScratchPool
}

// AcquireDijkstraScratch sizes every array for n nodes and initializes
// Dist=+Inf, Prev=0, Visited=false.
func AcquireDijkstraScratch(pool *ScratchPool, n int) *DijkstraScratch {
	s := &DijkstraScratch{
		Dist:    pool.AcquireFloats(n),
		Prev:    pool.AcquireInt64s(n),
		Visited: pool.AcquireBools(n),
		pool:    pool,
	}
	for i := range s.Dist {
		s.Dist[i] = Infinity
		s.Prev[i] = 0
		s.Visited[i] = false
	}
	return s
}

// Release returns the scratch's backing arrays to its pool.
func (s *DijkstraScratch) Release() {
	s.pool.ReleaseFloats(s.Dist)
	s.pool.ReleaseInt64s(s.Prev)
	s.pool.ReleaseBools(s.Visited)
}

// Infinity is the Dijkstra scratch's initial distance value.
const Infinity = 1e308
