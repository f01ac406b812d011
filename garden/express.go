package garden

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// defaultParallelThreshold is the minimum population for parallel
// expression. Below this, single-threaded is faster due to goroutine
// overhead.
const defaultParallelThreshold = 64

// plantSnapshot captures read-only state for the compute phase.
type plantSnapshot struct {
	entity   ecs.Entity
	genotype *genetics.Genotype
}

// expressResult carries one computed phenotype back to the apply phase.
type expressResult struct {
	profile genetics.PhenotypeProfile
	err     error
}

// workChunk is a range of snapshots for one worker.
type workChunk struct {
	start, end int
	env        genetics.Environment
}

// expressPool holds resources for parallel phenotype expression.
type expressPool struct {
	snapshots  []plantSnapshot
	results    []expressResult
	numWorkers int
	threshold  int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newExpressPool(workers, threshold int) *expressPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &expressPool{
		numWorkers: workers,
		threshold:  threshold,
		snapshots:  make([]plantSnapshot, 0, 128),
		results:    make([]expressResult, 0, 128),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *expressPool) startWorkers(g *Garden) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *expressPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *expressPool) worker(g *Garden) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeExpression(chunk.start, chunk.end, chunk.env)
			p.doneChan <- struct{}{}
		}
	}
}

// ExpressAll derives every plant's phenotype under env and stores it in
// the Expressed component. The pass runs in three phases: snapshot the
// population, compute profiles (in parallel above the threshold), then
// apply results single-threaded. Expression is pure, so worker scheduling
// never changes any profile. Returns the number of plants expressed.
func (g *Garden) ExpressAll(env genetics.Environment) (int, error) {
	// Phase A: build snapshots (single-threaded)
	p := g.pool
	p.snapshots = p.snapshots[:0]

	query := g.plantFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, genome, _ := query.Get()
		if genome.G == nil {
			continue
		}
		p.snapshots = append(p.snapshots, plantSnapshot{entity: entity, genotype: genome.G})
	}

	n := len(p.snapshots)
	if n == 0 {
		return 0, nil
	}

	if cap(p.results) < n {
		p.results = make([]expressResult, n)
	}
	p.results = p.results[:n]

	// Phase B: compute
	if n < p.threshold || p.numWorkers <= 1 {
		g.computeExpression(0, n, env)
	} else {
		g.computeExpressionParallel(n, env)
	}

	// Phase C: apply results (single-threaded)
	var firstErr error
	for i := range p.snapshots {
		result := &p.results[i]
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		expressed := g.exprMap.Get(p.snapshots[i].entity)
		if expressed == nil {
			continue
		}
		expressed.Profile = result.profile
		expressed.Valid = true
	}
	return n, firstErr
}

// computeExpressionParallel dispatches chunks to the worker pool.
func (g *Garden) computeExpressionParallel(n int, env genetics.Environment) {
	if !g.pool.running {
		g.pool.startWorkers(g)
	}

	numWorkers := g.pool.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		g.pool.workChan <- workChunk{start: start, end: end, env: env}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.pool.doneChan
	}
}

// computeExpression expresses a range of snapshots through the shared
// cache. The cache is concurrency-safe, so workers need no coordination.
func (g *Garden) computeExpression(i0, i1 int, env genetics.Environment) {
	for i := i0; i < i1; i++ {
		profile, err := g.cache.Express(g.pool.snapshots[i].genotype, env)
		g.pool.results[i] = expressResult{profile: profile, err: err}
	}
}
