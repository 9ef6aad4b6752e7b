package pyramid

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/tilepyramid/gdal2tiles/internal/raster"
)

// EncodeTask is a unit of work submitted to the worker pool: encode an
// image to PNG bytes and write it to path. Each task owns an independent
// image sub-buffer; there is no shared mutable state between workers
// (spec.md §5).
type EncodeTask struct {
	Path  string
	Image *raster.Image
}

// Pool is a bounded set of workers that write encoded tile bytes to disk
// concurrently, with a submit/join barrier (spec.md §4.3, §5, §9). The
// parallelism unit is the encode-to-PNG write; extraction and hashing stay
// on the driver goroutine so the seen map never needs locking.
type Pool struct {
	jobs    chan EncodeTask
	wg      sync.WaitGroup
	mu      sync.Mutex
	firstErr error
}

// NewPool starts a pool with the given number of workers (0 or negative
// defaults to runtime.NumCPU()) and the given submit-queue depth.
func NewPool(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueDepth <= 0 {
		queueDepth = workers * 2
	}

	p := &Pool{jobs: make(chan EncodeTask, queueDepth)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.jobs {
		data, err := task.Image.Encode()
		if err != nil {
			p.recordErr(fmt.Errorf("%w: %v", ErrEncodeFailure, err))
			continue
		}
		if err := writeFile(task.Path, data); err != nil {
			p.recordErr(err)
		}
	}
}

func (p *Pool) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr == nil {
		p.firstErr = err
	}
}

// Submit enqueues a task. It blocks if the bounded queue is full
// (backpressure), as required by spec.md §5.
func (p *Pool) Submit(task EncodeTask) {
	p.jobs <- task
}

// Join closes the submit channel, waits for every worker to drain, and
// returns the first recorded failure, if any. Must be called exactly once
// per pool instance, at the end of a level (spec.md §4.2 step 5, §4.3).
func (p *Pool) Join() error {
	close(p.jobs)
	p.wg.Wait()
	return p.firstErr
}
