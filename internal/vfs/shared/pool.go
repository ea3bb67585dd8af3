package shared

import "sync"

// Pool is a bounded worker pool, grounded on the teacher's
// workflow.Manager lifecycle shape (fixed goroutines draining a work
// channel, joined via a WaitGroup on Close). Used for both the IO pool
// and the processing pool of spec §5; callers size it per role.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts a pool of workers goroutines consuming submitted tasks.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func(), workers*4)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues task for execution by one of the pool's workers.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting new tasks and blocks until all workers drain.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
