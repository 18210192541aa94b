package translator

import "sync"

// workerPool is a lazily started, bounded pool shared by all requests flowing
// through one adapter. Workers are spawned on first submission and released
// by shutdown.
type workerPool struct {
	size  int
	tasks chan func()
	quit  chan struct{}
	start sync.Once
	stop  sync.Once
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{
		size:  size,
		tasks: make(chan func(), size),
		quit:  make(chan struct{}),
	}
}

// submit queues a task, starting the workers on first use. May block the
// calling goroutine while the queue is full; callers that must not block
// submit from a dispatcher goroutine. After shutdown the task still runs, in
// its own goroutine, so in-flight callbacks keep flowing.
func (p *workerPool) submit(task func()) {
	p.start.Do(func() {
		for i := 0; i < p.size; i++ {
			go p.worker()
		}
	})

	select {
	case <-p.quit:
		go task()
	case p.tasks <- task:
	}
}

func (p *workerPool) worker() {
	for {
		select {
		case <-p.quit:
			// Tasks queued before shutdown still run, so every in-flight
			// request reaches its finished callback.
			for {
				select {
				case task := <-p.tasks:
					go task()
				default:
					return
				}
			}
		case task := <-p.tasks:
			task()
		}
	}
}

// shutdown releases the workers. Idempotent.
func (p *workerPool) shutdown() {
	p.stop.Do(func() {
		close(p.quit)
	})
}
