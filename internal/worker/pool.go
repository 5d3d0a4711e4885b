package worker

import (
	"log"
	"sync"
)

// Pool runs queued tasks on a fixed set of goroutines so orchestration
// work never executes on an HTTP handler's goroutine.
type Pool struct {
	tasks   chan func()
	workers int
	wg      sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		tasks:   make(chan func(), 100),
		workers: workers,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task. It blocks only if the queue backlog is full.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log.Printf("worker %d started", id)
	for task := range p.tasks {
		task()
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Shutdown() {
	close(p.tasks)
	p.wg.Wait()
}
