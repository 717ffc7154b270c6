package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Task is one best-effort side-channel delivery (push, topic publish, token cleanup).
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget tasks on a fixed worker pool.
// Submitting never blocks: a full queue drops the task with a warning.
// Task results are logged and never returned to the submitter.
type Dispatcher struct {
	tasks   chan Task
	timeout time.Duration

	mu     sync.RWMutex
	closed bool

	workers conc.WaitGroup
	pending sync.WaitGroup
}

func NewDispatcher(workers, queue int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &Dispatcher{
		tasks:   make(chan Task, queue),
		timeout: timeout,
	}
	for range workers {
		d.workers.Go(d.loop)
	}
	return d
}

// Go enqueues fn. It reports false if the task was dropped.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("module", "app.dispatch").Str("task", name).Msg("dispatcher closed, task dropped")
		return false
	}
	d.pending.Add(1)
	select {
	case d.tasks <- Task{Name: name, Run: fn}:
		return true
	default:
		d.pending.Done()
		log.Warn().Str("module", "app.dispatch").Str("task", name).Msg("queue full, task dropped")
		return false
	}
}

func (d *Dispatcher) loop() {
	for t := range d.tasks {
		d.run(t)
		d.pending.Done()
	}
}

func (d *Dispatcher) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var err error
	var pc panics.Catcher
	pc.Try(func() { err = t.Run(ctx) })
	if r := pc.Recovered(); r != nil {
		log.Error().Str("module", "app.dispatch").Str("task", t.Name).Str("panic", r.String()).Msg("task panicked")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "app.dispatch").Str("task", t.Name).Msg("task failed")
		return
	}
	log.Debug().Str("module", "app.dispatch").Str("task", t.Name).Msg("task done")
}

// Drain blocks until every accepted task has finished.
func (d *Dispatcher) Drain() {
	d.pending.Wait()
}

// Close stops intake, lets queued tasks finish and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()
	d.workers.Wait()
	log.Info().Str("module", "app.dispatch").Msg("dispatcher stopped")
}
