package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

// Task is the work a job performs. The progress callback persists an
// intermediate status update visible to status polling.
type Task func(ctx context.Context, job Job, progress func(detail string)) error

// Pool runs queued jobs on a fixed number of workers. Job state transitions
// (pending → started → progress → success/failure) are persisted at each
// step, and job input files are removed once a job reaches a terminal state.
type Pool struct {
	store   *Store
	task    Task
	queue   chan string
	workers int
	wg      sync.WaitGroup
}

func NewPool(store *Store, task Task, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 16
	}
	return &Pool{
		store:   store,
		task:    task,
		queue:   make(chan string, queueSize),
		workers: workers,
	}
}

// Start launches the workers. They drain the queue until ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(n int) {
			defer p.wg.Done()
			logger.Debugf("job worker %d started", n)
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-p.queue:
					p.execute(ctx, id)
				}
			}
		}(i)
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Enqueue persists the job and hands it to the workers. A full queue is an
// immediate error rather than a blocked request handler.
func (p *Pool) Enqueue(job Job) error {
	if err := p.store.Create(job); err != nil {
		return err
	}
	select {
	case p.queue <- job.ID:
		return nil
	default:
		_ = p.store.Delete(job.ID)
		return errs.New(errs.CodeInvalidState, "jobs", "job queue is full", nil)
	}
}

func (p *Pool) execute(ctx context.Context, id string) {
	job, err := p.store.Get(id)
	if err != nil {
		logger.Errorf("worker could not load job %s: %v", id, err)
		return
	}

	job.Status = StatusStarted
	if err := p.store.Update(job); err != nil {
		logger.Errorf("failed to mark job %s started: %v", id, err)
		return
	}

	progress := func(detail string) {
		job.Status = StatusProgress
		job.Detail = detail
		if err := p.store.Update(job); err != nil {
			logger.Warnf("failed to record progress for job %s: %v", id, err)
		}
	}

	taskErr := p.task(ctx, job, progress)

	if taskErr != nil {
		logger.Errorf("job %s failed: %v", id, taskErr)
		job.Status = StatusFailure
		job.Detail = taskErr.Error()
		// A failed job keeps nothing.
		if job.ResultPath != "" {
			_ = os.Remove(job.ResultPath)
		}
	} else {
		logger.Infof("job %s succeeded", id)
		job.Status = StatusSuccess
		job.Detail = ""
	}

	cleanupFiles(job.InputPaths)

	if err := p.store.Update(job); err != nil {
		logger.Errorf("failed to record final state of job %s: %v", id, err)
	}
}

func cleanupFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("could not remove %s: %v", path, err)
		}
	}
}

// Describe renders a short human status line for logs and the status page.
func Describe(job Job) string {
	if job.Detail != "" {
		return fmt.Sprintf("%s: %s", job.Status, job.Detail)
	}
	return string(job.Status)
}
