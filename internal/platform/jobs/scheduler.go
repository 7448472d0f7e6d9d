// Package jobs runs periodic maintenance tasks in the background.
package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task does one round of work and reports how many rows it touched.
type Task func(ctx context.Context) (int64, error)

type job struct {
	name     string
	interval time.Duration
	run      Task
}

type Scheduler struct {
	logger *zap.Logger
	jobs   []job
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger.Named("jobs")}
}

// Every registers task to run once per interval. A non-positive interval
// leaves the task out. Register everything before Start.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	if interval <= 0 || task == nil {
		return
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: task})
}

// Start launches one goroutine per task. They stop when ctx is done; Wait
// blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunNow(ctx, j.name, j.run)
		}
	}
}

// RunNow runs task once in the caller's goroutine and logs the outcome.
func (s *Scheduler) RunNow(ctx context.Context, name string, task Task) {
	started := time.Now()
	affected, err := task(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("job run failed", zap.String("job", name), zap.Error(err))
		}
		return
	}
	s.logger.Info("job run completed",
		zap.String("job", name),
		zap.Int64("affected", affected),
		zap.Duration("duration", time.Since(started)),
	)
}
