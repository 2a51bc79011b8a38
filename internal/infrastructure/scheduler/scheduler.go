package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers task executions on cron schedules. A dump can
// outlast its own interval, so a job still running at its next tick
// skips that tick instead of overlapping itself. It owns no retry or
// timeout policy; a task that fails simply waits for its next tick.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

func (s *Scheduler) AddJob(spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		_ = job(context.Background())
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
