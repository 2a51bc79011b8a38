package domain

import "context"

// Task is one configured data-movement execution: dump, copy, export,
// import, sql or retention sweep. A task either completes or fails with
// a single fatal error; partial-success states are not reported.
type Task interface {
	Execute(ctx context.Context) error
}

// ScheduledTask pairs a task with its cron schedule for the runner.
type ScheduledTask struct {
	Name     string
	Schedule string
	Task     Task
}
