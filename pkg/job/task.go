package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

// PeriodicTask runs on a five-field cron schedule.
type PeriodicTask interface {
	Name() string
	Schedule() string
	Handle(ctx context.Context) error
}

// periodicArgs is the River payload shared by every periodic task.
type periodicArgs struct {
	Task string `json:"task"`
}

func (periodicArgs) Kind() string { return "outreach:periodic" }

type periodicWorker struct {
	river.WorkerDefaults[periodicArgs]
	tasks  map[string]PeriodicTask
	logger *slog.Logger
}

func (w *periodicWorker) Work(ctx context.Context, job *river.Job[periodicArgs]) error {
	task, ok := w.tasks[job.Args.Task]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.Task)
	}

	start := time.Now()
	if err := task.Handle(ctx); err != nil {
		w.logger.ErrorContext(ctx, "periodic task failed",
			slog.String("task", job.Args.Task),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.String("error", err.Error()),
		)
		return err
	}

	w.logger.DebugContext(ctx, "periodic task done",
		slog.String("task", job.Args.Task),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

type cronSchedule struct {
	cron.Schedule
}

func (s cronSchedule) Next(t time.Time) time.Time { return s.Schedule.Next(t) }

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return cronSchedule{s}, nil
}
