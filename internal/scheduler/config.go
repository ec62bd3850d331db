package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"

	"github.com/kitpress-go/framework/internal/config"
)

// HookTrigger fires a named hook, as container.TriggerHook does.
type HookTrigger func(ctx context.Context, event string, data any) error

// FromConfig builds a scheduler from the "cron" document: the timezone and
// every job under cron.jobs shaped as name: {schedule, hook}. Each job fires
// its hook with the job name as payload.
func FromConfig(store *config.Store, trigger HookTrigger, logger *slog.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(store.GetString("cron.timezone", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	s := New(location, logger)
	if err := s.LoadJobs(store.Map("cron.jobs"), trigger); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadJobs schedules the jobs of a cron.jobs tree.
func (s *Scheduler) LoadJobs(tree map[string]any, trigger HookTrigger) error {
	for name, raw := range tree {
		fields, err := cast.ToStringMapE(raw)
		if err != nil {
			return fmt.Errorf("%w: %s must be a mapping", ErrInvalidJob, name)
		}

		spec := cast.ToString(fields["schedule"])
		hook := cast.ToString(fields["hook"])
		if spec == "" || hook == "" {
			return fmt.Errorf("%w: %s needs a schedule and a hook", ErrInvalidJob, name)
		}

		jobName := name
		if err := s.Add(jobName, spec, func(ctx context.Context) error {
			return trigger(ctx, hook, jobName)
		}); err != nil {
			return err
		}
	}
	return nil
}
