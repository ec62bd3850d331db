// Package scheduler runs named cron jobs for a container. Jobs declared in
// the "cron" config document fire a container hook on their schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrJobNotFound    = errors.New("scheduler: job not found")
	ErrInvalidJob     = errors.New("scheduler: invalid job")
	ErrAlreadyRunning = errors.New("scheduler: already running")
)

// Task is the work a job performs.
type Task func(ctx context.Context) error

// JobInfo is a snapshot of a job's state.
type JobInfo struct {
	Name      string
	Spec      string
	RunCount  int64
	FailCount int64
	LastRun   time.Time
	LastError error
	NextRun   time.Time
}

type job struct {
	name    string
	spec    string
	task    Task
	entryID cron.EntryID

	mutex     sync.Mutex
	runCount  int64
	failCount int64
	lastRun   time.Time
	lastError error
}

// Scheduler wraps a cron runner whose specs include a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*job
	logger  *slog.Logger
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	mutex   sync.RWMutex
}

// New creates a stopped scheduler evaluating specs in location (UTC when
// nil).
func New(location *time.Location, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cronLogger := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(
				cron.Recover(cronLogger),
				cron.DelayIfStillRunning(cronLogger),
			),
		),
		jobs:   make(map[string]*job),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add schedules task under name, replacing any job of the same name.
func (s *Scheduler) Add(name, spec string, task Task) error {
	if name == "" || task == nil {
		return fmt.Errorf("%w: job needs a name and a task", ErrInvalidJob)
	}

	j := &job{name: name, spec: spec, task: task}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entryID, err := s.cron.AddFunc(spec, func() { s.execute(s.ctx, j) })
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidJob, name, err)
	}
	j.entryID = entryID

	if previous, exists := s.jobs[name]; exists {
		s.cron.Remove(previous.entryID)
	}
	s.jobs[name] = j

	return nil
}

// Remove unschedules the job.
func (s *Scheduler) Remove(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(j.entryID)
	delete(s.jobs, name)
	return nil
}

// Run executes the job immediately, outside its schedule.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mutex.RLock()
	j, exists := s.jobs[name]
	s.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	start := time.Now()
	err := j.task(ctx)

	j.mutex.Lock()
	j.runCount++
	j.lastRun = start
	j.lastError = err
	if err != nil {
		j.failCount++
	}
	j.mutex.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled job failed",
			slog.String("job", j.name), slog.String("error", err.Error()))
	} else {
		s.logger.DebugContext(ctx, "scheduled job completed",
			slog.String("job", j.name), slog.Duration("duration", time.Since(start)))
	}
	return err
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops scheduling and waits for running jobs, or for ctx to end.
// A stopped scheduler cannot be started again.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return nil
	}
	s.running = false
	s.mutex.Unlock()

	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// Jobs returns a snapshot of every job sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, name := range slices.Sorted(maps.Keys(s.jobs)) {
		j := s.jobs[name]
		j.mutex.Lock()
		infos = append(infos, JobInfo{
			Name:      j.name,
			Spec:      j.spec,
			RunCount:  j.runCount,
			FailCount: j.failCount,
			LastRun:   j.lastRun,
			LastError: j.lastError,
			NextRun:   s.cron.Entry(j.entryID).Next,
		})
		j.mutex.Unlock()
	}
	return infos
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
