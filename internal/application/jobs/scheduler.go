// Package jobs runs the service's background work on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Status is the last known state of a job.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Scheduler errors.
var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrAlreadyRunning = errors.New("job is already running")
)

// Job is a named unit of background work.
type Job struct {
	Name        string
	Description string
	Schedule    string // standard 5-field cron or a descriptor such as "@every 1m"
	Fn          func(ctx context.Context) error
}

// Recorder receives the outcome of every run.
type Recorder interface {
	RecordJob(job string, d time.Duration, err error)
}

// JobInfo is the read-only view of a registered job.
type JobInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Status      Status     `json:"status"`
	Message     string     `json:"message,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
}

type jobState struct {
	Job
	entryID   cron.EntryID
	mu        sync.Mutex
	status    Status
	message   string
	lastRunAt time.Time
}

// Scheduler wraps a cron runner with per-job status tracking.
// INVARIANT: a job never runs concurrently with itself
type Scheduler struct {
	cron     *cron.Cron
	recorder Recorder
	timeout  time.Duration
	location *time.Location
	now      func() time.Time

	mu   sync.RWMutex
	jobs map[string]*jobState
	ctx  context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecorder reports run durations and failures.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithTimeout bounds a single run. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithLocation evaluates schedules in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// New returns a scheduler with no jobs. Schedules are evaluated in UTC.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.UTC,
		jobs:     make(map[string]*jobState),
		ctx:      context.Background(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(slogLogger{}),
		cron.WithChain(cron.Recover(slogLogger{})),
	)
	return s
}

// Register adds job to the scheduler.
// PRE: job.Name is unique, job.Schedule parses
// POST: the job fires on its schedule once Start is called
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Fn == nil {
		return fmt.Errorf("job needs a name and a function")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	st := &jobState{Job: job, status: StatusIdle}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.execute(s.runContext(), st) })
	if err != nil {
		return fmt.Errorf("job %q: invalid schedule %q: %w", job.Name, job.Schedule, err)
	}
	st.entryID = id
	s.jobs[job.Name] = st
	return nil
}

func (s *Scheduler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Start runs the schedule in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	slog.Info("jobs_event", "event", "scheduler_started", "jobs", len(s.jobs))
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
}

// Stop halts the schedule. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	slog.Info("jobs_event", "event", "scheduler_stopped")
	return ctx
}

// Run executes a job immediately and waits for it.
// A run already in progress makes this a no-op that reports ErrAlreadyRunning.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	st, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, st)
}

func (s *Scheduler) execute(ctx context.Context, st *jobState) error {
	st.mu.Lock()
	if st.status == StatusRunning {
		st.mu.Unlock()
		slog.Debug("jobs_event", "event", "job_skipped", "job", st.Name)
		return ErrAlreadyRunning
	}
	st.status = StatusRunning
	st.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	err := st.Fn(ctx)
	elapsed := s.now().Sub(start)

	st.mu.Lock()
	st.lastRunAt = start
	if err != nil {
		st.status = StatusFailed
		st.message = err.Error()
	} else {
		st.status = StatusOK
		st.message = ""
	}
	st.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordJob(st.Name, elapsed, err)
	}
	if err != nil {
		slog.Error("jobs_event", "event", "job_failed", "job", st.Name, "duration_ms", elapsed.Milliseconds(), "error", err)
	} else {
		slog.Debug("jobs_event", "event", "job_done", "job", st.Name, "duration_ms", elapsed.Milliseconds())
	}
	return err
}

// List returns the registered jobs ordered by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, st := range s.jobs {
		st.mu.Lock()
		info := JobInfo{
			Name:        st.Name,
			Description: st.Description,
			Schedule:    st.Schedule,
			Status:      st.status,
			Message:     st.message,
		}
		if !st.lastRunAt.IsZero() {
			last := st.lastRunAt
			info.LastRunAt = &last
		}
		st.mu.Unlock()
		if next := s.cron.Entry(st.entryID).Next; !next.IsZero() {
			info.NextRunAt = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("jobs_event", append([]any{"event", msg}, keysAndValues...)...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("jobs_event", append([]any{"event", msg, "error", err}, keysAndValues...)...)
}
