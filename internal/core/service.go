package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultResultRetention is how long a finished job's artifact stays
// downloadable.
const DefaultResultRetention = 10 * time.Minute

// ServiceConfig sizes the service's in-memory state.
type ServiceConfig struct {
	MaxConcurrentJobs int
	MaxWait           time.Duration
	ResultRetention   time.Duration
	SessionCapacity   int
	SessionTTL        time.Duration
	HistorySize       int
}

// Service runs tool operations for sessions and tracks running jobs.
type Service struct {
	sessions  *SessionStore
	limiter   *JobLimiter
	retention time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*activeJob
}

// JobState is the lifecycle stage of a job.
type JobState string

const (
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobProgress is the snapshot streamed to progress subscribers.
type JobProgress struct {
	JobID   string   `json:"jobId"`
	Op      string   `json:"op"`
	State   JobState `json:"state"`
	Step    int      `json:"step"`
	Total   int      `json:"total"`
	Percent int      `json:"percent"`
	Summary string   `json:"summary,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

type activeJob struct {
	ID        string
	SessionID string
	Kind      OpKind
	Progress  JobProgress
	Result    *Result
	Err       error
	Done      chan struct{}

	// onSucceed runs before Done closes, so readers of Done see its effects.
	onSucceed func(Result)

	ListenerMu sync.Mutex
	Listeners  []chan JobProgress
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.ResultRetention <= 0 {
		cfg.ResultRetention = DefaultResultRetention
	}
	return &Service{
		sessions:  NewSessionStore(cfg.SessionCapacity, cfg.SessionTTL, cfg.HistorySize),
		limiter:   NewJobLimiter(cfg.MaxConcurrentJobs, cfg.MaxWait),
		retention: cfg.ResultRetention,
		now:       time.Now,
		jobs:      make(map[string]*activeJob),
	}
}

// Sessions returns the session store.
func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// LimiterStatus returns the job limiter state for monitoring.
func (s *Service) LimiterStatus() JobLimiterStatus {
	return s.limiter.Status()
}

// Run executes one operation synchronously over an ordered batch.
//
// Run is the error boundary: every failure, including a panic in a handler,
// is delivered to r.Fail and returned. r sees at most one terminal event.
func (s *Service) Run(ctx context.Context, kind OpKind, files []UploadedFile, opts Options, r Reporter) (res Result, err error) {
	r = GuardReporter(r)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic in operation", "op", kind.String(), "panic", p)
			err = fmt.Errorf("internal error: %v", p)
		}

		attrs := []any{
			"op", kind.String(),
			"files", len(files),
			"bytes", TotalSize(files),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if ip := GetIPAddressFromContext(ctx); ip != "" {
			attrs = append(attrs, "ip", ip)
		}
		if ua := GetUserAgentFromContext(ctx); ua != "" {
			attrs = append(attrs, "user_agent", ua)
		}
		if err != nil {
			r.Fail(err)
			attrs = append(attrs, "error", err, "code", MapError(err).Code)
			slog.Warn("operation failed", attrs...)
			return
		}
		r.Succeed(res)
		slog.Info("operation completed", append(attrs, "count", res.Count)...)
	}()

	def, ok := Get(kind)
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", kind, ErrUnknownOperation)
	}
	if err := def.CheckBatch(files); err != nil {
		return Result{}, err
	}

	return def.Handler(ctx, files, opts, r.Tick)
}

// StartJob runs kind over the session's current batch in the background and
// returns the job id. Batch problems are returned immediately; operation
// failures are reported through the job. Returns ErrTooManyJobs when no slot
// frees up in time.
func (s *Service) StartJob(ctx context.Context, sess *Session, kind OpKind, opts Options) (string, error) {
	def, ok := Get(kind)
	if !ok {
		return "", fmt.Errorf("%s: %w", kind, ErrUnknownOperation)
	}

	files, err := sess.Batch(kind)
	if err != nil {
		return "", preconditionError(err)
	}
	if err := def.CheckBatch(files); err != nil {
		return "", err
	}

	release, err := s.limiter.Acquire(ctx, kind)
	if err != nil {
		return "", err
	}

	job := &activeJob{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Kind:      kind,
		Done:      make(chan struct{}),
		onSucceed: func(res Result) {
			sess.AddHistory(NewHistoryEntry(def, files, res, s.now()))
		},
	}
	job.Progress = JobProgress{JobID: job.ID, Op: kind.Key(), State: JobRunning}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	slog.Info("job started", "job_id", job.ID, "op", kind.Key(), "files", len(files))

	// The job outlives the request but keeps its values for logging.
	jobCtx := context.WithoutCancel(ctx)

	go func() {
		defer release()
		defer s.cleanup(job.ID, s.retention)

		_, _ = s.Run(jobCtx, kind, files, opts, job)
	}()

	return job.ID, nil
}

// Tick implements Reporter.
func (j *activeJob) Tick(step, total int) {
	j.ListenerMu.Lock()
	j.Progress.Step = step
	j.Progress.Total = total
	j.Progress.Percent = Percent(step, total)
	j.ListenerMu.Unlock()

	j.notifyProgress()
}

// Succeed implements Reporter.
func (j *activeJob) Succeed(res Result) {
	j.ListenerMu.Lock()
	j.Result = &res
	j.Progress.State = JobDone
	j.Progress.Percent = 100
	j.Progress.Summary = res.Summary
	j.ListenerMu.Unlock()

	if j.onSucceed != nil {
		j.onSucceed(res)
	}
	j.finish()
}

// Fail implements Reporter.
func (j *activeJob) Fail(err error) {
	msg := MapError(err)

	j.ListenerMu.Lock()
	j.Err = err
	j.Progress.State = JobFailed
	j.Progress.Error = FormatUserError(err)
	j.Progress.Code = msg.Code
	j.ListenerMu.Unlock()

	j.finish()
}

// finish delivers the terminal snapshot and closes Done. Done is closed under
// the listener lock so a concurrent subscriber is either closed here or sees
// Done already closed.
func (j *activeJob) finish() {
	j.notifyProgress()

	j.ListenerMu.Lock()
	defer j.ListenerMu.Unlock()

	for _, ch := range j.Listeners {
		close(ch)
	}
	j.Listeners = nil
	close(j.Done)
}

// notifyProgress sends the current snapshot to all listeners.
func (j *activeJob) notifyProgress() {
	j.ListenerMu.Lock()
	defer j.ListenerMu.Unlock()

	for _, ch := range j.Listeners {
		select {
		case ch <- j.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

func (s *Service) job(sessionID, jobID string) (*activeJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok || job.SessionID != sessionID {
		return nil, fmt.Errorf("%s: %w", jobID, ErrJobNotFound)
	}
	return job, nil
}

// SubscribeProgress returns a channel of progress snapshots for a job owned
// by sessionID. The current snapshot is sent first; the channel is closed
// after the terminal snapshot.
func (s *Service) SubscribeProgress(sessionID, jobID string) (<-chan JobProgress, error) {
	job, err := s.job(sessionID, jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan JobProgress, 16)

	job.ListenerMu.Lock()
	defer job.ListenerMu.Unlock()

	ch <- job.Progress
	select {
	case <-job.Done:
		close(ch)
	default:
		job.Listeners = append(job.Listeners, ch)
	}
	return ch, nil
}

// JobProgress returns the current snapshot without blocking.
func (s *Service) JobProgress(sessionID, jobID string) (JobProgress, error) {
	job, err := s.job(sessionID, jobID)
	if err != nil {
		return JobProgress{}, err
	}

	job.ListenerMu.Lock()
	defer job.ListenerMu.Unlock()
	return job.Progress, nil
}

// JobResult waits for the job to finish and returns its result, or the
// error it failed with.
func (s *Service) JobResult(ctx context.Context, sessionID, jobID string) (*Result, error) {
	job, err := s.job(sessionID, jobID)
	if err != nil {
		return nil, err
	}

	select {
	case <-job.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if job.Err != nil {
		return nil, job.Err
	}
	if job.Result == nil {
		return nil, errors.New("job finished without a result")
	}
	return job.Result, nil
}

// WaitForJobs blocks until running jobs finish or ctx is done.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// cleanup removes the job from tracking after a delay.
func (s *Service) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
	})
}
