package core

// job_limiter.go bounds how many tool runs execute at once.
//
// Every run buffers its inputs and output in memory, so runs share a fixed
// number of slots. A run that finds no free slot queues for up to maxWait and
// then fails with ErrTooManyJobs. The limiter knows which tool holds each
// slot, which the status endpoint reports, and shutdown waits on its idle
// signal rather than polling.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when all job slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyJobs = errors.New("too many concurrent jobs, please try again later")

// DefaultMaxConcurrentJobs is the default limit for parallel jobs.
const DefaultMaxConcurrentJobs = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// JobLimiter hands out job slots and tracks what runs in them.
type JobLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	running map[OpKind]int
	active  int
	waiting int
	idle    chan struct{} // closed while no job holds a slot
}

// NewJobLimiter creates a limiter that allows at most maxConcurrent simultaneous jobs.
// Runs that cannot get a slot within maxWait receive ErrTooManyJobs.
func NewJobLimiter(maxConcurrent int, maxWait time.Duration) *JobLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)

	return &JobLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		running: make(map[OpKind]int),
		idle:    idle,
	}
}

// Acquire waits for a slot for a run of kind. The returned release gives the
// slot back; calling it more than once has no further effect.
func (l *JobLimiter) Acquire(ctx context.Context, kind OpKind) (release func(), err error) {
	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
	case <-waitCtx.Done():
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()

		// Distinguish the caller giving up from our own wait timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyJobs
	}

	l.mu.Lock()
	l.waiting--
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.running[kind]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.release(kind) })
	}, nil
}

func (l *JobLimiter) release(kind OpKind) {
	l.mu.Lock()
	l.active--
	if l.running[kind]--; l.running[kind] == 0 {
		delete(l.running, kind)
	}
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// MaxConcurrent returns the maximum allowed concurrent jobs.
func (l *JobLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no job holds a slot or ctx is cancelled.
func (l *JobLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobLimiterStatus is a snapshot of the limiter's state.
type JobLimiterStatus struct {
	Active        int            `json:"active"`
	Waiting       int            `json:"waiting"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	Running       map[string]int `json:"running,omitempty"` // by tool key
}

// Status returns the current limiter state for the health endpoint.
func (l *JobLimiter) Status() JobLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := JobLimiterStatus{
		Active:        l.active,
		Waiting:       l.waiting,
		Available:     cap(l.slots) - l.active,
		MaxConcurrent: cap(l.slots),
	}
	if len(l.running) > 0 {
		st.Running = make(map[string]int, len(l.running))
		for kind, n := range l.running {
			st.Running[kind.Key()] = n
		}
	}
	return st
}
