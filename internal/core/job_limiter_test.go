package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestJobLimiter_AcquireRelease(t *testing.T) {
	limiter := NewJobLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Status().Available; got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	var releases []func()
	for i := 0; i < 2; i++ {
		release, err := limiter.Acquire(ctx, OpMergeCSV)
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i+1, err)
		}
		releases = append(releases, release)
	}
	if st := limiter.Status(); st.Active != 2 || st.Available != 0 {
		t.Errorf("Status = %+v, want 2 active, 0 available", st)
	}

	for _, release := range releases {
		release()
	}

	if got := limiter.Status().Active; got != 0 {
		t.Errorf("after release, Active = %d, want 0", got)
	}
}

func TestJobLimiter_ReleaseIsIdempotent(t *testing.T) {
	limiter := NewJobLimiter(2, time.Second)

	release, err := limiter.Acquire(context.Background(), OpSplit)
	if err != nil {
		t.Fatal(err)
	}
	other, err := limiter.Acquire(context.Background(), OpSplit)
	if err != nil {
		t.Fatal(err)
	}
	defer other()

	release()
	release()

	if st := limiter.Status(); st.Active != 1 || st.Running["split"] != 1 {
		t.Errorf("Status = %+v, want one split still running", st)
	}
}

func TestJobLimiter_BlocksWhenFull(t *testing.T) {
	limiter := NewJobLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	release, err := limiter.Acquire(ctx, OpMergePDF)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = limiter.Acquire(ctx, OpMergePDF)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyJobs) {
		t.Errorf("expected ErrTooManyJobs, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
	if got := limiter.Status().Waiting; got != 0 {
		t.Errorf("Waiting after timeout = %d, want 0", got)
	}
}

func TestJobLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewJobLimiter(maxConcurrent, time.Second)
	kinds := []OpKind{OpMergeCSV, OpMergeExcel, OpSplit}

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(kind OpKind) {
			defer wg.Done()
			release, err := limiter.Acquire(context.Background(), kind)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer release()

			mu.Lock()
			maxObserved = max(maxObserved, limiter.Status().Active)
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)
		}(kinds[i%len(kinds)])
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("exceeded max concurrent: observed %d, max %d", maxObserved, maxConcurrent)
	}
	if st := limiter.Status(); st.Active != 0 || len(st.Running) != 0 {
		t.Errorf("final Status = %+v, want idle", st)
	}
}

func TestJobLimiter_ContextCancellation(t *testing.T) {
	limiter := NewJobLimiter(1, 5*time.Second)

	release, err := limiter.Acquire(context.Background(), OpMergeCSV)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := limiter.Acquire(ctx, OpMergeCSV)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if got := limiter.Status().Waiting; got != 1 {
		t.Errorf("Waiting = %d, want 1", got)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestJobLimiter_WaitForDrain(t *testing.T) {
	limiter := NewJobLimiter(2, time.Second)

	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("idle WaitForDrain: %v", err)
	}

	release, err := limiter.Acquire(context.Background(), OpCSVToExcel)
	if err != nil {
		t.Fatal(err)
	}

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- limiter.WaitForDrain(context.Background())
	}()

	select {
	case <-drainDone:
		t.Fatal("WaitForDrain returned with an active job")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case err := <-drainDone:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after release")
	}

	// A new run after draining makes the limiter busy again.
	release, err = limiter.Acquire(context.Background(), OpCSVToExcel)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain with a running job = %v, want deadline exceeded", err)
	}
}

func TestJobLimiter_Status(t *testing.T) {
	limiter := NewJobLimiter(3, time.Second)

	for _, kind := range []OpKind{OpMergePDF, OpMergePDF, OpSplit} {
		release, err := limiter.Acquire(context.Background(), kind)
		if err != nil {
			t.Fatal(err)
		}
		defer release()
	}

	st := limiter.Status()
	if st.Active != 3 || st.Available != 0 || st.MaxConcurrent != 3 {
		t.Errorf("Status = %+v, want 3 active of 3", st)
	}
	if st.Running["pdf"] != 2 || st.Running["split"] != 1 || len(st.Running) != 2 {
		t.Errorf("Running = %v, want pdf:2 split:1", st.Running)
	}
}

func TestJobLimiter_DefaultValues(t *testing.T) {
	limiter := NewJobLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentJobs {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentJobs)
	}
}
