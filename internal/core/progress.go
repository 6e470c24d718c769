package core

import (
	"sync"
)

// TickFunc receives one progress tick per unit of work: step runs 1..total.
// A nil TickFunc is valid and ignores ticks.
type TickFunc func(step, total int)

func (f TickFunc) call(step, total int) {
	if f != nil {
		f(step, total)
	}
}

// Artifact is a downloadable output.
type Artifact struct {
	Filename string
	MIME     string
	Data     []byte
}

// Size returns the artifact size in bytes.
func (a Artifact) Size() int { return len(a.Data) }

// Result is the terminal success payload of an operation.
type Result struct {
	Kind     OpKind
	Summary  string
	Count    int
	Notes    []string
	Artifact Artifact
}

// Reporter is the sink for an operation's progress and its single outcome.
type Reporter interface {
	Tick(step, total int)
	Succeed(Result)
	Fail(err error)
}

// GuardReporter wraps r so it only sees a well-formed event stream:
// ticks with strictly increasing steps in 1..total, then exactly one of
// Succeed or Fail. Events that break the protocol are dropped. A nil r
// discards everything.
func GuardReporter(r Reporter) Reporter {
	if r == nil {
		r = ReporterFuncs{}
	}
	return &guardedReporter{next: r}
}

type guardedReporter struct {
	mu       sync.Mutex
	next     Reporter
	lastStep int
	done     bool
}

func (g *guardedReporter) Tick(step, total int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done || step <= g.lastStep || step < 1 || step > total {
		return
	}
	g.lastStep = step
	g.next.Tick(step, total)
}

func (g *guardedReporter) Succeed(res Result) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return
	}
	g.done = true
	g.next.Succeed(res)
}

func (g *guardedReporter) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return
	}
	g.done = true
	g.next.Fail(err)
}

// Percent converts a tick into a whole percentage.
func Percent(step, total int) int {
	if total <= 0 {
		return 0
	}
	return step * 100 / total
}

// ReporterFuncs adapts plain functions to a Reporter. Nil fields are skipped.
type ReporterFuncs struct {
	OnTick    func(step, total int)
	OnSucceed func(Result)
	OnFail    func(error)
}

func (f ReporterFuncs) Tick(step, total int) {
	if f.OnTick != nil {
		f.OnTick(step, total)
	}
}

func (f ReporterFuncs) Succeed(res Result) {
	if f.OnSucceed != nil {
		f.OnSucceed(res)
	}
}

func (f ReporterFuncs) Fail(err error) {
	if f.OnFail != nil {
		f.OnFail(err)
	}
}
