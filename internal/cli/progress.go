package cli

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/JonMunkholm/smarttools/internal/core"
)

// barReporter draws ticks as a terminal progress bar. The bar is created on
// the first tick, when the total is known.
type barReporter struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	bar   *progressbar.ProgressBar
}

func newBarReporter(w io.Writer, label string) *barReporter {
	return &barReporter{w: w, label: label}
}

func (b *barReporter) Tick(step, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(b.label),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = b.bar.Set(step)
}

func (b *barReporter) Succeed(core.Result) {
	b.finish()
}

func (b *barReporter) Fail(error) {
	b.finish()
}

func (b *barReporter) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
