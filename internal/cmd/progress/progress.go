// Package progress renders row-level progress bars for the long table scans
// the pipeline performs. Bars write to stderr so they never corrupt piped
// command output, and they are skipped entirely when stderr is not a
// terminal or quiet mode is on.
package progress

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/redlinedata/redline/pkg/grouper"
)

// Reporter owns one command invocation's progress bars.
type Reporter struct {
	container *mpb.Progress
	bars      []*mpb.Bar
	enabled   bool
}

// New creates a Reporter. Bars render only when stderr is a terminal and
// quiet is false.
func New(quiet bool) *Reporter {
	enabled := !quiet && isatty.IsTerminal(os.Stderr.Fd())
	r := &Reporter{enabled: enabled}
	if enabled {
		r.container = mpb.New(mpb.WithOutput(os.Stderr))
	}
	return r
}

// Bar returns a progress callback for one named stage. The bar's total is
// taken from the first callback invocation; the returned callback is safe to
// hand to any stage that reports (done, total) checkpoints.
func (r *Reporter) Bar(name string) grouper.Progress {
	if !r.enabled {
		return func(done, total int) {}
	}

	var bar *mpb.Bar
	return func(done, total int) {
		if bar == nil {
			bar = r.container.AddBar(int64(total),
				mpb.BarRemoveOnComplete(),
				mpb.PrependDecorators(
					decor.Name(name+":", decor.WC{W: len(name) + 2}),
					decor.CountersNoUnit(" %d / %d"),
				),
				mpb.AppendDecorators(
					decor.Elapsed(decor.ET_STYLE_GO),
					decor.Name(" | "),
					decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
				),
			)
			r.bars = append(r.bars, bar)
		}
		bar.SetCurrent(int64(done))
	}
}

// Wait blocks until every bar has rendered its final state. Bars left
// incomplete by a failed stage are aborted so Wait cannot hang.
func (r *Reporter) Wait() {
	if !r.enabled {
		return
	}
	for _, bar := range r.bars {
		if !bar.Completed() {
			bar.Abort(true)
		}
	}
	r.container.Wait()
}
