package reporter

import (
	"fmt"
	"io"
	"sync"

	"sea-e2e/internal/executor"
)

// Line prints one progress line per finished test. It implements
// executor.Listener.
type Line struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

func NewLine(w io.Writer) *Line { return &Line{w: w} }

func (l *Line) OnTestBegin(executor.TestInfo) {}

func (l *Line) OnTestEnd(info executor.TestInfo, res executor.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	mark := map[executor.Status]string{
		executor.StatusPassed:   "ok",
		executor.StatusFailed:   "FAIL",
		executor.StatusTimedOut: "TIMEOUT",
		executor.StatusSkipped:  "skip",
	}[res.Status]
	retry := ""
	if res.Retry > 0 {
		retry = fmt.Sprintf(" (retry #%d)", res.Retry)
	}
	fmt.Fprintf(l.w, "  %-7s %d %s › %s%s (%dms)\n", mark, l.n, FileKey(info.File), info.Title, retry, res.Duration.Milliseconds())
	if res.Err != nil && res.Status != executor.StatusPassed {
		fmt.Fprintf(l.w, "          %s\n", Strip(res.Err.Error()))
	}
}

func (l *Line) OnRunEnd() {}
