// Package executor runs test files and reports each attempt to its listeners.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/steplog"
)

// ---- Results model ----

type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timedOut"
	StatusSkipped  Status = "skipped"
)

// TestInfo identifies one attempt of one test.
type TestInfo struct {
	Title string
	File  string // source location; reports are grouped by its base name
	Tags  []string
	Retry int
}

type Result struct {
	Status      Status
	Err         error
	Duration    time.Duration
	Retry       int
	Attachments []string
}

// Listener observes the test lifecycle. Calls are made sequentially from the
// goroutine running the file.
type Listener interface {
	OnTestBegin(info TestInfo)
	OnTestEnd(info TestInfo, res Result)
	OnRunEnd()
}

// T is handed to a running test.
type T struct {
	Page   browser.Page
	Expect browser.Expect
	Log    *steplog.Log
	Info   TestInfo
}

// Test is one executable test case.
type Test struct {
	Title string
	Tags  []string
	Skip  bool
	Run   func(ctx context.Context, t *T) error
}

// File groups tests that share a source location.
type File struct {
	Name  string
	Tests []Test
}

// PageSource opens a fresh page per test.
type PageSource interface {
	NewPage() (browser.Page, error)
}

type FileResult struct {
	File     string
	Passed   bool
	Tests    []TestResult
	Duration time.Duration
}

type TestResult struct {
	Title    string
	Status   Status
	Error    string
	Duration time.Duration
	Retry    int
}

// errTestTimeout is the cancellation cause for a test exceeding its budget.
var errTestTimeout = errors.New("test timeout exceeded")

// ---- Runner ----

type Runner struct {
	pages     PageSource
	listeners []Listener
	expect    browser.Expect
	steps     *steplog.Log
	log       *zap.Logger

	timeout  time.Duration
	grace    time.Duration
	retries  int
	failFast bool

	video         browser.VideoMode
	videoDir      string
	screenshot    browser.ScreenshotMode
	screenshotDir string
}

func New(pages PageSource) *Runner {
	return &Runner{
		pages:   pages,
		expect:  browser.NewExpect(10 * time.Second),
		steps:   steplog.Nop(),
		log:     zap.NewNop(),
		timeout: 10 * time.Minute,
		grace:   5 * time.Second,
	}
}

func (r *Runner) WithListener(l Listener) *Runner { r.listeners = append(r.listeners, l); return r }
func (r *Runner) WithExpect(e browser.Expect) *Runner { r.expect = e; return r }
func (r *Runner) WithStepLog(l *steplog.Log) *Runner  { r.steps = l; return r }
func (r *Runner) WithLogger(l *zap.Logger) *Runner    { r.log = l; return r }
func (r *Runner) WithFailFast(b bool) *Runner         { r.failFast = b; return r }

// WithTimeout bounds each test attempt; 0 disables the bound.
func (r *Runner) WithTimeout(d time.Duration) *Runner { r.timeout = d; return r }

// WithGrace bounds how long a timed-out test may take to unwind after its
// page is closed.
func (r *Runner) WithGrace(d time.Duration) *Runner { r.grace = d; return r }

func (r *Runner) WithRetries(n int) *Runner {
	if n < 0 {
		n = 0
	}
	r.retries = n
	return r
}

// WithArtifacts sets the video and screenshot policies.
func (r *Runner) WithArtifacts(o browser.Options) *Runner {
	r.video, r.videoDir = o.Video, o.VideoDir
	r.screenshot, r.screenshotDir = o.Screenshot, o.ScreenshotDir
	return r
}

// ---- File execution ----

// Run executes files in order, tests within a file sequentially, and
// signals OnRunEnd once at the end.
func (r *Runner) Run(ctx context.Context, files ...File) []FileResult {
	out := make([]FileResult, 0, len(files))
	stop := false
	for _, f := range files {
		fr := r.runFile(ctx, f, &stop)
		out = append(out, fr)
	}
	for _, l := range r.listeners {
		l.OnRunEnd()
	}
	return out
}

func (r *Runner) runFile(ctx context.Context, f File, stop *bool) FileResult {
	start := time.Now()
	fr := FileResult{File: f.Name, Passed: true}
	for _, tc := range f.Tests {
		info := TestInfo{Title: tc.Title, File: f.Name, Tags: tc.Tags}
		if *stop || ctx.Err() != nil {
			tc.Skip = true
		}
		for attempt := 0; ; attempt++ {
			info.Retry = attempt
			r.begin(info)
			res := r.runTest(ctx, tc, info)
			res.Retry = attempt
			r.end(info, res)

			tr := TestResult{Title: tc.Title, Status: res.Status, Duration: res.Duration, Retry: attempt}
			if res.Err != nil {
				tr.Error = res.Err.Error()
			}
			fr.Tests = append(fr.Tests, tr)

			if res.Status == StatusPassed || res.Status == StatusSkipped {
				break
			}
			if attempt >= r.retries || ctx.Err() != nil {
				fr.Passed = false
				if r.failFast {
					*stop = true
				}
				break
			}
			r.log.Info("retrying test", zap.String("file", f.Name), zap.String("test", tc.Title), zap.Int("retry", attempt+1))
		}
	}
	fr.Duration = time.Since(start)
	return fr
}

func (r *Runner) begin(info TestInfo) {
	for _, l := range r.listeners {
		l.OnTestBegin(info)
	}
}

func (r *Runner) end(info TestInfo, res Result) {
	for _, l := range r.listeners {
		l.OnTestEnd(info, res)
	}
}

func (r *Runner) runTest(ctx context.Context, tc Test, info TestInfo) Result {
	start := time.Now()
	if tc.Skip {
		return Result{Status: StatusSkipped}
	}

	page, err := r.pages.NewPage()
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("open page: %w", err), Duration: time.Since(start)}
	}

	tctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeoutCause(ctx, r.timeout, errTestTimeout)
		defer cancel()
	}

	t := &T{Page: page, Expect: r.expect, Log: r.steps, Info: info}
	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("panic: %v", rec)
			}
		}()
		done <- tc.Run(tctx, t)
	}()

	var runErr error
	pageClosed := false
	select {
	case runErr = <-done:
	case <-tctx.Done():
		// Closing the page unblocks any in-flight browser call.
		_ = page.Close()
		pageClosed = true
		select {
		case <-done:
		case <-time.After(r.grace):
			r.log.Warn("test did not unwind after timeout", zap.String("test", info.Title))
		}
		runErr = context.Cause(tctx)
	}

	res := Result{Status: classify(ctx, runErr), Err: runErr}
	res.Attachments = r.capture(page, info, res.Status, pageClosed)
	res.Duration = time.Since(start)
	return res
}

func classify(parent context.Context, err error) Status {
	switch {
	case err == nil:
		return StatusPassed
	case errors.Is(err, errTestTimeout):
		return StatusTimedOut
	case parent.Err() != nil:
		return StatusFailed
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	default:
		return StatusFailed
	}
}

// capture applies the screenshot and video policies and closes the page.
func (r *Runner) capture(page browser.Page, info TestInfo, st Status, closed bool) []string {
	var out []string
	failed := st == StatusFailed || st == StatusTimedOut
	name := artifactName(info)

	if !closed && (r.screenshot == browser.ScreenshotOn || (r.screenshot == browser.ScreenshotOnlyOnFailure && failed)) {
		path := filepath.Join(r.screenshotDir, name+".png")
		if err := os.MkdirAll(r.screenshotDir, 0o755); err == nil {
			if err := page.Screenshot(path); err != nil {
				r.log.Warn("screenshot failed", zap.String("path", path), zap.Error(err))
			} else {
				out = append(out, path)
			}
		}
	}

	if !closed {
		if err := page.Close(); err != nil {
			r.log.Debug("close page", zap.Error(err))
		}
	}

	rec, ok := page.(browser.Recorder)
	if !ok || r.video == "" || r.video == browser.VideoOff {
		return out
	}
	if r.video == browser.VideoOn || failed {
		path := filepath.Join(r.videoDir, name+".webm")
		if err := rec.SaveVideo(path); err != nil {
			r.log.Warn("save video failed", zap.String("path", path), zap.Error(err))
		} else {
			out = append(out, path)
		}
	}
	if err := rec.DeleteVideo(); err != nil {
		r.log.Debug("delete video", zap.Error(err))
	}
	return out
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func artifactName(info TestInfo) string {
	base := strings.TrimSuffix(filepath.Base(info.File), filepath.Ext(info.File))
	name := base + "-" + strings.Trim(unsafeName.ReplaceAllString(info.Title, "-"), "-")
	if info.Retry > 0 {
		name += fmt.Sprintf("-retry%d", info.Retry)
	}
	return name
}

// Passed reports whether every file passed.
func Passed(results []FileResult) bool {
	for _, fr := range results {
		if !fr.Passed {
			return false
		}
	}
	return true
}
