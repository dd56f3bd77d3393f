// Package worker runs test files in child processes. Each child inherits the
// parent's environment and reports a JSON Summary on stdout.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"sea-e2e/internal/executor"
)

// DefaultTimeout bounds one worker process when no budget is known.
const DefaultTimeout = 30 * time.Minute

const (
	// startupSlack covers browser launch, report flush and shutdown.
	startupSlack = 2 * time.Minute
	// attemptSlack covers page setup, teardown and artifact capture per attempt.
	attemptSlack = 30 * time.Second
)

// Budget bounds a worker running the given number of tests, each attempted
// up to retries+1 times with perTest as the per-attempt timeout. It returns 0
// when perTest is unbounded.
func Budget(tests, retries int, perTest time.Duration) time.Duration {
	if perTest <= 0 || tests <= 0 {
		return 0
	}
	attempts := time.Duration(tests * (retries + 1))
	return attempts*(perTest+attemptSlack) + startupSlack
}

type Spec struct {
	File    string
	Cmd     string // defaults to the running executable
	Args    []string
	Env     map[string]string // added on top of os.Environ()
	Timeout time.Duration
	Stderr  io.Writer // defaults to os.Stderr
}

// Summary is what a worker prints on stdout when it finishes.
type Summary struct {
	File     string `json:"file"`
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	TimedOut int    `json:"timedOut"`
	Skipped  int    `json:"skipped"`
	Report   string `json:"report,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the file ran without failures.
func (s Summary) OK() bool {
	return s.Error == "" && s.Failed == 0 && s.TimedOut == 0
}

// Summarize counts the final attempt of every test in fr.
func Summarize(fr executor.FileResult, report string) Summary {
	s := Summary{File: fr.File, Report: report}
	for i, tr := range fr.Tests {
		if i+1 < len(fr.Tests) && fr.Tests[i+1].Retry > 0 {
			continue // superseded by a retry
		}
		s.Total++
		switch tr.Status {
		case executor.StatusPassed:
			s.Passed++
		case executor.StatusFailed:
			s.Failed++
		case executor.StatusTimedOut:
			s.TimedOut++
		case executor.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// WriteSummary prints s as one JSON line.
func WriteSummary(w io.Writer, s Summary) error {
	return json.NewEncoder(w).Encode(s)
}

// Run starts the worker process and waits for its summary. A non-zero exit
// after a summary was printed is not an error: the summary carries the
// failures.
func Run(ctx context.Context, spec Spec) (*Summary, error) {
	tmo := spec.Timeout
	if tmo <= 0 {
		tmo = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, tmo)
	defer cancel()

	name := spec.Cmd
	if name == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		name = exe
	}
	cmd := exec.CommandContext(cctx, name, spec.Args...)

	// inherit env + add worker env
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout: %w", err)
	}
	cmd.Stderr = spec.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker for %s: %w", spec.File, err)
	}

	var out Summary
	decErr := json.NewDecoder(stdout).Decode(&out)
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if ctx.Err() == nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("worker for %s: timed out after %s", spec.File, tmo)
	}
	if decErr != nil {
		if waitErr != nil {
			return nil, fmt.Errorf("worker for %s: %w", spec.File, waitErr)
		}
		return nil, fmt.Errorf("worker for %s: decode summary: %w", spec.File, decErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return nil, fmt.Errorf("worker for %s: %w", spec.File, waitErr)
	}
	if out.File == "" {
		out.File = spec.File
	}
	return &out, nil
}
