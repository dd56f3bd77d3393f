package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sea-e2e/internal/config"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/exitcodes"
	"sea-e2e/internal/worker"
)

const envRunID = "SEA_E2E_RUN_ID"

func runCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Load config.json, then run every test file in its own worker",
		ArgsUsage: "[file...]",
		Flags:     append([]cli.Flag{ConfigPath, EnvFile, Workers, WorkerTimeout, InProcess, ScriptsDir}, executionFlags...),
		Action:    a.run,
	}
}

func (a *app) run(c *cli.Context) error {
	opts, err := readExecOptions(c)
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	rec, err := config.Load(c.String(ConfigPath.Name))
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	// Validate before touching the environment so a bad config leaves
	// nothing half-propagated.
	if err := rec.Validate(); err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	a.log.Debug("config loaded", zap.String("path", c.String(ConfigPath.Name)), zap.Strings("keys", rec.Keys()))
	if err := config.Propagate(rec, config.PropagatedKeys); err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	if path := c.String(EnvFile.Name); path != "" {
		if err := config.WriteEnvFile(path, rec, config.PropagatedKeys); err != nil {
			return exitcodes.NewRuntimeError(err)
		}
	}

	files, err := discover(c.String(ScriptsDir.Name), c.Args().Slice())
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	files = filter(files, opts)
	if len(files) == 0 {
		return exitcodes.NewRuntimeError(errors.New("no tests left to run"))
	}
	if err := checkUnique(files); err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	runID := uuid.NewString()
	log := a.log.With(zap.String("run", runID))
	log.Info("starting run", zap.Int("files", len(files)), zap.Int("workers", c.Int(Workers.Name)))
	start := time.Now()

	var results []worker.Result
	if c.Bool(InProcess.Name) {
		for _, f := range files {
			sum, err := a.runFile(c.Context, f, opts)
			results = append(results, worker.Result{Spec: worker.Spec{File: f.Name}, Summary: sum, Err: err})
		}
	} else {
		specs := a.workerSpecs(files, opts, runID, c.Duration(WorkerTimeout.Name))
		results = worker.NewPool(c.Int(Workers.Name)).WithRunner(a.spawn).Run(c.Context, specs)
	}

	printSummary(a.stdout, results, time.Since(start))
	return outcome(results)
}

// workerSpecs builds one worker invocation per file. Each worker is bounded
// by override, or by the time its tests may legitimately take.
func (a *app) workerSpecs(files []executor.File, opts execOptions, runID string, override time.Duration) []worker.Spec {
	specs := make([]worker.Spec, 0, len(files))
	for _, f := range files {
		args := append(a.globalArgs(), "worker", "--file", f.Name)
		args = append(args, opts.args()...)
		tmo := override
		if tmo <= 0 {
			tmo = worker.Budget(len(f.Tests), opts.Retries, opts.Timeout)
		}
		specs = append(specs, worker.Spec{
			File:    f.Name,
			Cmd:     a.exe,
			Args:    args,
			Env:     map[string]string{envRunID: runID},
			Timeout: tmo,
			Stderr:  a.stderr,
		})
	}
	return specs
}

// outcome maps worker results to the run's error: runtime problems win
// over test failures.
func outcome(results []worker.Result) error {
	var runtimeErrs []error
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			runtimeErrs = append(runtimeErrs, r.Err)
		case r.Summary == nil:
			runtimeErrs = append(runtimeErrs, fmt.Errorf("%s: no summary", r.Spec.File))
		case r.Summary.Error != "":
			runtimeErrs = append(runtimeErrs, fmt.Errorf("%s: %s", r.Spec.File, r.Summary.Error))
		case !r.Summary.OK():
			failed++
		}
	}
	if len(runtimeErrs) > 0 {
		return exitcodes.NewRuntimeError(errors.Join(runtimeErrs...))
	}
	if failed > 0 {
		return exitcodes.NewTestFailureError(fmt.Sprintf("%d of %d files had failing tests", failed, len(results)))
	}
	return nil
}

func printSummary(w io.Writer, results []worker.Result, d time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("E2E Results (%s)", d.Round(time.Millisecond)))
	t.AppendHeader(table.Row{"File", "Tests", "Passed", "Failed", "Timed Out", "Skipped", "Status", "Report"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Timed Out", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	var total worker.Summary
	for _, r := range results {
		if r.Err != nil || r.Summary == nil {
			msg := "no summary"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			t.AppendRow(table.Row{r.Spec.File, "-", "-", "-", "-", "-", "ERROR", msg})
			continue
		}
		s := r.Summary
		total.Total += s.Total
		total.Passed += s.Passed
		total.Failed += s.Failed
		total.TimedOut += s.TimedOut
		total.Skipped += s.Skipped
		status := "PASS"
		switch {
		case s.Error != "":
			status = "ERROR"
		case !s.OK():
			status = "FAIL"
		}
		t.AppendRow(table.Row{r.Spec.File, s.Total, s.Passed, s.Failed, s.TimedOut, s.Skipped, status, s.Report})
	}
	t.AppendFooter(table.Row{"Total", total.Total, total.Passed, total.Failed, total.TimedOut, total.Skipped, "", ""})
	t.Render()
}

// spawn runs one worker process.
func (a *app) spawn(ctx context.Context, spec worker.Spec) (*worker.Summary, error) {
	a.log.Debug("spawning worker", zap.String("file", spec.File))
	return worker.Run(ctx, spec)
}

func (a *app) globalArgs() []string {
	return []string{"--" + LogFormat.Name, a.logFormat, "--" + LogLevel.Name, a.logLevel}
}
