package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/config"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/exitcodes"
	"sea-e2e/internal/reporter"
	"sea-e2e/internal/steplog"
	"sea-e2e/internal/worker"
)

var FileFlag = &cli.StringFlag{
	Name:     "file",
	Required: true,
	Usage:    "Coded suite name or scripted file path to run",
}

func workerCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:   "worker",
		Usage:  "Run one test file and print its JSON summary (started by run)",
		Hidden: true,
		Flags:  append([]cli.Flag{FileFlag, EnvFile}, executionFlags...),
		Action: a.worker,
	}
}

func (a *app) worker(c *cli.Context) error {
	name := c.String(FileFlag.Name)
	fail := func(err error) error {
		_ = worker.WriteSummary(a.stdout, worker.Summary{File: name, Error: err.Error()})
		return exitcodes.NewRuntimeError(err)
	}

	opts, err := readExecOptions(c)
	if err != nil {
		return fail(err)
	}
	if path := c.String(EnvFile.Name); path != "" {
		if err := config.LoadEnvFile(path); err != nil {
			return fail(err)
		}
	}
	f, err := loadTarget(name)
	if err != nil {
		return fail(err)
	}
	files := filter([]executor.File{f}, opts)
	if len(files) == 0 {
		return fail(errors.New("no tests left to run"))
	}

	sum, err := a.runFile(c.Context, files[0], opts)
	if err != nil {
		return fail(err)
	}
	if err := worker.WriteSummary(a.stdout, *sum); err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	if !sum.OK() {
		return exitcodes.NewTestFailureError(fmt.Sprintf("%d failed, %d timed out in %s", sum.Failed, sum.TimedOut, name))
	}
	return nil
}

// runFile runs one file in this process against a real browser and flushes
// its report.
func (a *app) runFile(ctx context.Context, f executor.File, opts execOptions) (*worker.Summary, error) {
	log := a.log.With(zap.String("file", f.Name))
	if id := os.Getenv(envRunID); id != "" {
		log = log.With(zap.String("run", id))
	}

	steps, err := steplog.Open(config.LogFile(), log)
	if err != nil {
		return nil, err
	}
	defer steps.Close()

	bopts := opts.browserOptions()
	bopts.BaseURL = os.Getenv(config.KeyAppURL)
	session, err := a.launch(bopts, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("close browser", zap.Error(err))
		}
	}()

	rep := reporter.New(opts.Out).WithLogger(log).WithJUnit(opts.JUnit).WithHTML(opts.HTML)
	r := executor.New(session).
		WithListener(rep).
		WithListener(reporter.NewLine(a.stderr)).
		WithExpect(browser.NewExpect(opts.ExpectTimeout)).
		WithStepLog(steps).
		WithLogger(log).
		WithTimeout(opts.Timeout).
		WithRetries(opts.Retries).
		WithFailFast(opts.FailFast).
		WithArtifacts(bopts)

	results := r.Run(ctx, f)
	sum := worker.Summarize(results[0], rep.Path(reporter.FileKey(f.Name)))
	return &sum, nil
}
