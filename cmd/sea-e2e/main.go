// Command sea-e2e runs the end-to-end browser suite and writes one JSON report
// per test file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/exitcodes"
	"sea-e2e/internal/logging"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// session is the browser a worker drives.
type session interface {
	executor.PageSource
	Close() error
}

type app struct {
	exe       string
	stdout    io.Writer
	stderr    io.Writer
	log       *zap.Logger
	logFormat string
	logLevel  string
	launch    func(browser.Options, *zap.Logger) (session, error)
}

func newApp(stdout, stderr io.Writer) *app {
	exe, _ := os.Executable()
	return &app{
		exe:    exe,
		stdout: stdout,
		stderr: stderr,
		log:    zap.NewNop(),
		launch: func(o browser.Options, l *zap.Logger) (session, error) {
			return browser.Launch(o, l)
		},
	}
}

func (a *app) cli() *cli.App {
	c := cli.NewApp()
	c.Name = "sea-e2e"
	c.Usage = "End-to-end browser tests for the SEA web application"
	c.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	c.Writer = a.stdout
	c.ErrWriter = a.stderr
	c.Flags = []cli.Flag{LogFormat, LogLevel}
	c.Before = func(ctx *cli.Context) error {
		a.logFormat = ctx.String(LogFormat.Name)
		a.logLevel = ctx.String(LogLevel.Name)
		l, err := logging.New(a.logFormat, a.logLevel)
		if err != nil {
			return exitcodes.NewRuntimeError(err)
		}
		a.log = l
		return nil
	}
	c.After = func(*cli.Context) error {
		_ = a.log.Sync()
		return nil
	}
	c.Commands = []*cli.Command{
		runCommand(a),
		workerCommand(a),
		listCommand(a),
		validateCommand(a),
	}
	// Exit codes are decided in main.
	c.ExitErrHandler = func(*cli.Context, error) {}
	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newApp(os.Stdout, os.Stderr)
	err := a.cli().RunContext(ctx, os.Args)
	stop()
	os.Exit(a.exit(err))
}

// exit logs err and maps it to a process exit code.
func (a *app) exit(err error) int {
	code := exitcodes.Code(err)
	var tf *exitcodes.TestFailureError
	switch {
	case err == nil:
	case errors.As(err, &tf):
		a.log.Warn("tests failed", zap.String("reason", tf.Message))
	default:
		a.log.Error("run failed", zap.Error(err))
		fmt.Fprintln(a.stderr, "error:", err)
	}
	return code
}
