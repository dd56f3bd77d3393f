package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/config"
	"sea-e2e/internal/reporter"
)

const EnvVarPrefix = "SEA_E2E"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	LogFormat = &cli.StringFlag{
		Name:    "log-format",
		Value:   "console",
		EnvVars: prefixEnvVar("LOG_FORMAT"),
		Usage:   "Console log format: console or json",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Console log level: debug, info, warn, error",
	}

	ConfigPath = &cli.StringFlag{
		Name:    "config",
		Value:   config.DefaultPath,
		EnvVars: prefixEnvVar("CONFIG"),
		Usage:   "Path to config.json",
	}
	EnvFile = &cli.StringFlag{
		Name:    "env-file",
		EnvVars: prefixEnvVar("ENV_FILE"),
		Usage:   "Also write the configuration to this dotenv file (run) or load it (worker)",
	}
	Workers = &cli.IntFlag{
		Name:    "workers",
		Value:   1,
		EnvVars: prefixEnvVar("WORKERS"),
		Usage:   "Number of test files run in parallel worker processes",
	}
	WorkerTimeout = &cli.DurationFlag{
		Name:    "worker-timeout",
		EnvVars: prefixEnvVar("WORKER_TIMEOUT"),
		Usage:   "Bound on one worker process (0 derives it from test count, retries and --timeout)",
	}
	InProcess = &cli.BoolFlag{
		Name:    "in-process",
		EnvVars: prefixEnvVar("IN_PROCESS"),
		Usage:   "Run every file in this process instead of spawning workers",
	}
	ScriptsDir = &cli.StringFlag{
		Name:    "scripts",
		Value:   "scenarios",
		EnvVars: prefixEnvVar("SCRIPTS"),
		Usage:   "Directory of scripted YAML/JSON test files",
	}

	OutDir = &cli.StringFlag{
		Name:    "out",
		Value:   reporter.DefaultDir,
		EnvVars: prefixEnvVar("OUT"),
		Usage:   "Directory for report-<file>.json artifacts",
	}
	Headless = &cli.BoolFlag{
		Name:    "headless",
		Value:   true,
		EnvVars: prefixEnvVar("HEADLESS"),
		Usage:   "Run the browser without a window",
	}
	SlowMo = &cli.DurationFlag{
		Name:    "slow-mo",
		EnvVars: prefixEnvVar("SLOW_MO"),
		Usage:   "Delay inserted between browser operations",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   10 * time.Minute,
		EnvVars: prefixEnvVar("TIMEOUT"),
		Usage:   "Per-test timeout",
	}
	ExpectTimeout = &cli.DurationFlag{
		Name:    "expect-timeout",
		Value:   10 * time.Second,
		EnvVars: prefixEnvVar("EXPECT_TIMEOUT"),
		Usage:   "How long an expectation polls before failing",
	}
	ActionTimeout = &cli.DurationFlag{
		Name:    "action-timeout",
		Value:   30 * time.Second,
		EnvVars: prefixEnvVar("ACTION_TIMEOUT"),
		Usage:   "Default timeout of a single browser action",
	}
	Retries = &cli.IntFlag{
		Name:    "retries",
		EnvVars: prefixEnvVar("RETRIES"),
		Usage:   "Retry a failed test up to this many times",
	}
	FailFast = &cli.BoolFlag{
		Name:    "fail-fast",
		EnvVars: prefixEnvVar("FAIL_FAST"),
		Usage:   "Skip the remaining tests of a file after the first failure",
	}
	Video = &cli.StringFlag{
		Name:    "video",
		Value:   string(browser.VideoRetainOnFailure),
		EnvVars: prefixEnvVar("VIDEO"),
		Usage:   "Video capture: off, on, retain-on-failure",
	}
	Screenshot = &cli.StringFlag{
		Name:    "screenshot",
		Value:   string(browser.ScreenshotOnlyOnFailure),
		EnvVars: prefixEnvVar("SCREENSHOT"),
		Usage:   "Screenshot capture: off, on, only-on-failure",
	}
	JUnit = &cli.BoolFlag{
		Name:    "junit",
		EnvVars: prefixEnvVar("JUNIT"),
		Usage:   "Also write junit-<file>.xml",
	}
	HTML = &cli.BoolFlag{
		Name:    "html",
		EnvVars: prefixEnvVar("HTML"),
		Usage:   "Also write report-<file>.html",
	}
	IncludeTags = &cli.StringFlag{
		Name:    "include-tags",
		EnvVars: prefixEnvVar("INCLUDE_TAGS"),
		Usage:   "Comma-separated tags to include (OR semantics)",
	}
	ExcludeTags = &cli.StringFlag{
		Name:    "exclude-tags",
		EnvVars: prefixEnvVar("EXCLUDE_TAGS"),
		Usage:   "Comma-separated tags to exclude (OR semantics)",
	}
	Grep = &cli.StringFlag{
		Name:    "grep",
		EnvVars: prefixEnvVar("GREP"),
		Usage:   "Only run tests whose title contains this text",
	}
)

// executionFlags are shared by run and worker; run forwards them.
var executionFlags = []cli.Flag{
	OutDir, Headless, SlowMo, Timeout, ExpectTimeout, ActionTimeout, Retries, FailFast,
	Video, Screenshot, JUnit, HTML, IncludeTags, ExcludeTags, Grep,
}

// execOptions is the parsed form of executionFlags.
type execOptions struct {
	Out           string
	Headless      bool
	SlowMo        time.Duration
	Timeout       time.Duration
	ExpectTimeout time.Duration
	ActionTimeout time.Duration
	Retries       int
	FailFast      bool
	Video         browser.VideoMode
	Screenshot    browser.ScreenshotMode
	JUnit         bool
	HTML          bool
	IncludeTags   []string
	ExcludeTags   []string
	Grep          string
}

func readExecOptions(c *cli.Context) (execOptions, error) {
	o := execOptions{
		Out:           c.String(OutDir.Name),
		Headless:      c.Bool(Headless.Name),
		SlowMo:        c.Duration(SlowMo.Name),
		Timeout:       c.Duration(Timeout.Name),
		ExpectTimeout: c.Duration(ExpectTimeout.Name),
		ActionTimeout: c.Duration(ActionTimeout.Name),
		Retries:       c.Int(Retries.Name),
		FailFast:      c.Bool(FailFast.Name),
		Video:         browser.VideoMode(c.String(Video.Name)),
		Screenshot:    browser.ScreenshotMode(c.String(Screenshot.Name)),
		JUnit:         c.Bool(JUnit.Name),
		HTML:          c.Bool(HTML.Name),
		IncludeTags:   splitCSV(c.String(IncludeTags.Name)),
		ExcludeTags:   splitCSV(c.String(ExcludeTags.Name)),
		Grep:          c.String(Grep.Name),
	}
	switch o.Video {
	case browser.VideoOff, browser.VideoOn, browser.VideoRetainOnFailure:
	default:
		return o, fmt.Errorf("invalid --video %q", o.Video)
	}
	switch o.Screenshot {
	case browser.ScreenshotOff, browser.ScreenshotOn, browser.ScreenshotOnlyOnFailure:
	default:
		return o, fmt.Errorf("invalid --screenshot %q", o.Screenshot)
	}
	if o.Retries < 0 {
		return o, fmt.Errorf("invalid --retries %d", o.Retries)
	}
	return o, nil
}

// args renders o back into worker command-line flags.
func (o execOptions) args() []string {
	return []string{
		"--" + OutDir.Name, o.Out,
		fmt.Sprintf("--%s=%t", Headless.Name, o.Headless),
		"--" + SlowMo.Name, o.SlowMo.String(),
		"--" + Timeout.Name, o.Timeout.String(),
		"--" + ExpectTimeout.Name, o.ExpectTimeout.String(),
		"--" + ActionTimeout.Name, o.ActionTimeout.String(),
		"--" + Retries.Name, fmt.Sprint(o.Retries),
		fmt.Sprintf("--%s=%t", FailFast.Name, o.FailFast),
		"--" + Video.Name, string(o.Video),
		"--" + Screenshot.Name, string(o.Screenshot),
		fmt.Sprintf("--%s=%t", JUnit.Name, o.JUnit),
		fmt.Sprintf("--%s=%t", HTML.Name, o.HTML),
		"--" + IncludeTags.Name, strings.Join(o.IncludeTags, ","),
		"--" + ExcludeTags.Name, strings.Join(o.ExcludeTags, ","),
		"--" + Grep.Name, o.Grep,
	}
}

func (o execOptions) browserOptions() browser.Options {
	b := browser.DefaultOptions()
	b.Headless = o.Headless
	b.SlowMo = o.SlowMo
	b.ActionTimeout = o.ActionTimeout
	b.ExpectTimeout = o.ExpectTimeout
	b.Video = o.Video
	b.Screenshot = o.Screenshot
	return b
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
