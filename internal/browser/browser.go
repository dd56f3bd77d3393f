// Package browser is the automation surface scenarios drive: pages,
// locators and bounded expectations. Session adapts playwright-go to it.
package browser

import (
	"errors"
	"time"
)

var (
	// ErrAssertionFailed marks an expected UI state that did not materialize
	// in time.
	ErrAssertionFailed = errors.New("assertion failed")
	// ErrTimeout marks an action that did not complete in time.
	ErrTimeout = errors.New("timeout")
)

// State is an element state to wait for.
type State string

const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateAttached State = "attached"
	StateDetached State = "detached"
)

// Locator finds elements lazily; every call re-resolves the selector.
type Locator interface {
	IsVisible() (bool, error)
	IsHidden() (bool, error)
	Click() error
	Fill(value string) error
	Press(key string) error
	// GetAttribute reports ok=false when the attribute is absent.
	GetAttribute(name string) (value string, ok bool, err error)
	InnerText() (string, error)
	InputValue() (string, error)
	Count() (int, error)
	WaitFor(state State, timeout time.Duration) error
	SetInputFiles(paths ...string) error
	Locator(selector string) Locator
	String() string
}

// Page is one browser tab.
type Page interface {
	Goto(url string) error
	Locator(selector string) Locator
	Click(selector string) error
	// ForceClick skips actionability checks.
	ForceClick(selector string) error
	Fill(selector, value string) error
	Press(selector, key string) error
	SetInputFiles(selector string, paths ...string) error
	WaitForSelector(selector string, state State, timeout time.Duration) error
	Content() (string, error)
	Reload() error
	Screenshot(path string) error
	Close() error
}

// Recorder is implemented by pages that record video.
type Recorder interface {
	// SaveVideo copies the recording to path. The page must be closed first.
	SaveVideo(path string) error
	DeleteVideo() error
}

// VideoMode mirrors the capture policies of the runner.
type VideoMode string

const (
	VideoOff             VideoMode = "off"
	VideoOn              VideoMode = "on"
	VideoRetainOnFailure VideoMode = "retain-on-failure"
)

// ScreenshotMode selects when a final screenshot is taken.
type ScreenshotMode string

const (
	ScreenshotOff           ScreenshotMode = "off"
	ScreenshotOn            ScreenshotMode = "on"
	ScreenshotOnlyOnFailure ScreenshotMode = "only-on-failure"
)

// Options configure a Session.
type Options struct {
	Headless       bool
	SlowMo         time.Duration
	BaseURL        string
	ActionTimeout  time.Duration
	ExpectTimeout  time.Duration
	Video          VideoMode
	VideoDir       string
	Screenshot     ScreenshotMode
	ScreenshotDir  string
	ViewportWidth  int
	ViewportHeight int
}

// DefaultOptions match the suite's stock runner settings.
func DefaultOptions() Options {
	return Options{
		Headless:      true,
		ActionTimeout: 30 * time.Second,
		ExpectTimeout: 10 * time.Second,
		Video:         VideoRetainOnFailure,
		VideoDir:      "./test-results/videos",
		Screenshot:    ScreenshotOnlyOnFailure,
		ScreenshotDir: "./test-results/screenshots",
	}
}
