package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultPollInterval = 100 * time.Millisecond

// Expect evaluates UI expectations, polling until they hold or Timeout
// elapses.
type Expect struct {
	Timeout  time.Duration
	Interval time.Duration
}

// NewExpect returns an Expect with the given timeout (10s when <= 0).
func NewExpect(timeout time.Duration) Expect {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return Expect{Timeout: timeout, Interval: defaultPollInterval}
}

// WithTimeout returns a copy using timeout.
func (e Expect) WithTimeout(timeout time.Duration) Expect {
	e.Timeout = timeout
	return e
}

// WaitUntil polls cond until it returns true. A cond error is remembered and
// reported if the deadline passes; it does not stop polling. The returned
// error wraps ErrAssertionFailed, or ErrTimeout when ctx itself expired.
func (e Expect) WaitUntil(ctx context.Context, desc string, cond func() (bool, error)) error {
	interval := e.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.NewTimer(e.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var lastErr error
	for {
		ok, err := cond()
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrTimeout, desc, context.Cause(ctx))
		case <-deadline.C:
			if lastErr != nil {
				return fmt.Errorf("%w: %s within %s: %v", ErrAssertionFailed, desc, e.Timeout, lastErr)
			}
			return fmt.Errorf("%w: %s within %s", ErrAssertionFailed, desc, e.Timeout)
		case <-tick.C:
		}
	}
}

func (e Expect) Visible(ctx context.Context, l Locator) error {
	return e.WaitUntil(ctx, fmt.Sprintf("expected %s to be visible", l), l.IsVisible)
}

func (e Expect) Hidden(ctx context.Context, l Locator) error {
	return e.WaitUntil(ctx, fmt.Sprintf("expected %s to be hidden", l), l.IsHidden)
}

// Attribute expects name to be present with exactly value.
func (e Expect) Attribute(ctx context.Context, l Locator, name, value string) error {
	var last string
	err := e.WaitUntil(ctx, fmt.Sprintf("expected %s to have attribute %s=%q", l, name, value), func() (bool, error) {
		got, ok, err := l.GetAttribute(name)
		if err != nil || !ok {
			last = "<absent>"
			return false, err
		}
		last = got
		return got == value, nil
	})
	return withLast(err, last)
}

// Value expects an input's current value to equal want.
func (e Expect) Value(ctx context.Context, l Locator, want string) error {
	var last string
	err := e.WaitUntil(ctx, fmt.Sprintf("expected %s to have value %q", l, want), func() (bool, error) {
		got, err := l.InputValue()
		last = got
		return err == nil && got == want, err
	})
	return withLast(err, last)
}

// NoClass expects the class attribute not to contain class.
func (e Expect) NoClass(ctx context.Context, l Locator, class string) error {
	return e.WaitUntil(ctx, fmt.Sprintf("expected %s not to have class %q", l, class), func() (bool, error) {
		got, _, err := l.GetAttribute("class")
		if err != nil {
			return false, err
		}
		return !hasClass(got, class), nil
	})
}

// TextContains expects the element's inner text to contain sub.
func (e Expect) TextContains(ctx context.Context, l Locator, sub string) error {
	var last string
	err := e.WaitUntil(ctx, fmt.Sprintf("expected %s to contain text %q", l, sub), func() (bool, error) {
		got, err := l.InnerText()
		last = got
		return err == nil && strings.Contains(got, sub), err
	})
	return withLast(err, last)
}

func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}

func withLast(err error, last string) error {
	if err == nil || !errors.Is(err, ErrAssertionFailed) {
		return err
	}
	return fmt.Errorf("%w (last seen %q)", err, last)
}
