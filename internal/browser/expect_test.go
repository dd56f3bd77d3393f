package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/browser/browsertest"
)

func fastExpect() browser.Expect {
	return browser.Expect{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond}
}

func TestVisibleAndHidden(t *testing.T) {
	p := browsertest.NewPage()
	p.Show(`input[aria-label="Email"]`)
	p.Hide(`input[aria-label="Password"]`)
	x := fastExpect()
	ctx := context.Background()

	require.NoError(t, x.Visible(ctx, p.Locator(`input[aria-label="Email"]`)))
	require.NoError(t, x.Hidden(ctx, p.Locator(`input[aria-label="Password"]`)))
	require.NoError(t, x.Hidden(ctx, p.Locator(`.does-not-exist`)))

	err := x.Visible(ctx, p.Locator(`input[aria-label="Password"]`))
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), `input[aria-label="Password"]`)
}

func TestVisible_BecomesTrueWhilePolling(t *testing.T) {
	p := browsertest.NewPage()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Show(".text-negative")
	}()
	x := browser.Expect{Timeout: time.Second, Interval: 2 * time.Millisecond}
	require.NoError(t, x.Visible(context.Background(), p.Locator(".text-negative")))
}

func TestAttribute(t *testing.T) {
	p := browsertest.NewPage()
	p.SetAttr(`input[aria-label="Email"]`, "readonly", "")
	x := fastExpect()
	ctx := context.Background()

	require.NoError(t, x.Attribute(ctx, p.Locator(`input[aria-label="Email"]`), "readonly", ""))

	p.DelAttr(`input[aria-label="Email"]`, "readonly")
	err := x.Attribute(ctx, p.Locator(`input[aria-label="Email"]`), "readonly", "")
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), "<absent>")
}

func TestValueReportsLastSeen(t *testing.T) {
	p := browsertest.NewPage()
	p.SetValue(`input[aria-label="Last Name"]`, "old")
	err := fastExpect().Value(context.Background(), p.Locator(`input[aria-label="Last Name"]`), "new")
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), `last seen "old"`)
}

func TestNoClass(t *testing.T) {
	p := browsertest.NewPage()
	p.SetAttr(".q-checkbox", "class", "q-checkbox cursor-pointer")
	x := fastExpect()
	require.NoError(t, x.NoClass(context.Background(), p.Locator(".q-checkbox"), "q-checkbox--checked"))

	p.SetAttr(".q-checkbox", "class", "q-checkbox q-checkbox--checked")
	assert.ErrorIs(t, x.NoClass(context.Background(), p.Locator(".q-checkbox"), "q-checkbox--checked"), browser.ErrAssertionFailed)
}

func TestTextContains(t *testing.T) {
	p := browsertest.NewPage()
	p.SetText("div.q-field__native span", "REPORT_READ_ALL")
	require.NoError(t, fastExpect().TextContains(context.Background(), p.Locator("div.q-field__native span"), "READ_ALL"))
}

func TestWaitUntil_ContextExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x := browser.Expect{Timeout: time.Hour, Interval: time.Millisecond}
	err := x.WaitUntil(ctx, "never", func() (bool, error) { return false, nil })
	require.ErrorIs(t, err, browser.ErrTimeout)
	assert.False(t, errors.Is(err, browser.ErrAssertionFailed))
}

func TestWaitUntil_KeepsLastError(t *testing.T) {
	boom := errors.New("detached")
	err := fastExpect().WaitUntil(context.Background(), "thing", func() (bool, error) { return false, boom })
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), "detached")
}

func TestNewExpectDefaults(t *testing.T) {
	assert.Equal(t, 10*time.Second, browser.NewExpect(0).Timeout)
	assert.Equal(t, 3*time.Second, browser.NewExpect(time.Second).WithTimeout(3*time.Second).Timeout)
}

func TestDefaultOptions(t *testing.T) {
	o := browser.DefaultOptions()
	assert.Equal(t, browser.VideoRetainOnFailure, o.Video)
	assert.Equal(t, browser.ScreenshotOnlyOnFailure, o.Screenshot)
	assert.Equal(t, "./test-results/videos", o.VideoDir)
	assert.Equal(t, 10*time.Second, o.ExpectTimeout)
}
