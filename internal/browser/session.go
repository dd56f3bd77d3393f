package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Session owns one Playwright driver and one Chromium instance. Each page
// gets its own browser context so cookies and storage never leak between
// tests.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	log     *zap.Logger
}

// Launch starts Playwright and Chromium.
func Launch(opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	log.Debug("browser launched", zap.Bool("headless", opts.Headless), zap.String("version", b.Version()))
	return &Session{pw: pw, browser: b, opts: opts, log: log}, nil
}

// NewPage opens a page in a fresh context configured from the session
// options.
func (s *Session) NewPage() (Page, error) {
	co := playwright.BrowserNewContextOptions{}
	if s.opts.BaseURL != "" {
		co.BaseURL = playwright.String(s.opts.BaseURL)
	}
	if s.opts.Video != "" && s.opts.Video != VideoOff {
		co.RecordVideo = &playwright.RecordVideo{Dir: s.opts.VideoDir}
	}
	if s.opts.ViewportWidth > 0 && s.opts.ViewportHeight > 0 {
		co.Viewport = &playwright.Size{Width: s.opts.ViewportWidth, Height: s.opts.ViewportHeight}
	}
	bctx, err := s.browser.NewContext(co)
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	if s.opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(ms(s.opts.ActionTimeout))
	}
	p, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &pwPage{bctx: bctx, page: p}, nil
}

func (s *Session) Close() error {
	var errs []error
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

func ms(d time.Duration) float64 { return float64(d.Milliseconds()) }

func waitState(s State) *playwright.WaitForSelectorState {
	st := playwright.WaitForSelectorState(s)
	return &st
}

// translate tags Playwright timeouts with ErrTimeout.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

type pwPage struct {
	bctx playwright.BrowserContext
	page playwright.Page
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url)
	return translate(err)
}

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{loc: p.page.Locator(selector), sel: selector}
}

func (p *pwPage) Click(selector string) error {
	return translate(p.page.Click(selector))
}

func (p *pwPage) ForceClick(selector string) error {
	return translate(p.page.Click(selector, playwright.PageClickOptions{Force: playwright.Bool(true)}))
}

func (p *pwPage) Fill(selector, value string) error {
	return translate(p.page.Fill(selector, value))
}

func (p *pwPage) Press(selector, key string) error {
	return translate(p.page.Press(selector, key))
}

func (p *pwPage) SetInputFiles(selector string, paths ...string) error {
	return translate(p.page.SetInputFiles(selector, paths))
}

func (p *pwPage) WaitForSelector(selector string, state State, timeout time.Duration) error {
	opts := playwright.PageWaitForSelectorOptions{State: waitState(state)}
	if timeout > 0 {
		opts.Timeout = playwright.Float(ms(timeout))
	}
	_, err := p.page.WaitForSelector(selector, opts)
	return translate(err)
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) Reload() error {
	_, err := p.page.Reload()
	return translate(err)
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close closes the page and its context; closing the context finalizes any
// video.
func (p *pwPage) Close() error {
	perr := p.page.Close()
	cerr := p.bctx.Close()
	return errors.Join(perr, cerr)
}

func (p *pwPage) SaveVideo(path string) error {
	v := p.page.Video()
	if v == nil {
		return nil
	}
	return v.SaveAs(path)
}

func (p *pwPage) DeleteVideo() error {
	v := p.page.Video()
	if v == nil {
		return nil
	}
	return v.Delete()
}

type pwLocator struct {
	loc playwright.Locator
	sel string
}

func (l *pwLocator) IsVisible() (bool, error) { return l.loc.IsVisible() }
func (l *pwLocator) IsHidden() (bool, error)  { return l.loc.IsHidden() }
func (l *pwLocator) Click() error             { return translate(l.loc.Click()) }
func (l *pwLocator) Fill(value string) error  { return translate(l.loc.Fill(value)) }
func (l *pwLocator) Press(key string) error   { return translate(l.loc.Press(key)) }
func (l *pwLocator) Count() (int, error)      { return l.loc.Count() }
func (l *pwLocator) String() string           { return l.sel }

func (l *pwLocator) GetAttribute(name string) (string, bool, error) {
	v, err := l.loc.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil {
		return "", false, translate(err)
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (l *pwLocator) InnerText() (string, error) {
	s, err := l.loc.InnerText()
	return s, translate(err)
}

func (l *pwLocator) InputValue() (string, error) {
	s, err := l.loc.InputValue()
	return s, translate(err)
}

func (l *pwLocator) WaitFor(state State, timeout time.Duration) error {
	opts := playwright.LocatorWaitForOptions{State: waitState(state)}
	if timeout > 0 {
		opts.Timeout = playwright.Float(ms(timeout))
	}
	return translate(l.loc.WaitFor(opts))
}

func (l *pwLocator) SetInputFiles(paths ...string) error {
	return translate(l.loc.SetInputFiles(paths))
}

func (l *pwLocator) Locator(selector string) Locator {
	return &pwLocator{loc: l.loc.Locator(selector), sel: l.sel + " >> " + selector}
}
