// Package browsertest provides an in-memory browser.Page for tests. Elements
// are keyed by selector string; hooks let a test play the application's
// part when the page is clicked, pressed or navigated.
package browsertest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"sea-e2e/internal/browser"
)

// Element is the fake state behind one selector.
type Element struct {
	Visible bool
	Text    string
	Value   string
	Attrs   map[string]string
	Count   int // defaults to 1 when the element exists
}

type Page struct {
	mu     sync.Mutex
	els    map[string]*Element
	url    string
	closed bool

	actions     []string
	screenshots []string
	uploads     map[string][]string
	videoSaved  []string
	videoGone   bool

	HTML     string
	OnGoto   func(p *Page, url string)
	OnReload func(p *Page)
	OnClick  map[string]func(p *Page)
	OnFill   map[string]func(p *Page, value string)
	OnPress  map[string]func(p *Page, key string)
	// Block, when set, makes every action wait until the page is closed.
	// Close closes it; tests must not.
	Block chan struct{}
}

func NewPage() *Page {
	return &Page{
		els:     map[string]*Element{},
		uploads: map[string][]string{},
		OnClick: map[string]func(*Page){},
		OnFill:  map[string]func(*Page, string){},
		OnPress: map[string]func(*Page, string){},
	}
}

// Set replaces the element behind sel.
func (p *Page) Set(sel string, e Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := e
	if el.Attrs == nil {
		el.Attrs = map[string]string{}
	}
	p.els[sel] = &el
}

// Show makes each selector visible, creating it when absent.
func (p *Page) Show(sels ...string) { p.setVisible(true, sels) }

// Hide makes each selector hidden, creating it when absent.
func (p *Page) Hide(sels ...string) { p.setVisible(false, sels) }

func (p *Page) setVisible(v bool, sels []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sels {
		p.el(s).Visible = v
	}
}

// Remove deletes the element behind each selector.
func (p *Page) Remove(sels ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sels {
		delete(p.els, s)
	}
}

// SetAttr sets an attribute, creating the element when absent.
func (p *Page) SetAttr(sel, name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.el(sel).Attrs[name] = value
}

// DelAttr removes an attribute.
func (p *Page) DelAttr(sel, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.els[sel]; ok {
		delete(e.Attrs, name)
	}
}

// SetText sets the inner text, creating the element when absent.
func (p *Page) SetText(sel, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.el(sel).Text = text
}

// SetValue sets an input value, creating the element when absent.
func (p *Page) SetValue(sel, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.el(sel).Value = v
}

// Value returns the current input value behind sel.
func (p *Page) Value(sel string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.els[sel]; ok {
		return e.Value
	}
	return ""
}

func (p *Page) Visible(sel string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.els[sel]
	return ok && e.Visible
}

func (p *Page) el(sel string) *Element {
	e, ok := p.els[sel]
	if !ok {
		e = &Element{Attrs: map[string]string{}}
		p.els[sel] = e
	}
	return e
}

// Actions returns the recorded actions in order, e.g. "click button".
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.screenshots...)
}

func (p *Page) Uploads(sel string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.uploads[sel]...)
}

// Video reports where the recording was saved and whether it was deleted.
func (p *Page) Video() (saved []string, deleted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.videoSaved...), p.videoGone
}

// Selectors lists every known selector, sorted.
func (p *Page) Selectors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.els))
	for k := range p.els {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (p *Page) record(format string, args ...any) error {
	p.mu.Lock()
	block := p.Block
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("page closed")
	}
	if block != nil {
		<-block
		if p.Closed() {
			return fmt.Errorf("page closed")
		}
	}
	p.mu.Lock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
	p.mu.Unlock()
	return nil
}

// actionable returns an error unless sel exists and is visible.
func (p *Page) actionable(sel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.els[sel]
	if !ok || !e.Visible {
		return fmt.Errorf("%w: waiting for %s to be visible", browser.ErrTimeout, sel)
	}
	return nil
}

func (p *Page) Goto(url string) error {
	if err := p.record("goto %s", url); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	hook := p.OnGoto
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *Page) Locator(sel string) browser.Locator { return &Locator{p: p, sel: sel} }

func (p *Page) Click(sel string) error { return p.click(sel, false) }

func (p *Page) ForceClick(sel string) error { return p.click(sel, true) }

func (p *Page) click(sel string, force bool) error {
	if !force {
		if err := p.actionable(sel); err != nil {
			return err
		}
	}
	if err := p.record("click %s", sel); err != nil {
		return err
	}
	p.mu.Lock()
	hook := p.OnClick[sel]
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Fill(sel, value string) error {
	if err := p.actionable(sel); err != nil {
		return err
	}
	if err := p.record("fill %s %s", sel, value); err != nil {
		return err
	}
	p.mu.Lock()
	p.el(sel).Value = value
	hook := p.OnFill[sel]
	p.mu.Unlock()
	if hook != nil {
		hook(p, value)
	}
	return nil
}

func (p *Page) Press(sel, key string) error {
	if err := p.actionable(sel); err != nil {
		return err
	}
	if err := p.record("press %s %s", sel, key); err != nil {
		return err
	}
	p.mu.Lock()
	hook := p.OnPress[sel]
	p.mu.Unlock()
	if hook != nil {
		hook(p, key)
	}
	return nil
}

func (p *Page) SetInputFiles(sel string, paths ...string) error {
	if err := p.record("upload %s %v", sel, paths); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.els[sel]; !ok {
		return fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, sel)
	}
	p.uploads[sel] = append([]string(nil), paths...)
	return nil
}

func (p *Page) WaitForSelector(sel string, state browser.State, _ time.Duration) error {
	if err := p.record("wait %s %s", sel, state); err != nil {
		return err
	}
	if !p.inState(sel, state) {
		return fmt.Errorf("%w: waiting for %s to be %s", browser.ErrTimeout, sel, state)
	}
	return nil
}

func (p *Page) inState(sel string, state browser.State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.els[sel]
	switch state {
	case browser.StateHidden:
		return !ok || !e.Visible
	case browser.StateAttached:
		return ok
	case browser.StateDetached:
		return !ok
	default:
		return ok && e.Visible
	}
}

func (p *Page) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.HTML != "" {
		return p.HTML, nil
	}
	return "<html><body></body></html>", nil
}

func (p *Page) Reload() error {
	if err := p.record("reload"); err != nil {
		return err
	}
	p.mu.Lock()
	hook := p.OnReload
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Screenshot(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("page closed")
	}
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		if p.Block != nil {
			close(p.Block)
		}
	}
	return nil
}

func (p *Page) SaveVideo(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoSaved = append(p.videoSaved, path)
	return nil
}

func (p *Page) DeleteVideo() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoGone = true
	return nil
}

// Locator resolves against the page on every call.
type Locator struct {
	p   *Page
	sel string
}

func (l *Locator) String() string { return l.sel }

func (l *Locator) lookup() (Element, bool) {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	e, ok := l.p.els[l.sel]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

func (l *Locator) IsVisible() (bool, error) {
	e, ok := l.lookup()
	return ok && e.Visible, nil
}

func (l *Locator) IsHidden() (bool, error) {
	e, ok := l.lookup()
	return !ok || !e.Visible, nil
}

func (l *Locator) Click() error            { return l.p.Click(l.sel) }
func (l *Locator) Fill(value string) error { return l.p.Fill(l.sel, value) }
func (l *Locator) Press(key string) error  { return l.p.Press(l.sel, key) }

func (l *Locator) GetAttribute(name string) (string, bool, error) {
	e, ok := l.lookup()
	if !ok {
		return "", false, fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, l.sel)
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (l *Locator) InnerText() (string, error) {
	e, ok := l.lookup()
	if !ok {
		return "", fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, l.sel)
	}
	return e.Text, nil
}

func (l *Locator) InputValue() (string, error) {
	e, ok := l.lookup()
	if !ok {
		return "", fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, l.sel)
	}
	return e.Value, nil
}

func (l *Locator) Count() (int, error) {
	e, ok := l.lookup()
	if !ok {
		return 0, nil
	}
	if e.Count > 0 {
		return e.Count, nil
	}
	return 1, nil
}

func (l *Locator) WaitFor(state browser.State, timeout time.Duration) error {
	return l.p.WaitForSelector(l.sel, state, timeout)
}

func (l *Locator) SetInputFiles(paths ...string) error {
	return l.p.SetInputFiles(l.sel, paths...)
}

func (l *Locator) Locator(sel string) browser.Locator {
	return &Locator{p: l.p, sel: l.sel + " >> " + sel}
}

// Source hands out pages from New.
type Source struct {
	New   func() *Page
	mu    sync.Mutex
	pages []*Page
	Err   error
}

func (s *Source) NewPage() (browser.Page, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var p *Page
	if s.New != nil {
		p = s.New()
	} else {
		p = NewPage()
	}
	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.mu.Unlock()
	return p, nil
}

// Pages returns every page handed out so far.
func (s *Source) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Page(nil), s.pages...)
}
