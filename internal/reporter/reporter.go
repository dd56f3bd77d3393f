// Package reporter turns test lifecycle events into one consolidated JSON
// artifact per source file.
package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"sea-e2e/internal/executor"
)

// DefaultDir is where report artifacts land unless overridden.
const DefaultDir = "./test-results/json"

var ErrReportWriteFailed = errors.New("report write failed")

// Outcome is one test attempt as written to the artifact.
type Outcome struct {
	Title        string          `json:"title"`
	Status       executor.Status `json:"status"`
	Error        *string         `json:"error"`
	Duration     int64           `json:"duration"` // milliseconds
	TestFileName string          `json:"testFileName"`
	Retry        int             `json:"retry,omitempty"`
}

// Reporter buffers outcomes per source file and writes them on OnRunEnd.
// It implements executor.Listener.
type Reporter struct {
	mu      sync.Mutex
	dir     string
	log     *zap.Logger
	junit   bool
	html    bool
	files   *orderedmap.OrderedMap[string, []Outcome]
	written []string
}

func New(dir string) *Reporter {
	if dir == "" {
		dir = DefaultDir
	}
	return &Reporter{
		dir:   dir,
		log:   zap.NewNop(),
		files: orderedmap.New[string, []Outcome](),
	}
}

func (r *Reporter) WithLogger(l *zap.Logger) *Reporter {
	if l != nil {
		r.log = l
	}
	return r
}

// WithJUnit also writes junit-<name>.xml next to each JSON artifact.
func (r *Reporter) WithJUnit(b bool) *Reporter { r.junit = b; return r }

// WithHTML also writes report-<name>.html next to each JSON artifact.
func (r *Reporter) WithHTML(b bool) *Reporter { r.html = b; return r }

// FileKey derives the report identity of a test location: its base name
// without extension.
func FileKey(location string) string {
	base := filepath.Base(location)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Path returns the artifact path for a file key.
func (r *Reporter) Path(key string) string {
	return filepath.Join(r.dir, "report-"+key+".json")
}

func (r *Reporter) OnTestBegin(info executor.TestInfo) {
	key := FileKey(info.File)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files.Get(key); !ok {
		r.files.Set(key, []Outcome{})
	}
}

func (r *Reporter) OnTestEnd(info executor.TestInfo, res executor.Result) {
	key := FileKey(info.File)
	r.mu.Lock()
	defer r.mu.Unlock()
	outs, ok := r.files.Get(key)
	if !ok {
		r.log.Warn("dropping result for file with no begun test", zap.String("file", key), zap.String("test", info.Title))
		return
	}
	o := Outcome{
		Title:        info.Title,
		Status:       res.Status,
		Duration:     res.Duration.Milliseconds(),
		TestFileName: key,
		Retry:        res.Retry,
	}
	if res.Err != nil {
		msg := Strip(res.Err.Error())
		o.Error = &msg
	}
	r.files.Set(key, append(outs, o))
}

// OnRunEnd flushes every tracked file. Write failures are logged, never
// returned.
func (r *Reporter) OnRunEnd() {
	if err := r.Flush(); err != nil {
		r.log.Error("report not written", zap.Error(err))
	}
}

// Flush writes one artifact per tracked file and discards the buffers.
func (r *Reporter) Flush() error {
	r.mu.Lock()
	files := r.files
	r.files = orderedmap.New[string, []Outcome]()
	r.mu.Unlock()

	if files.Len() == 0 {
		r.log.Warn("no test file tracked; nothing to report")
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrReportWriteFailed, r.dir, err)
	}

	var errs []error
	for pair := files.Oldest(); pair != nil; pair = pair.Next() {
		if err := r.writeFile(pair.Key, pair.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reporter) writeFile(key string, outs []Outcome) error {
	data, err := Encode(outs)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrReportWriteFailed, key, err)
	}
	path := r.Path(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrReportWriteFailed, err)
	}
	r.record(path)
	r.log.Info("consolidated report generated", zap.String("file", key), zap.String("path", path), zap.Int("tests", len(outs)))

	if r.junit {
		if err := r.render(filepath.Join(r.dir, "junit-"+key+".xml"), func(b *bytes.Buffer) error {
			return WriteJUnit(b, key, outs)
		}); err != nil {
			return err
		}
	}
	if r.html {
		if err := r.render(filepath.Join(r.dir, "report-"+key+".html"), func(b *bytes.Buffer) error {
			return WriteHTML(b, key, outs)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) render(path string, fn func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrReportWriteFailed, path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrReportWriteFailed, err)
	}
	r.record(path)
	return nil
}

func (r *Reporter) record(path string) {
	r.mu.Lock()
	r.written = append(r.written, path)
	r.mu.Unlock()
}

// Artifacts lists every file written so far, in write order.
func (r *Reporter) Artifacts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.written...)
}

// Encode renders outcomes as the artifact body: a two-space indented JSON
// array with no trailing newline and no HTML escaping.
func Encode(outs []Outcome) ([]byte, error) {
	if outs == nil {
		outs = []Outcome{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outs); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ReadFile decodes an artifact written by Flush.
func ReadFile(path string) ([]Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var outs []Outcome
	if err := json.Unmarshal(data, &outs); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return outs, nil
}

var csi = regexp.MustCompile(`\x1B\[[0-9;]*[JKmsu]`)

// Strip removes ANSI escape sequences from s. Removing one sequence can join
// its neighbours into a new one, so it repeats until nothing changes.
func Strip(s string) string {
	for {
		out := csi.ReplaceAllString(stripansi.Strip(s), "")
		if out == s {
			return out
		}
		s = out
	}
}
