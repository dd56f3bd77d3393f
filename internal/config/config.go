// Package config loads the suite's config.json and hands its values to
// workers and scenarios through the process environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	KeyAppURL        = "E2E_APP_URL"
	KeyUser          = "E2E_USER"
	KeyPassword      = "E2E_PASSWORD"
	KeyUniqueContext = "E2E_UNIQUE_CONTEXT"
	KeyLogFile       = "E2E_LOG_FILE"

	DefaultPath    = "./config.json"
	DefaultLogFile = "/tmp/e2e-log.txt"
)

// RequiredKeys must be present and non-empty for any scenario to run.
var RequiredKeys = []string{KeyAppURL, KeyUser, KeyPassword, KeyUniqueContext}

// PropagatedKeys are copied into the environment during global setup.
var PropagatedKeys = append(append([]string{}, RequiredKeys...), KeyLogFile)

var (
	ErrConfigMissing      = errors.New("config missing")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Record is the flat key/value view of config.json. It is read-only once
// loaded; accessors hand out copies.
type Record struct {
	m map[string]string
}

// NewRecord builds a Record from m. The map is copied.
func NewRecord(m map[string]string) Record {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return Record{m: out}
}

// Load reads a single JSON config file.
func Load(path string) (Record, error) {
	return LoadFiles([]string{path})
}

// LoadFiles reads JSON objects from paths in order; later files override
// earlier ones. Non-string values are coerced to strings.
func LoadFiles(paths []string) (Record, error) {
	out := map[string]string{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return Record{}, fmt.Errorf("%w: read %s: %v", ErrConfigMissing, p, err)
		}

		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return Record{}, fmt.Errorf("%w: parse %s: %v", ErrConfigMissing, p, err)
		}
		if m == nil {
			return Record{}, fmt.Errorf("%w: %s is not a JSON object", ErrConfigMissing, p)
		}
		for k, v := range m {
			switch x := v.(type) {
			case string:
				out[k] = x
			case nil:
				// JSON null counts as absent
			default:
				out[k] = fmt.Sprint(x)
			}
		}
	}
	return Record{m: out}, nil
}

func (r Record) Get(key string) (string, bool) {
	v, ok := r.m[key]
	return v, ok
}

func (r Record) Value(key string) string { return r.m[key] }

func (r Record) Len() int { return len(r.m) }

// Map returns a copy of the underlying values.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}

// Missing lists the keys that are absent or empty, in the order given.
func (r Record) Missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if strings.TrimSpace(r.m[k]) == "" {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks RequiredKeys.
func (r Record) Validate() error {
	if missing := r.Missing(RequiredKeys...); len(missing) > 0 {
		return fmt.Errorf("%w: required keys not set: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}
	return nil
}

// LogFile returns the diagnostic log path from the record, or DefaultLogFile.
func (r Record) LogFile() string {
	if v := r.m[KeyLogFile]; v != "" {
		return v
	}
	return DefaultLogFile
}

// Keys returns the record's keys, sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.m))
	for k := range r.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
