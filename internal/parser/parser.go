// Package parser reads and validates scripted test files.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sea-e2e/internal/ir"
)

var ErrValidation = errors.New("validation error")

type Parser struct{}

func New() *Parser { return &Parser{} }

// ParseBytes parses YAML (or JSON) into IR and validates it.
func (p *Parser) ParseBytes(b []byte) (*ir.TestFile, error) {
	return p.parse(b, "")
}

// ParseFile reads and parses path. An empty name defaults to the file's
// base name without extension.
func (p *Parser) ParseFile(path string) (*ir.TestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := p.parse(data, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (p *Parser) parse(b []byte, defaultName string) (*ir.TestFile, error) {
	var file ir.TestFile

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true) // fail on unknown fields

	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if file.Name == "" {
		file.Name = defaultName
	}
	if err := validateFile(&file); err != nil {
		return nil, err
	}

	// Normalize wait states
	for i := range file.Scenarios {
		for j := range file.Scenarios[i].Steps {
			st := &file.Scenarios[i].Steps[j]
			st.State = strings.ToLower(st.State)
			if st.Action == ir.ActionWait && st.State == "" {
				st.State = "visible"
			}
		}
	}
	return &file, nil
}

// Discover lists scripted test files (*.yaml, *.yml, *.json) in dir, sorted.
// A missing dir yields no files.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- validation helpers ---

func validateFile(f *ir.TestFile) error {
	if f.Name == "" {
		return wrapValidation("file.name must not be empty")
	}
	if len(f.Scenarios) == 0 {
		return wrapValidation("file.scenarios must not be empty")
	}
	for i := range f.Scenarios {
		if err := validateScenario(&f.Scenarios[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateScenario(sc *ir.Scenario, idx int) error {
	if sc.Name == "" {
		return wrapValidation(fmt.Sprintf("scenario[%d].name must not be empty", idx))
	}
	if len(sc.Steps) == 0 {
		return wrapValidation(fmt.Sprintf("scenario[%d].steps must not be empty", idx))
	}
	for j := range sc.Steps {
		if err := validateStep(&sc.Steps[j], idx, j); err != nil {
			return err
		}
	}
	return nil
}

var needsSelector = []string{
	ir.ActionClick, ir.ActionFill, ir.ActionPress, ir.ActionCheck, ir.ActionUncheck,
	ir.ActionUpload, ir.ActionWait, ir.ActionExpectVisible, ir.ActionExpectHidden,
	ir.ActionExpectText, ir.ActionExpectValue, ir.ActionExpectAttribute,
}

var needsValue = []string{ir.ActionGoto, ir.ActionExpectText, ir.ActionLog}

var waitStates = []string{"visible", "hidden", "attached", "detached"}

func validateStep(st *ir.Step, i, j int) error {
	at := fmt.Sprintf("scenario[%d].step[%d]", i, j)
	if st.Action == "" {
		return wrapValidation(at + ".action must not be empty")
	}
	if !slices.Contains(ir.Actions, st.Action) {
		return wrapValidation(fmt.Sprintf("%s.action %q is unknown", at, st.Action))
	}
	if slices.Contains(needsSelector, st.Action) && st.Selector == "" {
		return wrapValidation(fmt.Sprintf("%s.selector must not be empty for %s", at, st.Action))
	}
	if slices.Contains(needsValue, st.Action) && st.Value == "" {
		return wrapValidation(fmt.Sprintf("%s.value must not be empty for %s", at, st.Action))
	}
	switch st.Action {
	case ir.ActionPress:
		if st.Key == "" {
			return wrapValidation(at + ".key must not be empty for press")
		}
	case ir.ActionUpload:
		if len(st.Files) == 0 {
			return wrapValidation(at + ".files must not be empty for upload")
		}
	case ir.ActionExpectAttribute:
		if st.Attribute == "" {
			return wrapValidation(at + ".attribute must not be empty for expectAttribute")
		}
	case ir.ActionWait:
		if st.State != "" && !slices.Contains(waitStates, strings.ToLower(st.State)) {
			return wrapValidation(fmt.Sprintf("%s.state %q must be one of %s", at, st.State, strings.Join(waitStates, ", ")))
		}
	}
	if st.TimeoutMs < 0 {
		return wrapValidation(at + ".timeout_ms must not be negative")
	}
	return nil
}

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
