package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"sea-e2e/internal/executor"
	"sea-e2e/internal/parser"
	"sea-e2e/internal/reporter"
	"sea-e2e/internal/scenarios"
)

func isScript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// loadTarget resolves a coded suite name or a scripted file path.
func loadTarget(name string) (executor.File, error) {
	if isScript(name) {
		tf, err := parser.New().ParseFile(name)
		if err != nil {
			return executor.File{}, err
		}
		return executor.FromScripted(tf, name), nil
	}
	f, ok := scenarios.Lookup(name)
	if !ok {
		return executor.File{}, fmt.Errorf("unknown test file %q", name)
	}
	return f, nil
}

// discover lists every runnable file: coded suites first, then scripts in
// dir. When only is non-empty it selects files by name, report identity or
// path instead.
func discover(dir string, only []string) ([]executor.File, error) {
	if len(only) > 0 {
		out := make([]executor.File, 0, len(only))
		for _, name := range only {
			f, err := loadTarget(name)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	}

	out := scenarios.Files()
	paths, err := parser.Discover(dir)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		f, err := loadTarget(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func filter(files []executor.File, o execOptions) []executor.File {
	files = executor.FilterTags(files, o.IncludeTags, o.ExcludeTags)
	return executor.FilterGrep(files, o.Grep)
}

// checkUnique rejects two files that would write the same report.
func checkUnique(files []executor.File) error {
	seen := map[string]string{}
	for _, f := range files {
		key := reporter.FileKey(f.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s both report to report-%s.json", prev, f.Name, key)
		}
		seen[key] = f.Name
	}
	return nil
}
