// Package scenarios holds the coded end-to-end suites and the page flows
// they are built from.
package scenarios

import (
	"sync"

	"sea-e2e/internal/executor"
	"sea-e2e/internal/reporter"
)

var (
	mu       sync.RWMutex
	registry []executor.File
)

func register(f executor.File) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, f)
}

// Files returns every coded suite in registration order.
func Files() []executor.File {
	mu.RLock()
	defer mu.RUnlock()
	return append([]executor.File(nil), registry...)
}

// Lookup finds a coded suite by name or by its report identity.
func Lookup(name string) (executor.File, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, f := range registry {
		if f.Name == name || reporter.FileKey(f.Name) == name {
			return f, true
		}
	}
	return executor.File{}, false
}
