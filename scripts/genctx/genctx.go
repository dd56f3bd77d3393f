// Command genctx prints a fresh unique context for E2E_UNIQUE_CONTEXT so
// parallel runs against one deployment do not collide on created records.
package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"sea-e2e/internal/config"
)

type Out struct {
	Vars map[string]string `json:"vars,omitempty"`
}

// newContext returns 12 hex characters of a random UUID.
func newContext() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func write(w io.Writer) error {
	return json.NewEncoder(w).Encode(Out{
		Vars: map[string]string{config.KeyUniqueContext: newContext()},
	})
}

func main() {
	if err := write(os.Stdout); err != nil {
		os.Exit(1)
	}
}
