package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sea-e2e/internal/ir"
)

func TestIR_Basics(t *testing.T) {
	file := ir.TestFile{
		Name: "s2-login-validation",
		Scenarios: []ir.Scenario{
			{
				Name: "password is required",
				Tags: []string{"login", "smoke"},
				Steps: []ir.Step{
					{Action: ir.ActionGoto, Value: "${E2E_APP_URL}"},
					{Action: ir.ActionClick, Selector: `button:has-text("Login")`},
					{Name: "validation shows", Action: ir.ActionExpectVisible, Selector: `.text-negative:has-text("Password is required")`, TimeoutMs: 5000},
				},
			},
		},
	}

	if diff := cmp.Diff("s2-login-validation", file.Name); diff != "" {
		t.Fatalf("file name mismatch (-want +got):\n%s", diff)
	}
	if got, want := len(file.Scenarios[0].Steps), 3; got != want {
		t.Fatalf("steps len = %d, want %d", got, want)
	}
	steps := file.Scenarios[0].Steps
	labels := []string{steps[0].Label(), steps[1].Label(), steps[2].Label()}
	want := []string{"goto ${E2E_APP_URL}", `click button:has-text("Login")`, "validation shows"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if (ir.Step{Action: ir.ActionReload}).Label() != "reload" {
		t.Fatal("bare action label")
	}
}

func TestActionsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range ir.Actions {
		if seen[a] {
			t.Fatalf("duplicate action %q", a)
		}
		seen[a] = true
	}
	if len(seen) != 16 {
		t.Fatalf("actions = %d, want 16", len(seen))
	}
}
