package executor_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/browser/browsertest"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/ir"
	"sea-e2e/internal/steplog"
)

func runScripted(t *testing.T, page *browsertest.Page, steps ...ir.Step) (executor.TestResult, string) {
	t.Helper()
	var buf bytes.Buffer
	tf := &ir.TestFile{Name: "login", Scenarios: []ir.Scenario{{Name: "scripted", Steps: steps}}}
	f := executor.FromScripted(tf, "scenarios/login.yaml")
	require.Equal(t, "scenarios/login.yaml", f.Name)

	r := executor.New(&browsertest.Source{New: func() *browsertest.Page { return page }}).
		WithExpect(browser.NewExpect(300 * time.Millisecond)).
		WithStepLog(steplog.New(&buf, nil))
	res := r.Run(context.Background(), f)
	require.Len(t, res, 1)
	require.Len(t, res[0].Tests, 1)
	return res[0].Tests[0], buf.String()
}

func TestScripted_DrivesPage(t *testing.T) {
	t.Setenv("APP_URL", "http://app.test")

	page := browsertest.NewPage()
	page.Show(`input[aria-label="Email"]`, `button:has-text("Login")`, ".q-checkbox", "#pw")
	page.SetAttr(".q-checkbox", "aria-checked", "true")
	page.OnClick[`button:has-text("Login")`] = func(p *browsertest.Page) {
		p.Show(".welcome")
		p.SetText(".welcome", "Hello e2e user")
	}
	page.HTML = "<html>snap</html>"
	page.Set(`input[type="file"]`, browsertest.Element{})

	got, log := runScripted(t, page,
		ir.Step{Action: ir.ActionGoto, Value: "${APP_URL}/login"},
		ir.Step{Action: ir.ActionExpectVisible, Selector: `input[aria-label="Email"]`},
		ir.Step{Action: ir.ActionFill, Selector: `input[aria-label="Email"]`, Value: "${E2E_MISSING|a@b.c}"},
		ir.Step{Action: ir.ActionUncheck, Selector: ".q-checkbox"},
		ir.Step{Action: ir.ActionPress, Selector: "#pw", Key: "Tab"},
		ir.Step{Action: ir.ActionUpload, Selector: `input[type="file"]`, Files: []string{"resources/e2e.png"}},
		ir.Step{Action: ir.ActionClick, Selector: `button:has-text("Login")`},
		ir.Step{Action: ir.ActionExpectText, Selector: ".welcome", Value: "e2e user"},
		ir.Step{Action: ir.ActionExpectValue, Selector: `input[aria-label="Email"]`, Value: "a@b.c"},
		ir.Step{Action: ir.ActionWait, Selector: ".spinner", State: "hidden"},
		ir.Step{Action: ir.ActionSnapshot, Value: "after login"},
		ir.Step{Action: ir.ActionLog, Value: "logged in"},
	)

	require.Equal(t, executor.StatusPassed, got.Status, got.Error)
	assert.Equal(t, "http://app.test/login", page.URL())
	assert.Equal(t, []string{"resources/e2e.png"}, page.Uploads(`input[type="file"]`))

	want := []string{
		"goto http://app.test/login",
		`fill input[aria-label="Email"] a@b.c`,
		"click .q-checkbox",
		"press #pw Tab",
		`upload input[type="file"] [resources/e2e.png]`,
		`click button:has-text("Login")`,
		"wait .spinner hidden",
	}
	if diff := cmp.Diff(want, page.Actions()); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, log, "\nafter login:\n<html>snap</html>\n")
	assert.Contains(t, log, " - logged in\n")
	assert.Contains(t, log, "scripted: step 1: goto ${APP_URL}/login")
}

func TestScripted_CheckIsIdempotent(t *testing.T) {
	page := browsertest.NewPage()
	page.Show(".q-checkbox")
	page.SetAttr(".q-checkbox", "aria-checked", "true")

	got, _ := runScripted(t, page, ir.Step{Action: ir.ActionCheck, Selector: ".q-checkbox"})
	require.Equal(t, executor.StatusPassed, got.Status)
	assert.Empty(t, page.Actions())
}

func TestScripted_UnresolvedURLVariable(t *testing.T) {
	got, _ := runScripted(t, browsertest.NewPage(),
		ir.Step{Action: ir.ActionGoto, Value: "${E2E_NOT_SET_ANYWHERE}/login"})
	assert.Equal(t, executor.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "unresolved variables in URL: ${E2E_NOT_SET_ANYWHERE}")
}

func TestScripted_FailedExpectationStopsScenario(t *testing.T) {
	page := browsertest.NewPage()
	page.Show("#later")

	got, _ := runScripted(t, page,
		ir.Step{Action: ir.ActionExpectVisible, Selector: "#missing", TimeoutMs: 50},
		ir.Step{Action: ir.ActionClick, Selector: "#later"},
	)
	assert.Equal(t, executor.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "step 1 (expectVisible #missing)")
	assert.Contains(t, got.Error, browser.ErrAssertionFailed.Error())
	assert.Empty(t, page.Actions())
}

func TestScripted_ExpectAttribute(t *testing.T) {
	page := browsertest.NewPage()
	page.Show("#email")
	page.SetAttr("#email", "readonly", "")

	got, _ := runScripted(t, page,
		ir.Step{Action: ir.ActionExpectAttribute, Selector: "#email", Attribute: "readonly", Value: ""},
		ir.Step{Action: ir.ActionExpectHidden, Selector: ".blurred-form"},
	)
	assert.Equal(t, executor.StatusPassed, got.Status, got.Error)
}
