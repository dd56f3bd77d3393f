package executor

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/ir"
)

// FromScripted turns a parsed test file into runnable tests. location is
// the path the file was read from.
func FromScripted(tf *ir.TestFile, location string) File {
	if location == "" {
		location = tf.Name + ".yaml"
	}
	f := File{Name: location}
	for _, sc := range tf.Scenarios {
		sc := sc
		f.Tests = append(f.Tests, Test{
			Title: sc.Name,
			Tags:  sc.Tags,
			Skip:  sc.Skip,
			Run: func(ctx context.Context, t *T) error {
				return runScenario(ctx, t, sc)
			},
		})
	}
	return f
}

func runScenario(ctx context.Context, t *T, sc ir.Scenario) error {
	vars := envVars()
	vars["uuid"] = uuid.NewString()
	vars["now"] = time.Now().UTC().Format(time.RFC3339)

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}
		t.Log.Step("%s: step %d: %s", sc.Name, i+1, st.Label())
		if err := runStep(ctx, t, st, vars); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Label(), err)
		}
	}
	return nil
}

func runStep(ctx context.Context, t *T, st ir.Step, vars map[string]string) error {
	p := t.Page
	x := t.Expect
	timeout := x.Timeout
	if st.TimeoutMs > 0 {
		timeout = time.Duration(st.TimeoutMs) * time.Millisecond
		x = x.WithTimeout(timeout)
	}
	sel := interpolate(st.Selector, vars)
	val := interpolate(st.Value, vars)

	switch st.Action {
	case ir.ActionGoto:
		// Guard unresolved vars in URL (clear error instead of bad URL)
		if unresolved := findUnresolved(val); len(unresolved) > 0 {
			return fmt.Errorf("unresolved variables in URL: %s (set them in config.json or use ${VAR|default})",
				strings.Join(unresolved, ", "))
		}
		return p.Goto(val)
	case ir.ActionClick:
		if st.Force {
			return p.ForceClick(sel)
		}
		return p.Click(sel)
	case ir.ActionFill:
		return p.Fill(sel, val)
	case ir.ActionPress:
		return p.Press(sel, st.Key)
	case ir.ActionCheck, ir.ActionUncheck:
		want := st.Action == ir.ActionCheck
		got, _, err := p.Locator(sel).GetAttribute("aria-checked")
		if err != nil {
			return err
		}
		if (got == "true") != want {
			return p.Click(sel)
		}
		return nil
	case ir.ActionUpload:
		files := make([]string, len(st.Files))
		for i, f := range st.Files {
			files[i] = interpolate(f, vars)
		}
		return p.SetInputFiles(sel, files...)
	case ir.ActionReload:
		return p.Reload()
	case ir.ActionWait:
		state := browser.State(st.State)
		if state == "" {
			state = browser.StateVisible
		}
		return p.WaitForSelector(sel, state, timeout)
	case ir.ActionExpectVisible:
		return x.Visible(ctx, p.Locator(sel))
	case ir.ActionExpectHidden:
		return x.Hidden(ctx, p.Locator(sel))
	case ir.ActionExpectText:
		return x.TextContains(ctx, p.Locator(sel), val)
	case ir.ActionExpectValue:
		return x.Value(ctx, p.Locator(sel), val)
	case ir.ActionExpectAttribute:
		return x.Attribute(ctx, p.Locator(sel), st.Attribute, val)
	case ir.ActionSnapshot:
		html, err := p.Content()
		if err != nil {
			return err
		}
		label := val
		if label == "" {
			label = "Page content"
		}
		t.Log.Snapshot(label, html)
		return nil
	case ir.ActionLog:
		t.Log.Step("%s", val)
		return nil
	default:
		return fmt.Errorf("unknown action: %s", st.Action)
	}
}

// ---- Interpolation (with defaults + unresolved guard) ----

var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func envVars() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// ${KEY|default} supported; if missing and no default, leaves ${KEY} intact (so we can error clearly)
func interpolate(s string, vars map[string]string) string {
	if s == "" {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[2 : len(m)-1]
		key, def := inner, ""
		if i := strings.Index(inner, "|"); i >= 0 {
			key, def = inner[:i], inner[i+1:]
		}
		if v, ok := vars[key]; ok && v != "" {
			return v
		}
		if def != "" {
			return def
		}
		return m
	})
}

func findUnresolved(s string) []string {
	var out []string
	for _, m := range varPattern.FindAllStringSubmatch(s, -1) {
		key := m[1]
		if i := strings.Index(key, "|"); i >= 0 {
			continue
		} // had default
		out = append(out, "${"+key+"}")
	}
	return out
}
