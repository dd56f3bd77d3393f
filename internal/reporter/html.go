package reporter

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"sea-e2e/internal/executor"
)

func WriteHTML(w io.Writer, suiteName string, outs []Outcome) error {
	var sb strings.Builder

	passed := true
	var totalMs int64
	counts := map[executor.Status]int{}
	for _, o := range outs {
		totalMs += o.Duration
		counts[o.Status]++
		if o.Status == executor.StatusFailed || o.Status == executor.StatusTimedOut {
			passed = false
		}
	}

	sb.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
	sb.WriteString(`<meta name="viewport" content="width=device-width,initial-scale=1">`)
	sb.WriteString(`<title>sea-e2e report: ` + html.EscapeString(suiteName) + `</title>`)
	sb.WriteString(`<style>
:root { --ok:#0a0; --bad:#b00; --skip:#a70; --muted:#666; --chip:#eee; --line:#e5e5e5; }
body{font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;margin:24px;line-height:1.45}
h1{margin:0 0 12px}
h2{margin:0 0 8px;font-size:1.05rem}
.summary{display:flex;gap:12px;align-items:center;margin:12px 0 18px}
.pass{color:var(--ok)} .fail{color:var(--bad)} .skip{color:var(--skip)}
.badge{display:inline-block;padding:2px 8px;border-radius:999px;background:var(--chip);font-size:.85rem}
.card{border:1px solid var(--line);border-radius:12px;padding:16px;margin:12px 0}
pre{background:#f8f8f8;padding:12px;border-radius:8px;overflow:auto;max-height:320px;margin:8px 0 0;white-space:pre-wrap}
.muted{color:var(--muted)}
hr{border:0;border-top:1px solid var(--line);margin:20px 0}
.small{font-size:.85rem}
</style></head><body>`)

	// Header
	sb.WriteString(`<h1>` + html.EscapeString(suiteName) + `</h1>`)
	sb.WriteString(`<div class="summary">`)
	sb.WriteString(`<div>Status: <strong class="` + tern(passed, "pass", "fail") + `">` + tern(passed, "PASS", "FAIL") + `</strong></div>`)
	sb.WriteString(chip("Duration: " + ms(totalMs)))
	sb.WriteString(chip("Tests: " + strconv.Itoa(len(outs))))
	for _, st := range []executor.Status{executor.StatusPassed, executor.StatusFailed, executor.StatusTimedOut, executor.StatusSkipped} {
		if counts[st] > 0 {
			sb.WriteString(chip(fmt.Sprintf("%s: %d", st, counts[st])))
		}
	}
	sb.WriteString(`</div><hr>`)

	for _, o := range outs {
		sb.WriteString(`<div class="card">`)
		title := html.EscapeString(o.Title)
		if o.Retry > 0 {
			title += ` <span class="small muted">retry ` + strconv.Itoa(o.Retry) + `</span>`
		}
		sb.WriteString(`<h2>` + title + ` ` + badge(o.Status) + ` ` + chip(ms(o.Duration)) + `</h2>`)
		if o.Error != nil {
			sb.WriteString(`<pre>` + html.EscapeString(*o.Error) + `</pre>`)
		} else {
			sb.WriteString(`<div class="small muted">No errors.</div>`)
		}
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</body></html>`)
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteHTMLFromJSONPath renders the HTML report from an artifact on disk so
// both always agree.
func WriteHTMLFromJSONPath(w io.Writer, suiteName, reportPath string) error {
	outs, err := ReadFile(reportPath)
	if err != nil {
		return err
	}
	return WriteHTML(w, suiteName, outs)
}

func badge(st executor.Status) string {
	class := "fail"
	switch st {
	case executor.StatusPassed:
		class = "pass"
	case executor.StatusSkipped:
		class = "skip"
	}
	return `<span class="badge ` + class + `">` + html.EscapeString(strings.ToUpper(string(st))) + `</span>`
}

func chip(text string) string {
	return `<span class="badge">` + html.EscapeString(text) + `</span>`
}

func ms(v int64) string { return fmt.Sprintf("%d ms", v) }

func tern[T ~string](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
