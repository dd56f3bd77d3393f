package reporter_test

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"sea-e2e/internal/executor"
	"sea-e2e/internal/reporter"
)

func TestWriteJUnit_Basic(t *testing.T) {
	msg := "expected Password to be hidden\nwithin 10s"
	outs := []reporter.Outcome{
		{Title: "login", Status: executor.StatusPassed, Duration: 45, TestFileName: "s1"},
		{Title: "sso", Status: executor.StatusFailed, Error: &msg, Duration: 78, TestFileName: "s1"},
		{Title: "later", Status: executor.StatusSkipped, TestFileName: "s1"},
	}

	var buf bytes.Buffer
	if err := reporter.WriteJUnit(&buf, "s1", outs); err != nil {
		t.Fatalf("WriteJUnit error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<testsuite") {
		t.Fatalf("expected testsuite root, got: %s", out[:min(200, len(out))])
	}

	// well-formed XML
	var v struct{}
	if err := xml.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("invalid xml: %v", err)
	}

	for _, want := range []string{
		`tests="3"`,
		`failures="1"`,
		`skipped="1"`,
		`time="0.123"`,
		`message="expected Password to be hidden"`,
		`type="AssertionError"`,
		`<skipped></skipped>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in:\n%s", want, out)
		}
	}
}

func TestWriteJUnit_TimeoutAndRetry(t *testing.T) {
	outs := []reporter.Outcome{
		{Title: "slow", Status: executor.StatusTimedOut, TestFileName: "s1"},
		{Title: "slow", Status: executor.StatusPassed, TestFileName: "s1", Retry: 1},
	}
	var buf bytes.Buffer
	if err := reporter.WriteJUnit(&buf, "s1", outs); err != nil {
		t.Fatalf("WriteJUnit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `type="TimeoutError"`) || !strings.Contains(out, `message="timedOut"`) {
		t.Fatalf("expected timeout failure, got: %s", out)
	}
	if !strings.Contains(out, `name="slow (retry 1)"`) {
		t.Fatalf("expected retry name, got: %s", out)
	}
}

func TestWriteHTML_EscapesAndSummarises(t *testing.T) {
	msg := "<script>alert(1)</script>"
	outs := []reporter.Outcome{
		{Title: "ok", Status: executor.StatusPassed, Duration: 5},
		{Title: "bad", Status: executor.StatusFailed, Error: &msg, Duration: 7},
	}
	var buf bytes.Buffer
	if err := reporter.WriteHTML(&buf, "s1", outs); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("error text not escaped: %s", out)
	}
	for _, want := range []string{">FAIL<", "Duration: 12 ms", "passed: 1", "failed: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in html", want)
		}
	}
}
