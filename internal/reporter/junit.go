package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"sea-e2e/internal/executor"
)

// Minimal JUnit schema: testsuite -> testcase (+failure|skipped)
type junitTestsuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Testcase []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Classname string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *struct{}     `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

func WriteJUnit(w io.Writer, suiteName string, outs []Outcome) error {
	var failures, skipped int
	var totalMs int64
	cases := make([]junitTestcase, 0, len(outs))

	for _, o := range outs {
		totalMs += o.Duration
		name := o.Title
		if o.Retry > 0 {
			name = fmt.Sprintf("%s (retry %d)", o.Title, o.Retry)
		}
		tc := junitTestcase{
			Classname: o.TestFileName,
			Name:      name,
			Time:      seconds(o.Duration),
		}
		switch o.Status {
		case executor.StatusFailed, executor.StatusTimedOut:
			failures++
			msg := string(o.Status)
			if o.Error != nil {
				msg = *o.Error
			}
			typ := "AssertionError"
			if o.Status == executor.StatusTimedOut {
				typ = "TimeoutError"
			}
			tc.Failure = &junitFailure{Message: firstLine(msg), Type: typ, Text: msg}
		case executor.StatusSkipped:
			skipped++
			tc.Skipped = &struct{}{}
		}
		cases = append(cases, tc)
	}

	ts := junitTestsuite{
		Name:     suiteName,
		Tests:    len(outs),
		Failures: failures,
		Skipped:  skipped,
		Time:     seconds(totalMs),
		Testcase: cases,
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(ts)
}

func seconds(ms int64) string { return fmt.Sprintf("%.3f", float64(ms)/1000.0) }

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
