// Package ir models scripted test files.
package ir

// Step actions (string constants for portability)
const (
	ActionGoto            = "goto"
	ActionClick           = "click"
	ActionFill            = "fill"
	ActionPress           = "press"
	ActionCheck           = "check"
	ActionUncheck         = "uncheck"
	ActionUpload          = "upload"
	ActionReload          = "reload"
	ActionWait            = "wait"
	ActionExpectVisible   = "expectVisible"
	ActionExpectHidden    = "expectHidden"
	ActionExpectText      = "expectText"
	ActionExpectValue     = "expectValue"
	ActionExpectAttribute = "expectAttribute"
	ActionSnapshot        = "snapshot"
	ActionLog             = "log"
)

// Actions lists every known action.
var Actions = []string{
	ActionGoto, ActionClick, ActionFill, ActionPress, ActionCheck, ActionUncheck,
	ActionUpload, ActionReload, ActionWait, ActionExpectVisible, ActionExpectHidden,
	ActionExpectText, ActionExpectValue, ActionExpectAttribute, ActionSnapshot, ActionLog,
}

// TestFile is one scripted source file: the unit a report is written for.
type TestFile struct {
	Name      string     `json:"name" yaml:"name"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

type Scenario struct {
	Name  string   `json:"name" yaml:"name"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Skip  bool     `json:"skip,omitempty" yaml:"skip,omitempty"`
	Steps []Step   `json:"steps" yaml:"steps"`
}

type Step struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Action    string   `json:"action" yaml:"action"`
	Selector  string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value     string   `json:"value,omitempty" yaml:"value,omitempty"`
	Key       string   `json:"key,omitempty" yaml:"key,omitempty"`
	Attribute string   `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	State     string   `json:"state,omitempty" yaml:"state,omitempty"` // wait: visible|hidden|attached|detached
	Files     []string `json:"files,omitempty" yaml:"files,omitempty"`
	Force     bool     `json:"force,omitempty" yaml:"force,omitempty"`
	TimeoutMs int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// Label names a step for error messages.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Selector != "" {
		return s.Action + " " + s.Selector
	}
	if s.Value != "" {
		return s.Action + " " + s.Value
	}
	return s.Action
}
