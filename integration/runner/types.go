package runner

import (
	"time"

	"github.com/google/uuid"
)

// ResetWorldCommand starts the suite's world over from the scenario
// instead of running a command.
const ResetWorldCommand = "RESET_WORLD"

// TestSuite defines a scripted playthrough.
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name"`
	Scenario string     `json:"scenario,omitempty"` // file name under the runner's scenario dir
	Player   string     `json:"player,omitempty"`   // defaults to the scenario's first playable character
	Steps    []TestStep `json:"steps,omitempty"`
	Cases    []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one command and what should hold after it runs.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Command      string       `json:"command"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Location     *string           `json:"location,omitempty"`
	Inventory    []string          `json:"inventory,omitempty"` // full set of item keys, order independent
	Holding      []string          `json:"holding,omitempty"`   // item keys that must be carried
	Tick         *int              `json:"tick,omitempty"`
	Day          *int              `json:"day,omitempty"`
	Period       *string           `json:"period,omitempty"`
	Notoriety    *int              `json:"notoriety,omitempty"`
	NPCLocations map[string]string `json:"npc_locations,omitempty"`
	Triggered    []string          `json:"triggered,omitempty"`
	NotTriggered []string          `json:"not_triggered,omitempty"`
	Quit         *bool             `json:"quit,omitempty"`

	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // RESET_WORLD steps do not count toward pass/fail metrics
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // session id of the world the suite finished on
}
