package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/story-sim/internal/storage"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/session"
	"github.com/jwebster45206/story-sim/pkg/world"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// DefaultResponse is what the scripted provider answers every request with.
const DefaultResponse = "The city hums in the heat."

// Runner plays test suites against in-process sessions.
type Runner struct {
	ScenarioDir       string
	Provider          narrative.Provider
	Store             session.Store // nil disables save/load steps
	Options           []world.Option
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ScenarioOverride  string // If set, overrides the scenario for all test cases
}

// NewRunner creates a runner over scenarioDir. Ambient NPC chatter is off
// so runs are deterministic.
func NewRunner(scenarioDir string) *Runner {
	return &Runner{
		ScenarioDir:       scenarioDir,
		Provider:          narrative.NewStatic(DefaultResponse),
		Options:           []world.Option{world.WithInteraction(0, 0)},
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := storage.DecodeStrict(filename, content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	file := suite.Scenario
	if r.ScenarioOverride != "" {
		file = r.ScenarioOverride
	}
	scen, err := storage.LoadScenario(filepath.Join(r.ScenarioDir, file), nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to load scenario: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	player := suite.Player
	if player == "" {
		playable := scen.PlayableCharacters()
		if len(playable) == 0 {
			result.Error = fmt.Errorf("scenario %s has no playable character", file)
			result.Duration = time.Since(start)
			return result, result.Error
		}
		player = playable[0]
	}

	sess, err := r.newSession(scen, player)
	if err != nil {
		result.Error = fmt.Errorf("failed to start session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Command == ResetWorldCommand {
			stepResult, sess = r.resetStep(scen, player, step)
		} else {
			stepResult = r.executeStep(ctx, sess, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit || sess == nil {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	if sess != nil {
		result.Session = sess.World.SessionID()
	}
	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) newSession(scen *scenario.Scenario, player string) (*session.Session, error) {
	opts := append([]world.Option{world.WithProvider(r.Provider)}, r.Options...)
	return session.New(scen, player, r.Store, slog.New(slog.DiscardHandler), opts...)
}

// resetStep replaces the session with a fresh one and checks the step's
// expectations against it.
func (r *Runner) resetStep(scen *scenario.Scenario, player string, step TestStep) (TestResult, *session.Session) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[WORLD RESET]"}

	sess, err := r.newSession(scen, player)
	if err != nil {
		result.Error = fmt.Errorf("failed to reset world: %w", err)
		result.Duration = time.Since(start)
		return result, nil
	}
	if err := r.checkExpectations(step.Expectations, sess, session.Result{}, ""); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result, sess
	}
	result.Success = true
	result.Duration = time.Since(start)
	return result, sess
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, sess *session.Session, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	res, err := sess.Handle(ctx, step.Command)
	if err != nil {
		result.Error = fmt.Errorf("command %q failed: %w", step.Command, err)
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = ResponseText(res)

	if err := r.checkExpectations(step.Expectations, sess, res, result.ResponseText); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// ResponseText flattens a command result into plain text, one line per
// output line, speech prefixed with its speaker.
func ResponseText(res session.Result) string {
	lines := make([]string, len(res.Lines))
	for i, l := range res.Lines {
		if l.Speaker != "" {
			lines[i] = l.Speaker + ": " + l.Text
			continue
		}
		lines[i] = l.Text
	}
	return strings.Join(lines, "\n")
}

// checkExpectations validates the test expectations against the world after the step
func (r *Runner) checkExpectations(exp Expectations, sess *session.Session, res session.Result, responseText string) error {
	w := sess.World

	if exp.Location != nil && w.PlayerLocation() != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, w.PlayerLocation())
	}

	carried := make([]string, 0, len(w.Player().Inventory))
	for _, it := range w.Player().Inventory {
		carried = append(carried, it.Name)
	}

	// Full inventory check (order independent)
	if len(exp.Inventory) > 0 {
		for _, item := range exp.Inventory {
			if !slices.Contains(carried, item) {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", item, carried)
			}
		}
		for _, item := range carried {
			if !slices.Contains(exp.Inventory, item) {
				return fmt.Errorf("inventory contains unexpected item '%s'. Expected inventory: %v, Actual: %v", item, exp.Inventory, carried)
			}
		}
	}
	for _, item := range exp.Holding {
		if !slices.Contains(carried, item) {
			return fmt.Errorf("expected to be holding '%s'. Actual inventory: %v", item, carried)
		}
	}

	if exp.Tick != nil && w.Tick() != *exp.Tick {
		return fmt.Errorf("expected tick %d, got %d", *exp.Tick, w.Tick())
	}
	if exp.Day != nil && w.Day() != *exp.Day {
		return fmt.Errorf("expected day %d, got %d", *exp.Day, w.Day())
	}
	if exp.Period != nil && !strings.EqualFold(string(w.Period()), *exp.Period) {
		return fmt.Errorf("expected period %s, got %s", *exp.Period, w.Period())
	}
	if exp.Notoriety != nil && w.Notoriety() != *exp.Notoriety {
		return fmt.Errorf("expected notoriety %d, got %d", *exp.Notoriety, w.Notoriety())
	}

	for npc, expectedLocation := range exp.NPCLocations {
		a, ok := w.Actor(npc)
		if !ok {
			return fmt.Errorf("expected NPC %s to exist, but it doesn't", npc)
		}
		if a.Location != expectedLocation {
			return fmt.Errorf("expected NPC %s to be at %s, got %s", npc, expectedLocation, a.Location)
		}
	}

	triggered := w.Triggered()
	for _, id := range exp.Triggered {
		if !slices.Contains(triggered, id) {
			return fmt.Errorf("expected story event %s to have fired. Fired: %v", id, triggered)
		}
	}
	for _, id := range exp.NotTriggered {
		if slices.Contains(triggered, id) {
			return fmt.Errorf("expected story event %s not to have fired", id)
		}
	}

	if exp.Quit != nil && res.Quit != *exp.Quit {
		return fmt.Errorf("expected quit to be %t, got %t", *exp.Quit, res.Quit)
	}

	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', got %q", expectedText, responseText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	return nil
}
