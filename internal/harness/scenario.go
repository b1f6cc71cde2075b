package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lodestar/internal/engine"
	"github.com/roach88/lodestar/internal/ir"
)

// Scenario is a scripted play-through.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Content lists content directories to load. Relative paths are
	// resolved against the scenario file by LoadScenarioWithBasePath.
	Content []string `yaml:"content"`

	// Session is the fixed session id. Defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Setup seeds the host world before the first step.
	Setup *HostSetup `yaml:"setup,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// HostSetup seeds host world values. It is used both before the run and
// as a mid-run "host" step.
type HostSetup struct {
	Skills     map[string]int64 `yaml:"skills,omitempty"`
	Items      map[string]int64 `yaml:"items,omitempty"`
	Location   string           `yaml:"location,omitempty"`
	Visited    []string         `yaml:"visited,omitempty"`
	Experience int64            `yaml:"experience,omitempty"`
}

// Step is one engine call. Exactly one action field is set.
type Step struct {
	Start       string        `yaml:"start,omitempty"`
	Choose      *ChooseStep   `yaml:"choose,omitempty"`
	External    *ExternalStep `yaml:"external,omitempty"`
	Abandon     string        `yaml:"abandon,omitempty"`
	SaveRestore bool          `yaml:"save_restore,omitempty"`
	Host        *HostSetup    `yaml:"host,omitempty"`

	Expect *StepExpect `yaml:"expect,omitempty"`
}

// ChooseStep selects a choice on a graph's active node.
type ChooseStep struct {
	Graph  string `yaml:"graph"`
	Choice string `yaml:"choice"`
}

// ExternalStep reports outcomes from an outside subsystem.
type ExternalStep struct {
	Source   string       `yaml:"source"`
	Outcomes []ir.Outcome `yaml:"outcomes"`
}

// StepExpect checks the result of a step. Error expects a rejection with
// that runtime error code; the other fields check the returned step.
type StepExpect struct {
	Error  string `yaml:"error,omitempty"`
	Graph  string `yaml:"graph,omitempty"`
	Node   string `yaml:"node,omitempty"`
	Ending string `yaml:"ending,omitempty"`
}

// action names the step's action for messages.
func (s Step) action() string {
	switch {
	case s.Start != "":
		return "start " + s.Start
	case s.Choose != nil:
		return fmt.Sprintf("choose %s/%s", s.Choose.Graph, s.Choose.Choice)
	case s.External != nil:
		return "external " + s.External.Source
	case s.Abandon != "":
		return "abandon " + s.Abandon
	case s.SaveRestore:
		return "save_restore"
	case s.Host != nil:
		return "host"
	default:
		return "(none)"
	}
}

func (s Step) actionCount() int {
	n := 0
	for _, set := range []bool{s.Start != "", s.Choose != nil, s.External != nil, s.Abandon != "", s.SaveRestore, s.Host != nil} {
		if set {
			n++
		}
	}
	return n
}

// Assertion validates final state or the event log.
type Assertion struct {
	Type    string `yaml:"type"`
	Graph   string `yaml:"graph,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	State   string `yaml:"state,omitempty"`
	Node    string `yaml:"node,omitempty"`
	Kind    string `yaml:"kind,omitempty"`

	// Value is the expected number for reputation, relationship,
	// experience, item and skill.
	Value *int64 `yaml:"value,omitempty"`

	// Set is the expected flag value; nil means true.
	Set *bool `yaml:"set,omitempty"`

	// Count is the expected entry count for event_count.
	Count *int `yaml:"count,omitempty"`

	// Choices is the expected order for choice_order.
	Choices []string `yaml:"choices,omitempty"`
}

// Assertion type constants.
const (
	AssertGraphState       = "graph_state"
	AssertActiveNode       = "active_node"
	AssertFlag             = "flag"
	AssertReputation       = "reputation"
	AssertRelationship     = "relationship"
	AssertExperience       = "experience"
	AssertItem             = "item"
	AssertSkill            = "skill"
	AssertEnding           = "ending"
	AssertEventCount       = "event_count"
	AssertChoiceOrder      = "choice_order"
	AssertDiagnostic       = "diagnostic"
	AssertSignal           = "signal"
	AssertReplayEquivalent = "replay_equivalent"
)

// LoadScenario reads and parses a scenario YAML file. Content paths are
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving content paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Unknown fields are typos: reject them.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, dir := range scenario.Content {
		if !filepath.IsAbs(dir) && basePath != "" {
			scenario.Content[i] = filepath.Join(basePath, dir)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Content) == 0 {
		return fmt.Errorf("content list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, dir := range s.Content {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("content directory not found: %s", dir)
		}
	}

	for i, step := range s.Steps {
		if n := step.actionCount(); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one action is required, got %d", i, n)
		}
		if step.Choose != nil && (step.Choose.Graph == "" || step.Choose.Choice == "") {
			return fmt.Errorf("steps[%d].choose: graph and choice are required", i)
		}
		if step.External != nil && step.External.Source == "" {
			return fmt.Errorf("steps[%d].external: source is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && !knownCodes[engine.RuntimeErrorCode(e.Error)] {
			return fmt.Errorf("steps[%d].expect: unknown error code %q", i, e.Error)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

var knownCodes = map[engine.RuntimeErrorCode]bool{
	engine.ErrCodeIllegalChoice:    true,
	engine.ErrCodeNotInProgress:    true,
	engine.ErrCodeUnknownGraph:     true,
	engine.ErrCodeUnknownChoice:    true,
	engine.ErrCodeNotAvailable:     true,
	engine.ErrCodeAlreadyCompleted: true,
	engine.ErrCodeSessionEnded:     true,
	engine.ErrCodeContent:          true,
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("assertions[%d]: %s is required for %s", index, what, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertGraphState:
		if err := need(a.Graph != "", "graph"); err != nil {
			return err
		}
		if !ir.ValidLifecycleStates[ir.LifecycleState(a.State)] {
			return fmt.Errorf("assertions[%d]: invalid state %q", index, a.State)
		}
	case AssertActiveNode:
		return need(a.Graph != "", "graph")
	case AssertFlag, AssertDiagnostic:
		return need(a.Subject != "", "subject")
	case AssertReputation, AssertRelationship, AssertItem, AssertSkill:
		if err := need(a.Subject != "", "subject"); err != nil {
			return err
		}
		return need(a.Value != nil, "value")
	case AssertExperience:
		return need(a.Value != nil, "value")
	case AssertEnding:
		return nil
	case AssertEventCount:
		if err := need(ir.ValidEntryKinds[ir.EntryKind(a.Kind)], "a valid kind"); err != nil {
			return err
		}
		if err := need(a.Count != nil, "count"); err != nil {
			return err
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertChoiceOrder:
		return need(len(a.Choices) > 0, "choices")
	case AssertSignal:
		if err := need(a.Kind != "", "kind"); err != nil {
			return err
		}
		return need(a.Subject != "", "subject")
	case AssertReplayEquivalent:
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
