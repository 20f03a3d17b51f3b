package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one protocol conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTick positions the clock before the first step. Defaults to 100.
	StartTick uint64 `yaml:"start_tick,omitempty"`

	// Steps is the linear script. Each step sets exactly one of its fields.
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. Exactly one of the pointer fields is set.
type Step struct {
	// Advance moves the clock forward by this many ticks.
	Advance uint64 `yaml:"advance,omitempty"`

	// Fund credits an identity.
	Fund *FundStep `yaml:"fund,omitempty"`

	// Entropy imports an entropy value into the feed.
	Entropy *EntropyStep `yaml:"entropy,omitempty"`

	// Op applies a protocol operation.
	Op *OpStep `yaml:"op,omitempty"`
}

// FundStep credits funds to a named identity.
type FundStep struct {
	Identity string `yaml:"identity"`
	Amount   int64  `yaml:"amount"`
}

// EntropyStep records entropy for a tick. Value is expanded to 32 bytes with
// the number big-endian in the first eight and zeros elsewhere.
type EntropyStep struct {
	Tick  uint64 `yaml:"tick"`
	Value uint64 `yaml:"value"`
}

// OpStep applies one protocol operation and states its expected outcome.
type OpStep struct {
	// Type is the operation: create_pool, append_targets, finalize_pool,
	// submit_session, finalize_session.
	Type string `yaml:"type"`

	// As names the calling identity. Unsigned simulates a request that
	// arrived without authentication.
	As       string `yaml:"as,omitempty"`
	Unsigned bool   `yaml:"unsigned,omitempty"`

	// Pool / Session identify the affected records.
	Pool    string `yaml:"pool,omitempty"`
	Session string `yaml:"session,omitempty"`

	// Targets is the number of targets for create_pool / append_targets.
	// The harness generates deterministic target hashes.
	Targets int `yaml:"targets,omitempty"`

	// Entropy / EntropyTick supply finalize_session entropy: a literal value
	// (expanded like EntropyStep.Value) or a tick to read from the feed.
	Entropy     *uint64 `yaml:"entropy,omitempty"`
	EntropyTick *uint64 `yaml:"entropy_tick,omitempty"`

	// Completed lists pool indices excluded from assignment.
	Completed []uint16 `yaml:"completed,omitempty"`

	// ExpectError is the symbolic code ("POOL_NOT_FOUND") the operation must
	// fail with. Empty means the operation must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Operation type constants.
const (
	OpCreatePool      = "create_pool"
	OpAppendTargets   = "append_targets"
	OpFinalizePool    = "finalize_pool"
	OpSubmitSession   = "submit_session"
	OpFinalizeSession = "finalize_session"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly instead of silently
// skipping a step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and coherent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		set := 0
		if step.Advance > 0 {
			set++
		}
		if step.Fund != nil {
			set++
		}
		if step.Entropy != nil {
			set++
		}
		if step.Op != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of advance, fund, entropy, op is required", i)
		}

		if step.Fund != nil && step.Fund.Identity == "" {
			return fmt.Errorf("steps[%d].fund: identity is required", i)
		}
		if step.Op != nil {
			if err := validateOp(i, step.Op); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateOp(index int, op *OpStep) error {
	if op.As == "" && !op.Unsigned {
		return fmt.Errorf("steps[%d].op: as is required unless unsigned", index)
	}

	switch op.Type {
	case OpCreatePool, OpAppendTargets, OpFinalizePool:
		if op.Pool == "" {
			return fmt.Errorf("steps[%d].op: pool is required for %s", index, op.Type)
		}
	case OpSubmitSession:
		if op.Session == "" || op.Pool == "" {
			return fmt.Errorf("steps[%d].op: session and pool are required for %s", index, op.Type)
		}
	case OpFinalizeSession:
		if op.Session == "" {
			return fmt.Errorf("steps[%d].op: session is required for %s", index, op.Type)
		}
		if (op.Entropy == nil) == (op.EntropyTick == nil) {
			return fmt.Errorf("steps[%d].op: exactly one of entropy, entropy_tick is required for %s", index, op.Type)
		}
	case "":
		return fmt.Errorf("steps[%d].op: type is required", index)
	default:
		return fmt.Errorf("steps[%d].op: unknown operation type %q", index, op.Type)
	}
	return nil
}
