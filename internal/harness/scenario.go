package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/testutil"
)

// Scenario defines a test scenario run against a fresh store.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Keyspace defaults to testutil.SmallAlphabet / testutil.SmallLength.
	Keyspace KeyspaceDef `yaml:"keyspace,omitempty"`

	// Setup establishes the initial store.
	Setup Setup `yaml:"setup,omitempty"`

	// Flow contains the operations under test with expected outcomes.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final store.
	Assertions []Assertion `yaml:"assertions"`
}

// KeyspaceDef describes the keyspace of a scenario.
type KeyspaceDef struct {
	Alphabet string `yaml:"alphabet,omitempty"`
	Length   int    `yaml:"length,omitempty"`
}

// Build returns the keyspace, applying the small test defaults.
func (d KeyspaceDef) Build() (keyspace.Keyspace, error) {
	alphabet, length := d.Alphabet, d.Length
	if alphabet == "" {
		alphabet = testutil.SmallAlphabet
	}
	if length == 0 {
		length = testutil.SmallLength
	}
	return keyspace.New(alphabet, length)
}

// Setup prepares the store before the flow.
type Setup struct {
	// Initialize lists the partitions to populate. Omitted means every
	// partition; an explicit empty list means none.
	Initialize []string `yaml:"initialize,omitempty"`

	// Found lists sequences marked found after initialization.
	Found []string `yaml:"found,omitempty"`
}

// Step is one operation of the flow.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Partitions is used by initialize.
	Partitions []string `yaml:"partitions,omitempty"`

	// Partition is used by bulk_update (required) and stats (optional).
	Partition string `yaml:"partition,omitempty"`

	// Table is used by not_found.
	Table string `yaml:"table,omitempty"`

	// Sequence is used by lookup.
	Sequence string `yaml:"sequence,omitempty"`

	// Sequences is used by mark and bulk_update.
	Sequences []string `yaml:"sequences,omitempty"`

	// Found is the flag written by mark and bulk_update. Default true.
	Found *bool `yaml:"found,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step only has to succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// foundFlag returns the flag a write step sets.
func (s Step) foundFlag() bool {
	return s.Found == nil || *s.Found
}

// Expect specifies expected outcome fields. Only set fields are checked.
type Expect struct {
	Applied  *int64 `yaml:"applied,omitempty"`
	Rejected *int64 `yaml:"rejected,omitempty"`
	Buckets  *int64 `yaml:"buckets,omitempty"`
	Inserted *int64 `yaml:"inserted,omitempty"`

	// State is the lookup state: found, not_found or absent.
	State string `yaml:"state,omitempty"`

	// Count and Sequences check not_found results.
	Count     *int64   `yaml:"count,omitempty"`
	Sequences []string `yaml:"sequences,omitempty"`

	// Total and Found check stats counts.
	Total *int64 `yaml:"total,omitempty"`
	Found *int64 `yaml:"found,omitempty"`

	// Error, when set, is a substring the step's error must contain.
	// The step is then expected to fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Sequences is used by found, not_found and absent.
	Sequences []string `yaml:"sequences,omitempty"`

	// Partition selects the stats scope. Empty means the whole store.
	Partition string `yaml:"partition,omitempty"`

	// Total and Found are the expected stats counts.
	Total *int64 `yaml:"total,omitempty"`
	Found *int64 `yaml:"found,omitempty"`
}

// Operation constants.
const (
	OpInitialize = "initialize"
	OpMark       = "mark"
	OpBulkUpdate = "bulk_update"
	OpLookup     = "lookup"
	OpNotFound   = "not_found"
	OpStats      = "stats"
)

// Lookup states, shared by Expect.State and the sequence assertions.
const (
	StateFound    = "found"
	StateNotFound = "not_found"
	StateAbsent   = "absent"
)

// Assertion type constants.
const (
	AssertFound    = StateFound
	AssertNotFound = StateNotFound
	AssertAbsent   = StateAbsent
	AssertStats    = "stats"
)

var validStates = []string{StateFound, StateNotFound, StateAbsent}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := s.Keyspace.Build(); err != nil {
		return fmt.Errorf("keyspace: %w", err)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single flow step based on its op.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	case OpInitialize, OpStats:
	case OpMark:
		if s.Sequences == nil {
			return fmt.Errorf("flow[%d]: sequences is required for mark (use [] for none)", index)
		}
	case OpBulkUpdate:
		if s.Partition == "" {
			return fmt.Errorf("flow[%d]: partition is required for bulk_update", index)
		}
		if s.Sequences == nil {
			return fmt.Errorf("flow[%d]: sequences is required for bulk_update (use [] for none)", index)
		}
	case OpLookup:
		if s.Sequence == "" {
			return fmt.Errorf("flow[%d]: sequence is required for lookup", index)
		}
	case OpNotFound:
		if s.Table == "" {
			return fmt.Errorf("flow[%d]: table is required for not_found", index)
		}
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, s.Op)
	}

	if s.Expect != nil && s.Expect.State != "" && !slices.Contains(validStates, s.Expect.State) {
		return fmt.Errorf("flow[%d].expect: state must be one of %v, got %q", index, validStates, s.Expect.State)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFound, AssertNotFound, AssertAbsent:
		if len(a.Sequences) == 0 {
			return fmt.Errorf("assertions[%d]: sequences is required for %s", index, a.Type)
		}
	case AssertStats:
		if a.Total == nil && a.Found == nil {
			return fmt.Errorf("assertions[%d]: total or found is required for stats", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
