package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Files(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, scenario.Name)
			assert.NotEmpty(t, scenario.Flow)
		})
	}
}

func TestParseScenario_Valid(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: basic
description: basic scenario
keyspace:
  alphabet: ab
  length: 3
setup:
  initialize: [a]
  found: [aab]
flow:
  - op: bulk_update
    partition: a
    sequences: [aaa]
    found: false
    expect:
      applied: 1
assertions:
  - type: not_found
    sequences: [aaa]
`))
	require.NoError(t, err)

	assert.Equal(t, "basic", scenario.Name)
	assert.Equal(t, KeyspaceDef{Alphabet: "ab", Length: 3}, scenario.Keyspace)
	assert.Equal(t, []string{"a"}, scenario.Setup.Initialize)
	assert.Equal(t, []string{"aab"}, scenario.Setup.Found)

	require.Len(t, scenario.Flow, 1)
	step := scenario.Flow[0]
	assert.Equal(t, OpBulkUpdate, step.Op)
	assert.False(t, step.foundFlag())
	require.NotNil(t, step.Expect)
	require.NotNil(t, step.Expect.Applied)
	assert.Equal(t, int64(1), *step.Expect.Applied)
}

func TestParseScenario_InitializeOmittedVersusEmpty(t *testing.T) {
	base := `
name: init
description: init
flow:
  - op: stats
assertions:
  - type: stats
    total: 0
`
	omitted, err := ParseScenario([]byte(base))
	require.NoError(t, err)
	assert.Nil(t, omitted.Setup.Initialize)

	empty, err := ParseScenario([]byte(base + "setup:\n  initialize: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, empty.Setup.Initialize)
	assert.Empty(t, empty.Setup.Initialize)
}

func TestParseScenario_DefaultKeyspace(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: defaults
description: defaults
flow:
  - op: stats
assertions:
  - type: stats
    total: 81
`))
	require.NoError(t, err)

	ks, err := scenario.Keyspace.Build()
	require.NoError(t, err)
	assert.Equal(t, "abc", ks.Alphabet())
	assert.Equal(t, 4, ks.Length())
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown_field",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing_name",
			yaml:    "description: x\nflow: [{op: stats}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing_description",
			yaml:    "name: x\nflow: [{op: stats}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "description is required",
		},
		{
			name:    "bad_keyspace",
			yaml:    "name: x\ndescription: x\nkeyspace: {alphabet: aa}\nflow: [{op: stats}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "keyspace",
		},
		{
			name:    "empty_flow",
			yaml:    "name: x\ndescription: x\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "flow list is required",
		},
		{
			name:    "empty_assertions",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown_op",
			yaml:    "name: x\ndescription: x\nflow: [{op: delete}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: `flow[0]: unknown op "delete"`,
		},
		{
			name:    "bulk_update_without_partition",
			yaml:    "name: x\ndescription: x\nflow: [{op: bulk_update, sequences: [aaaa]}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "partition is required",
		},
		{
			name:    "mark_without_sequences",
			yaml:    "name: x\ndescription: x\nflow: [{op: mark}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "sequences is required for mark",
		},
		{
			name:    "lookup_without_sequence",
			yaml:    "name: x\ndescription: x\nflow: [{op: lookup}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "sequence is required for lookup",
		},
		{
			name:    "not_found_without_table",
			yaml:    "name: x\ndescription: x\nflow: [{op: not_found}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "table is required",
		},
		{
			name:    "bad_state",
			yaml:    "name: x\ndescription: x\nflow: [{op: lookup, sequence: aaaa, expect: {state: maybe}}]\nassertions: [{type: stats, total: 1}]\n",
			wantErr: "state must be one of",
		},
		{
			name:    "assertion_without_type",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\nassertions: [{sequences: [aaaa]}]\n",
			wantErr: "type is required",
		},
		{
			name:    "state_assertion_without_sequences",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\nassertions: [{type: found}]\n",
			wantErr: "sequences is required for found",
		},
		{
			name:    "stats_assertion_without_counts",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\nassertions: [{type: stats, partition: a}]\n",
			wantErr: "total or found is required",
		},
		{
			name:    "unknown_assertion",
			yaml:    "name: x\ndescription: x\nflow: [{op: stats}]\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
