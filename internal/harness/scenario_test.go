package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `name: minimal
description: "a single funding step"
steps:
  - fund: { identity: creator, amount: 100 }
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Fund)
	assert.Equal(t, int64(100), s.Steps[0].Fund.Amount)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `name: typo
description: "assertion vs assertions style typo"
steps:
  - fund: { identity: creator, amount: 100 }
stepz:
  - advance: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateScenario(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing name",
			"description: d\nsteps:\n  - advance: 1\n",
			"name is required",
		},
		{
			"missing description",
			"name: n\nsteps:\n  - advance: 1\n",
			"description is required",
		},
		{
			"no steps",
			"name: n\ndescription: d\n",
			"steps list is required",
		},
		{
			"empty step",
			"name: n\ndescription: d\nsteps:\n  - {}\n",
			"exactly one of",
		},
		{
			"two kinds in one step",
			"name: n\ndescription: d\nsteps:\n  - advance: 1\n    fund: { identity: a, amount: 1 }\n",
			"exactly one of",
		},
		{
			"op without type",
			"name: n\ndescription: d\nsteps:\n  - op: { as: a }\n",
			"type is required",
		},
		{
			"op without caller",
			"name: n\ndescription: d\nsteps:\n  - op: { type: finalize_pool, pool: p }\n",
			"as is required",
		},
		{
			"unknown op type",
			"name: n\ndescription: d\nsteps:\n  - op: { type: burn_pool, as: a, pool: p }\n",
			"unknown operation type",
		},
		{
			"submit without pool",
			"name: n\ndescription: d\nsteps:\n  - op: { type: submit_session, as: a, session: s }\n",
			"session and pool are required",
		},
		{
			"finalize session without entropy",
			"name: n\ndescription: d\nsteps:\n  - op: { type: finalize_session, as: a, session: s }\n",
			"exactly one of entropy, entropy_tick",
		},
		{
			"finalize session with both entropy forms",
			"name: n\ndescription: d\nsteps:\n  - op: { type: finalize_session, as: a, session: s, entropy: 1, entropy_tick: 2 }\n",
			"exactly one of entropy, entropy_tick",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
