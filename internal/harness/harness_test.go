package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios against its
// golden trace.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_UnexpectedFailureAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected-failure",
		Description: "finalizing a pool that does not exist",
		Steps: []Step{
			{Op: &OpStep{Type: OpFinalizePool, As: "creator", Pool: "missing"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POOL_NOT_FOUND")
}

func TestRun_ExpectedFailureThatSucceedsAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected-failure-succeeds",
		Description: "a create that is scripted to fail but succeeds",
		Steps: []Step{
			{Fund: &FundStep{Identity: "creator", Amount: 1_000_000}},
			{Op: &OpStep{Type: OpCreatePool, As: "creator", Pool: "p", Targets: 1, ExpectError: "POOL_ALREADY_EXISTS"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected POOL_ALREADY_EXISTS")
}

func TestRun_WrongErrorCodeAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-code",
		Description: "a failure with a different code than scripted",
		Steps: []Step{
			{Op: &OpStep{Type: OpFinalizePool, As: "creator", Pool: "missing", ExpectError: "UNAUTHORIZED"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got POOL_NOT_FOUND")
}

func TestRun_StartTickDefaults(t *testing.T) {
	scenario := &Scenario{
		Name:        "start-tick",
		Description: "the clock starts at the default tick",
		Steps: []Step{
			{Advance: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "01 advance +1 tick=101", result.Trace[0])
}

func TestIdentityForIsStable(t *testing.T) {
	assert.Equal(t, identityFor("creator"), identityFor("creator"))
	assert.NotEqual(t, identityFor("creator"), identityFor("viewer"))
}

func TestEntropyValueLayout(t *testing.T) {
	e := entropyValue(0x0102)
	assert.Equal(t, byte(0x01), e[6])
	assert.Equal(t, byte(0x02), e[7])
	for i := 8; i < len(e); i++ {
		assert.Zero(t, e[i])
	}
}
