package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `pool: ads-2024
targets:
  - "1111111111111111111111111111111111111111111111111111111111111111"
  - "2222222222222222222222222222222222222222222222222222222222222222"
`

func TestParsePoolManifest(t *testing.T) {
	m, err := ParsePoolManifest("pool.yaml", []byte(validManifest))
	require.NoError(t, err)
	assert.Equal(t, "ads-2024", m.PoolID)
	require.Len(t, m.Targets, 2)
	assert.Equal(t, "1111111111111111111111111111111111111111111111111111111111111111", m.Targets[0].String())
}

func TestParsePoolManifest_EmptyTargetsAllowed(t *testing.T) {
	m, err := ParsePoolManifest("pool.yaml", []byte("pool: empty-pool\ntargets: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "empty-pool", m.PoolID)
	assert.Empty(t, m.Targets)
}

func TestParsePoolManifest_SchemaViolations(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{"empty pool id", "pool: \"\"\ntargets: []\n"},
		{"missing pool id", "targets: []\n"},
		{"short target", "pool: p\ntargets:\n  - \"abcd\"\n"},
		{"non-hex target", "pool: p\ntargets:\n  - \"zz11111111111111111111111111111111111111111111111111111111111111\"\n"},
		{"uppercase target", "pool: p\ntargets:\n  - \"AA11111111111111111111111111111111111111111111111111111111111111\"\n"},
		{"targets not a list", "pool: p\ntargets: 42\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePoolManifest("pool.yaml", []byte(tc.manifest))
			assert.Error(t, err)
		})
	}
}

func TestParsePoolManifest_BadYAML(t *testing.T) {
	_, err := ParsePoolManifest("pool.yaml", []byte("pool: [unclosed"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "manifest"))
}

func TestLoadPoolManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	m, err := LoadPoolManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "ads-2024", m.PoolID)

	_, err = LoadPoolManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
