package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sortition/internal/testutil"
)

// cliHarness drives the root command against one temp ledger.
type cliHarness struct {
	t  *testing.T
	db string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{t: t, db: filepath.Join(t.TempDir(), "sortition.db")}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", h.db}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "command %v failed: %s", args, out)
	return out
}

func (h *cliHarness) writeManifest(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func cliIdentity(b byte) string {
	return testutil.Identity(b).String()
}

func cliEntropy(v uint64) string {
	return testutil.Entropy(v).String()
}

func fiveTargetManifest() string {
	m := "pool: ads-2024\ntargets:\n"
	for i := 1; i <= 5; i++ {
		m += fmt.Sprintf("  - \"%02x%s\"\n", i, "11111111111111111111111111111111111111111111111111111111111111")
	}
	return m
}

func TestCLI_FullFlow(t *testing.T) {
	h := newCLIHarness(t)
	creator := cliIdentity(0xC1)
	submitter := cliIdentity(0x51)

	out := h.mustRun("init")
	assert.Contains(t, out, "ledger ready")

	h.mustRun("fund", creator, "--amount", "1000000")
	h.mustRun("fund", submitter, "--amount", "1000000")

	manifest := h.writeManifest("pool.yaml", fiveTargetManifest())
	out = h.mustRun("pool", "create", "--manifest", manifest, "--as", creator)
	assert.Contains(t, out, "create_target_pool")
	assert.Contains(t, out, "5 targets")

	out = h.mustRun("session", "submit", "sess-1",
		"--pool", "ads-2024",
		"--media-hash", "aa"+repeatHex62(),
		"--selector", "bb"+repeatHex62(),
		"--as", submitter)
	assert.Contains(t, out, "submit_session")

	h.mustRun("tick", "--advance", "2")
	h.mustRun("entropy", "import", "2", "--value", cliEntropy(7))

	// Pool has 5 targets, entropy value 7: assignment is index 2.
	out = h.mustRun("session", "finalize", "sess-1", "--entropy-tick", "2", "--as", submitter)
	assert.Contains(t, out, "assigned target index 2")

	out = h.mustRun("show", "session", "sess-1")
	assert.Contains(t, out, "finalized:       true")

	out = h.mustRun("show", "log", "--limit", "10")
	assert.Contains(t, out, "finalize_session")
	assert.Contains(t, out, "submit_session")
}

func TestCLI_JSONOutput(t *testing.T) {
	h := newCLIHarness(t)
	creator := cliIdentity(0xC1)

	h.mustRun("init")
	h.mustRun("fund", creator, "--amount", "1000000")
	manifest := h.writeManifest("pool.yaml", fiveTargetManifest())
	h.mustRun("pool", "create", "--manifest", manifest, "--as", creator)

	out := h.mustRun("--format", "json", "show", "pool", "ads-2024")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ads-2024", data["pool_id"])
	assert.Equal(t, float64(5), data["target_count"])
	assert.Equal(t, false, data["finalized"])
}

func TestCLI_ProtocolRejection(t *testing.T) {
	h := newCLIHarness(t)
	creator := cliIdentity(0xC1)

	h.mustRun("init")
	h.mustRun("fund", creator, "--amount", "1000000")
	manifest := h.writeManifest("pool.yaml", fiveTargetManifest())
	h.mustRun("pool", "create", "--manifest", manifest, "--as", creator)

	// Second create collides; the error carries the symbolic protocol code
	// and exits with the failure code, not the command-error code.
	out, err := h.run("pool", "create", "--manifest", manifest, "--as", creator)
	require.Error(t, err)
	assert.Contains(t, out, "POOL_ALREADY_EXISTS")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_UnfundedCreatorRejected(t *testing.T) {
	h := newCLIHarness(t)

	h.mustRun("init")
	manifest := h.writeManifest("pool.yaml", fiveTargetManifest())

	out, err := h.run("pool", "create", "--manifest", manifest, "--as", cliIdentity(0xB0))
	require.Error(t, err)
	assert.Contains(t, out, "INSUFFICIENT_FUNDS")
}

func TestCLI_EntropyFirstImportWins(t *testing.T) {
	h := newCLIHarness(t)

	h.mustRun("init")
	out := h.mustRun("entropy", "import", "5", "--value", cliEntropy(1))
	assert.Contains(t, out, "recorded")

	out = h.mustRun("entropy", "import", "5", "--value", cliEntropy(2))
	assert.Contains(t, out, "existing value stands")
}

func repeatHex62() string {
	b := make([]byte, 62)
	for i := range b {
		b[i] = '1'
	}
	return string(b)
}
