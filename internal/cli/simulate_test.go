package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recoveryScenario = "testdata/scenarios/custody-and-recovery.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateGolden(t *testing.T) {
	out, err := execute(t, "simulate", recoveryScenario)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "custody-and-recovery", []byte(out))
}

func TestSimulateJSON(t *testing.T) {
	out, err := execute(t, "simulate", "--format", "json", recoveryScenario)
	require.NoError(t, err)

	var res SimulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "custody-and-recovery", res.Scenario)
	assert.Equal(t, 13, res.Passed)
	assert.Zero(t, res.Failed)
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, "900", res.Tokens[0].TotalSupply)

	rejected := res.Steps[1]
	assert.Equal(t, "ComplianceCheckFailed", rejected.Outcome)
	assert.NotEmpty(t, rejected.Error)
	assert.Empty(t, rejected.Events)
}

func TestSimulateReportsUnexpectedOutcomes(t *testing.T) {
	raw, err := os.ReadFile(recoveryScenario)
	require.NoError(t, err)
	// The carol mint is rejected; claiming it succeeds must fail the run.
	mutated := strings.Replace(string(raw), ", expect: ComplianceCheckFailed", "", 1)
	path := filepath.Join(t.TempDir(), "unexpected.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mutated), 0o600))

	out, err := execute(t, "simulate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[2] FAIL mint")
	assert.Contains(t, out, "(expected ok)")
	assert.Contains(t, out, "12 passed, 1 failed")
}

func TestSimulateCommandErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "simulate", "testdata/scenarios/nope.yaml")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown op", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: bad\ndeployment: {admin: \"0x0000000000000000000000000000000000000100\"}\nsteps:\n  - {op: teleport, as: \"0x0000000000000000000000000000000000000100\"}\n"), 0o600))
		_, err := execute(t, "simulate", path)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.ErrorContains(t, err, "unknown op")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := execute(t, "simulate", "--format", "xml", recoveryScenario)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tokengatectl dev\n", out)
}
