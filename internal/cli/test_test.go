package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: community_find
description: "Finds communities by name"
steps:
  - find: [e, name]
  - where:
      - bind: [e, community/name]
      - pos: name
expect:
  query: "[:find ?e ?name :in $ :where [?e :community/name ?name]]"
  args: "[]"
`

const failingScenario = `name: wrong_args
description: "Expects arguments that were never added"
steps:
  - find: [e]
expect:
  args: "[[:community/type :community.type/twitter]]"
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(isolate(t), "scenarios")
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	return dir
}

func TestTestCommandPasses(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"community_find.yaml": passingScenario})

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ community_find")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailureExitCode(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"community_find.yaml": passingScenario,
		"wrong_args.yaml":     failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"community_find.yaml": passingScenario,
		"wrong_args.yaml":     failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--filter", "community_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"community_find.yaml": passingScenario})

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	golden := filepath.Join(dir, "golden", "community_find.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), ";; community_find")

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(";; stale\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "do not match golden file")
}

func TestTestCommandBundledScenarios(t *testing.T) {
	dir, err := filepath.Abs(filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	isolate(t)

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ rejected_limit")
}

func TestTestCommandMissingDir(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "test", "absent")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"typo.yaml": "name: x\ndescription: y\nstep: []\n"})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "a.golden"), goldenFilePath(filepath.Join("s", "a.yaml")))
}
