package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patomic/internal/datomic/datomictest"
	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/store"
)

const communitySchema = `package schema

attributes: {
	communityName: {
		name:      "community"
		identity:  "name"
		valueType: "string"
		doc:       "A community's name"
		fulltext:  true
	}
	communityCategory: {
		name:        "community"
		identity:    "category"
		valueType:   "string"
		cardinality: "many"
	}
}
`

const communityData = `[{:db/id #db/id [:db.part/user]
  :community/name "Beacon Hill"
  :community/category "neighborhood"}]
`

// isolate runs the test in an empty directory with no config file in
// reach.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

// usePeer points the CLI at a fake peer and a fresh journal.
func usePeer(t *testing.T) (*datomictest.Peer, string) {
	t.Helper()
	dir := isolate(t)
	peer := datomictest.NewPeer(t, "dev")
	cfg := peer.Config()
	journal := filepath.Join(dir, "journal.db")

	t.Setenv("PATOMIC_SERVER_URL", cfg.ServerURL)
	t.Setenv("PATOMIC_PORT", strconv.Itoa(cfg.Port))
	t.Setenv("PATOMIC_ALIAS", cfg.Alias)
	t.Setenv("PATOMIC_STORAGE", cfg.Storage)
	t.Setenv("PATOMIC_JOURNAL", journal)
	return peer, journal
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRenderSchema(t *testing.T) {
	dir := isolate(t)
	schemaDir := filepath.Join(dir, "schema")
	writeFile(t, filepath.Join(schemaDir, "community.cue"), communitySchema)

	out, _, err := execute(t, "render", "schema", schemaDir, "--format", "json")
	require.NoError(t, err)

	var result RenderResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Attributes)
	assert.Equal(t, 1, result.Files)
	assert.Contains(t, result.EDN, ":db/ident :community/name")
	assert.Contains(t, result.EDN, ":db/cardinality :db.cardinality/many")

	_, err = edn.Parse(result.EDN)
	assert.NoError(t, err)
}

func TestRenderSchemaInvalid(t *testing.T) {
	dir := isolate(t)
	schemaDir := filepath.Join(dir, "schema")
	writeFile(t, filepath.Join(schemaDir, "community.cue"), `package schema

attributes: bad: { name: "community", identity: "name", valueType: "text" }
`)

	out, _, err := execute(t, "render", "schema", schemaDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E103")
}

func TestRenderSchemaMissingDir(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "render", "schema", "nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateEDN(t *testing.T) {
	dir := isolate(t)
	good := writeFile(t, filepath.Join(dir, "data.edn"), communityData)

	out, _, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good+" is valid")
}

func TestValidateBrokenEDN(t *testing.T) {
	dir := isolate(t)
	broken := writeFile(t, filepath.Join(dir, "broken.edn"), "[{:db/id #db/id [:db.part/user]\n  :community/name \"Beacon Hill\"\n")

	out, _, err := execute(t, "validate", broken, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, out, ErrCodeInvalidEDN)
}

func TestValidateWrongExtension(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "data.txt"), communityData)

	_, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateSchemaDir(t *testing.T) {
	dir := isolate(t)
	schemaDir := filepath.Join(dir, "schema")
	writeFile(t, filepath.Join(schemaDir, "community.cue"), `package schema

attributes: {
	a: { name: "community", identity: "name", valueType: "long", fulltext: true }
	b: { name: "community", identity: "name", valueType: "string" }
}
`)

	out, _, err := execute(t, "validate", schemaDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E110")
	assert.Contains(t, out, "E102")
}

func TestDBCreateAndList(t *testing.T) {
	peer, _ := usePeer(t)

	out, _, err := execute(t, "db", "create", "seattle")
	require.NoError(t, err)
	assert.Equal(t, "✓ created seattle\n", out)

	out, _, err = execute(t, "db", "create", "seattle")
	require.NoError(t, err)
	assert.Equal(t, "✓ seattle already exists\n", out)

	peer.AddDatabase("tacoma")
	out, _, err = execute(t, "db", "list", "--format", "json")
	require.NoError(t, err)

	var list DBListResult
	decodeResponse(t, out, &list)
	assert.Equal(t, "dev", list.Alias)
	assert.Equal(t, []string{"seattle", "tacoma"}, list.Databases)
}

func TestDBListPeerDown(t *testing.T) {
	peer, _ := usePeer(t)
	peer.FailNext(500)

	out, _, err := execute(t, "db", "list", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeStatus)
}

func TestTransact(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")
	path := writeFile(t, "data.edn", communityData)

	out, _, err := execute(t, "transact", path, "--database", "seattle")
	require.NoError(t, err)
	assert.Equal(t, "✓ transacted data.edn into seattle\n", out)

	bodies := peer.Transactions("seattle")
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], `:community/name "Beacon Hill"`)
}

func TestTransactDryRun(t *testing.T) {
	peer, _ := usePeer(t)
	path := writeFile(t, "data.edn", communityData)

	out, _, err := execute(t, "transact", path, "--dry-run", "--format", "json")
	require.NoError(t, err)

	var result TransactResult
	decodeResponse(t, out, &result)
	assert.True(t, result.DryRun)
	assert.Equal(t, "data.edn", result.Source)
	assert.Contains(t, result.Body, "Beacon Hill")
	assert.Empty(t, peer.Databases())
}

func TestTransactWithoutDatabase(t *testing.T) {
	usePeer(t)
	path := writeFile(t, "data.edn", communityData)

	out, _, err := execute(t, "transact", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeArgument)
}

func TestQueryBuilt(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")
	peer.SetRows(edn.Vector{edn.Vector{edn.Int(17592186045418), edn.String("Beacon Hill")}})

	out, _, err := execute(t, "query",
		"--database", "seattle",
		"--find", "e,name",
		"--where", "e community/name name",
		"--limit", "10",
	)
	require.NoError(t, err)
	assert.Equal(t, "17592186045418\t\"Beacon Hill\"\n", out)

	queries := peer.Queries()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].Query, ":find ?e ?name")
	assert.Contains(t, queries[0].Query, "[?e :community/name ?name]")
	assert.Equal(t, "10", queries[0].Limit)
}

func TestQueryBuiltJSON(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")
	peer.SetRows(edn.Vector{edn.Vector{edn.Int(1), edn.String("Beacon Hill")}})

	out, _, err := execute(t, "query", "--format", "json",
		"--database", "seattle",
		"--find", "e,name",
		"--in", "type",
		"--where", "e community/type type",
		"--where", "e community/name name",
		"--arg", "community.type/twitter",
	)
	require.NoError(t, err)

	var result QueryResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "seattle", result.Database)
	assert.Contains(t, result.Query, ":in $ ?type")
	require.Len(t, result.Rows, 1)
	row, ok := result.Rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Beacon Hill", row["name"])
}

func TestQueryRaw(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")

	_, _, err := execute(t, "query", "--database", "seattle",
		"--raw", "[:find ?e :in $ :where [?e :db/doc]]",
	)
	require.NoError(t, err)

	queries := peer.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "[:find ?e :in $ :where [?e :db/doc]]", queries[0].Query)
}

func TestQueryArgsWithoutRaw(t *testing.T) {
	usePeer(t)
	_, _, err := execute(t, "query", "--database", "seattle", "--find", "e", "--where", "e db/doc", "--args", "[]")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueryRejectedByBuilder(t *testing.T) {
	usePeer(t)
	out, _, err := execute(t, "query", "--format", "json", "--database", "seattle", "--find", "e", "--limit=-5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeArgument)
}

func TestParseClause(t *testing.T) {
	clause := parseClause("e community/neighborhood 17592186045418 n")
	require.Len(t, clause, 3)
}

func TestParseRow(t *testing.T) {
	row := parseRow("community/type=twitter, community.orgtype/personal ,")
	assert.Len(t, row, 2)
	assert.Empty(t, parseRow(""))
}

func TestJournalListAndReplay(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")
	peer.AddDatabase("seattle-copy")
	path := writeFile(t, "data.edn", communityData)

	_, _, err := execute(t, "transact", path, "--database", "seattle")
	require.NoError(t, err)
	_, _, err = execute(t, "query", "--database", "seattle", "--find", "e", "--where", "e community/name")
	require.NoError(t, err)

	out, _, err := execute(t, "journal", "list", "--format", "json")
	require.NoError(t, err)
	var entries []JournalEntry
	decodeResponse(t, out, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "transaction", entries[0].Kind)
	assert.Equal(t, "data.edn", entries[0].Summary)
	assert.True(t, entries[0].OK)
	assert.Equal(t, store.Digest(peer.Transactions("seattle")[0]), entries[0].Digest)
	assert.Equal(t, "query", entries[1].Kind)
	assert.Less(t, entries[0].Seq, entries[1].Seq)

	out, _, err = execute(t, "journal", "replay", "--from", "seattle", "--to", "seattle-copy")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ replayed 1 transaction(s) into seattle-copy")
	assert.Equal(t, peer.Transactions("seattle"), peer.Transactions("seattle-copy"))
}

func TestJournalReplayRejected(t *testing.T) {
	peer, _ := usePeer(t)
	peer.AddDatabase("seattle")
	path := writeFile(t, "data.edn", communityData)

	_, _, err := execute(t, "transact", path, "--database", "seattle")
	require.NoError(t, err)

	out, _, err := execute(t, "journal", "replay", "--to", "missing", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeJournal)
}

func TestJournalRequiresPath(t *testing.T) {
	usePeer(t)
	t.Setenv("PATOMIC_JOURNAL", "")

	_, _, err := execute(t, "journal", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal configured")
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "[:find ?e :where [?e :db/doc]]", abbreviate("[:find ?e\n  :where [?e :db/doc]]", 60))
	assert.Equal(t, "abcdefg...", abbreviate("abcdefghijklmnop", 10))
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
