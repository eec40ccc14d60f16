package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result in the layout stored in golden files: the
// pretty transaction followed by the query and its arguments.
func Snapshot(name string, r *Result) []byte {
	var sb strings.Builder
	sb.WriteString(";; " + name + "\n")
	sb.WriteString("\n;; transaction\n")
	sb.WriteString(r.Pretty)
	sb.WriteString("\n;; query\n")
	sb.WriteString(r.Query + "\n")
	sb.WriteString("\n;; args\n")
	sb.WriteString(r.Args + "\n")
	if r.Err != "" {
		sb.WriteString("\n;; error\n")
		sb.WriteString(r.Err + "\n")
	}
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
