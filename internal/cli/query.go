package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/query"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Find     []string
	In       string
	Where    []string
	Arg      []string
	Raw      string
	Args     string
	Limit    int
	Offset   int
}

// QueryResult is the JSON payload of query.
type QueryResult struct {
	Database string `json:"database"`
	Query    string `json:"query"`
	Args     string `json:"args,omitempty"`
	Rows     []any  `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a datalog query against a database",
		Long: `Build a query from flags, or pass literal query text with --raw.

Each --where is one clause: a variable, an attribute and any number of
positional terms. Integers stay literal, everything else becomes a
variable. Each --arg is one argument row of comma separated terms, where
k=v is a keyword/string pair and a bare name is a keyword.

Examples:
  patomic query --find e,name --where "e community/name name"
  patomic query --find e --in type --where "e community/type type" --arg community/type=twitter
  patomic query --raw "[:find ?e :in $ :where [?e :db/doc]]" --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "database", "", "database to query (default from config)")
	cmd.Flags().StringSliceVar(&opts.Find, "find", nil, "find variables, without the leading ?")
	cmd.Flags().StringVar(&opts.In, "in", "", "input variables, space or comma separated")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "where clause: \"var attr [term...]\" (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Arg, "arg", nil, "argument row: \"k=v,key,...\" (repeatable)")
	cmd.Flags().StringVar(&opts.Raw, "raw", "", "literal query text")
	cmd.Flags().StringVar(&opts.Args, "args", "", "literal argument text for --raw")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of rows to skip")
	cmd.MarkFlagsMutuallyExclusive("raw", "find")

	return cmd
}

// buildQuery turns the flags into a query. Builder errors are returned
// from q.Err().
func (o *QueryOptions) buildQuery() *query.Query {
	q := query.New()
	if o.Raw != "" {
		q.NewRawQuery(o.Raw)
		if o.Args != "" {
			q.AddRawQueryArgs(o.Args)
		}
	} else {
		q.Find(o.Find...)
		if o.In != "" {
			q.In(o.In)
		}
		for _, w := range o.Where {
			q.Where(parseClause(w))
		}
		for _, a := range o.Arg {
			q.Arg(parseRow(a))
		}
	}
	if o.Limit != 0 {
		q.Limit(o.Limit)
	}
	if o.Offset != 0 {
		q.Offset(o.Offset)
	}
	return q
}

func parseClause(s string) query.Clause {
	fields := strings.Fields(s)
	for len(fields) < 2 {
		fields = append(fields, "")
	}
	clause := query.Clause{query.Bind(fields[0], fields[1])}
	for _, f := range fields[2:] {
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			clause = append(clause, query.Pos(n))
			continue
		}
		clause = append(clause, query.Pos(f))
	}
	return clause
}

func parseRow(s string) query.Row {
	var row query.Row
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if k, v, ok := strings.Cut(term, "="); ok {
			row = append(row, query.Pair(k, v))
			continue
		}
		row = append(row, query.Key(term))
	}
	return row
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q := opts.buildQuery()
	if err := q.Err(); err != nil {
		return formatter.Fail("query", err)
	}
	if opts.Args != "" && opts.Raw == "" {
		return formatter.Fail("query", NewExitError(ExitCommandError, "--args requires --raw"))
	}

	client, closeFn, err := opts.newClient(opts.Database)
	if err != nil {
		return formatter.Fail("query", err)
	}
	defer closeFn()

	ctx := commandContext(cmd)
	result := QueryResult{Database: client.Database(), Rows: []any{}}
	var lines []string

	if q.IsRaw() {
		result.Query, result.Args = q.RawQuery(), q.RawQueryArgs()
		rows, err := client.QueryRaw(ctx, q)
		if err != nil {
			return formatter.Fail("query", err)
		}
		for _, r := range rows {
			result.Rows = append(result.Rows, edn.ToGo(edn.Vector(r)))
			lines = append(lines, rowLine(r))
		}
	} else {
		result.Query, result.Args = q.Query(), q.QueryArgs()
		rows, err := client.Query(ctx, q)
		if err != nil {
			return formatter.Fail("query", err)
		}
		for _, r := range rows {
			result.Rows = append(result.Rows, r.Map())
			lines = append(lines, rowLine(r.Values))
		}
	}
	opts.Log.Debugw("query finished", "database", result.Database, "rows", len(result.Rows))

	return formatter.Success(result, func(w io.Writer) {
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		formatter.VerboseLog("%d row(s)", len(lines))
	})
}

// rowLine renders one result row as tab separated EDN values.
func rowLine(values []edn.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = edn.Encode(v)
	}
	return strings.Join(parts, "\t")
}
