package datomic

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/query"
	"github.com/roach88/patomic/internal/store"
)

// Row is one query result zipped with the :find variables, in find order.
type Row struct {
	Vars   []string
	Values []edn.Value
}

// Get returns the value bound to the find variable name.
func (r Row) Get(name string) (edn.Value, bool) {
	for i, v := range r.Vars {
		if v == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map converts the row to plain Go values keyed by variable name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Vars))
	for i, v := range r.Vars {
		m[v] = edn.ToGo(r.Values[i])
	}
	return m
}

// request is one rendered query ready to send.
type request struct {
	q      string
	args   string
	limit  int
	offset int
	raw    bool
}

// Query runs the built form of q against the selected database. The
// database alias map is prepended to the query arguments.
func (c *Client) Query(ctx context.Context, q *query.Query) ([]Row, error) {
	if err := c.checkQuery("datomic.Query", q); err != nil {
		return nil, err
	}
	args := append(edn.Vector{c.aliasArg()}, q.ArgsValue()...)
	req := request{
		q:      q.Query(),
		args:   c.codec.Encode(args),
		limit:  q.LimitValue(),
		offset: q.OffsetValue(),
	}
	rows, err := c.query(ctx, req)
	if err != nil {
		return nil, err
	}

	vars := q.FindVars()
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(vars) {
			return nil, errs.Mark(errs.Newf("row has %d values for %d find variables", len(r), len(vars)), errs.ErrDecode)
		}
		out = append(out, Row{Vars: vars, Values: r})
	}
	return out, nil
}

// QueryRaw runs the raw form of q and returns rows unprojected. With no
// raw arguments the database alias map alone is sent.
func (c *Client) QueryRaw(ctx context.Context, q *query.Query) ([][]edn.Value, error) {
	if err := c.checkQuery("datomic.QueryRaw", q); err != nil {
		return nil, err
	}
	if !q.IsRaw() {
		return nil, errs.Validation("datomic.QueryRaw", errs.ErrSequence, "create a newRawQuery before running a raw query")
	}
	args := q.RawQueryArgs()
	if args == "" {
		args = c.codec.Encode(edn.Vec(c.aliasArg()))
	}
	return c.query(ctx, request{
		q:      q.RawQuery(),
		args:   args,
		limit:  q.LimitValue(),
		offset: q.OffsetValue(),
		raw:    true,
	})
}

func (c *Client) checkQuery(tag string, q *query.Query) error {
	if q == nil {
		return errs.Validation(tag, errs.ErrMissingArgument, "query must not be nil")
	}
	if err := q.Err(); err != nil {
		return errs.Wrap(err, tag)
	}
	return c.requireDatabase(tag)
}

// aliasArg is {:db/alias "<alias>/<database>"}.
func (c *Client) aliasArg() *edn.Map {
	return edn.NewMap().Set(edn.Keyword("db/alias"), edn.String(c.cfg.Alias+"/"+c.database))
}

func (c *Client) queryURL(r request) string {
	params := url.Values{}
	params.Set("q", r.q)
	params.Set("args", r.args)
	if r.limit > 0 {
		params.Set("limit", strconv.Itoa(r.limit))
	}
	if r.offset > 0 {
		params.Set("offset", strconv.Itoa(r.offset))
	}
	return c.cfg.APIURL() + "?" + params.Encode()
}

func (c *Client) query(ctx context.Context, r request) (rows [][]edn.Value, err error) {
	ctx, span := tracer.Start(ctx, "query",
		trace.WithAttributes(attribute.String(TraceAttributeAlias, c.cfg.Alias)),
		trace.WithAttributes(attribute.String(TraceAttributeDatabase, c.database)),
		trace.WithAttributes(attribute.Bool("datomic-raw-query", r.raw)),
	)
	defer func() { endSpan(span, err) }()

	code, body, err := c.do(ctx, http.MethodGet, c.queryURL(r), nil, ednHeaders())
	if err != nil {
		return nil, err
	}
	defer func() {
		c.recordQuery(ctx, store.QueryEntry{
			Database: c.database,
			Query:    r.q,
			Args:     r.args,
			Raw:      r.raw,
			Limit:    r.limit,
			Offset:   r.offset,
			Status:   code,
			Rows:     len(rows),
		})
	}()

	if code != http.StatusOK {
		err = statusError(code, body)
		return nil, err
	}

	rows, err = c.decodeRows(body)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("query answered", "rows", len(rows), "raw", r.raw)
	return rows, nil
}

func (c *Client) decodeRows(body string) ([][]edn.Value, error) {
	vals, err := c.codec.Parse(body)
	if err != nil {
		return nil, decodeError(err, "query result")
	}
	if len(vals) == 0 {
		return [][]edn.Value{}, nil
	}
	outer, ok := seqOf(vals[0])
	if !ok {
		return nil, errs.Mark(errs.Newf("query result: expected a collection of rows, got %s", c.codec.Encode(vals[0])), errs.ErrDecode)
	}
	rows := make([][]edn.Value, 0, len(outer))
	for _, r := range outer {
		elems, ok := seqOf(r)
		if !ok {
			return nil, errs.Mark(errs.Newf("query result: expected a row vector, got %s", c.codec.Encode(r)), errs.ErrDecode)
		}
		rows = append(rows, elems)
	}
	return rows, nil
}

func (c *Client) recordQuery(ctx context.Context, e store.QueryEntry) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.RecordQuery(ctx, e); err != nil {
		c.log.Warnw("failed to journal query", "database", e.Database, "error", err)
	}
}
