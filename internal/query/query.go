// Package query assembles Datalog queries for the REST peer.
//
// A Query accumulates find variables, input bindings, where clauses and
// argument rows, then renders them as
//
//	[:find ?a ?b :in $ ?c [[?d ?e]] :where [?x :attr ?y] [?x :attr2 42]]
//
// alongside a parallel argument vector. A pre-written query can be
// supplied instead through NewRawQuery; the raw text is normalized by the
// codec and kept apart from the built state.
package query

import (
	"regexp"
	"strings"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
)

var inSeparator = regexp.MustCompile(`[\s,]+`)

// inTerm is one entry after :in $, either a plain variable or a
// collection binding.
type inTerm struct {
	name       string
	collection []string
}

func (t inTerm) value() edn.Value {
	if t.collection == nil {
		return edn.Symbol("?" + t.name)
	}
	inner := make(edn.Vector, len(t.collection))
	for i, v := range t.collection {
		inner[i] = edn.Symbol("?" + v)
	}
	return edn.Vec(inner)
}

// Query is a Datalog query under construction.
type Query struct {
	find   []string
	in     []inTerm
	where  []edn.Vector
	args   []edn.Vector
	limit  int
	offset int

	rawBody string
	rawArgs string

	codec edn.Codec
	err   error
}

// Option configures a Query.
type Option func(*Query)

// WithCodec replaces the codec used to render and normalize text.
func WithCodec(c edn.Codec) Option {
	return func(q *Query) { q.codec = c }
}

// New creates an empty query.
func New(opts ...Option) *Query {
	q := &Query{codec: edn.Standard{}}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Err returns the first call rejected since New or the last Clear.
// A rejected call changes nothing; later valid calls still apply.
func (q *Query) Err() error { return q.err }

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Find appends variables to the :find clause. Names are trimmed and
// rendered with a leading ?.
func (q *Query) Find(names ...string) *Query {
	if len(names) == 0 {
		return q.fail(errs.Validation("query.Find", errs.ErrMissingArgument, `expects at least one "string" as an argument`))
	}
	for _, n := range names {
		q.find = append(q.find, strings.TrimSpace(n))
	}
	return q
}

// In appends input variables. spec may hold several names separated by
// commas or whitespace. An optional binding becomes a collection binding
// [[?a ?b]] after the plain variables.
func (q *Query) In(spec string, binding ...[]string) *Query {
	if len(binding) > 1 {
		return q.fail(errs.Validation("query.In", errs.ErrWrongType, `expects at least one "string" and an optional "array" as arguments`))
	}
	if len(binding) == 1 && binding[0] == nil {
		return q.fail(errs.Validation("query.In", errs.ErrWrongType, "second argument was not an array"))
	}
	for _, part := range inSeparator.Split(spec, -1) {
		if part != "" {
			q.in = append(q.in, inTerm{name: part})
		}
	}
	if len(binding) == 1 {
		coll := make([]string, len(binding[0]))
		copy(coll, binding[0])
		q.in = append(q.in, inTerm{collection: coll})
	}
	return q
}

// Where appends one clause. Calls keep their order, which is the join order.
func (q *Query) Where(c Clause) *Query {
	if c == nil {
		return q.fail(errs.Validation("query.Where", errs.ErrWrongType, "expects an array as an argument"))
	}
	vec := edn.Vector{}
	for _, term := range c {
		if term == nil {
			return q.fail(errs.Validation("query.Where", errs.ErrWrongType, "clause contains a nil term"))
		}
		vals, err := term.values()
		if err != nil {
			return q.fail(errs.Validation("query.Where", errs.ErrWrongType, "%v", err))
		}
		vec = append(vec, vals...)
	}
	q.where = append(q.where, vec)
	return q
}

// Arg appends one argument row.
func (q *Query) Arg(r Row) *Query {
	if r == nil {
		return q.fail(errs.Validation("query.Arg", errs.ErrWrongType, "expects an array as an argument"))
	}
	vec := edn.Vector{}
	for _, term := range r {
		if term == nil {
			return q.fail(errs.Validation("query.Arg", errs.ErrWrongType, "row contains a nil term"))
		}
		vec = append(vec, term.argValues()...)
	}
	q.args = append(q.args, vec)
	return q
}

// Limit sets the row limit. Zero, the initial value, means unset.
func (q *Query) Limit(n int) *Query {
	if n < 1 {
		return q.fail(errs.Validation("query.Limit", errs.ErrWrongType, "expects a positive integer as an argument"))
	}
	q.limit = n
	return q
}

// Offset sets the row offset. Zero, the initial value, means unset.
func (q *Query) Offset(n int) *Query {
	if n < 1 {
		return q.fail(errs.Validation("query.Offset", errs.ErrWrongType, "expects a positive integer as an argument"))
	}
	q.offset = n
	return q
}

// LimitValue returns the row limit, 0 when unset.
func (q *Query) LimitValue() int { return q.limit }

// OffsetValue returns the row offset, 0 when unset.
func (q *Query) OffsetValue() int { return q.offset }

// FindVars returns the :find variable names without their ? prefix.
func (q *Query) FindVars() []string {
	out := make([]string, len(q.find))
	copy(out, q.find)
	return out
}

// Query renders the built query. With no find, in or where entries the
// result is the empty vector "[]".
func (q *Query) Query() string {
	if len(q.find) == 0 && len(q.in) == 0 && len(q.where) == 0 {
		return q.codec.Encode(edn.Vector{})
	}
	vec := edn.Vector{edn.Keyword("find")}
	for _, f := range q.find {
		vec = append(vec, edn.Symbol("?"+f))
	}
	vec = append(vec, edn.Keyword("in"), edn.Symbol("$"))
	for _, t := range q.in {
		vec = append(vec, t.value())
	}
	vec = append(vec, edn.Keyword("where"))
	for _, c := range q.where {
		vec = append(vec, c)
	}
	return q.codec.Encode(vec)
}

// ArgsValue returns the argument rows as one vector.
func (q *Query) ArgsValue() edn.Vector {
	vec := make(edn.Vector, len(q.args))
	for i, r := range q.args {
		vec[i] = r
	}
	return vec
}

// QueryArgs renders the argument rows, "[]" when there are none.
func (q *Query) QueryArgs() string {
	return q.codec.Encode(q.ArgsValue())
}

// Clear resets the built state and the recorded error. Raw state is kept.
func (q *Query) Clear() *Query {
	q.find = nil
	q.in = nil
	q.where = nil
	q.args = nil
	q.limit = 0
	q.offset = 0
	q.err = nil
	return q
}
