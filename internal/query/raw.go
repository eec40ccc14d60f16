package query

import (
	"strings"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
)

// NewRawQuery replaces the raw query with text, normalized through the
// codec. Raw arguments from an earlier raw query are dropped.
func (q *Query) NewRawQuery(text string) *Query {
	if strings.TrimSpace(text) == "" {
		return q.fail(errs.Validation("query.NewRawQuery", errs.ErrMissingArgument, "expects a non-empty string input"))
	}
	norm, err := edn.Normalize(q.codec, text)
	if err != nil {
		return q.fail(errs.Mark(errs.Wrap(err, "query.NewRawQuery"), errs.ErrWrongType))
	}
	q.rawBody = norm
	q.rawArgs = ""
	return q
}

// AddRawQueryArgs sets the raw argument text. A raw query must exist.
func (q *Query) AddRawQueryArgs(text string) *Query {
	if q.rawBody == "" {
		return q.fail(errs.Validation("query.AddRawQueryArgs", errs.ErrSequence, "create a newRawQuery before adding raw query arguments"))
	}
	if strings.TrimSpace(text) == "" {
		return q.fail(errs.Validation("query.AddRawQueryArgs", errs.ErrMissingArgument, "expects a non-empty string argument"))
	}
	norm, err := edn.Normalize(q.codec, text)
	if err != nil {
		return q.fail(errs.Mark(errs.Wrap(err, "query.AddRawQueryArgs"), errs.ErrWrongType))
	}
	q.rawArgs = norm
	return q
}

// RawQuery returns the raw query text, "" until a raw query is set.
func (q *Query) RawQuery() string { return q.rawBody }

// RawQueryArgs returns the raw argument text, "" until raw args are set.
func (q *Query) RawQueryArgs() string { return q.rawArgs }

// IsRaw reports whether a raw query has been set.
func (q *Query) IsRaw() bool { return q.rawBody != "" }

// ClearRaw drops the raw query and its arguments.
func (q *Query) ClearRaw() *Query {
	q.rawBody = ""
	q.rawArgs = ""
	return q
}
