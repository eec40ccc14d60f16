package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/patomic/internal/compiler"
	"github.com/roach88/patomic/internal/query"
	"github.com/roach88/patomic/internal/tx"
)

// Harness holds the builders a scenario drives.
type Harness struct {
	tx    *tx.Transaction
	query *query.Query
	err   error
}

// Run executes a scenario and returns the result.
//
// Steps run against a fresh transaction and a fresh query. Builders
// record the first rejected input and later steps still apply. That first
// error is what Expect.Error is matched against.
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}

	h := &Harness{tx: tx.New(), query: query.New()}
	for _, step := range scenario.Steps {
		h.apply(step)
		h.note()
	}

	result := NewResult()
	result.Transaction = h.tx.String()
	result.Pretty = h.tx.Pretty()
	if h.query.IsRaw() {
		result.Query = h.query.RawQuery()
		result.Args = h.query.RawQueryArgs()
	} else {
		result.Query = h.query.Query()
		result.Args = h.query.QueryArgs()
	}
	if h.err != nil {
		result.Err = h.err.Error()
	}

	h.check(scenario.Expect, result)
	return result, nil
}

func (h *Harness) apply(s Step) {
	switch {
	case s.Attribute != nil:
		attr, err := compiler.Build(s.Attribute.spec())
		if err != nil {
			h.setErr(err)
			return
		}
		h.tx.Append(attr)
	case s.Add != nil:
		h.tx.Add(s.Add.Entity, s.Add.Attribute, s.Add.Value, ids(s.Add.ID)...)
	case s.Retract != nil:
		h.tx.Retract(s.Retract.Entity, s.Retract.Attribute, s.Retract.Value, ids(s.Retract.ID)...)
	case s.AddMany != nil:
		facts := make([]tx.Fact, 0, len(s.AddMany.Facts))
		for _, f := range s.AddMany.Facts {
			facts = append(facts, tx.Fact{Entity: f.Entity, Attribute: f.Attribute, Value: f.Value})
		}
		if s.AddMany.ID != nil {
			h.tx.AddManyWithTempID(*s.AddMany.ID, facts...)
		} else {
			h.tx.AddMany(facts...)
		}
	case s.Find != nil:
		h.query.Find(s.Find...)
	case s.In != nil:
		if s.In.Binding != nil {
			h.query.In(s.In.Spec, s.In.Binding)
		} else {
			h.query.In(s.In.Spec)
		}
	case s.Where != nil:
		clause := make(query.Clause, 0, len(s.Where))
		for _, term := range s.Where {
			if term.Bind != nil {
				b := append(append([]string{}, term.Bind...), "", "")
				clause = append(clause, query.Bind(b[0], b[1]))
				continue
			}
			clause = append(clause, query.Pos(term.Pos))
		}
		h.query.Where(clause)
	case s.Arg != nil:
		row := make(query.Row, 0, len(s.Arg))
		for _, a := range s.Arg {
			if a.Pair != nil {
				row = append(row, query.Pair(a.Pair[0], a.Pair[1]))
				continue
			}
			row = append(row, query.Key(a.Key))
		}
		h.query.Arg(row)
	case s.Limit != nil:
		h.query.Limit(*s.Limit)
	case s.Offset != nil:
		h.query.Offset(*s.Offset)
	case s.RawQuery != nil:
		h.query.NewRawQuery(s.RawQuery.Query)
		if s.RawQuery.Args != "" {
			h.query.AddRawQueryArgs(s.RawQuery.Args)
		}
	}
}

// setErr records an error raised outside the builders, such as an
// attribute definition that failed to build.
func (h *Harness) setErr(err error) {
	if h.err == nil {
		h.err = err
	}
}

// note keeps the first builder error in step order.
func (h *Harness) note() {
	if h.err != nil {
		return
	}
	if err := h.tx.Err(); err != nil {
		h.err = err
	} else if err := h.query.Err(); err != nil {
		h.err = err
	}
}

func (h *Harness) check(want Expect, r *Result) {
	if want.Error != "" {
		switch {
		case r.Err == "":
			r.AddError(fmt.Sprintf("expected error containing %q, got none", want.Error))
		case !strings.Contains(r.Err, want.Error):
			r.AddError(fmt.Sprintf("expected error containing %q, got %q", want.Error, r.Err))
		}
		return
	}
	if r.Err != "" {
		r.AddError("unexpected error: " + r.Err)
		return
	}

	compare := func(field, want, got string) {
		if want != "" && strings.TrimSpace(want) != got {
			r.AddError(fmt.Sprintf("%s mismatch:\n  want: %s\n  got:  %s", field, strings.TrimSpace(want), got))
		}
	}
	compare("transaction", want.Transaction, r.Transaction)
	compare("query", want.Query, r.Query)
	compare("args", want.Args, r.Args)
}

func (a *AttributeStep) spec() compiler.AttributeSpec {
	spec := compiler.AttributeSpec{
		Label:       a.Name + "/" + a.Identity,
		Namespace:   a.Namespace,
		Name:        a.Name,
		Identity:    a.Identity,
		ValueType:   a.ValueType,
		Cardinality: a.Cardinality,
		Doc:         a.Doc,
		Unique:      a.Unique,
		Index:       a.Index,
		Fulltext:    a.Fulltext,
		IsComponent: a.IsComponent,
		NoHistory:   a.NoHistory,
		Install:     a.Install,
		Partition:   a.Partition,
	}
	if spec.Cardinality == "" {
		spec.Cardinality = "one"
	}
	if spec.Install == "" {
		spec.Install = "attribute"
	}
	return spec
}

func ids(id *int64) []int64 {
	if id == nil {
		return nil
	}
	return []int64{*id}
}
