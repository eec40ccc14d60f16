package query

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/roach88/patomic/internal/edn"
)

// Term is one entry of a where clause.
type Term interface {
	values() ([]edn.Value, error)
}

// Clause is one bracketed where clause. Terms render in order.
type Clause []Term

// Binding renders as "?Var :Attr".
type Binding struct {
	Var  string
	Attr string
}

// Bind is shorthand for Binding{Var: variable, Attr: attribute}.
func Bind(variable, attribute string) Binding {
	return Binding{Var: variable, Attr: attribute}
}

func (b Binding) values() ([]edn.Value, error) {
	if b.Var == "" || b.Attr == "" {
		return nil, fmt.Errorf("binding needs a variable and an attribute, got %q %q", b.Var, b.Attr)
	}
	return []edn.Value{edn.Symbol("?" + b.Var), edn.Keyword(b.Attr)}, nil
}

// Positional is a bare clause entry. Integers render as literals,
// unsigned values past int64 as BigInt, anything else as a variable
// reference.
type Positional struct {
	Value any
}

// Pos is shorthand for Positional{Value: v}.
func Pos(v any) Positional {
	return Positional{Value: v}
}

func (p Positional) values() ([]edn.Value, error) {
	if p.Value == nil {
		return nil, fmt.Errorf("positional term cannot be nil")
	}
	rv := reflect.ValueOf(p.Value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []edn.Value{edn.Int(rv.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return []edn.Value{edn.BigInt(strconv.FormatUint(u, 10))}, nil
		}
		return []edn.Value{edn.Int(int64(u))}, nil
	}
	return []edn.Value{edn.Symbol("?" + fmt.Sprint(p.Value))}, nil
}

// ArgTerm is one entry of an argument row.
type ArgTerm interface {
	argValues() []edn.Value
}

// Row is one argument row.
type Row []ArgTerm

// KeyTerm renders as a bare keyword.
type KeyTerm string

// Key is shorthand for KeyTerm(name).
func Key(name string) KeyTerm { return KeyTerm(name) }

func (k KeyTerm) argValues() []edn.Value {
	return []edn.Value{edn.Keyword(k)}
}

// PairTerm renders as `:Key "Value"`.
type PairTerm struct {
	Key   string
	Value string
}

// Pair is shorthand for PairTerm{Key: key, Value: value}.
func Pair(key, value string) PairTerm {
	return PairTerm{Key: key, Value: value}
}

func (p PairTerm) argValues() []edn.Value {
	return []edn.Value{edn.Keyword(p.Key), edn.String(p.Value)}
}
