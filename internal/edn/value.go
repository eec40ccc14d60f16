// Package edn implements the wire value model used to talk to the fact
// database: keywords, symbols, tagged literals, ordered vectors, lists,
// sets and insertion-ordered maps, plus a text encoder and parser.
//
// Values form a closed set. Every renderer switches over the concrete
// types exhaustively; there is no reflection-based dispatch.
package edn

// Value is a sealed interface over the EDN value types.
// Only the types declared in this package implement it.
type Value interface {
	ednValue() // Sealed
}

// Nil is the EDN nil literal.
type Nil struct{}

func (Nil) ednValue() {}

// Bool is an EDN boolean.
type Bool bool

func (Bool) ednValue() {}

// Int is an EDN integer that fits in 64 bits.
type Int int64

func (Int) ednValue() {}

// BigInt is an arbitrary precision integer kept as its decimal digits.
// It renders with the N suffix.
type BigInt string

func (BigInt) ednValue() {}

// Float is an EDN floating point number.
type Float float64

func (Float) ednValue() {}

// BigDec is an exact decimal kept as its literal digits.
// It renders with the M suffix.
type BigDec string

func (BigDec) ednValue() {}

// String is an EDN string.
type String string

func (String) ednValue() {}

// Char is an EDN character literal.
type Char rune

func (Char) ednValue() {}

// Keyword is an EDN keyword stored without its leading colon.
// Keyword("db/id") renders as :db/id.
type Keyword string

func (Keyword) ednValue() {}

// Symbol is an EDN symbol such as ?e, $ or taywils/testing.
type Symbol string

func (Symbol) ednValue() {}

// Tagged is a tagged literal. Tag is stored without the leading #.
type Tagged struct {
	Tag   string
	Value Value
}

func (Tagged) ednValue() {}

// Vector is an ordered EDN vector.
type Vector []Value

func (Vector) ednValue() {}

// List is an ordered EDN list.
type List []Value

func (List) ednValue() {}

// Set is an EDN set. Element order is kept as inserted so that
// rendering is deterministic.
type Set []Value

func (Set) ednValue() {}

// Map is an EDN map that preserves insertion order.
// Setting an existing key overwrites its value in place.
type Map struct {
	keys  []Value
	vals  []Value
	index map[string]int
}

func (*Map) ednValue() {}

// NewMap creates an empty ordered map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set stores v under k. An existing key keeps its position.
func (m *Map) Set(k, v Value) *Map {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	id := Encode(k)
	if i, ok := m.index[id]; ok {
		m.vals[i] = v
		return m
	}
	m.index[id] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return m
}

// Get returns the value stored under k.
func (m *Map) Get(k Value) (Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[Encode(k)]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	if m == nil {
		return nil
	}
	out := make([]Value, len(m.keys))
	copy(out, m.keys)
	return out
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(k, v Value)) {
	if m == nil {
		return
	}
	for i := range m.keys {
		fn(m.keys[i], m.vals[i])
	}
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Each(func(k, v Value) { out.Set(k, v) })
	return out
}

// Tag builds a tagged literal.
func Tag(tag string, v Value) Tagged {
	return Tagged{Tag: tag, Value: v}
}

// Vec builds a vector from values.
func Vec(vals ...Value) Vector {
	return Vector(vals)
}
