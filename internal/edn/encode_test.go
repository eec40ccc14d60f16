package edn

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"nil", Nil{}, "nil"},
		{"untyped nil", nil, "nil"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"bigint", BigInt("123456789012345678901234567890"), "123456789012345678901234567890N"},
		{"float", Float(10.5), "10.5"},
		{"whole float", Float(10), "10.0"},
		{"exponent float", Float(1e21), "1e+21"},
		{"nan", Float(math.NaN()), "##NaN"},
		{"bigdec", BigDec("1.50"), "1.50M"},
		{"string", String("Beacon Hill"), `"Beacon Hill"`},
		{"string keeps single quote", String("A community's name"), `"A community's name"`},
		{"string escapes", String("say \"hi\"\n\\"), `"say \"hi\"\n\\"`},
		{"char", Char('a'), `\a`},
		{"named char", Char('\n'), `\newline`},
		{"keyword", Keyword("db/id"), ":db/id"},
		{"symbol", Symbol("?e"), "?e"},
		{"dollar symbol", Symbol("$"), "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.input))
		})
	}
}

func TestEncodeCollections(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"empty vector", Vector{}, "[]"},
		{"vector", Vec(Keyword("find"), Symbol("?e")), "[:find ?e]"},
		{"list", List{Symbol("inc"), Int(1)}, "(inc 1)"},
		{"set", Set{Int(1), Int(2)}, "#{1 2}"},
		{"empty map", NewMap(), "{}"},
		{
			"tagged partition",
			Tag("db/id", Vec(Keyword("db.part/db"))),
			"#db/id [:db.part/db]",
		},
		{
			"tagged temp id",
			Tag("db/id", Vec(Keyword("db.part/user"), Int(-100))),
			"#db/id [:db.part/user -100]",
		},
		{"inst", Tag("inst", String("1988-06-16")), `#inst "1988-06-16"`},
		{
			"nested vector",
			Vec(Vec(Symbol("?e"), Keyword("age"), Int(42))),
			"[[?e :age 42]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.input))
		})
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap().
		Set(Keyword("db/id"), Tag("db/id", Vec(Keyword("db.part/db")))).
		Set(Keyword("db/ident"), Keyword("community/name")).
		Set(Keyword("db/cardinality"), Keyword("db.cardinality/one"))

	assert.Equal(t,
		"{:db/id #db/id [:db.part/db] :db/ident :community/name :db/cardinality :db.cardinality/one}",
		Encode(m))
}

func TestMapSetOverwritesInPlace(t *testing.T) {
	m := NewMap().
		Set(Keyword("a"), Int(1)).
		Set(Keyword("b"), Int(2)).
		Set(Keyword("a"), Int(3))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "{:a 3 :b 2}", Encode(m))

	v, ok := m.Get(Keyword("a"))
	require.True(t, ok)
	assert.Equal(t, Int(3), v)

	_, ok = m.Get(Keyword("missing"))
	assert.False(t, ok)
}

func TestMapKeysDistinguishTypes(t *testing.T) {
	m := NewMap().
		Set(Keyword("a"), Int(1)).
		Set(String("a"), Int(2)).
		Set(Symbol("a"), Int(3))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, `{:a 1 "a" 2 a 3}`, Encode(m))
}

func TestMapClone(t *testing.T) {
	m := NewMap().Set(Keyword("a"), Int(1))
	c := m.Clone()
	c.Set(Keyword("b"), Int(2))

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
}

func TestEncodeAllConcatenates(t *testing.T) {
	out := EncodeAll([]Value{Vec(Int(1)), Vec(Int(2))})
	assert.Equal(t, "[1][2]", out)
}

func TestFromGo(t *testing.T) {
	id := uuid.MustParse("6f0b2a1e-0c0d-4c8e-9a31-3b9d2b7f1a00")

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "nil"},
		{"string", "Microsoft", `"Microsoft"`},
		{"int", 10, "10"},
		{"int64", int64(-20), "-20"},
		{"uint8", uint8(7), "7"},
		{"huge uint64", uint64(math.MaxUint64), "18446744073709551615N"},
		{"bool", true, "true"},
		{"float", 2.5, "2.5"},
		{"time", time.Date(1988, 6, 16, 13, 0, 0, 0, time.UTC), `#inst "1988-06-16"`},
		{"uuid", id, `#uuid "6f0b2a1e-0c0d-4c8e-9a31-3b9d2b7f1a00"`},
		{"edn passthrough", Keyword("db/add"), ":db/add"},
		{"slice", []any{1, "a"}, `[1 "a"]`},
		{"strings", []string{"a", "b"}, `["a" "b"]`},
		{"map sorted", map[string]any{"z": 1, "a": 2}, "{:a 2 :z 1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Encode(v))
		})
	}
}

func TestFromGoRejectsUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = FromGo([]any{1, make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector[1]")
}

func TestToGo(t *testing.T) {
	m := NewMap().
		Set(Keyword("db/alias"), String("taywils/testing")).
		Set(Keyword("count"), Int(3)).
		Set(Keyword("when"), Tag("inst", String("1988-06-16")))

	got := ToGo(Vec(m, Symbol("?e"), Nil{}))
	assert.Equal(t, []any{
		map[string]any{
			":db/alias": "taywils/testing",
			":count":    int64(3),
			":when":     map[string]any{"#inst": "1988-06-16"},
		},
		"?e",
		nil,
	}, got)
}
