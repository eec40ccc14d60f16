package edn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"[:find ?e ?v :in $ :where [?e :db/doc ?v]]",
		"[{:db/alias taywils/testing}]",
		"{:db/id #db/id [:db.part/db] :db/ident :community/name :db/index true}",
		`[:db/add #db/id [:db.part/user -20] :company/name "Microsoft"]`,
		`[:db/add #db/id [:db.part/user] :person/born #inst "1988-06-16"]`,
		"(inc 1)",
		"#{1 2 3}",
		"[nil true false 1.5 42 -7 12N 3.14M]",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			v, err := ParseOne(in)
			require.NoError(t, err)
			assert.Equal(t, in, Encode(v))
		})
	}
}

func TestParseNormalizesWhitespace(t *testing.T) {
	v, err := ParseOne("[ :find  ?e,?x\n ; trailing comment\n :in $ :where ]")
	require.NoError(t, err)
	assert.Equal(t, "[:find ?e ?x :in $ :where]", Encode(v))
}

func TestParseTypes(t *testing.T) {
	vals, err := Parse(`:kw sym "str" \c 7 -1.25 nil #_ignored true`)
	require.NoError(t, err)
	require.Len(t, vals, 8)

	assert.Equal(t, Keyword("kw"), vals[0])
	assert.Equal(t, Symbol("sym"), vals[1])
	assert.Equal(t, String("str"), vals[2])
	assert.Equal(t, Char('c'), vals[3])
	assert.Equal(t, Int(7), vals[4])
	assert.Equal(t, Float(-1.25), vals[5])
	assert.Equal(t, Nil{}, vals[6])
	assert.Equal(t, Bool(true), vals[7])
}

func TestParseMultipleForms(t *testing.T) {
	vals, err := Parse("[1][2] {:a 1}")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, "[1]", Encode(vals[0]))
	assert.Equal(t, "{:a 1}", Encode(vals[2]))
}

func TestParseStringEscapes(t *testing.T) {
	v, err := ParseOne(`"line\nnext \"quoted\" é"`)
	require.NoError(t, err)
	assert.Equal(t, String("line\nnext \"quoted\" é"), v)
}

func TestParseTaggedLiteral(t *testing.T) {
	v, err := ParseOne("#db/id [:db.part/user -100]")
	require.NoError(t, err)

	tagged, ok := v.(Tagged)
	require.True(t, ok)
	assert.Equal(t, "db/id", tagged.Tag)
	assert.Equal(t, Vec(Keyword("db.part/user"), Int(-100)), tagged.Value)
}

func TestParseOverflowBecomesBigInt(t *testing.T) {
	v, err := ParseOne("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, BigInt("123456789012345678901234567890"), v)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only whitespace", "  ,, ; comment"},
		{"mismatched closer", "[&)_--find ?e ?x :in $ :where]"},
		{"metadata", "[^%$#@*)([{find ?e ?x :in $ :where}]"},
		{"unterminated vector", "[:find ?e"},
		{"unterminated string", `"abc`},
		{"stray closer", "]"},
		{"odd map", "{:a}"},
		{"lone hash", "#"},
		{"tag without value", "#inst"},
		{"bad dispatch", "#!x"},
		{"empty keyword", ": x"},
		{"bad number", "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestParseOneRejectsMultipleForms(t *testing.T) {
	_, err := ParseOne("[1] [2]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one form, found 2")
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(Standard{}, "[:find ?e\n  :where [?e :db/doc]]")
	require.NoError(t, err)
	assert.Equal(t, "[:find ?e :where [?e :db/doc]]", out)

	_, err = Normalize(Standard{}, "[")
	assert.Error(t, err)
}
