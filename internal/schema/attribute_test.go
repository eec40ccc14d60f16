package schema

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
)

func TestNewDefaultsToDBPartition(t *testing.T) {
	for _, partition := range []string{"", "bogus", "DB"} {
		a := New(partition)
		assert.Equal(t, "{:db/id #db/id [:db.part/db]}", a.String(), "partition %q", partition)
		assert.NoError(t, a.Err())
	}
}

func TestNewPartitions(t *testing.T) {
	assert.Equal(t, "{:db/id #db/id [:db.part/tx]}", New("tx").String())
	assert.Equal(t, "{:db/id #db/id [:db.part/user]}", New("user").String())
}

func TestIdent(t *testing.T) {
	a := New("").Ident("community", "name")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/ident :community/name}", a.String())

	b := New("").Ident("community", "name", "taywils")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/ident :taywils.community/name}", b.String())

	// Overwrites in place.
	a.Ident("community", "url")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/ident :community/url}", a.String())
}

func TestIdentErrors(t *testing.T) {
	a := New("").Ident("community", "")
	require.Error(t, a.Err())
	assert.Equal(t, "schema.Ident identity argument should be a non-empty string", a.Err().Error())
	assert.True(t, errs.Is(a.Err(), errs.ErrMissingArgument))
	assert.Equal(t, "{:db/id #db/id [:db.part/db]}", a.String())

	b := New("").Ident("", "location")
	assert.Equal(t, "schema.Ident name argument should be a non-empty string", b.Err().Error())
}

func TestFieldsRenderInCallOrder(t *testing.T) {
	a := New("").Ident("community", "name").Cardinality("one")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/ident :community/name :db/cardinality :db.cardinality/one}", a.String())

	a.Cardinality("MANY")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/ident :community/name :db/cardinality :db.cardinality/many}", a.String())

	b := New("").Cardinality("one").Ident("community", "name")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/cardinality :db.cardinality/one :db/ident :community/name}", b.String())
}

func TestCardinalityErrors(t *testing.T) {
	a := New("").Cardinality("")
	assert.Equal(t, "schema.Cardinality argument must be a non-empty string", a.Err().Error())

	b := New("").Cardinality("several")
	assert.Equal(t, `schema.Cardinality Cardinality must be "one" or "many"`, b.Err().Error())
	assert.True(t, errs.Is(b.Err(), errs.ErrInvalidEnum))
}

func TestValueType(t *testing.T) {
	for _, vt := range ValueTypes {
		a := New("").ValueType(vt)
		require.NoError(t, a.Err())
		assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/valueType :db.type/"+vt+"}", a.String())
	}

	a := New("").ValueType("BigDec")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/valueType :db.type/bigdec}", a.String())
}

func TestValueTypeErrors(t *testing.T) {
	a := New("").ValueType("")
	assert.Equal(t, "schema.ValueType expects a non-empty string argument", a.Err().Error())

	b := New("").ValueType("int")
	assert.Equal(t,
		"schema.ValueType invalid ValueType assigned try one of the following instead\n"+
			"[bigdec, bigint, boolean, bytes, double, float, instant, keyword, long, ref, string, uuid, uri]",
		b.Err().Error())
}

func TestDoc(t *testing.T) {
	a := New("").Doc("A community's name")
	assert.Equal(t, `{:db/id #db/id [:db.part/db] :db/doc "A community's name"}`, a.String())

	a.Doc("A community's population")
	assert.Equal(t, `{:db/id #db/id [:db.part/db] :db/doc "A community's population"}`, a.String())
}

func TestUnique(t *testing.T) {
	a := New("").Unique("value")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/unique :db.unique/value}", a.String())

	a.Unique("IDENTITY")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/unique :db.unique/identity}", a.String())

	b := New("").Unique("")
	assert.Equal(t, "schema.Unique expects a non-empty string argument", b.Err().Error())

	c := New("").Unique("primary")
	assert.Equal(t, "schema.Unique string argument must be one of the following [value, identity]", c.Err().Error())
}

func TestBooleanFlagsCoerceNonBoolToFalse(t *testing.T) {
	tests := []struct {
		name  string
		set   func(*Attribute, any) *Attribute
		field string
	}{
		{"index", (*Attribute).Index, ":db/index"},
		{"fulltext", (*Attribute).FullText, ":db/fulltext"},
		{"isComponent", (*Attribute).IsComponent, ":db/isComponent"},
		{"noHistory", (*Attribute).NoHistory, ":db/noHistory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.set(New(""), true)
			assert.Equal(t, "{:db/id #db/id [:db.part/db] "+tt.field+" true}", a.String())

			for _, v := range []any{false, "true", 1, nil} {
				b := tt.set(New(""), v)
				require.NoError(t, b.Err())
				assert.Equal(t, "{:db/id #db/id [:db.part/db] "+tt.field+" false}", b.String())
			}
		})
	}
}

func TestInstall(t *testing.T) {
	a := New("").Install("attribute")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db.install/_attribute :db.part/db}", a.String())

	b := New("").Install("Partition")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db.install/_partition :db.part/db}", b.String())

	c := New("").Install("")
	assert.Equal(t, "schema.Install installType must be a non-empty string", c.Err().Error())

	d := New("").Install("function")
	assert.Equal(t, "schema.Install installType must be one of the following [attribute, partition]", d.Err().Error())
}

func TestRejectedSetterDoesNotBlockLaterSetters(t *testing.T) {
	a := New("").Cardinality("bad").ValueType("string").Unique("bad")

	require.Error(t, a.Err())
	assert.Contains(t, a.Err().Error(), "schema.Cardinality")
	assert.Equal(t, "{:db/id #db/id [:db.part/db] :db/valueType :db.type/string}", a.String())
}

func TestReset(t *testing.T) {
	a := New("user").Ident("community", "name").Cardinality("bad")
	require.Error(t, a.Err())

	a.Reset().Ident("community", "url")
	require.NoError(t, a.Err())
	assert.Equal(t, "{:db/id #db/id [:db.part/user] :db/ident :community/url}", a.String())
}

func TestFieldAndValue(t *testing.T) {
	a := New("").Ident("community", "name")

	v, ok := a.Field("db/ident")
	require.True(t, ok)
	assert.Equal(t, edn.Keyword("community/name"), v)

	m := a.Value()
	m.Set(edn.Keyword("db/doc"), edn.String("changed"))
	_, ok = a.Field("db/doc")
	assert.False(t, ok)
}

func TestPrettyGolden(t *testing.T) {
	a := New("").
		Ident("community", "name").
		ValueType("string").
		Cardinality("one").
		FullText(true).
		Doc("A community's name").
		Install("attribute")
	require.NoError(t, a.Err())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "community_name", []byte(a.Pretty()))
}

func TestPrettySingleField(t *testing.T) {
	assert.Equal(t, "{:db/id #db/id[:db.part/db]}", New("").Pretty())
}
