// Package schema builds attribute definitions: the records that install
// a new attribute (ident, value type, cardinality and flags) in the
// database schema.
//
// An Attribute is an insertion-ordered field map that always starts with
// a temporary id tagged to its partition. Setters chain; a rejected input
// leaves the map untouched and is kept as the builder's error.
package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
)

// Partitions accepted by New.
var Partitions = []string{"db", "tx", "user"}

// Enumerations accepted by the setters, in the order they are listed in
// error messages.
var (
	Cardinalities = []string{"one", "many"}
	ValueTypes    = []string{
		"bigdec", "bigint", "boolean", "bytes", "double", "float", "instant",
		"keyword", "long", "ref", "string", "uuid", "uri",
	}
	Uniqueness   = []string{"value", "identity"}
	InstallTypes = []string{"attribute", "partition"}
)

// DefaultPartition is used when New gets an empty or unknown partition.
const DefaultPartition = "db"

// Attribute is a single attribute definition.
type Attribute struct {
	fields *edn.Map
	codec  edn.Codec
	err    error
}

// Option configures an Attribute.
type Option func(*Attribute)

// WithCodec replaces the codec used for rendering.
func WithCodec(c edn.Codec) Option {
	return func(a *Attribute) { a.codec = c }
}

// New creates an attribute definition in the given partition.
// Empty or unknown partitions fall back to DefaultPartition.
func New(partition string, opts ...Option) *Attribute {
	if !contains(Partitions, partition) {
		partition = DefaultPartition
	}
	a := &Attribute{fields: edn.NewMap(), codec: edn.Standard{}}
	for _, opt := range opts {
		opt(a)
	}
	a.fields.Set(edn.Keyword("db/id"), edn.Tag("db/id", edn.Vec(edn.Keyword("db.part/"+partition))))
	return a
}

// Err returns the first input rejected since New or the last Reset.
// A rejected setter leaves the map untouched; later valid setters still apply.
func (a *Attribute) Err() error { return a.err }

// Reset drops every field but :db/id and forgets any recorded error.
func (a *Attribute) Reset() *Attribute {
	id, _ := a.fields.Get(edn.Keyword("db/id"))
	a.fields = edn.NewMap().Set(edn.Keyword("db/id"), id)
	a.err = nil
	return a
}

func (a *Attribute) fail(err error) *Attribute {
	if a.err == nil {
		a.err = err
	}
	return a
}

func (a *Attribute) set(field string, v edn.Value) *Attribute {
	a.fields.Set(edn.Keyword(field), v)
	return a
}

// Ident sets :db/ident to :<namespace.>name/identity.
func (a *Attribute) Ident(name, identity string, namespace ...string) *Attribute {
	if name == "" {
		return a.fail(errs.Validation("schema.Ident", errs.ErrMissingArgument, "name argument should be a non-empty string"))
	}
	if identity == "" {
		return a.fail(errs.Validation("schema.Ident", errs.ErrMissingArgument, "identity argument should be a non-empty string"))
	}
	ident := name + "/" + identity
	if len(namespace) > 0 && namespace[0] != "" {
		ident = namespace[0] + "." + ident
	}
	return a.set("db/ident", edn.Keyword(ident))
}

// Cardinality sets :db/cardinality. Matching is case-insensitive.
func (a *Attribute) Cardinality(value string) *Attribute {
	if value == "" {
		return a.fail(errs.Validation("schema.Cardinality", errs.ErrMissingArgument, "argument must be a non-empty string"))
	}
	value = lower(value)
	if !contains(Cardinalities, value) {
		return a.fail(errs.Validation("schema.Cardinality", errs.ErrInvalidEnum, `Cardinality must be "one" or "many"`))
	}
	return a.set("db/cardinality", edn.Keyword("db.cardinality/"+value))
}

// ValueType sets :db/valueType. Matching is case-insensitive.
func (a *Attribute) ValueType(value string) *Attribute {
	if value == "" {
		return a.fail(errs.Validation("schema.ValueType", errs.ErrMissingArgument, "expects a non-empty string argument"))
	}
	value = lower(value)
	if !contains(ValueTypes, value) {
		return a.fail(errs.Validation("schema.ValueType", errs.ErrInvalidEnum,
			"invalid ValueType assigned try one of the following instead\n[%s]", strings.Join(ValueTypes, ", ")))
	}
	return a.set("db/valueType", edn.Keyword("db.type/"+value))
}

// Doc sets :db/doc verbatim.
func (a *Attribute) Doc(value string) *Attribute {
	return a.set("db/doc", edn.String(value))
}

// Unique sets :db/unique. Matching is case-insensitive.
func (a *Attribute) Unique(value string) *Attribute {
	if value == "" {
		return a.fail(errs.Validation("schema.Unique", errs.ErrMissingArgument, "expects a non-empty string argument"))
	}
	value = lower(value)
	if !contains(Uniqueness, value) {
		return a.fail(errs.Validation("schema.Unique", errs.ErrInvalidEnum,
			"string argument must be one of the following [%s]", strings.Join(Uniqueness, ", ")))
	}
	return a.set("db/unique", edn.Keyword("db.unique/"+value))
}

// Index sets :db/index. Anything other than a bool true is stored as false.
func (a *Attribute) Index(v any) *Attribute { return a.flag("db/index", v) }

// FullText sets :db/fulltext with the same coercion as Index.
func (a *Attribute) FullText(v any) *Attribute { return a.flag("db/fulltext", v) }

// IsComponent sets :db/isComponent with the same coercion as Index.
func (a *Attribute) IsComponent(v any) *Attribute { return a.flag("db/isComponent", v) }

// NoHistory sets :db/noHistory with the same coercion as Index.
func (a *Attribute) NoHistory(v any) *Attribute { return a.flag("db/noHistory", v) }

func (a *Attribute) flag(field string, v any) *Attribute {
	b, _ := v.(bool)
	return a.set(field, edn.Bool(b))
}

// Install adds the reverse reference :db.install/_<type> :db.part/db.
func (a *Attribute) Install(value string) *Attribute {
	if value == "" {
		return a.fail(errs.Validation("schema.Install", errs.ErrMissingArgument, "installType must be a non-empty string"))
	}
	value = lower(value)
	if !contains(InstallTypes, value) {
		return a.fail(errs.Validation("schema.Install", errs.ErrInvalidEnum,
			"installType must be one of the following [%s]", strings.Join(InstallTypes, ", ")))
	}
	return a.set("db.install/_"+value, edn.Keyword("db.part/db"))
}

// Field returns the value stored under the given field keyword
// (without the leading colon).
func (a *Attribute) Field(name string) (edn.Value, bool) {
	return a.fields.Get(edn.Keyword(name))
}

// Value returns a copy of the field map.
func (a *Attribute) Value() *edn.Map {
	return a.fields.Clone()
}

// String renders the definition in compact wire form.
func (a *Attribute) String() string {
	return a.codec.Encode(a.fields)
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
