// Package tx assembles transaction bodies: ordered sequences of attribute
// definitions, single-fact add/retract operations and multi-fact entity
// records, rendered as one EDN vector.
//
// A Transaction is either built programmatically or loaded verbatim from
// an .edn source. The two modes are exclusive: the first mutation of a
// loaded transaction discards the loaded text and starts a fresh built body.
package tx

import (
	"strings"

	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/schema"
)

// body is either built or loaded.
type body interface {
	isBody()
}

// built holds programmatically assembled elements.
type built struct {
	elems []element
}

func (built) isBody() {}

// loaded holds raw text read from a source, split into lines that keep
// their terminators.
type loaded struct {
	name  string
	lines []string
}

func (loaded) isBody() {}

// element is one entry of a built body.
type element interface {
	value() edn.Value
	render(c edn.Codec) string
	pretty(c edn.Codec) string
}

type attributeElem struct{ attr *schema.Attribute }

func (e attributeElem) value() edn.Value { return e.attr.Value() }
func (e attributeElem) render(edn.Codec) string { return e.attr.String() }
func (e attributeElem) pretty(edn.Codec) string { return e.attr.Pretty() + "\n" }

type opElem struct{ vec edn.Vector }

func (e opElem) value() edn.Value { return e.vec }
func (e opElem) render(c edn.Codec) string { return c.Encode(e.vec) }
func (e opElem) pretty(c edn.Codec) string { return "\n" + c.Encode(e.vec) }

type recordElem struct{ m *edn.Map }

func (e recordElem) value() edn.Value { return e.m }
func (e recordElem) render(c edn.Codec) string { return c.Encode(e.m) }
func (e recordElem) pretty(c edn.Codec) string { return c.Encode(e.m) + "\n" }

// Transaction is a transaction body under construction.
type Transaction struct {
	body  body
	codec edn.Codec
	err   error
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithCodec replaces the codec used for rendering and validation.
func WithCodec(c edn.Codec) Option {
	return func(t *Transaction) { t.codec = c }
}

// New creates an empty built transaction.
func New(opts ...Option) *Transaction {
	t := &Transaction{body: built{}, codec: edn.Standard{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Err returns the first call rejected since New or the last ClearData.
// A rejected call changes nothing; later valid calls still apply.
func (t *Transaction) Err() error { return t.err }

func (t *Transaction) fail(err error) *Transaction {
	if t.err == nil {
		t.err = err
	}
	return t
}

// Loaded reports whether the body holds text loaded from a source.
func (t *Transaction) Loaded() bool {
	_, ok := t.body.(loaded)
	return ok
}

// Source returns the name of the loaded source, or "" for built bodies.
func (t *Transaction) Source() string {
	if l, ok := t.body.(loaded); ok {
		return l.name
	}
	return ""
}

// Len returns the number of built elements or loaded lines.
func (t *Transaction) Len() int {
	switch b := t.body.(type) {
	case built:
		return len(b.elems)
	case loaded:
		return len(b.lines)
	}
	return 0
}

// mutable returns the built body, discarding loaded text first.
func (t *Transaction) mutable() built {
	b, ok := t.body.(built)
	if !ok {
		return built{}
	}
	return b
}

func (t *Transaction) push(e element) *Transaction {
	b := t.mutable()
	b.elems = append(b.elems, e)
	t.body = b
	return t
}

// ClearData resets the body to an empty built transaction and forgets
// any recorded error.
func (t *Transaction) ClearData() *Transaction {
	t.body = built{}
	t.err = nil
	return t
}

// Values returns the built elements as EDN values. Loaded bodies have none.
func (t *Transaction) Values() []edn.Value {
	b, ok := t.body.(built)
	if !ok {
		return nil
	}
	out := make([]edn.Value, len(b.elems))
	for i, e := range b.elems {
		out[i] = e.value()
	}
	return out
}

// String renders the body. Built bodies are wrapped in [] with elements
// concatenated without separators; loaded bodies are the raw text.
func (t *Transaction) String() string {
	var sb strings.Builder
	switch b := t.body.(type) {
	case built:
		sb.WriteByte('[')
		for _, e := range b.elems {
			sb.WriteString(e.render(t.codec))
		}
		sb.WriteByte(']')
	case loaded:
		for _, line := range b.lines {
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// Pretty renders the body in documentation layout, one element per
// block. Loaded bodies print their lines with normalized terminators.
func (t *Transaction) Pretty() string {
	var sb strings.Builder
	switch b := t.body.(type) {
	case built:
		sb.WriteString("[\n\n")
		for _, e := range b.elems {
			sb.WriteString(e.pretty(t.codec))
			sb.WriteByte('\n')
		}
		sb.WriteString("]\n")
	case loaded:
		for _, line := range b.lines {
			sb.WriteString(strings.TrimRight(line, "\r\n"))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Validate parses the rendered body and reports malformed EDN.
// Built bodies always parse; loaded text may not.
func (t *Transaction) Validate() error {
	if t.err != nil {
		return t.err
	}
	if _, err := t.codec.Parse(t.String()); err != nil {
		return errs.Wrapf(err, "transaction %s", t.describe())
	}
	return nil
}

func (t *Transaction) describe() string {
	if l, ok := t.body.(loaded); ok {
		return l.name
	}
	return "body"
}
