package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/patomic/internal/schema"
)

// AttributeSpec is the CUE form of one attribute definition.
type AttributeSpec struct {
	Label       string
	Namespace   string
	Name        string
	Identity    string
	ValueType   string
	Cardinality string
	Doc         string
	Unique      string
	Index       bool
	Fulltext    bool
	IsComponent bool
	NoHistory   bool
	Install     string
	Partition   string
	Pos         token.Pos
}

// Ident returns the rendered ident without the leading colon.
func (s AttributeSpec) Ident() string {
	ident := s.Name + "/" + s.Identity
	if s.Namespace != "" {
		ident = s.Namespace + "." + ident
	}
	return ident
}

// ParseAttribute reads a single attribute struct, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`attributes: communityName: { name: "community", identity: "name", ... }`)
//	spec, err := ParseAttribute(v.LookupPath(cue.ParsePath("attributes.communityName")))
func ParseAttribute(v cue.Value) (AttributeSpec, error) {
	spec := AttributeSpec{Install: "attribute", Partition: schema.DefaultPartition, Pos: v.Pos()}
	if err := v.Err(); err != nil {
		return spec, formatCUEError(err)
	}
	if v.Kind() != cue.StructKind {
		return spec, &CompileError{Field: "attribute", Message: "must be a struct", Pos: v.Pos()}
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Label = labels[len(labels)-1].String()
	}

	var err error
	if spec.Name, err = requiredString(v, "name"); err != nil {
		return spec, err
	}
	if spec.Identity, err = requiredString(v, "identity"); err != nil {
		return spec, err
	}
	if spec.ValueType, err = requiredString(v, "valueType"); err != nil {
		return spec, err
	}

	strs := []struct {
		field string
		dst   *string
	}{
		{"namespace", &spec.Namespace},
		{"cardinality", &spec.Cardinality},
		{"doc", &spec.Doc},
		{"unique", &spec.Unique},
		{"install", &spec.Install},
		{"partition", &spec.Partition},
	}
	for _, s := range strs {
		if err := optionalString(v, s.field, s.dst); err != nil {
			return spec, err
		}
	}
	if spec.Cardinality == "" {
		spec.Cardinality = "one"
	}

	flags := []struct {
		field string
		dst   *bool
	}{
		{"index", &spec.Index},
		{"fulltext", &spec.Fulltext},
		{"isComponent", &spec.IsComponent},
		{"noHistory", &spec.NoHistory},
	}
	for _, f := range flags {
		if err := optionalBool(v, f.field, f.dst); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

// ParseSchema reads every field of the attributes struct in declaration
// order.
func ParseSchema(v cue.Value) ([]AttributeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	attrs := v.LookupPath(cue.ParsePath("attributes"))
	if !attrs.Exists() {
		return nil, &CompileError{Field: "attributes", Message: "attributes is required", Pos: v.Pos()}
	}

	iter, err := attrs.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []AttributeSpec
	for iter.Next() {
		spec, err := ParseAttribute(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &CompileError{Field: "attributes", Message: "at least one attribute is required", Pos: attrs.Pos()}
	}
	return specs, nil
}

// Build turns a parsed spec into an attribute definition. Builder
// rejections come back as a CompileError at the spec's position.
func Build(spec AttributeSpec) (*schema.Attribute, error) {
	a := schema.New(spec.Partition).
		Ident(spec.Name, spec.Identity, spec.Namespace).
		ValueType(spec.ValueType).
		Cardinality(spec.Cardinality)
	if spec.Doc != "" {
		a.Doc(spec.Doc)
	}
	if spec.Unique != "" {
		a.Unique(spec.Unique)
	}
	if spec.Index {
		a.Index(true)
	}
	if spec.Fulltext {
		a.FullText(true)
	}
	if spec.IsComponent {
		a.IsComponent(true)
	}
	if spec.NoHistory {
		a.NoHistory(true)
	}
	a.Install(spec.Install)
	if err := a.Err(); err != nil {
		return nil, &CompileError{Field: spec.Label, Message: err.Error(), Pos: spec.Pos}
	}
	return a, nil
}

// CompileAttribute parses and builds a single attribute struct.
func CompileAttribute(v cue.Value) (*schema.Attribute, error) {
	spec, err := ParseAttribute(v)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}

// CompileSchema parses the attributes struct, validates the set as a
// whole and builds every definition. The first validation error wins.
func CompileSchema(v cue.Value) ([]*schema.Attribute, error) {
	specs, err := ParseSchema(v)
	if err != nil {
		return nil, err
	}
	if verrs := Validate(specs); len(verrs) > 0 {
		return nil, verrs[0]
	}

	out := make([]*schema.Attribute, 0, len(specs))
	for _, spec := range specs {
		a, err := Build(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string, dst *string) error {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil
	}
	s, err := fv.String()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = s
	return nil
}

func optionalBool(v cue.Value, field string, dst *bool) error {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil
	}
	b, err := fv.Bool()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = b
	return nil
}

// CompileError is a schema error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	list := errors.Errors(err)
	if len(list) == 0 {
		return err
	}

	first := list[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
