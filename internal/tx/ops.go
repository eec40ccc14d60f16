package tx

import (
	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/schema"
)

const (
	opAdd     = "db/add"
	opRetract = "db/retract"
)

// Fact is one attribute/value pair of a multi-fact record.
// Entity and Attribute combine into the keyword :entity/attribute.
type Fact struct {
	Entity    string
	Attribute string
	Value     any
}

// Append adds an attribute definition to the body.
func (t *Transaction) Append(attr *schema.Attribute) *Transaction {
	if err := checkAttribute("tx.Append", attr); err != nil {
		return t.fail(err)
	}
	return t.push(attributeElem{attr: attr})
}

// AppendAt replaces the element at index with attr. An index equal to
// the current length appends.
func (t *Transaction) AppendAt(index int, attr *schema.Attribute) *Transaction {
	if err := checkAttribute("tx.AppendAt", attr); err != nil {
		return t.fail(err)
	}
	b := t.mutable()
	if index < 0 || index > len(b.elems) {
		return t.fail(errs.Validation("tx.AppendAt", errs.ErrWrongType, "index %d is out of range [0, %d]", index, len(b.elems)))
	}
	if index == len(b.elems) {
		return t.push(attributeElem{attr: attr})
	}
	elems := make([]element, len(b.elems))
	copy(elems, b.elems)
	elems[index] = attributeElem{attr: attr}
	t.body = built{elems: elems}
	return t
}

func checkAttribute(tag string, attr *schema.Attribute) error {
	if attr == nil {
		return errs.Validation(tag, errs.ErrSequence, "argument must be a valid schema.Attribute")
	}
	if attr.Err() != nil {
		return errs.Validation(tag, errs.ErrSequence, "argument must be a valid schema.Attribute: %v", attr.Err())
	}
	return nil
}

// Add appends [:db/add #db/id [:db.part/user <tempID>] :entity/attribute value].
// Time values render as #inst "YYYY-MM-DD". At most one tempID may be given.
func (t *Transaction) Add(entity, attribute string, value any, tempID ...int64) *Transaction {
	return t.addOrRetract("tx.Add", opAdd, entity, attribute, value, tempID)
}

// Retract appends a :db/retract operation shaped like Add.
func (t *Transaction) Retract(entity, attribute string, value any, tempID ...int64) *Transaction {
	return t.addOrRetract("tx.Retract", opRetract, entity, attribute, value, tempID)
}

func (t *Transaction) addOrRetract(tag, op, entity, attribute string, value any, tempID []int64) *Transaction {
	if entity == "" {
		return t.fail(errs.Validation(tag, errs.ErrMissingArgument, "entityName must be a non-empty string"))
	}
	if attribute == "" {
		return t.fail(errs.Validation(tag, errs.ErrMissingArgument, "attributeName must be a non-empty string"))
	}
	if value == nil {
		return t.fail(errs.Validation(tag, errs.ErrMissingArgument, "value argument cannot be null"))
	}
	if len(tempID) > 1 {
		return t.fail(errs.Validation(tag, errs.ErrWrongType, "tempId argument must be a single integer"))
	}
	v, err := edn.FromGo(value)
	if err != nil {
		return t.fail(errs.Validation(tag, errs.ErrWrongType, "value argument has unsupported type %T", value))
	}
	vec := edn.Vec(
		edn.Keyword(op),
		userID(tempID),
		edn.Keyword(entity+"/"+attribute),
		v,
	)
	return t.push(opElem{vec: vec})
}

// AddMany appends one record that accretes every fact onto a single new
// entity: {:db/id #db/id [:db.part/user] :e/a v ...}.
func (t *Transaction) AddMany(facts ...Fact) *Transaction {
	return t.addMany(nil, facts)
}

// AddManyWithTempID is AddMany with an explicit temp-id, so other
// operations in the same transaction can refer to the new entity.
func (t *Transaction) AddManyWithTempID(tempID int64, facts ...Fact) *Transaction {
	return t.addMany([]int64{tempID}, facts)
}

func (t *Transaction) addMany(tempID []int64, facts []Fact) *Transaction {
	if len(facts) == 0 {
		return t.fail(errs.Validation("tx.AddMany", errs.ErrMissingArgument, "expects at least one fact"))
	}
	record := edn.NewMap().Set(edn.Keyword("db/id"), userID(tempID))
	for _, f := range facts {
		if f.Entity == "" || f.Attribute == "" {
			return t.fail(errs.Validation("tx.AddMany", errs.ErrMissingArgument, "was given a fact with an empty entity or attribute"))
		}
		v, err := edn.FromGo(f.Value)
		if err != nil {
			return t.fail(errs.Validation("tx.AddMany", errs.ErrWrongType, "value for %s/%s has unsupported type %T", f.Entity, f.Attribute, f.Value))
		}
		record.Set(edn.Keyword(f.Entity+"/"+f.Attribute), v)
	}
	return t.push(recordElem{m: record})
}

// userID builds #db/id [:db.part/user] or #db/id [:db.part/user <n>].
func userID(tempID []int64) edn.Tagged {
	vec := edn.Vec(edn.Keyword("db.part/user"))
	if len(tempID) > 0 {
		vec = append(vec, edn.Int(tempID[0]))
	}
	return edn.Tag("db/id", vec)
}
