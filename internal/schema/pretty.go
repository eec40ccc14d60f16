package schema

import (
	"strings"

	"github.com/roach88/patomic/internal/edn"
)

// Pretty renders the definition one field per line, the way attribute
// definitions are usually laid out in documentation:
//
//	{:db/id #db/id[:db.part/db]
//	 :db/ident :community/name
//	 :db.install/_attribute :db.part/db}
func (a *Attribute) Pretty() string {
	var b strings.Builder
	last := a.fields.Len() - 1
	i := 0
	b.WriteByte('{')
	a.fields.Each(func(k, v edn.Value) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.codec.Encode(k))
		b.WriteByte(' ')
		b.WriteString(a.prettyValue(v))
		if i == last {
			b.WriteByte('}')
		} else {
			b.WriteByte('\n')
		}
		i++
	})
	return b.String()
}

// prettyValue drops the space between a tag and its vector.
func (a *Attribute) prettyValue(v edn.Value) string {
	tagged, ok := v.(edn.Tagged)
	if !ok {
		return a.codec.Encode(v)
	}
	vec, ok := tagged.Value.(edn.Vector)
	if !ok {
		return a.codec.Encode(v)
	}
	return "#" + tagged.Tag + a.codec.Encode(vec)
}
