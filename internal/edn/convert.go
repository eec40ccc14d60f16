package edn

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
)

// InstLayout is the date layout used for #inst literals.
const InstLayout = "2006-01-02"

// Inst wraps t in an #inst tagged literal formatted as YYYY-MM-DD.
func Inst(t time.Time) Tagged {
	return Tagged{Tag: "inst", Value: String(t.Format(InstLayout))}
}

// UUID wraps id in a #uuid tagged literal.
func UUID(id uuid.UUID) Tagged {
	return Tagged{Tag: "uuid", Value: String(id.String())}
}

// FromGo converts a Go value into an EDN value.
// Values that are already EDN pass through unchanged.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Nil{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return BigInt(fmt.Sprintf("%d", val)), nil
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return BigInt(fmt.Sprintf("%d", val)), nil
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case *big.Int:
		if val.IsInt64() {
			return Int(val.Int64()), nil
		}
		return BigInt(val.String()), nil
	case time.Time:
		return Inst(val), nil
	case *time.Time:
		if val == nil {
			return Nil{}, nil
		}
		return Inst(*val), nil
	case uuid.UUID:
		return UUID(val), nil
	case []any:
		vec := make(Vector, len(val))
		for i, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", i, err)
			}
			vec[i] = ev
		}
		return vec, nil
	case []string:
		vec := make(Vector, len(val))
		for i, s := range val {
			vec[i] = String(s)
		}
		return vec, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			ev, err := FromGo(val[k])
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			m.Set(Keyword(k), ev)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported type for edn: %T", v)
	}
}

// ToGo projects an EDN value onto plain Go types suitable for JSON output.
// Keywords keep their leading colon and tagged literals become
// single-entry maps keyed by "#tag".
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case BigInt:
		return string(val) + "N"
	case Float:
		return float64(val)
	case BigDec:
		return string(val) + "M"
	case String:
		return string(val)
	case Char:
		return string(rune(val))
	case Keyword:
		return ":" + string(val)
	case Symbol:
		return string(val)
	case Tagged:
		return map[string]any{"#" + val.Tag: ToGo(val.Value)}
	case Vector:
		return seqToGo(val)
	case List:
		return seqToGo(val)
	case Set:
		return seqToGo(val)
	case *Map:
		out := make(map[string]any, val.Len())
		val.Each(func(k, v Value) {
			key, ok := ToGo(k).(string)
			if !ok {
				key = Encode(k)
			}
			out[key] = ToGo(v)
		})
		return out
	}
	return nil
}

func seqToGo(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = ToGo(v)
	}
	return out
}
