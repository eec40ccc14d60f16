package edn

import (
	"math"
	"strconv"
	"strings"
)

// Encode renders v in compact EDN form.
//
// Collections separate their elements with single spaces, tagged
// literals put one space between the tag and the value, and strings
// escape only quote, backslash and control whitespace.
func Encode(v Value) string {
	var b strings.Builder
	encode(&b, v)
	return b.String()
}

// EncodeAll renders every value and concatenates them with no separator.
func EncodeAll(vals []Value) string {
	var b strings.Builder
	for _, v := range vals {
		encode(&b, v)
	}
	return b.String()
}

func encode(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case Bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case BigInt:
		b.WriteString(string(val))
		b.WriteByte('N')
	case Float:
		b.WriteString(formatFloat(float64(val)))
	case BigDec:
		b.WriteString(string(val))
		b.WriteByte('M')
	case String:
		writeString(b, string(val))
	case Char:
		writeChar(b, rune(val))
	case Keyword:
		b.WriteByte(':')
		b.WriteString(string(val))
	case Symbol:
		b.WriteString(string(val))
	case Tagged:
		b.WriteByte('#')
		b.WriteString(val.Tag)
		b.WriteByte(' ')
		encode(b, val.Value)
	case Vector:
		writeSeq(b, "[", "]", val)
	case List:
		writeSeq(b, "(", ")", val)
	case Set:
		writeSeq(b, "#{", "}", val)
	case *Map:
		b.WriteByte('{')
		first := true
		val.Each(func(k, v Value) {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			encode(b, k)
			b.WriteByte(' ')
			encode(b, v)
		})
		b.WriteByte('}')
	}
}

func writeSeq(b *strings.Builder, open, close string, vals []Value) {
	b.WriteString(open)
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		encode(b, v)
	}
	b.WriteString(close)
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

var charNames = map[rune]string{
	'\n': "newline",
	'\r': "return",
	' ':  "space",
	'\t': "tab",
}

func writeChar(b *strings.Builder, r rune) {
	b.WriteByte('\\')
	if name, ok := charNames[r]; ok {
		b.WriteString(name)
		return
	}
	b.WriteRune(r)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "##NaN"
	case math.IsInf(f, 1):
		return "##Inf"
	case math.IsInf(f, -1):
		return "##-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
