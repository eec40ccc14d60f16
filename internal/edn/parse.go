package edn

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports malformed EDN text.
type SyntaxError struct {
	Offset int    // byte offset into the input
	Msg    string // what went wrong
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("edn: %s at offset %d", e.Msg, e.Offset)
}

// Parse reads every top-level form in text.
// Empty or comment-only input is an error.
func Parse(text string) ([]Value, error) {
	p := &parser{src: text}
	var out []Value
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		v, ok, err := p.form()
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, &SyntaxError{Offset: p.pos, Msg: "no forms in input"}
	}
	return out, nil
}

// ParseOne reads text that must contain exactly one form.
func ParseOne(text string) (Value, error) {
	vals, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(vals) != 1 {
		return nil, &SyntaxError{Offset: 0, Msg: fmt.Sprintf("expected one form, found %d", len(vals))}
	}
	return vals[0], nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) fail(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			p.pos++
		case c == ';':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if !unicode.IsSpace(r) {
				return
			}
			p.pos += size
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', ',', '(', ')', '[', ']', '{', '}', '"', ';':
		return true
	}
	return false
}

// token reads a run of non-delimiter bytes.
func (p *parser) token() string {
	start := p.pos
	for !p.eof() && !isDelimiter(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// form reads one form. ok is false when the form was discarded with #_.
func (p *parser) form() (Value, bool, error) {
	c := p.src[p.pos]
	switch c {
	case '(':
		p.pos++
		vals, err := p.seq(')')
		return List(vals), true, err
	case '[':
		p.pos++
		vals, err := p.seq(']')
		return Vector(vals), true, err
	case '{':
		p.pos++
		m, err := p.mapBody()
		return m, true, err
	case ')', ']', '}':
		return nil, false, p.fail("unexpected %q", c)
	case '"':
		s, err := p.str()
		return s, true, err
	case '\\':
		ch, err := p.char()
		return ch, true, err
	case ':':
		p.pos++
		name := p.token()
		if name == "" || name == ":" {
			return nil, false, p.fail("empty keyword")
		}
		return Keyword(name), true, nil
	case '#':
		return p.dispatch()
	case '^':
		return nil, false, p.fail("metadata is not supported")
	}
	if isNumberStart(p.src[p.pos:]) {
		v, err := p.number()
		return v, true, err
	}
	start := p.pos
	tok := p.token()
	if tok == "" {
		return nil, false, p.fail("unexpected %q", c)
	}
	switch tok {
	case "nil":
		return Nil{}, true, nil
	case "true":
		return Bool(true), true, nil
	case "false":
		return Bool(false), true, nil
	}
	if strings.ContainsAny(tok[:1], "#'") {
		p.pos = start
		return nil, false, p.fail("invalid symbol %q", tok)
	}
	return Symbol(tok), true, nil
}

func (p *parser) seq(closer byte) ([]Value, error) {
	vals := []Value{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.fail("unterminated collection, expected %q", closer)
		}
		c := p.src[p.pos]
		if c == closer {
			p.pos++
			return vals, nil
		}
		if c == ')' || c == ']' || c == '}' {
			return nil, p.fail("mismatched %q, expected %q", c, closer)
		}
		v, ok, err := p.form()
		if err != nil {
			return nil, err
		}
		if ok {
			vals = append(vals, v)
		}
	}
}

func (p *parser) mapBody() (*Map, error) {
	vals, err := p.seq('}')
	if err != nil {
		return nil, err
	}
	if len(vals)%2 != 0 {
		return nil, p.fail("map literal has an odd number of forms")
	}
	m := NewMap()
	for i := 0; i < len(vals); i += 2 {
		m.Set(vals[i], vals[i+1])
	}
	return m, nil
}

func (p *parser) dispatch() (Value, bool, error) {
	p.pos++ // #
	if p.eof() {
		return nil, false, p.fail("lone #")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		p.pos++
		vals, err := p.seq('}')
		return Set(vals), true, err
	case c == '_':
		p.pos++
		p.skipSpace()
		if p.eof() {
			return nil, false, p.fail("#_ without a form")
		}
		_, _, err := p.form()
		return nil, false, err
	case c == '#':
		p.pos++
		switch tok := p.token(); tok {
		case "NaN":
			return Float(math.NaN()), true, nil
		case "Inf":
			return Float(math.Inf(1)), true, nil
		case "-Inf":
			return Float(math.Inf(-1)), true, nil
		default:
			return nil, false, p.fail("unknown symbolic value ##%s", tok)
		}
	case isAlpha(c):
		tag := p.token()
		p.skipSpace()
		if p.eof() {
			return nil, false, p.fail("tagged literal #%s has no value", tag)
		}
		v, ok, err := p.form()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, p.fail("tagged literal #%s has no value", tag)
		}
		return Tagged{Tag: tag, Value: v}, true, nil
	default:
		return nil, false, p.fail("invalid dispatch #%c", c)
	}
}

func (p *parser) str() (Value, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.eof() {
			p.pos = start
			return nil, p.fail("unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return String(b.String()), nil
		case '\\':
			p.pos++
			if p.eof() {
				p.pos = start
				return nil, p.fail("unterminated string")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'u':
				if p.pos+4 > len(p.src) {
					return nil, p.fail("short unicode escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
				if err != nil {
					return nil, p.fail("invalid unicode escape")
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				return nil, p.fail("invalid escape \\%c", esc)
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) char() (Value, error) {
	p.pos++ // backslash
	if p.eof() {
		return nil, p.fail("empty character literal")
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	rest := p.token()
	if rest == "" {
		return Char(r), nil
	}
	name := string(r) + rest
	for c, n := range charNames {
		if n == name {
			return Char(c), nil
		}
	}
	if r == 'u' && len(rest) == 4 {
		n, err := strconv.ParseUint(rest, 16, 32)
		if err == nil {
			return Char(rune(n)), nil
		}
	}
	return nil, p.fail("unknown character literal \\%s", name)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumberStart(s string) bool {
	if isDigit(s[0]) {
		return true
	}
	return (s[0] == '+' || s[0] == '-') && len(s) > 1 && isDigit(s[1])
}

func (p *parser) number() (Value, error) {
	start := p.pos
	tok := p.token()
	switch {
	case strings.HasSuffix(tok, "N"):
		digits := strings.TrimPrefix(tok[:len(tok)-1], "+")
		if !allDigits(strings.TrimPrefix(digits, "-")) {
			p.pos = start
			return nil, p.fail("invalid integer %q", tok)
		}
		return BigInt(digits), nil
	case strings.HasSuffix(tok, "M"):
		digits := strings.TrimPrefix(tok[:len(tok)-1], "+")
		if _, err := strconv.ParseFloat(digits, 64); err != nil {
			p.pos = start
			return nil, p.fail("invalid decimal %q", tok)
		}
		return BigDec(digits), nil
	case strings.ContainsAny(tok, ".eE"):
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			p.pos = start
			return nil, p.fail("invalid float %q", tok)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		trimmed := strings.TrimPrefix(tok, "+")
		if allDigits(strings.TrimPrefix(trimmed, "-")) {
			return BigInt(trimmed), nil
		}
		p.pos = start
		return nil, p.fail("invalid integer %q", tok)
	}
	return Int(n), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
