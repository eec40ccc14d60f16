package edn

// Codec converts between EDN values and wire text.
// Builders hold one by composition so tests can observe or replace it.
type Codec interface {
	Encode(v Value) string
	Parse(text string) ([]Value, error)
}

// Standard is the package codec.
type Standard struct{}

// Encode implements Codec.
func (Standard) Encode(v Value) string { return Encode(v) }

// Parse implements Codec.
func (Standard) Parse(text string) ([]Value, error) { return Parse(text) }

// Normalize parses text and re-encodes every form, concatenated with no
// separator. It canonicalizes whitespace, commas and comments.
func Normalize(c Codec, text string) (string, error) {
	vals, err := c.Parse(text)
	if err != nil {
		return "", err
	}
	var out string
	for _, v := range vals {
		out += c.Encode(v)
	}
	return out, nil
}
