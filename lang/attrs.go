package lang

import (
	"bytes"
	"encoding/json"
	"iter"
	"strings"

	"github.com/goccy/go-yaml"
)

// Attrs is an ordered set of attribute key/value pairs.
//
// Keys are stored lower-case. Setting an existing key replaces its value
// but keeps its original position. The zero value is an empty set.
//
// Copies of an Attrs share storage; [Attrs.Clone] before modifying one.
type Attrs struct {
	keys []string
	vals map[string]string
}

// MakeAttrs builds an Attrs from alternating key, value arguments.
// A trailing key without a value is ignored.
func MakeAttrs(kv ...string) Attrs {
	var a Attrs
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], kv[i+1])
	}

	return a
}

func (a Attrs) Len() int { return len(a.keys) }

// Get returns the value of key and whether it is present.
func (a Attrs) Get(key string) (string, bool) {
	v, ok := a.vals[strings.ToLower(key)]

	return v, ok
}

// Value returns the value of key, or "" when it is absent.
func (a Attrs) Value(key string) string {
	v, _ := a.Get(key)

	return v
}

func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)

	return ok
}

// Set assigns value to key.
func (a *Attrs) Set(key, value string) {
	key = strings.ToLower(key)

	if a.vals == nil {
		a.vals = make(map[string]string)
	}

	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}

	a.vals[key] = value
}

// Delete removes key.
func (a *Attrs) Delete(key string) {
	key = strings.ToLower(key)
	if _, ok := a.vals[key]; !ok {
		return
	}

	delete(a.vals, key)

	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i:i], a.keys[i+1:]...)

			break
		}
	}
}

// Keys returns the keys in insertion order.
func (a Attrs) Keys() []string {
	return append([]string(nil), a.keys...)
}

// All iterates over the pairs in insertion order.
func (a Attrs) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range a.keys {
			if !yield(k, a.vals[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	var c Attrs
	for k, v := range a.All() {
		c.Set(k, v)
	}

	return c
}

// Under returns a copy of a with every key of base that a does not define
// added after a's own keys. Explicit values always win.
func (a Attrs) Under(base Attrs) Attrs {
	c := a.Clone()
	for k, v := range base.All() {
		if !c.Has(k) {
			c.Set(k, v)
		}
	}

	return c
}

// String renders the set in source syntax.
func (a Attrs) String() string {
	var sb strings.Builder

	for k, v := range a.All() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(quoteValue(v))
	}

	return sb.String()
}

// quoteValue quotes v when it would not survive tokenizing as a bare value.
func quoteValue(v string) string {
	switch {
	case v == "":
		return `""`
	case strings.Contains(v, `"`), strings.HasSuffix(v, ")"):
		return v
	case strings.ContainsAny(v, " \t\n"):
		return `"` + v + `"`
	default:
		return v
	}
}

// MarshalJSON encodes the set as an object in insertion order.
func (a Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		vb, err := json.Marshal(a.vals[k])
		if err != nil {
			return nil, err
		}

		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the set as a mapping in insertion order.
func (a Attrs) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, len(a.keys))
	for k, v := range a.All() {
		ms = append(ms, yaml.MapItem{Key: k, Value: v})
	}

	return ms, nil
}

// Tokenize scans raw for key:value tokens.
//
// A key is a run of letters, digits, '-' and '_' followed by ':'. A value is
// either a double-quoted string, taken verbatim, or a bare run of characters
// up to whitespace or a quote. Inside a bare value a '(' opens a group in
// which whitespace and quotes are kept until the matching ')'.
//
// Text that does not form a token is skipped. A value whose opening quote is
// never closed drops that token and scanning resumes after the quote.
func Tokenize(raw string) Attrs {
	var attrs Attrs

	for i, n := 0, len(raw); i < n; {
		if !isKeyByte(raw[i]) {
			i++

			continue
		}

		j := i
		for j < n && isKeyByte(raw[j]) {
			j++
		}

		if j >= n || raw[j] != ':' {
			i = j

			continue
		}

		key, k := raw[i:j], j+1

		if k < n && raw[k] == '"' {
			end := strings.IndexByte(raw[k+1:], '"')
			if end < 0 {
				i = k + 1

				continue
			}

			attrs.Set(key, raw[k+1:k+1+end])
			i = k + end + 2

			continue
		}

		m := scanBare(raw, k)
		if m > k {
			attrs.Set(key, raw[k:m])
		}

		i = m
	}

	return attrs
}

// scanBare returns the end offset of the bare value starting at i.
func scanBare(s string, i int) int {
	depth, quoted := 0, false

	for ; i < len(s); i++ {
		c := s[i]

		if depth > 0 {
			switch {
			case c == '"':
				quoted = !quoted
			case quoted:
			case c == '(':
				depth++
			case c == ')':
				depth--
			}

			continue
		}

		switch {
		case c == '(':
			depth++
		case c == '"', isSpace(c):
			return i
		}
	}

	return i
}

// ParseFunction splits a function attribute value of the form
// "name(body)" into its parts. A value missing the closing paren yields
// everything after the opening one as body. ok is false when value has no
// name or no opening paren.
func ParseFunction(value string) (name, body string, ok bool) {
	open := strings.IndexByte(value, '(')
	if open <= 0 {
		return "", "", false
	}

	name = strings.TrimSpace(value[:open])
	if !isSelector(name) {
		return "", "", false
	}

	body = value[open+1:]
	if end := strings.LastIndexByte(body, ')'); end >= 0 &&
		strings.TrimSpace(body[end+1:]) == "" {
		body = body[:end]
	}

	return strings.ToLower(name), body, true
}

func isKeyByte(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isLetter(c byte) bool { return (c|0x20) >= 'a' && (c|0x20) <= 'z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isSelector reports whether s is a letter followed by letters, digits, '-'
// and '_'.
func isSelector(s string) bool {
	if s == "" || !isLetter(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isKeyByte(s[i]) {
			return false
		}
	}

	return true
}
