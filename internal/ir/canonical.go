package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for an expression tree.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed plan identity.
//
// Node encoding:
//
//	operand:   {"kind":"operand","name":"A","properties":["FULL_RANK"],"ref":0,"shape":[20,20]}
//	transpose: {"child":...,"kind":"transpose"}
//	invert:    {"child":...,"kind":"invert"}
//	mul:       {"children":[l,r],"kind":"mul"}
//	nmul:      {"children":[...],"kind":"nmul"}
//
// Object keys are sorted by UTF-16 code units, strings are NFC normalized
// and nothing beyond quote, backslash and control characters is escaped.
//
// ref numbers distinct operands by first occurrence in a left-to-right
// walk. Repeated uses of one operand share a ref, so A^T A built from a
// single A encodes differently from the same text built from two operands
// that happen to share a name.
func MarshalCanonical(e Expr) ([]byte, error) {
	v, err := canonicalValue(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canonicalValue lowers a tree into maps, slices, strings and ints.
func canonicalValue(e Expr) (any, error) {
	l := lowering{refs: make(map[*Operand]int)}
	return l.lower(e)
}

type lowering struct {
	refs map[*Operand]int
}

func (l *lowering) ref(o *Operand) int {
	if k, ok := l.refs[o]; ok {
		return k
	}
	k := len(l.refs)
	l.refs[o] = k
	return k
}

func (l *lowering) lower(e Expr) (any, error) {
	switch n := e.(type) {
	case *Operand:
		if n == nil {
			break
		}
		props := make([]any, 0, n.props.Len())
		for _, p := range n.props.List() {
			props = append(props, p.String())
		}
		return map[string]any{
			"kind":       "operand",
			"name":       n.name,
			"ref":        l.ref(n),
			"shape":      []any{n.shape.Rows(), n.shape.Cols()},
			"properties": props,
		}, nil
	case *Unary:
		if n == nil {
			break
		}
		child, err := l.lower(n.child)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": n.op.String(), "child": child}, nil
	case *Binary:
		if n == nil {
			break
		}
		left, err := l.lower(n.left)
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		right, err := l.lower(n.right)
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		return map[string]any{"kind": "mul", "children": []any{left, right}}, nil
	case *Nary:
		if n == nil {
			break
		}
		cs := make([]any, len(n.children))
		for i, c := range n.children {
			v, err := l.lower(c)
			if err != nil {
				return nil, fmt.Errorf("children[%d]: %w", i, err)
			}
			cs[i] = v
		}
		return map[string]any{"kind": "nmul", "children": cs}, nil
	}
	return nil, fmt.Errorf("nil expression is forbidden in canonical JSON")
}

// MarshalCanonicalValue encodes plain values (map[string]any, []any, string,
// int, int64, bool) with the same rules as MarshalCanonical. Expressions
// nested inside are encoded as trees.
func MarshalCanonicalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return writeCanonical(buf, arr)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case Expr:
		tree, err := canonicalValue(val)
		if err != nil {
			return err
		}
		return writeCanonical(buf, tree)
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes s as an RFC 8785 string literal after NFC
// normalization. Only quote, backslash and U+0000..U+001F are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// compareKeysRFC8785 orders strings by UTF-16 code units.
// Go's string comparison uses UTF-8 bytes, which orders differently for
// characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
