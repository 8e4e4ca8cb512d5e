package ir

import (
	"fmt"
	"io"
	"strings"
)

// levelSpaces is the indentation step used by Dump.
const levelSpaces = 2

// Format renders e on one line: operands by name, A^T, A^-1, and fully
// parenthesized products such as ((A^T * A) * B).
func Format(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Operand:
		sb.WriteString(n.name)
	case *Unary:
		// Products already carry their own parentheses.
		writeExpr(sb, n.child)
		if n.op == OpTranspose {
			sb.WriteString("^T")
		} else {
			sb.WriteString("^-1")
		}
	case *Binary:
		sb.WriteByte('(')
		writeExpr(sb, n.left)
		sb.WriteString(" * ")
		writeExpr(sb, n.right)
		sb.WriteByte(')')
	case *Nary:
		sb.WriteByte('(')
		for i, c := range n.children {
			if i > 0 {
				sb.WriteString(" * ")
			}
			writeExpr(sb, c)
		}
		sb.WriteByte(')')
	}
}

// Dump writes an indented tree of e to w, one node per line. Operands show
// their shape and declared properties.
func Dump(w io.Writer, e Expr) error {
	return dump(w, e, 0)
}

func dump(w io.Writer, e Expr, level int) error {
	pad := strings.Repeat(" ", level)
	switch n := e.(type) {
	case *Operand:
		_, err := fmt.Fprintf(w, "%s%s [%s] [%s]\n", pad, n.name, n.props, n.shape)
		return err
	case *Unary:
		if _, err := fmt.Fprintf(w, "%s%s\n", pad, n.op); err != nil {
			return err
		}
		return dump(w, n.child, level+levelSpaces)
	case *Binary:
		if _, err := fmt.Fprintf(w, "%s%s\n", pad, n.op); err != nil {
			return err
		}
		if err := dump(w, n.left, level+levelSpaces); err != nil {
			return err
		}
		return dump(w, n.right, level+levelSpaces)
	case *Nary:
		if _, err := fmt.Fprintf(w, "%sn%s\n", pad, n.op); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := dump(w, c, level+levelSpaces); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintf(w, "%s<nil>\n", pad)
		return err
	}
}
