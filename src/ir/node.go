// Package ir holds the syntax tree and symbol-table types shared by the
// parser (which builds them) and the code generator (which walks them
// read-only). Nodes are a plain pointer graph, exclusively owned by their
// parent — Go's garbage collector resolves the lifetime question the design
// notes raise for a non-GC systems re-implementation, so no separate node
// arena is needed here.
package ir

import (
	"fmt"

	"vslc/src/frontend"
)

// Kind is the closed enumeration of syntax tree node kinds.
type Kind int

const (
	MODULE Kind = iota
	CONSTANT
	TYPE
	SYMBOL
	UNARY_OP
	BINARY_OP
	CALL
	FUNCTION
	BLOCK
	ASSIGNMENT
	IF_ELSE
	WHILE
	RETURN
	BREAK
)

var kindNames = [...]string{
	MODULE:     "MODULE",
	CONSTANT:   "CONSTANT",
	TYPE:       "TYPE",
	SYMBOL:     "SYMBOL",
	UNARY_OP:   "UNARY_OP",
	BINARY_OP:  "BINARY_OP",
	CALL:       "CALL",
	FUNCTION:   "FUNCTION",
	BLOCK:      "BLOCK",
	ASSIGNMENT: "ASSIGNMENT",
	IF_ELSE:    "IF_ELSE",
	WHILE:      "WHILE",
	RETURN:     "RETURN",
	BREAK:      "BREAK",
}

// String renders k for diagnostics and tree dumps.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is a single syntax tree node. Child arity per Kind is fixed by
// spec.md §3's table and enforced by the parser, never by this type.
type Node struct {
	Kind     Kind
	Tok      frontend.Token // originating token
	Children []*Node        // exclusively owned
	Scope    *SymTab        // non-owning: the scope this node was parsed in

	// Sym is the resolved symbol-table entry this node refers to, set at
	// parse time so the generator never re-resolves a name by text:
	// - SYMBOL nodes used as a plain reference (identifier expression,
	//   assignment target, declared name): the declared/ referenced Symbol.
	// - CALL nodes: the callee Symbol.
	// - FUNCTION nodes: the function's own Symbol.
	Sym *Symbol

	// Value holds the parsed literal for CONSTANT nodes.
	Value int32
}

// Print writes a depth-indented dump of the subtree rooted at n, mirroring
// the teacher repository's Node.Print debugging aid (wired to the CLI
// driver's --dump-tree flag).
func (n *Node) Print(w fmtWriter, depth int) {
	if n == nil {
		fmt.Fprintf(w, "%*s<nil>\n", depth*2, "")
		return
	}
	switch n.Kind {
	case CONSTANT:
		fmt.Fprintf(w, "%*s%s [%d]\n", depth*2, "", n.Kind, n.Value)
	case BINARY_OP, UNARY_OP:
		fmt.Fprintf(w, "%*s%s [%s]\n", depth*2, "", n.Kind, n.Tok.Text)
	case SYMBOL, CALL, TYPE:
		fmt.Fprintf(w, "%*s%s [%s]\n", depth*2, "", n.Kind, n.Tok.Text)
	default:
		fmt.Fprintf(w, "%*s%s\n", depth*2, "", n.Kind)
	}
	for _, c := range n.Children {
		c.Print(w, depth+1)
	}
}

// fmtWriter is the minimal interface Print needs; satisfied by *strings.Builder
// and os.Stdout alike without importing io here for just one method.
type fmtWriter interface {
	Write(p []byte) (int, error)
}
