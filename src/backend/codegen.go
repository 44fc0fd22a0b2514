package backend

import (
	"vslc/src/frontend"
	"vslc/src/ir"
	"vslc/src/util"
)

// Generator lowers a MODULE tree into an Image. It never re-resolves a
// name: every SYMBOL/CALL/FUNCTION node already carries the *ir.Symbol the
// parser attached to it.
type Generator struct {
	img     *Image
	root    *ir.SymTab
	iputSym *ir.Symbol
	igetSym *ir.Symbol

	// callFixups collects one entry per call site targeting a user-defined
	// function: the address of the CALL's first operand word, and the
	// callee symbol whose Address isn't known to be final until every
	// function has been emitted (a call to a function defined later in the
	// module is emitted before that function's own genFunction call sets
	// its Address). Patched in a second pass once generation is complete,
	// the same two-phase link already used to resolve main's address.
	callFixups []callFixup
}

type callFixup struct {
	operandAddr int32
	callee      *ir.Symbol
}

// breakList is the fix-up list a while loop hands down to its body: each
// break statement appends the address of its own JMP's operand word, and
// the enclosing while patches every address in the list once the loop's
// exit point is known. This replaces the brittle sentinel-scan approach
// (emit a 0xFFFFFFFF placeholder pair and scan for it later) with direct
// bookkeeping — the preferred redesign.
type breakList struct {
	patches []int32
}

// Generate lowers mod into a fresh Image. Word 0 is a CALL to main's
// address (resolved only after every function has been emitted), word 3
// is HALT; function bodies follow starting at word 4.
func Generate(mod *ir.Node, root *ir.SymTab) (*Image, error) {
	g := &Generator{img: NewImage(), root: root}
	g.iputSym, _ = root.Lookup("iput")
	g.igetSym, _ = root.Lookup("iget")

	g.img.Emit2(CALL, 0, 0) // entry stub, patched once main is found
	g.img.Emit0(HALT)

	for _, child := range mod.Children {
		if child.Kind != ir.FUNCTION {
			// A module-level declaration: parses and resolves fine, but
			// this VM has no addressable global memory segment, so it
			// receives no storage and generates no code.
			continue
		}
		if err := g.genFunction(child); err != nil {
			return nil, err
		}
	}

	main, ok := root.Lookup("main")
	if !ok || main.Kind != ir.FUNC_SYM || main.Nargs != 0 {
		return nil, util.NewCodegenError("no entry point")
	}
	g.img.Patch(1, main.Address)

	for _, fx := range g.callFixups {
		g.img.Patch(fx.operandAddr, fx.callee.Address)
	}
	return g.img, nil
}

// genFunction emits one function: a locals prelude, its statements, and a
// trailing RET if the body doesn't already end in one.
func (g *Generator) genFunction(fn *ir.Node) error {
	body := fn.Children[2]
	fn.Sym.Address = g.img.Addr()

	g.emitLocalsPrelude(body)

	for _, stmt := range body.Children {
		if stmt.Kind == ir.TYPE {
			continue // slot already reserved by the prelude walk
		}
		if err := g.genStatement(stmt, nil); err != nil {
			return err
		}
	}

	if g.img.Addr() == 0 || g.img.ReadWord(g.img.Addr()-1) != int32(RET) {
		g.img.Emit0(RET)
	}
	return nil
}

// emitLocalsPrelude walks body depth-first, pre-order, through every
// nested block/if/while, emitting one CONST 0 per VARIABLE declaration it
// finds — regardless of nesting depth — so every local in the function
// gets a slot in one contiguous slab at function entry.
func (g *Generator) emitLocalsPrelude(n *ir.Node) {
	switch n.Kind {
	case ir.BLOCK:
		for _, c := range n.Children {
			g.emitLocalsPrelude(c)
		}
	case ir.TYPE:
		for _, sym := range n.Children {
			if sym.Sym.Kind == ir.VAR_SYM {
				g.img.Emit1(CONST, 0)
			}
		}
	case ir.IF_ELSE:
		g.emitLocalsPrelude(n.Children[1])
		if len(n.Children) > 2 {
			g.emitLocalsPrelude(n.Children[2])
		}
	case ir.WHILE:
		g.emitLocalsPrelude(n.Children[1])
	}
}

// genStatement lowers one statement. brk is non-nil only while inside a
// while's body, and is where BREAK appends its fix-up address.
func (g *Generator) genStatement(n *ir.Node, brk *breakList) error {
	switch n.Kind {
	case ir.BLOCK:
		for _, c := range n.Children {
			if c.Kind == ir.TYPE {
				continue
			}
			if err := g.genStatement(c, brk); err != nil {
				return err
			}
		}
		return nil
	case ir.TYPE:
		return nil
	case ir.ASSIGNMENT:
		return g.genAssignment(n)
	case ir.CALL:
		if err := g.genCall(n); err != nil {
			return err
		}
		// No void type exists in the language: every call leaves exactly
		// one value on the stack, so a call used as a bare statement must
		// discard it to keep the stack balanced across loop iterations.
		g.img.Emit0(DROP)
		return nil
	case ir.IF_ELSE:
		return g.genIfElse(n, brk)
	case ir.WHILE:
		return g.genWhile(n)
	case ir.RETURN:
		return g.genReturn(n)
	case ir.BREAK:
		if brk == nil {
			return util.NewCodegenError("break outside any while")
		}
		addr := g.img.Emit1(JMP, 0)
		brk.patches = append(brk.patches, addr+1)
		return nil
	default:
		return util.NewCodegenError("malformed tree node in statement position: %s", n.Kind)
	}
}

func (g *Generator) genAssignment(n *ir.Node) error {
	target := n.Children[0]
	rhs := n.Children[1]
	if target.Sym.Kind != ir.VAR_SYM {
		return util.NewCodegenError("cannot assign to %s %q", target.Sym.Kind, target.Sym.Name)
	}
	if err := g.genExpr(rhs); err != nil {
		return err
	}
	g.img.Emit1(STORE, int32(target.Sym.LocalIndex))
	return nil
}

// genIfElse emits: cond, IFZERO K, then-code, [JMP M, else-code]. K skips
// past the then-block (plus the two words of a trailing JMP when an else
// branch exists); M is the else-block's length. Both are measured from
// the word following their own jump's operand, matching plain JMP/IFZERO
// displacement semantics.
func (g *Generator) genIfElse(n *ir.Node, brk *breakList) error {
	cond := n.Children[0]
	then := n.Children[1]
	var els *ir.Node
	if len(n.Children) > 2 {
		els = n.Children[2]
	}

	if err := g.genExpr(cond); err != nil {
		return err
	}
	ifzeroAddr := g.img.Emit1(IFZERO, 0)

	thenStart := g.img.Addr()
	if err := g.genStatement(then, brk); err != nil {
		return err
	}
	thenLen := g.img.Addr() - thenStart

	if els == nil {
		g.img.Patch(ifzeroAddr+1, thenLen)
		return nil
	}

	jmpAddr := g.img.Emit1(JMP, 0)
	elseStart := g.img.Addr()
	if err := g.genStatement(els, brk); err != nil {
		return err
	}
	elseLen := g.img.Addr() - elseStart

	g.img.Patch(jmpAddr+1, elseLen)
	g.img.Patch(ifzeroAddr+1, thenLen+2)
	return nil
}

// genWhile emits: cond, IFZERO (exit), body, JMP (back to cond). Every
// jump target is computed from concrete addresses rather than a word-count
// formula, so the displacement is correct by construction regardless of
// how many words the condition or body occupy. Breaks collected in the
// body's fix-up list are patched to the same exit point as a false
// condition.
func (g *Generator) genWhile(n *ir.Node) error {
	cond := n.Children[0]
	body := n.Children[1]

	condStart := g.img.Addr()
	if err := g.genExpr(cond); err != nil {
		return err
	}
	ifzeroAddr := g.img.Emit1(IFZERO, 0)

	brk := &breakList{}
	if err := g.genStatement(body, brk); err != nil {
		return err
	}

	jmpBackAddr := g.img.Emit1(JMP, 0)
	loopEnd := g.img.Addr()

	g.img.Patch(jmpBackAddr+1, condStart-(jmpBackAddr+2))
	g.img.Patch(ifzeroAddr+1, loopEnd-(ifzeroAddr+2))
	for _, p := range brk.patches {
		g.img.Patch(p, loopEnd-(p+1))
	}
	return nil
}

// genReturn follows the grammar: its operand is an additive "expression",
// never a full logical "condition".
func (g *Generator) genReturn(n *ir.Node) error {
	if err := g.genExpr(n.Children[0]); err != nil {
		return err
	}
	g.img.Emit0(RET)
	return nil
}

// genExpr lowers an expression post-order: operands first, operator last.
func (g *Generator) genExpr(n *ir.Node) error {
	switch n.Kind {
	case ir.CONSTANT:
		g.img.Emit1(CONST, n.Value)
		return nil
	case ir.SYMBOL:
		switch n.Sym.Kind {
		case ir.ARG_SYM:
			g.img.Emit1(ARG, int32(n.Sym.LocalIndex))
		case ir.VAR_SYM:
			g.img.Emit1(LOAD, int32(n.Sym.LocalIndex))
		default:
			return util.NewCodegenError("%s %q cannot be used as a value", n.Sym.Kind, n.Sym.Name)
		}
		return nil
	case ir.CALL:
		return g.genCall(n)
	case ir.UNARY_OP:
		if err := g.genExpr(n.Children[0]); err != nil {
			return err
		}
		op, err := unaryOpcode(n.Tok)
		if err != nil {
			return err
		}
		g.img.Emit0(op)
		return nil
	case ir.BINARY_OP:
		if err := g.genExpr(n.Children[0]); err != nil {
			return err
		}
		if err := g.genExpr(n.Children[1]); err != nil {
			return err
		}
		op, err := binaryOpcode(n.Tok)
		if err != nil {
			return err
		}
		g.img.Emit0(op)
		return nil
	default:
		return util.NewCodegenError("malformed tree node in expression position: %s", n.Kind)
	}
}

// genCall evaluates arguments left to right, then lowers the callee: the
// two builtins to their fixed syscalls, anything else to CALL. A call
// always leaves exactly one value on the stack, builtins included — iput
// has nothing meaningful to return, so it pushes a filler zero to keep
// that contract uniform for callers that use a call in expression
// position.
func (g *Generator) genCall(n *ir.Node) error {
	for _, arg := range n.Children {
		if err := g.genExpr(arg); err != nil {
			return err
		}
	}
	switch n.Sym {
	case g.iputSym:
		g.img.Emit1(SYSCALL, SyscallPutInt)
		g.img.Emit1(CONST, 0)
		return nil
	case g.igetSym:
		g.img.Emit1(SYSCALL, SyscallGetInt)
		return nil
	}
	if n.Sym.Kind != ir.FUNC_SYM {
		return util.NewCodegenError("%q is not a function", n.Sym.Name)
	}
	// n.Sym.Address isn't necessarily final yet: a call to a function
	// defined later in the module is emitted before that function's own
	// genFunction runs. Emit a placeholder and fix it up once every
	// function has been generated.
	addr := g.img.Emit2(CALL, 0, int32(len(n.Children)))
	g.callFixups = append(g.callFixups, callFixup{operandAddr: addr + 1, callee: n.Sym})
	return nil
}

func binaryOpcode(tok frontend.Token) (Opcode, error) {
	switch tok.Kind {
	case frontend.PLUS:
		return ADD, nil
	case frontend.MINUS:
		return SUB, nil
	case frontend.MULTIPLY:
		return MULTIPLY, nil
	case frontend.DIVIDE:
		return DIVIDE, nil
	case frontend.AND:
		return AND, nil
	case frontend.OR:
		return OR, nil
	case frontend.XOR:
		return XOR, nil
	case frontend.SHL:
		return SHL, nil
	case frontend.SHR:
		return SHR, nil
	case frontend.EQUAL:
		return EQ, nil
	case frontend.NOT_EQUAL:
		return NEQUAL, nil
	case frontend.GREATER:
		return GREATER, nil
	case frontend.GREATER_EQUAL:
		return GREQUAL, nil
	case frontend.LESS:
		return LESS, nil
	case frontend.LESS_EQUAL:
		return LSEQUAL, nil
	case frontend.LOGICAL_AND:
		return LAND, nil
	case frontend.LOGICAL_OR:
		return LOR, nil
	default:
		return 0, util.NewCodegenError("unmapped binary operator %q", tok.Text)
	}
}

func unaryOpcode(tok frontend.Token) (Opcode, error) {
	switch tok.Kind {
	case frontend.BIT_NOT:
		return NOT, nil
	case frontend.LOGICAL_NOT:
		return LNOT, nil
	default:
		return 0, util.NewCodegenError("unmapped unary operator %q", tok.Text)
	}
}
