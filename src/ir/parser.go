package ir

import (
	"strconv"

	"vslc/src/frontend"
	"vslc/src/util"
)

// Parser is a recursive-descent, LL(2) parser: every production looks at
// most two tokens ahead (declaration-vs-function at module scope,
// assignment-vs-call at statement scope) and resolves names against the
// symbol table as it goes, so the generator never re-resolves a name by
// text.
type Parser struct {
	toks         []frontend.Token
	pos          int
	root         *SymTab
	blockCounter int
}

// Parse lexes and parses src, returning the module's syntax tree and its
// root symbol table. The root scope is pre-seeded with the two builtin
// host functions, iput (arity 1) and iget (arity 0, reads one line of
// decimal input), before any user declaration is parsed.
func Parse(src string) (*Node, *SymTab, error) {
	toks, err := frontend.Lex(src)
	if err != nil {
		return nil, nil, err
	}
	p := &Parser{toks: toks, root: NewScope(nil, "module")}

	iput, _ := p.root.Declare("iput", FUNC_SYM)
	iput.Nargs = 1
	iget, _ := p.root.Declare("iget", FUNC_SYM)
	iget.Nargs = 0

	mod, err := p.parseModule()
	if err != nil {
		return nil, nil, err
	}
	return mod, p.root, nil
}

// ---------- token cursor ----------

func (p *Parser) cur() frontend.Token { return p.peek(0) }

func (p *Parser) peek(k int) frontend.Token {
	i := p.pos + k
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel
	}
	return p.toks[i]
}

func (p *Parser) advance() frontend.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k frontend.Kind) (frontend.Token, error) {
	if p.cur().Kind != k {
		return frontend.Token{}, util.NewParseError(p.cur().Row, p.cur().Col,
			"expected %s, found %s", k, p.cur())
	}
	return p.advance(), nil
}

// ---------- module level ----------

func (p *Parser) parseModule() (*Node, error) {
	var children []*Node
	for p.cur().Kind != frontend.EOF {
		n, err := p.parseDeclOrFunc()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return &Node{Kind: MODULE, Children: children, Scope: p.root}, nil
}

// parseDeclOrFunc disambiguates "int name (" (function) from "int name [,
// name]* ;" (declaration) with two tokens of lookahead.
func (p *Parser) parseDeclOrFunc() (*Node, error) {
	if p.cur().Kind != frontend.INT {
		return nil, util.NewParseError(p.cur().Row, p.cur().Col,
			"expected type keyword, found %s", p.cur())
	}
	if p.peek(1).Kind == frontend.IDENTIFIER && p.peek(2).Kind == frontend.LPAREN {
		return p.parseFunction()
	}
	return p.parseDeclaration(p.root)
}

// parseDeclaration parses "int a, b, c;", declaring each name as a
// VAR_SYM in scope. It is reused for both module-level and block-level
// declarations; the worked examples never distinguish the two, and the
// code generator, not the parser, decides what storage (if any) a
// declaration outside a function body receives.
func (p *Parser) parseDeclaration(scope *SymTab) (*Node, error) {
	typTok, err := p.expect(frontend.INT)
	if err != nil {
		return nil, err
	}

	var names []*Node
	for {
		idTok, err := p.expect(frontend.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		sym, err := scope.Declare(idTok.Text, VAR_SYM)
		if err != nil {
			return nil, util.NewSemanticError(idTok.Row, idTok.Col, "%s", err)
		}
		names = append(names, &Node{Kind: SYMBOL, Tok: idTok, Scope: scope, Sym: sym})

		if p.cur().Kind != frontend.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(frontend.SEMICOLON); err != nil {
		return nil, err
	}
	return &Node{Kind: TYPE, Tok: typTok, Children: names, Scope: scope}, nil
}

// parseFunction parses "int name ( [int a [, int b]*] ) block", declaring
// name as a FUNC_SYM in the module root and each argument as an ARG_SYM in
// the function's own scope. The function's top-level block does not open
// a further nested scope: it shares the function's scope directly, so
// argument and top-level local names collide the same way the symbol
// table's uniqueness invariant requires.
func (p *Parser) parseFunction() (*Node, error) {
	typTok, err := p.expect(frontend.INT)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(frontend.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	fnSym, err := p.root.Declare(nameTok.Text, FUNC_SYM)
	if err != nil {
		return nil, util.NewSemanticError(nameTok.Row, nameTok.Col, "%s", err)
	}
	fnScope := NewScope(p.root, nameTok.Text)

	if _, err := p.expect(frontend.LPAREN); err != nil {
		return nil, err
	}
	var args []*Node
	if p.cur().Kind != frontend.RPAREN {
		for {
			argTypTok, err := p.expect(frontend.INT)
			if err != nil {
				return nil, err
			}
			idTok, err := p.expect(frontend.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			sym, err := fnScope.Declare(idTok.Text, ARG_SYM)
			if err != nil {
				return nil, util.NewSemanticError(idTok.Row, idTok.Col, "%s", err)
			}
			symNode := &Node{Kind: SYMBOL, Tok: idTok, Scope: fnScope, Sym: sym}
			args = append(args, &Node{Kind: TYPE, Tok: argTypTok, Children: []*Node{symNode}, Scope: fnScope})

			if p.cur().Kind != frontend.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(frontend.RPAREN); err != nil {
		return nil, err
	}
	fnSym.Nargs = len(args)

	argList := &Node{Kind: SYMBOL, Tok: nameTok, Children: args, Scope: fnScope}
	retType := &Node{Kind: TYPE, Tok: typTok, Scope: fnScope}

	body, err := p.parseFunctionBody(fnScope)
	if err != nil {
		return nil, err
	}

	return &Node{
		Kind:     FUNCTION,
		Tok:      nameTok,
		Children: []*Node{retType, argList, body},
		Scope:    p.root,
		Sym:      fnSym,
	}, nil
}

// parseFunctionBody parses the '{' ... '}' directly following a function's
// argument list, using fnScope rather than opening a fresh child scope.
func (p *Parser) parseFunctionBody(fnScope *SymTab) (*Node, error) {
	open, err := p.expect(frontend.LBRACE)
	if err != nil {
		return nil, err
	}
	var stmts []*Node
	for p.cur().Kind != frontend.RBRACE {
		s, err := p.parseStatement(fnScope)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(frontend.RBRACE); err != nil {
		return nil, err
	}
	return &Node{Kind: BLOCK, Tok: open, Children: stmts, Scope: fnScope}, nil
}

// parseBlock parses a nested "{ statement* }", opening a fresh child scope
// named block<N> for a monotonically increasing N.
func (p *Parser) parseBlock(parent *SymTab) (*Node, error) {
	open, err := p.expect(frontend.LBRACE)
	if err != nil {
		return nil, err
	}
	scope := NewScope(parent, blockName(&p.blockCounter))

	var stmts []*Node
	for p.cur().Kind != frontend.RBRACE {
		s, err := p.parseStatement(scope)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(frontend.RBRACE); err != nil {
		return nil, err
	}
	return &Node{Kind: BLOCK, Tok: open, Children: stmts, Scope: scope}, nil
}

func blockName(counter *int) string {
	n := *counter
	*counter++
	return "block" + strconv.Itoa(n)
}

// ---------- statements ----------

func (p *Parser) parseStatement(scope *SymTab) (*Node, error) {
	switch p.cur().Kind {
	case frontend.LBRACE:
		return p.parseBlock(scope)
	case frontend.INT:
		return p.parseDeclaration(scope)
	case frontend.IF:
		return p.parseIfElse(scope)
	case frontend.WHILE:
		return p.parseWhile(scope)
	case frontend.RETURN:
		return p.parseReturn(scope)
	case frontend.BREAK:
		return p.parseBreak(scope)
	case frontend.IDENTIFIER:
		if p.peek(1).Kind == frontend.ASSIGN {
			return p.parseAssignment(scope)
		}
		if p.peek(1).Kind == frontend.LPAREN {
			call, err := p.parseCall(scope)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(frontend.SEMICOLON); err != nil {
				return nil, err
			}
			return call, nil
		}
		return nil, util.NewParseError(p.cur().Row, p.cur().Col,
			"expected assignment or call statement, found %s", p.cur())
	default:
		return nil, util.NewParseError(p.cur().Row, p.cur().Col,
			"unexpected token in statement position: %s", p.cur())
	}
}

func (p *Parser) parseIfElse(scope *SymTab) (*Node, error) {
	if _, err := p.expect(frontend.IF); err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition(scope)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement(scope)
	if err != nil {
		return nil, err
	}
	children := []*Node{cond, then}
	if p.cur().Kind == frontend.ELSE {
		p.advance()
		els, err := p.parseStatement(scope)
		if err != nil {
			return nil, err
		}
		children = append(children, els)
	}
	return &Node{Kind: IF_ELSE, Children: children, Scope: scope}, nil
}

func (p *Parser) parseWhile(scope *SymTab) (*Node, error) {
	if _, err := p.expect(frontend.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition(scope)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement(scope)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: WHILE, Children: []*Node{cond, body}, Scope: scope}, nil
}

// parseReturn follows the grammar literally: the operand is an
// "expression" (additive precedence), not a full "condition" — comparisons
// and logical operators are not reachable as a bare return operand.
func (p *Parser) parseReturn(scope *SymTab) (*Node, error) {
	if _, err := p.expect(frontend.RETURN); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(scope)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.SEMICOLON); err != nil {
		return nil, err
	}
	return &Node{Kind: RETURN, Children: []*Node{val}, Scope: scope}, nil
}

func (p *Parser) parseBreak(scope *SymTab) (*Node, error) {
	if _, err := p.expect(frontend.BREAK); err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.SEMICOLON); err != nil {
		return nil, err
	}
	return &Node{Kind: BREAK, Scope: scope}, nil
}

// parseAssignment only checks that the target name is bound somewhere
// visible; whether it names a VARIABLE (rather than a function or
// constant) is a code generation concern, not a parse concern.
func (p *Parser) parseAssignment(scope *SymTab) (*Node, error) {
	idTok, err := p.expect(frontend.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	sym, ok := scope.Lookup(idTok.Text)
	if !ok {
		return nil, util.NewSemanticError(idTok.Row, idTok.Col, "symbol not defined: %q", idTok.Text)
	}
	if _, err := p.expect(frontend.ASSIGN); err != nil {
		return nil, err
	}
	rhs, err := p.parseCondition(scope)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(frontend.SEMICOLON); err != nil {
		return nil, err
	}
	target := &Node{Kind: SYMBOL, Tok: idTok, Scope: scope, Sym: sym}
	return &Node{Kind: ASSIGNMENT, Children: []*Node{target, rhs}, Scope: scope}, nil
}

// ---------- expressions, precedence low to high:
// condition -> logical -> comparison -> expression -> term -> bitwise -> factor ----------

func (p *Parser) parseCondition(scope *SymTab) (*Node, error) {
	return p.parseLogical(scope)
}

func (p *Parser) parseLogical(scope *SymTab) (*Node, error) {
	lhs, err := p.parseComparison(scope)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == frontend.LOGICAL_AND || p.cur().Kind == frontend.LOGICAL_OR {
		op := p.advance()
		rhs, err := p.parseComparison(scope)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{lhs, rhs}, Scope: scope}
	}
	return lhs, nil
}

func (p *Parser) parseComparison(scope *SymTab) (*Node, error) {
	lhs, err := p.parseExpression(scope)
	if err != nil {
		return nil, err
	}
	for isComparisonOp(p.cur().Kind) {
		op := p.advance()
		rhs, err := p.parseExpression(scope)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{lhs, rhs}, Scope: scope}
	}
	return lhs, nil
}

func isComparisonOp(k frontend.Kind) bool {
	switch k {
	case frontend.EQUAL, frontend.NOT_EQUAL, frontend.GREATER, frontend.GREATER_EQUAL, frontend.LESS, frontend.LESS_EQUAL:
		return true
	}
	return false
}

func (p *Parser) parseExpression(scope *SymTab) (*Node, error) {
	lhs, err := p.parseTerm(scope)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == frontend.PLUS || p.cur().Kind == frontend.MINUS {
		op := p.advance()
		rhs, err := p.parseTerm(scope)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{lhs, rhs}, Scope: scope}
	}
	return lhs, nil
}

func (p *Parser) parseTerm(scope *SymTab) (*Node, error) {
	lhs, err := p.parseBitwise(scope)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == frontend.MULTIPLY || p.cur().Kind == frontend.DIVIDE {
		op := p.advance()
		rhs, err := p.parseBitwise(scope)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{lhs, rhs}, Scope: scope}
	}
	return lhs, nil
}

func (p *Parser) parseBitwise(scope *SymTab) (*Node, error) {
	lhs, err := p.parseFactor(scope)
	if err != nil {
		return nil, err
	}
	for isBitwiseOp(p.cur().Kind) {
		op := p.advance()
		rhs, err := p.parseFactor(scope)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{lhs, rhs}, Scope: scope}
	}
	return lhs, nil
}

func isBitwiseOp(k frontend.Kind) bool {
	switch k {
	case frontend.AND, frontend.OR, frontend.XOR, frontend.SHL, frontend.SHR:
		return true
	}
	return false
}

// parseFactor handles the optional unary prefix. Unary '-' lowers to a
// BINARY_OP subtracting the operand from a synthesized zero constant so
// the generator only ever needs binary ADD/SUB; unary '+' is identity and
// emits no node; '~' and '!' become UNARY_OP nodes.
func (p *Parser) parseFactor(scope *SymTab) (*Node, error) {
	switch p.cur().Kind {
	case frontend.BIT_NOT, frontend.LOGICAL_NOT:
		op := p.advance()
		operand, err := p.parseFactor(scope)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: UNARY_OP, Tok: op, Children: []*Node{operand}, Scope: scope}, nil
	case frontend.MINUS:
		op := p.advance()
		operand, err := p.parseFactor(scope)
		if err != nil {
			return nil, err
		}
		zero := &Node{Kind: CONSTANT, Tok: op, Value: 0, Scope: scope}
		return &Node{Kind: BINARY_OP, Tok: op, Children: []*Node{zero, operand}, Scope: scope}, nil
	case frontend.PLUS:
		p.advance()
		return p.parseFactor(scope)
	default:
		return p.parsePrimary(scope)
	}
}

func (p *Parser) parsePrimary(scope *SymTab) (*Node, error) {
	switch p.cur().Kind {
	case frontend.INTEGER:
		tok := p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return nil, util.NewParseError(tok.Row, tok.Col, "malformed integer literal %q", tok.Text)
		}
		return &Node{Kind: CONSTANT, Tok: tok, Value: int32(v), Scope: scope}, nil
	case frontend.LPAREN:
		p.advance()
		inner, err := p.parseCondition(scope)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(frontend.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case frontend.IDENTIFIER:
		if p.peek(1).Kind == frontend.LPAREN {
			return p.parseCall(scope)
		}
		tok := p.advance()
		sym, ok := scope.Lookup(tok.Text)
		if !ok {
			return nil, util.NewSemanticError(tok.Row, tok.Col, "symbol not defined: %q", tok.Text)
		}
		return &Node{Kind: SYMBOL, Tok: tok, Scope: scope, Sym: sym}, nil
	default:
		return nil, util.NewParseError(p.cur().Row, p.cur().Col, "unexpected token in expression: %s", p.cur())
	}
}

// parseCall parses "name ( [condition [, condition]*] )". Whether sym
// actually names a FUNCTION (rather than a variable) is checked at code
// generation time.
func (p *Parser) parseCall(scope *SymTab) (*Node, error) {
	nameTok, err := p.expect(frontend.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	sym, ok := scope.Lookup(nameTok.Text)
	if !ok {
		return nil, util.NewSemanticError(nameTok.Row, nameTok.Col, "symbol not defined: %q", nameTok.Text)
	}
	if _, err := p.expect(frontend.LPAREN); err != nil {
		return nil, err
	}
	var args []*Node
	if p.cur().Kind != frontend.RPAREN {
		for {
			arg, err := p.parseCondition(scope)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().Kind != frontend.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(frontend.RPAREN); err != nil {
		return nil, err
	}
	return &Node{Kind: CALL, Tok: nameTok, Children: args, Scope: scope, Sym: sym}, nil
}
