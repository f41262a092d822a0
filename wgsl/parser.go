package wgsl

import (
	"fmt"
)

// Parser parses WGSL tokens into an AST.
type Parser struct {
	tokens  []Token
	current int
	last    Token
	split   *Token // remainder of a '>>'-style token split by a template close
	errors  SourceErrors

	file   string
	source string
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// WithSource records the file name stamped on every span and the source
// text used for error context.
func (p *Parser) WithSource(file, source string) *Parser {
	p.file = file
	p.source = source
	return p
}

// Parse parses the tokens and returns a Module AST. Declarations that fail
// to parse are skipped; all errors are returned together as SourceErrors.
func (p *Parser) Parse() (*Module, error) {
	module := &Module{}
	start := p.peek()

	for !p.isAtEnd() {
		decl, err := p.declaration(module)
		if err != nil {
			p.errors.Add(err)
			p.synchronize()
			continue
		}
		if decl != nil {
			module.Decls = append(module.Decls, decl)
		}
	}
	module.Span = Span{Start: start.Pos(), End: p.peek().Pos(), Source: p.file}

	if p.errors.HasErrors() {
		return module, p.errors
	}
	return module, nil
}

// declaration parses a top-level declaration or directive. Directives are
// recorded on module and yield a nil Decl.
func (p *Parser) declaration(module *Module) (Decl, *SourceError) {
	if p.match(TokenSemicolon) {
		return nil, nil
	}

	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}

	switch {
	case p.check(TokenFn):
		return p.functionDecl(attrs)
	case p.check(TokenStruct):
		return p.structDecl()
	case p.check(TokenVar):
		v, err := p.varDecl(attrs)
		return p.terminated(v, err)
	case p.check(TokenConst):
		c, err := p.constDecl()
		return p.terminated(c, err)
	case p.check(TokenLet):
		// Early WGSL allowed module-scope let; it behaves as const.
		c, err := p.letAsConst()
		return p.terminated(c, err)
	case p.check(TokenOverride):
		o, err := p.overrideDecl(attrs)
		return p.terminated(o, err)
	case p.check(TokenAlias):
		a, err := p.aliasDecl()
		return p.terminated(a, err)
	case p.check(TokenConstAssert):
		c, err := p.constAssert()
		return p.terminated(c, err)
	case p.check(TokenEnable):
		return nil, p.enableDirective(module)
	case p.check(TokenDiagnostic):
		return nil, p.diagnosticDirective(module)
	}
	return nil, p.errorAt(p.peek(), "unexpected %s, expected declaration", describe(p.peek()))
}

// terminated consumes the ';' that ends a simple declaration.
func (p *Parser) terminated(d Decl, err *SourceError) (Decl, *SourceError) {
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) enableDirective(module *Module) *SourceError {
	start := p.advance()
	enable := Enable{}
	for {
		name, err := p.expectIdent("extension name")
		if err != nil {
			return err
		}
		enable.Extensions = append(enable.Extensions, name.Lexeme)
		if !p.match(TokenComma) || p.check(TokenSemicolon) {
			break
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return err
	}
	enable.Span = p.spanFrom(start)
	module.Enables = append(module.Enables, enable)
	return nil
}

func (p *Parser) diagnosticDirective(module *Module) *SourceError {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return err
	}
	severity, err := p.expectIdent("diagnostic severity")
	if err != nil {
		return err
	}
	if err := p.expectErr(TokenComma); err != nil {
		return err
	}
	rule, err := p.expectIdent("diagnostic rule")
	if err != nil {
		return err
	}
	ruleName := rule.Lexeme
	if p.match(TokenDot) {
		sub, err := p.expectIdent("diagnostic rule")
		if err != nil {
			return err
		}
		ruleName += "." + sub.Lexeme
	}
	p.match(TokenComma)
	if err := p.expectErr(TokenRightParen); err != nil {
		return err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return err
	}
	module.Diagnostics = append(module.Diagnostics, DiagnosticDirective{
		Severity: severity.Lexeme,
		Rule:     ruleName,
		Span:     p.spanFrom(start),
	})
	return nil
}

// attributes parses a list of attributes (@location(0), @vertex, etc.)
func (p *Parser) attributes() ([]Attribute, *SourceError) {
	var attrs []Attribute

	for p.check(TokenAt) {
		start := p.advance()

		name := p.peek()
		switch name.Kind {
		case TokenIdent, TokenConst, TokenDiagnostic:
			p.advance()
		default:
			return nil, p.errorAt(name, "expected attribute name, got %s", describe(name))
		}

		attr := Attribute{Name: name.Lexeme}
		if p.match(TokenLeftParen) {
			for !p.check(TokenRightParen) && !p.isAtEnd() {
				arg, err := p.expression()
				if err != nil {
					return nil, err
				}
				attr.Args = append(attr.Args, arg)
				if !p.match(TokenComma) {
					break
				}
			}
			if err := p.expectErr(TokenRightParen); err != nil {
				return nil, err
			}
		}
		attr.Span = p.spanFrom(start)
		attrs = append(attrs, attr)
	}

	return attrs, nil
}

// functionDecl parses a function declaration.
func (p *Parser) functionDecl(attrs []Attribute) (*FunctionDecl, *SourceError) {
	start := p.advance() // fn
	name, err := p.expectIdent("function name")
	if err != nil {
		return nil, err
	}

	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	var params []*Parameter
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		param, err := p.parameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}

	fn := &FunctionDecl{
		Name:       name.Lexeme,
		Params:     params,
		Attributes: attrs,
	}
	if p.match(TokenArrow) {
		retAttrs, err := p.attributes()
		if err != nil {
			return nil, err
		}
		retType, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		fn.ReturnAttrs = retAttrs
		fn.ReturnType = retType
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.Span = p.spanFrom(start)
	return fn, nil
}

// parameter parses a function parameter.
func (p *Parser) parameter() (*Parameter, *SourceError) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("parameter name")
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenColon); err != nil {
		return nil, err
	}
	typ, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &Parameter{
		Name:       name.Lexeme,
		Type:       typ,
		Attributes: attrs,
		Span:       p.spanFrom(name),
	}, nil
}

// structDecl parses a struct declaration.
func (p *Parser) structDecl() (*StructDecl, *SourceError) {
	start := p.advance() // struct
	name, err := p.expectIdent("struct name")
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	var members []*StructMember
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		member, err := p.structMember()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
		if !p.match(TokenComma) && !p.match(TokenSemicolon) {
			break
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	p.match(TokenSemicolon)

	return &StructDecl{
		Name:    name.Lexeme,
		Members: members,
		Span:    p.spanFrom(start),
	}, nil
}

// structMember parses a struct member.
func (p *Parser) structMember() (*StructMember, *SourceError) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("member name")
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenColon); err != nil {
		return nil, err
	}
	typ, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &StructMember{
		Name:       name.Lexeme,
		Type:       typ,
		Attributes: attrs,
		Span:       p.spanFrom(name),
	}, nil
}

// varDecl parses `var<space, access> name: T = init` without the trailing ';'.
func (p *Parser) varDecl(attrs []Attribute) (*VarDecl, *SourceError) {
	start := p.advance() // var
	decl := &VarDecl{Attributes: attrs}

	if p.match(TokenLess) {
		space, err := p.expectIdent("address space")
		if err != nil {
			return nil, err
		}
		decl.AddressSpace = space.Lexeme
		if p.match(TokenComma) {
			access, err := p.expectIdent("access mode")
			if err != nil {
				return nil, err
			}
			decl.AccessMode = access.Lexeme
		}
		if err := p.expectTemplateClose(); err != nil {
			return nil, err
		}
	}

	name, err := p.expectIdent("variable name")
	if err != nil {
		return nil, err
	}
	decl.Name = name.Lexeme

	if p.match(TokenColon) {
		typ, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		decl.Type = typ
	}
	if p.match(TokenEqual) {
		init, err := p.expression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if decl.Type == nil && decl.Init == nil {
		return nil, p.errorAt(name, "var '%s' needs a type or an initializer", name.Lexeme)
	}
	decl.Span = p.spanFrom(start)
	return decl, nil
}

// constDecl parses `const name: T = init` without the trailing ';'.
func (p *Parser) constDecl() (*ConstDecl, *SourceError) {
	start := p.advance() // const
	name, typ, init, err := p.namedInit("const")
	if err != nil {
		return nil, err
	}
	return &ConstDecl{Name: name, Type: typ, Init: init, Span: p.spanFrom(start)}, nil
}

func (p *Parser) letAsConst() (*ConstDecl, *SourceError) {
	start := p.advance() // let
	name, typ, init, err := p.namedInit("let")
	if err != nil {
		return nil, err
	}
	return &ConstDecl{Name: name, Type: typ, Init: init, Span: p.spanFrom(start)}, nil
}

// letDecl parses a function-scope `let` without the trailing ';'.
func (p *Parser) letDecl() (*LetDecl, *SourceError) {
	start := p.advance() // let
	name, typ, init, err := p.namedInit("let")
	if err != nil {
		return nil, err
	}
	return &LetDecl{Name: name, Type: typ, Init: init, Span: p.spanFrom(start)}, nil
}

// namedInit parses `name (: T)? = init` shared by const and let.
func (p *Parser) namedInit(kind string) (string, Type, Expr, *SourceError) {
	name, err := p.expectIdent(kind + " name")
	if err != nil {
		return "", nil, nil, err
	}
	var typ Type
	if p.match(TokenColon) {
		typ, err = p.typeSpec()
		if err != nil {
			return "", nil, nil, err
		}
	}
	if !p.match(TokenEqual) {
		return "", nil, nil, p.errorAt(p.peek(), "%s '%s' requires an initializer", kind, name.Lexeme)
	}
	init, err := p.expression()
	if err != nil {
		return "", nil, nil, err
	}
	return name.Lexeme, typ, init, nil
}

func (p *Parser) overrideDecl(attrs []Attribute) (*OverrideDecl, *SourceError) {
	start := p.advance() // override
	name, err := p.expectIdent("override name")
	if err != nil {
		return nil, err
	}
	decl := &OverrideDecl{Name: name.Lexeme, Attributes: attrs}
	if p.match(TokenColon) {
		if decl.Type, err = p.typeSpec(); err != nil {
			return nil, err
		}
	}
	if p.match(TokenEqual) {
		if decl.Init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	decl.Span = p.spanFrom(start)
	return decl, nil
}

// aliasDecl parses `alias Name = T` without the trailing ';'.
func (p *Parser) aliasDecl() (*AliasDecl, *SourceError) {
	start := p.advance() // alias
	name, err := p.expectIdent("alias name")
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenEqual); err != nil {
		return nil, err
	}
	typ, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &AliasDecl{Name: name.Lexeme, Type: typ, Span: p.spanFrom(start)}, nil
}

func (p *Parser) constAssert() (*ConstAssertDecl, *SourceError) {
	start := p.advance() // const_assert
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ConstAssertDecl{Cond: cond, Span: p.spanFrom(start)}, nil
}

// typeSpec parses a type expression.
func (p *Parser) typeSpec() (Type, *SourceError) {
	name, err := p.expectIdent("type")
	if err != nil {
		return nil, err
	}

	if !p.check(TokenLess) {
		return &NamedType{Name: name.Lexeme, Span: p.spanFrom(name)}, nil
	}
	p.advance() // <

	switch name.Lexeme {
	case "array":
		elem, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		arr := &ArrayType{Element: elem}
		if p.match(TokenComma) && !p.check(TokenGreater) {
			if arr.Size, err = p.templateArg(); err != nil {
				return nil, err
			}
		}
		if err := p.expectTemplateClose(); err != nil {
			return nil, err
		}
		arr.Span = p.spanFrom(name)
		return arr, nil

	case "ptr":
		space, err := p.expectIdent("address space")
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenComma); err != nil {
			return nil, err
		}
		pointee, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		ptr := &PtrType{AddressSpace: space.Lexeme, PointeeType: pointee}
		if p.match(TokenComma) {
			access, err := p.expectIdent("access mode")
			if err != nil {
				return nil, err
			}
			ptr.AccessMode = access.Lexeme
		}
		if err := p.expectTemplateClose(); err != nil {
			return nil, err
		}
		ptr.Span = p.spanFrom(name)
		return ptr, nil
	}

	named := &NamedType{Name: name.Lexeme}
	for !p.check(TokenGreater) && !p.check(TokenGreaterGreater) && !p.isAtEnd() {
		param, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		named.TypeParams = append(named.TypeParams, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectTemplateClose(); err != nil {
		return nil, err
	}
	named.Span = p.spanFrom(name)
	return named, nil
}

// templateArg parses an expression inside a template list. Relational and
// shift operators are excluded so that '>' and '>>' close the list.
func (p *Parser) templateArg() (Expr, *SourceError) {
	return p.additive()
}

// expectTemplateClose consumes one '>' closing a template list, splitting
// '>>', '>=' and '>>=' tokens when templates nest or precede '='.
func (p *Parser) expectTemplateClose() *SourceError {
	tok := p.peek()
	var rest TokenKind
	switch tok.Kind {
	case TokenGreater:
		p.advance()
		return nil
	case TokenGreaterGreater:
		rest = TokenGreater
	case TokenGreaterEqual:
		rest = TokenEqual
	case TokenGreaterGreaterEqual:
		rest = TokenGreaterEqual
	default:
		return p.errorAt(tok, "expected '>' to close template list, got %s", describe(tok))
	}
	p.last = Token{Kind: TokenGreater, Lexeme: ">", Line: tok.Line, Column: tok.Column, Offset: tok.Offset}
	p.split = &Token{
		Kind:   rest,
		Lexeme: tok.Lexeme[1:],
		Line:   tok.Line,
		Column: tok.Column + 1,
		Offset: tok.Offset + 1,
	}
	return nil
}

// Statements

// block parses a brace-delimited statement list.
func (p *Parser) block() (*BlockStmt, *SourceError) {
	start := p.peek()
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	stmts := make([]Stmt, 0, 8)
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	return &BlockStmt{Statements: stmts, Span: p.spanFrom(start)}, nil
}

// statement parses a statement; empty statements yield nil.
func (p *Parser) statement() (Stmt, *SourceError) {
	if p.match(TokenSemicolon) {
		return nil, nil
	}
	// Statement attributes (e.g. @diagnostic) carry no lowering semantics.
	if _, err := p.attributes(); err != nil {
		return nil, err
	}

	switch p.peek().Kind {
	case TokenLeftBrace:
		return p.block()
	case TokenReturn:
		return p.returnStmt()
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		return p.whileStmt()
	case TokenLoop:
		return p.loopStmt()
	case TokenSwitch:
		return p.switchStmt()
	case TokenBreak:
		tok := p.advance()
		if p.check(TokenIf) {
			return nil, p.errorAt(tok, "'break if' must be the last statement of a continuing block")
		}
		return p.semicolon(&BreakStmt{Span: p.spanFrom(tok)})
	case TokenContinue:
		tok := p.advance()
		return p.semicolon(&ContinueStmt{Span: p.spanFrom(tok)})
	case TokenDiscard:
		tok := p.advance()
		return p.semicolon(&DiscardStmt{Span: p.spanFrom(tok)})
	case TokenConstAssert:
		c, err := p.constAssert()
		if err != nil {
			return nil, err
		}
		return p.semicolon(c)
	}

	stmt, err := p.simpleStatement()
	if err != nil {
		return nil, err
	}
	return p.semicolon(stmt)
}

// semicolon consumes the ';' ending stmt.
func (p *Parser) semicolon(stmt Stmt) (Stmt, *SourceError) {
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

// simpleStatement parses the statements allowed in for-loop headers:
// declarations, assignments, increments and calls.
func (p *Parser) simpleStatement() (Stmt, *SourceError) {
	start := p.peek()
	switch start.Kind {
	case TokenVar:
		return p.varDecl(nil)
	case TokenLet:
		return p.letDecl()
	case TokenConst:
		return p.constDecl()
	}

	if start.Kind == TokenIdent && start.Lexeme == "_" {
		p.advance()
		if err := p.expectErr(TokenEqual); err != nil {
			return nil, err
		}
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Op: TokenEqual, Right: rhs, Span: p.spanFrom(start)}, nil
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isAssignOp(p.peek().Kind):
		op := p.advance()
		rhs, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Left: expr, Op: op.Kind, Right: rhs, Span: p.spanFrom(start)}, nil
	case p.check(TokenPlusPlus), p.check(TokenMinusMinus):
		op := p.advance()
		return &IncDecStmt{Expr: expr, Increment: op.Kind == TokenPlusPlus, Span: p.spanFrom(start)}, nil
	}

	if _, ok := expr.(*CallExpr); !ok {
		if _, ok := expr.(*ConstructExpr); !ok {
			return nil, p.errorAt(start, "expected assignment, increment or function call statement")
		}
	}
	return &ExprStmt{Expr: expr, Span: p.spanFrom(start)}, nil
}

// returnStmt parses a return statement.
func (p *Parser) returnStmt() (Stmt, *SourceError) {
	start := p.advance() // return
	ret := &ReturnStmt{}
	if !p.check(TokenSemicolon) {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		ret.Value = value
	}
	ret.Span = p.spanFrom(start)
	return p.semicolon(ret)
}

// ifStmt parses an if statement with optional else-if chain.
func (p *Parser) ifStmt() (*IfStmt, *SourceError) {
	start := p.advance() // if
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	stmt := &IfStmt{Condition: cond, Body: body}
	if p.match(TokenElse) {
		if p.check(TokenIf) {
			elseIf, err := p.ifStmt()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseIf
		} else {
			elseBlock, err := p.block()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt, nil
}

// forStmt parses `for (init; cond; update) body`.
func (p *Parser) forStmt() (*ForStmt, *SourceError) {
	start := p.advance() // for
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}

	stmt := &ForStmt{}
	var err *SourceError
	if !p.check(TokenSemicolon) {
		if stmt.Init, err = p.simpleStatement(); err != nil {
			return nil, err
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	if !p.check(TokenSemicolon) {
		if stmt.Condition, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	if !p.check(TokenRightParen) {
		if stmt.Update, err = p.simpleStatement(); err != nil {
			return nil, err
		}
		switch stmt.Update.(type) {
		case *VarDecl, *LetDecl, *ConstDecl:
			return nil, p.errorAt(start, "for-loop update cannot be a declaration")
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.block(); err != nil {
		return nil, err
	}
	stmt.Span = p.spanFrom(start)
	return stmt, nil
}

// whileStmt parses a while loop.
func (p *Parser) whileStmt() (*WhileStmt, *SourceError) {
	start := p.advance() // while
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Condition: cond, Body: body, Span: p.spanFrom(start)}, nil
}

// loopStmt parses `loop { body continuing { ... break if cond; } }`.
func (p *Parser) loopStmt() (*LoopStmt, *SourceError) {
	start := p.advance() // loop
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	bodyStart := p.peek()
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	loop := &LoopStmt{Body: &BlockStmt{}}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if p.check(TokenContinuing) {
			cont, err := p.continuingBlock()
			if err != nil {
				return nil, err
			}
			loop.Continuing = cont
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			loop.Body.Statements = append(loop.Body.Statements, stmt)
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	loop.Body.Span = p.spanFrom(bodyStart)
	loop.Span = p.spanFrom(start)
	return loop, nil
}

// continuingBlock parses a continuing block, whose last statement may be
// `break if cond;`.
func (p *Parser) continuingBlock() (*BlockStmt, *SourceError) {
	start := p.advance() // continuing
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	block := &BlockStmt{}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if p.check(TokenBreak) && p.peekAt(1).Kind == TokenIf {
			brk := p.advance()
			p.advance() // if
			cond, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expectErr(TokenSemicolon); err != nil {
				return nil, err
			}
			block.Statements = append(block.Statements, &BreakIfStmt{Condition: cond, Span: p.spanFrom(brk)})
			if !p.check(TokenRightBrace) {
				return nil, p.errorAt(brk, "'break if' must be the last statement of a continuing block")
			}
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	block.Span = p.spanFrom(start)
	return block, nil
}

// switchStmt parses a switch statement.
func (p *Parser) switchStmt() (*SwitchStmt, *SourceError) {
	start := p.advance() // switch
	selector, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	stmt := &SwitchStmt{Selector: selector}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		clause, err := p.switchCaseClause()
		if err != nil {
			return nil, err
		}
		stmt.Cases = append(stmt.Cases, clause)
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	stmt.Span = p.spanFrom(start)
	return stmt, nil
}

// switchCaseClause parses `case a, b, default: {}` or `default {}`.
func (p *Parser) switchCaseClause() (*SwitchCaseClause, *SourceError) {
	start := p.peek()
	clause := &SwitchCaseClause{}

	switch {
	case p.match(TokenDefault):
		clause.Selectors = []Expr{nil}
	case p.match(TokenCase):
		for !p.check(TokenColon) && !p.check(TokenLeftBrace) && !p.isAtEnd() {
			if p.match(TokenDefault) {
				clause.Selectors = append(clause.Selectors, nil)
			} else {
				sel, err := p.expression()
				if err != nil {
					return nil, err
				}
				clause.Selectors = append(clause.Selectors, sel)
			}
			if !p.match(TokenComma) {
				break
			}
		}
		if len(clause.Selectors) == 0 {
			return nil, p.errorAt(start, "case clause requires at least one selector")
		}
	default:
		return nil, p.errorAt(start, "expected 'case' or 'default', got %s", describe(start))
	}

	p.match(TokenColon)
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	clause.Body = body
	clause.Span = p.spanFrom(start)
	return clause, nil
}

// Expressions

// expression parses an expression.
func (p *Parser) expression() (Expr, *SourceError) {
	return p.logicalOr()
}

// binaryLevel parses a left-associative chain of the given operators with
// operands produced by next.
func (p *Parser) binaryLevel(next func() (Expr, *SourceError), ops ...TokenKind) (Expr, *SourceError) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.matchAny(ops...) {
		op := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:  left,
			Op:    op.Kind,
			Right: right,
			Span:  joinSpan(left.Pos(), right.Pos()),
		}
	}
	return left, nil
}

func (p *Parser) logicalOr() (Expr, *SourceError) {
	return p.binaryLevel(p.logicalAnd, TokenPipePipe)
}

func (p *Parser) logicalAnd() (Expr, *SourceError) {
	return p.binaryLevel(p.bitwiseOr, TokenAmpAmp)
}

func (p *Parser) bitwiseOr() (Expr, *SourceError) {
	return p.binaryLevel(p.bitwiseXor, TokenPipe)
}

func (p *Parser) bitwiseXor() (Expr, *SourceError) {
	return p.binaryLevel(p.bitwiseAnd, TokenCaret)
}

func (p *Parser) bitwiseAnd() (Expr, *SourceError) {
	return p.binaryLevel(p.equality, TokenAmpersand)
}

func (p *Parser) equality() (Expr, *SourceError) {
	return p.binaryLevel(p.comparison, TokenEqualEqual, TokenBangEqual)
}

func (p *Parser) comparison() (Expr, *SourceError) {
	return p.binaryLevel(p.shift, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual)
}

func (p *Parser) shift() (Expr, *SourceError) {
	return p.binaryLevel(p.additive, TokenLessLess, TokenGreaterGreater)
}

func (p *Parser) additive() (Expr, *SourceError) {
	return p.binaryLevel(p.multiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) multiplicative() (Expr, *SourceError) {
	return p.binaryLevel(p.unary, TokenStar, TokenSlash, TokenPercent)
}

// unary parses prefix operators, including address-of and indirection.
func (p *Parser) unary() (Expr, *SourceError) {
	if p.matchAny(TokenMinus, TokenBang, TokenTilde, TokenAmpersand, TokenStar) {
		op := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			Op:      op.Kind,
			Operand: operand,
			Span:    Span{Start: op.Pos(), End: operand.Pos().End, Source: p.file},
		}, nil
	}
	return p.postfix()
}

// postfix parses indexing and member access.
func (p *Parser) postfix() (Expr, *SourceError) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(TokenLeftBracket):
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expectErr(TokenRightBracket); err != nil {
				return nil, err
			}
			expr = &IndexExpr{
				Expr:  expr,
				Index: index,
				Span:  Span{Start: expr.Pos().Start, End: p.previous().End(), Source: p.file},
			}
		case p.match(TokenDot):
			member, err := p.expectIdent("member name")
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{
				Expr:   expr,
				Member: member.Lexeme,
				Span:   Span{Start: expr.Pos().Start, End: member.End(), Source: p.file},
			}
		default:
			return expr, nil
		}
	}
}

// primary parses literals, identifiers, calls, constructors and
// parenthesized expressions.
func (p *Parser) primary() (Expr, *SourceError) {
	tok := p.peek()

	switch tok.Kind {
	case TokenIntLiteral, TokenFloatLiteral, TokenBoolLiteral:
		p.advance()
		return &Literal{Kind: tok.Kind, Value: tok.Lexeme, Span: p.spanFrom(tok)}, nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenIdent:
		if IsTemplatedTypeName(tok.Lexeme) && p.peekAt(1).Kind == TokenLess {
			if tok.Lexeme == "bitcast" {
				return p.bitcast()
			}
			typ, err := p.typeSpec()
			if err != nil {
				return nil, err
			}
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			return &ConstructExpr{Type: typ, Args: args, Span: p.spanFrom(tok)}, nil
		}

		p.advance()
		ident := &Ident{Name: tok.Lexeme, Span: p.spanFrom(tok)}
		if !p.check(TokenLeftParen) {
			return ident, nil
		}
		args, err := p.arguments()
		if err != nil {
			return nil, err
		}
		return &CallExpr{Func: ident, Args: args, Span: p.spanFrom(tok)}, nil
	}

	return nil, p.errorAt(tok, "unexpected %s in expression", describe(tok))
}

func (p *Parser) bitcast() (Expr, *SourceError) {
	start := p.advance() // bitcast
	p.advance()          // <
	typ, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	if err := p.expectTemplateClose(); err != nil {
		return nil, err
	}
	args, err := p.arguments()
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, p.errorAt(start, "bitcast expects exactly one argument, got %d", len(args))
	}
	return &BitcastExpr{Type: typ, Expr: args[0], Span: p.spanFrom(start)}, nil
}

// arguments parses a parenthesized, comma-separated argument list.
func (p *Parser) arguments() ([]Expr, *SourceError) {
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	args := make([]Expr, 0, 4)
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	return args, nil
}

// Helper methods

func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
		p.split = nil
	}
	p.last = tok
	return tok
}

func (p *Parser) peek() Token {
	if p.split != nil {
		return *p.split
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if n == 0 {
		return p.peek()
	}
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.last
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if p.match(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) *SourceError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), "expected '%s', got %s", kind, describe(p.peek()))
}

func (p *Parser) expectIdent(what string) (Token, *SourceError) {
	if p.check(TokenIdent) {
		return p.advance(), nil
	}
	return Token{}, p.errorAt(p.peek(), "expected %s, got %s", what, describe(p.peek()))
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *SourceError {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Span:    Span{Start: tok.Pos(), End: tok.End(), Source: p.file},
		Source:  p.source,
	}
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start Token) Span {
	end := p.last.End()
	if p.last.Line == 0 {
		end = start.End()
	}
	return Span{Start: start.Pos(), End: end, Source: p.file}
}

func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
		if depth == 0 {
			switch p.peek().Kind {
			case TokenFn, TokenStruct, TokenVar, TokenConst, TokenAlias, TokenOverride, TokenAt:
				return
			}
		}
	}
}

func (p *Parser) isAssignOp(kind TokenKind) bool {
	switch kind {
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual,
		TokenSlashEqual, TokenPercentEqual, TokenAmpEqual, TokenPipeEqual,
		TokenCaretEqual, TokenLessLessEqual, TokenGreaterGreaterEqual:
		return true
	}
	return false
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenBoolLiteral:
		return fmt.Sprintf("%s '%s'", tok.Kind, tok.Lexeme)
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

func joinSpan(a, b Span) Span {
	return Span{Start: a.Start, End: b.End, Source: a.Source}
}
