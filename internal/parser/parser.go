// Package parser implements a recursive-descent parser for the accepted
// source subset (spec §6). It is the concrete producer behind the
// "ready-made AST" that the rest of the pipeline consumes; nothing in
// internal/module, internal/types, or internal/codegen depends on how
// parsing itself works, only on the internal/ast shapes it emits.
package parser

import (
	"fmt"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/lexer"
)

// ParseError is a syntax error raised while building the AST (spec §7,
// code PAR###; the concrete code is assigned by the caller via
// internal/errors, this type only carries the position and message).
type ParseError struct {
	Pos     ast.Pos
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser consumes a token stream and builds an internal/ast.Module.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	errors []error
}

// New creates a Parser reading from l. filename is attached to AST
// positions that the lexer itself doesn't stamp a file on (it always does,
// but it's kept here for clarity at call sites).
func New(l *lexer.Lexer, filename string) *Parser {
	p := &Parser{l: l, file: filename}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error accumulated while parsing the file.
// A non-empty result means ParseFile's returned module is incomplete.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, &ParseError{Pos: p.pos(), Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.cur.Type != tt {
		p.errorf("expected %s, got %s (%q)", tt, p.cur.Type, p.cur.Literal)
		return false
	}
	p.next()
	return true
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == lexer.NEWLINE {
		p.next()
	}
}

// ParseFile parses one complete module, in the style the teacher's own
// parser exposes a single File-producing entry point.
func (p *Parser) ParseFile() *ast.Module {
	mod := &ast.Module{Path: p.file, Pos: p.pos()}
	p.skipNewlines()

	for p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.IMPORT:
			imp := p.parseImport()
			mod.Imports = append(mod.Imports, imp.Name)
		case lexer.DEF:
			mod.Funcs = append(mod.Funcs, p.parseFuncDecl())
		case lexer.CLASS:
			mod.Classes = append(mod.Classes, p.parseClassDecl())
		default:
			stmt := p.parseStatement()
			if stmt != nil {
				mod.Body = append(mod.Body, stmt)
			}
		}
		p.skipNewlines()
	}
	return mod
}

func (p *Parser) parseImport() *ast.Import {
	pos := p.pos()
	p.next() // consume 'import'
	if p.cur.Type != lexer.IDENT {
		p.errorf("expected module name after import, got %q", p.cur.Literal)
		return &ast.Import{Pos: pos}
	}
	name := p.cur.Literal
	p.next()
	return &ast.Import{Name: name, Pos: pos}
}

// ---- block / statement parsing ------------------------------------------

func (p *Parser) expectBlock() []ast.Stmt {
	if !p.expect(lexer.COLON) {
		return nil
	}
	if p.cur.Type == lexer.NEWLINE {
		p.next()
		if !p.expect(lexer.INDENT) {
			return nil
		}
		var stmts []ast.Stmt
		for p.cur.Type != lexer.DEDENT && p.cur.Type != lexer.EOF {
			p.skipNewlines()
			if p.cur.Type == lexer.DEDENT || p.cur.Type == lexer.EOF {
				break
			}
			switch p.cur.Type {
			case lexer.DEF:
				// nested function defs are out of the accepted subset; record
				// a best-effort parse so callers see a clear generator error later.
				stmts = append(stmts, &ast.ExprStmt{Pos: p.pos()})
				p.skipToDedent()
			default:
				if s := p.parseStatement(); s != nil {
					stmts = append(stmts, s)
				}
			}
			p.skipNewlines()
		}
		if p.cur.Type == lexer.DEDENT {
			p.next()
		}
		return stmts
	}
	// single-line suite: `if x: return y`
	s := p.parseSimpleStatement()
	if s != nil {
		return []ast.Stmt{s}
	}
	return nil
}

func (p *Parser) skipToDedent() {
	depth := 0
	for {
		switch p.cur.Type {
		case lexer.EOF:
			return
		case lexer.INDENT:
			depth++
		case lexer.DEDENT:
			if depth == 0 {
				return
			}
			depth--
		}
		p.next()
	}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Type {
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.TRY:
		return p.parseTry()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.PASS:
		p.next()
		return nil
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseSimpleStatement() ast.Stmt {
	switch p.cur.Type {
	case lexer.RETURN:
		return p.parseReturn()
	}
	pos := p.pos()
	expr := p.parseExpr(0)

	if target, ok := exprToTarget(expr); ok {
		switch p.cur.Type {
		case lexer.ASSIGN:
			p.next()
			val := p.parseExpr(0)
			return &ast.Assign{Target: target, Value: val, Pos: pos}
		case lexer.PLUSEQ, lexer.MINUSEQ, lexer.STAREQ, lexer.SLASHEQ, lexer.PERCENTEQ:
			op := augOp(p.cur.Type)
			p.next()
			val := p.parseExpr(0)
			return &ast.AugAssign{Target: target, Op: op, Value: val, Pos: pos}
		}
	}
	return &ast.ExprStmt{X: expr, Pos: pos}
}

func augOp(tt lexer.TokenType) string {
	switch tt {
	case lexer.PLUSEQ:
		return "+"
	case lexer.MINUSEQ:
		return "-"
	case lexer.STAREQ:
		return "*"
	case lexer.SLASHEQ:
		return "/"
	case lexer.PERCENTEQ:
		return "%"
	}
	return "?"
}

func exprToTarget(e ast.Expr) (ast.AssignTarget, bool) {
	switch ex := e.(type) {
	case *ast.Ident:
		return ast.AssignTarget{Name: ex.Name}, true
	case *ast.Attribute:
		return ast.AssignTarget{Attr: ex}, true
	}
	return ast.AssignTarget{}, false
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.pos()
	p.next()
	cond := p.parseExpr(0)
	body := p.expectBlock()
	node := &ast.If{Cond: cond, Then: body, Pos: pos}
	for p.cur.Type == lexer.ELIF {
		p.next()
		ec := p.parseExpr(0)
		eb := p.expectBlock()
		node.Elif = append(node.Elif, ast.ElifClause{Cond: ec, Body: eb})
	}
	if p.cur.Type == lexer.ELSE {
		p.next()
		node.Else = p.expectBlock()
	}
	return node
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.pos()
	p.next()
	cond := p.parseExpr(0)
	body := p.expectBlock()
	return &ast.While{Cond: cond, Body: body, Pos: pos}
}

// parseFor accepts only range(...), enumerate(...), zip(...) (spec §4.5).
func (p *Parser) parseFor() ast.Stmt {
	pos := p.pos()
	p.next()

	var targets []string
	targets = append(targets, p.parseIdentName())
	for p.cur.Type == lexer.COMMA {
		p.next()
		targets = append(targets, p.parseIdentName())
	}

	if !p.expect(lexer.IN) {
		return &ast.For{Pos: pos}
	}

	kind, args := p.parseForIterable()
	body := p.expectBlock()
	return &ast.For{Kind: kind, Targets: targets, Args: args, Body: body, Pos: pos}
}

func (p *Parser) parseIdentName() string {
	if p.cur.Type != lexer.IDENT {
		p.errorf("expected identifier, got %q", p.cur.Literal)
		return ""
	}
	name := p.cur.Literal
	p.next()
	return name
}

func (p *Parser) parseForIterable() (ast.ForKind, []ast.Expr) {
	if p.cur.Type != lexer.IDENT {
		p.errorf("for-loops only accept range/enumerate/zip, got %q", p.cur.Literal)
		return ast.ForRange, nil
	}
	name := p.cur.Literal
	var kind ast.ForKind
	switch name {
	case "range":
		kind = ast.ForRange
	case "enumerate":
		kind = ast.ForEnumerate
	case "zip":
		kind = ast.ForZip
	default:
		p.errorf("not implemented: for-loop over %q (only range/enumerate/zip accepted)", name)
	}
	p.next()
	if !p.expect(lexer.LPAREN) {
		return kind, nil
	}
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(0))
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return kind, args
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.pos()
	p.next()
	if p.cur.Type == lexer.NEWLINE || p.cur.Type == lexer.DEDENT || p.cur.Type == lexer.EOF {
		return &ast.Return{Pos: pos}
	}
	val := p.parseExpr(0)
	return &ast.Return{Value: val, Pos: pos}
}

func (p *Parser) parseTry() ast.Stmt {
	pos := p.pos()
	p.next()
	body := p.expectBlock()
	node := &ast.Try{Body: body, Pos: pos}
	for p.cur.Type == lexer.EXCEPT {
		p.next()
		kind := ""
		if p.cur.Type == lexer.IDENT {
			kind = p.cur.Literal
			p.next()
		}
		hb := p.expectBlock()
		node.Handlers = append(node.Handlers, ast.ExceptClause{Kind: kind, Body: hb})
	}
	return node
}

// ---- function / class declarations --------------------------------------

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	pos := p.pos()
	p.next() // def
	name := p.parseIdentName()
	p.expect(lexer.LPAREN)
	var params []ast.Param
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		params = append(params, p.parseParam())
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	retType := ""
	if p.cur.Type == lexer.ARROW {
		p.next()
		retType = p.parseTypeName()
	}
	body := p.expectBlock()
	return &ast.FuncDecl{Name: name, Params: params, ReturnType: retType, Body: body, Pos: pos}
}

func (p *Parser) parseParam() ast.Param {
	name := p.parseIdentName()
	param := ast.Param{Name: name}
	if p.cur.Type == lexer.COLON {
		p.next()
		param.Type = p.parseTypeName()
	}
	if p.cur.Type == lexer.ASSIGN {
		p.next()
		param.Default = p.parseExpr(0)
	}
	return param
}

func (p *Parser) parseTypeName() string {
	name := p.parseIdentName()
	return name
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	pos := p.pos()
	p.next() // class
	name := p.parseIdentName()
	base := ""
	if p.cur.Type == lexer.LPAREN {
		p.next()
		if p.cur.Type == lexer.IDENT {
			base = p.cur.Literal
			p.next()
		}
		if p.cur.Type == lexer.COMMA {
			p.errorf("not implemented: multiple inheritance")
			for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
				p.next()
			}
		}
		p.expect(lexer.RPAREN)
	}
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	node := &ast.ClassDecl{Name: name, Base: base, Pos: pos}
	for p.cur.Type != lexer.DEDENT && p.cur.Type != lexer.EOF {
		p.skipNewlines()
		if p.cur.Type == lexer.DEDENT || p.cur.Type == lexer.EOF {
			break
		}
		if p.cur.Type != lexer.DEF {
			p.errorf("expected method definition inside class body, got %q", p.cur.Literal)
			p.skipToDedent()
			break
		}
		m := p.parseFuncDecl()
		m.IsMethod = true
		node.Methods = append(node.Methods, m)
		p.skipNewlines()
	}
	if p.cur.Type == lexer.DEDENT {
		p.next()
	}
	return node
}
