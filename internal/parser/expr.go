package parser

import (
	"strconv"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/lexer"
)

// parseExpr parses an expression using precedence climbing; minPrec is the
// minimum binding power an infix operator must have to be consumed here.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		prec := p.cur.Precedence()
		if prec == 0 || prec < minPrec {
			break
		}
		op := p.binOpText()
		pos := p.pos()
		p.next()
		right := p.parseExpr(prec + 1)
		left = &ast.BinOp{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) binOpText() string {
	switch p.cur.Type {
	case lexer.PLUS:
		return "+"
	case lexer.MINUS:
		return "-"
	case lexer.STAR:
		return "*"
	case lexer.SLASH:
		return "/"
	case lexer.SLASHSLASH:
		return "//"
	case lexer.PERCENT:
		return "%"
	case lexer.EQ:
		return "=="
	case lexer.NEQ:
		return "!="
	case lexer.LT:
		return "<"
	case lexer.GT:
		return ">"
	case lexer.LTE:
		return "<="
	case lexer.GTE:
		return ">="
	case lexer.AND:
		return "and"
	case lexer.OR:
		return "or"
	case lexer.IN:
		return "in"
	}
	return "?"
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Type == lexer.NOT {
		pos := p.pos()
		p.next()
		return &ast.UnaryOp{Op: "not", Expr: p.parseUnary(), Pos: pos}
	}
	if p.cur.Type == lexer.MINUS {
		pos := p.pos()
		p.next()
		return &ast.UnaryOp{Op: "-", Expr: p.parseUnary(), Pos: pos}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			e = p.parseCallArgs(e)
		case lexer.LBRACKET:
			e = p.parseSubscript(e)
		case lexer.DOT:
			e = p.parseAttributeOrMethod(e)
		default:
			return e
		}
	}
}

func (p *Parser) parseCallArgs(callee ast.Expr) ast.Expr {
	pos := p.pos()
	p.next() // (
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(0))
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return &ast.Call{Callee: callee, Args: args, Pos: pos}
}

func (p *Parser) parseSubscript(target ast.Expr) ast.Expr {
	pos := p.pos()
	p.next() // [
	var lo, hi ast.Expr
	isSlice := false
	if p.cur.Type != lexer.COLON {
		lo = p.parseExpr(0)
	}
	if p.cur.Type == lexer.COLON {
		isSlice = true
		p.next()
		if p.cur.Type != lexer.RBRACKET {
			hi = p.parseExpr(0)
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.Subscript{Target: target, Lo: lo, Hi: hi, IsSlice: isSlice, Pos: pos}
}

func (p *Parser) parseAttributeOrMethod(target ast.Expr) ast.Expr {
	pos := p.pos()
	p.next() // .
	name := p.parseIdentName()
	if p.cur.Type == lexer.LPAREN {
		p.next()
		var args []ast.Expr
		for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
			args = append(args, p.parseExpr(0))
			if p.cur.Type == lexer.COMMA {
				p.next()
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.Call{Recv: target, Method: name, Args: args, Pos: pos}
	}
	return &ast.Attribute{Target: target, Name: name, Pos: pos}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.INT:
		v, _ := strconv.ParseInt(p.cur.Literal, 10, 64)
		p.next()
		return &ast.Literal{Kind: ast.IntLit, Int: v, Pos: pos}
	case lexer.FLOAT:
		v, _ := strconv.ParseFloat(p.cur.Literal, 64)
		p.next()
		return &ast.Literal{Kind: ast.FloatLit, Float: v, Pos: pos}
	case lexer.STRING:
		v := p.cur.Literal
		p.next()
		return &ast.Literal{Kind: ast.StringLit, Str: v, Pos: pos}
	case lexer.TRUE:
		p.next()
		return &ast.Literal{Kind: ast.BoolLit, Bool: true, Pos: pos}
	case lexer.FALSE:
		p.next()
		return &ast.Literal{Kind: ast.BoolLit, Bool: false, Pos: pos}
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		return &ast.Ident{Name: name, Pos: pos}
	case lexer.LPAREN:
		p.next()
		first := p.parseExpr(0)
		if p.cur.Type == lexer.COMMA {
			elems := []ast.Expr{first}
			for p.cur.Type == lexer.COMMA {
				p.next()
				if p.cur.Type == lexer.RPAREN {
					break
				}
				elems = append(elems, p.parseExpr(0))
			}
			p.expect(lexer.RPAREN)
			return &ast.TupleLit{Elems: elems, Pos: pos}
		}
		p.expect(lexer.RPAREN)
		return first
	case lexer.LBRACKET:
		return p.parseListOrComprehension()
	case lexer.LBRACE:
		return p.parseDictLit()
	}
	p.errorf("unexpected token %q in expression", p.cur.Literal)
	p.next()
	return &ast.Ident{Name: "<error>", Pos: pos}
}

func (p *Parser) parseListOrComprehension() ast.Expr {
	pos := p.pos()
	p.next() // [
	if p.cur.Type == lexer.RBRACKET {
		p.next()
		return &ast.ListLit{Pos: pos}
	}
	first := p.parseExpr(0)
	if p.cur.Type == lexer.FOR {
		return p.parseComprehensionTail(first, pos)
	}
	elems := []ast.Expr{first}
	for p.cur.Type == lexer.COMMA {
		p.next()
		if p.cur.Type == lexer.RBRACKET {
			break
		}
		elems = append(elems, p.parseExpr(0))
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListLit{Elems: elems, Pos: pos}
}

// parseComprehensionTail handles `for var in iter [if cond]` — only a single
// generator is accepted (spec §6 rejects multi-clause/dict/set comps).
func (p *Parser) parseComprehensionTail(result ast.Expr, pos ast.Pos) ast.Expr {
	p.next() // 'for'
	varName := p.parseIdentName()
	if !p.expect(lexer.IN) {
		return &ast.Comprehension{Result: result, Var: varName, Pos: pos}
	}
	iter := p.parseExpr(0)
	var cond ast.Expr
	if p.cur.Type == lexer.IF {
		p.next()
		cond = p.parseExpr(0)
	}
	p.expect(lexer.RBRACKET)
	return &ast.Comprehension{Result: result, Var: varName, Iter: iter, Cond: cond, Pos: pos}
}

func (p *Parser) parseDictLit() ast.Expr {
	pos := p.pos()
	p.next() // {
	d := &ast.DictLit{Pos: pos}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		if p.cur.Type != lexer.STRING {
			p.errorf("not implemented: non-string dict key %q", p.cur.Literal)
			p.next()
			continue
		}
		key := p.cur.Literal
		p.next()
		p.expect(lexer.COLON)
		val := p.parseExpr(0)
		d.Entries = append(d.Entries, ast.DictEntry{Key: key, Value: val})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return d
}
