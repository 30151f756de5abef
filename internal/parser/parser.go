package parser

import (
	"fmt"
	"vc/internal/ast"
	"vc/internal/lexer"
)

// ---------------------------------------------------------------------------
// Precedence levels for the expression parser (higher binds tighter)
// ---------------------------------------------------------------------------

const (
	precNone       = 0
	precOr         = 20 // ||
	precAnd        = 25 // &&
	precEquality   = 45 // == !=
	precComparison = 50 // < > <= >=
	precAdditive   = 70 // + -
	precMultiply   = 80 // * /
)

// MaxParams is the number of integer argument registers available to a call.
const MaxParams = 6

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError is the first structural error found in the token stream.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns the program, or the first *ParseError hit.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	p := &Parser{tokens: tokens, pos: 0}
	return p.parseProgram()
}

// ParseExpression parses a single expression covering the whole token
// stream.
func ParseExpression(tokens []lexer.Token) (ast.Expr, error) {
	p := &Parser{tokens: tokens, pos: 0}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.check(lexer.EOF) {
		return nil, p.errorAt(p.peek(), "unexpected token after expression")
	}
	return expr, nil
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	return p.peekAt(0)
}

// peekAt returns the token at a given offset from the current position, or
// an EOF token when the offset runs past the end.
func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= 0 && idx < len(p.tokens) {
		return p.tokens[idx]
	}
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return lexer.Token{Type: lexer.EOF, Line: last.Line, Column: last.Column}
	}
	return lexer.Token{Type: lexer.EOF}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it matches any of the given types.
func (p *Parser) match(types ...string) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches typ; otherwise it returns
// a ParseError at the current token WITHOUT advancing.
func (p *Parser) expect(typ string, msg string) (lexer.Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(p.peek(), msg)
}

// errorAt builds a ParseError at the given token's location.
func (p *Parser) errorAt(tok lexer.Token, msg string) *ParseError {
	if tok.Type == lexer.EOF {
		msg += " (got end of input)"
	} else {
		msg += fmt.Sprintf(" (got %s %q)", tok.Type, tok.Value)
	}
	return &ParseError{Message: msg, Line: tok.Line, Column: tok.Column}
}

// position converts a token into an ast.Position.
func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// =========================================================================
// Top-level parsing
// =========================================================================

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{Pos: p.position(p.peek())}
	for !p.check(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

// =========================================================================
// Block and statement parsing
// =========================================================================

// parseBlock parses "{ stmt* }" including both braces.
func (p *Parser) parseBlock(what string) ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.LBRACE, "expected '{' to open "+what); err != nil {
		return nil, err
	}

	var stmts []ast.Stmt
	for !p.check(lexer.RBRACE) {
		if p.check(lexer.EOF) {
			return nil, p.errorAt(p.peek(), "expected '}' to close "+what)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // consume }
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()
	switch {
	case lexer.IsTypeKeyword(tok.Type), tok.Type == lexer.LET:
		return p.parseVarDecl(true)
	case tok.Type == lexer.EXIT:
		return p.parseExitStmt()
	case tok.Type == lexer.IF:
		return p.parseIfStmt()
	case tok.Type == lexer.ELSE:
		return p.parseElseStmt()
	case tok.Type == lexer.WHILE:
		return p.parseWhileStmt()
	case tok.Type == lexer.FOR:
		return p.parseForStmt()
	case tok.Type == lexer.IDENT && p.peekAt(1).Type == lexer.ASSIGN:
		return p.parseAssign(true)
	case tok.Type == lexer.IDENT && p.peekAt(1).Type == lexer.LPAREN:
		if p.isFuncDecl() {
			return p.parseFuncDecl()
		}
		return p.parseFuncCall()
	default:
		return nil, p.errorAt(tok, "expected a statement")
	}
}

// isFuncDecl scans from "name (" to the matching ')' and reports whether a
// '{' follows it.
func (p *Parser) isFuncDecl() bool {
	depth := 0
	for i := 1; ; i++ {
		switch p.peekAt(i).Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				return p.peekAt(i+1).Type == lexer.LBRACE
			}
		case lexer.EOF:
			return false
		}
	}
}

// ---- Variable declaration ----

// parseVarDecl parses "<type> name = expr" or the legacy "let name = expr",
// consuming the trailing ';' when withSemicolon is set.
func (p *Parser) parseVarDecl(withSemicolon bool) (*ast.VarDeclStmt, error) {
	tok := p.advance() // consume type keyword or LET
	typ := ast.Long
	if tok.Type != lexer.LET {
		typ, _ = ast.TypeFromKeyword(tok.Value)
	}

	name, err := p.expect(lexer.IDENT, "expected variable name after '"+tok.Value+"'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN, "expected '=' in declaration of "+name.Value); err != nil {
		return nil, err
	}
	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if withSemicolon {
		if _, err := p.expect(lexer.SEMICOLON, "expected ';' after declaration"); err != nil {
			return nil, err
		}
	}
	return &ast.VarDeclStmt{Type: typ, Name: name.Value, Init: init, Pos: p.position(tok)}, nil
}

// ---- Assignment ----

func (p *Parser) parseAssign(withSemicolon bool) (*ast.AssignStmt, error) {
	name, err := p.expect(lexer.IDENT, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN, "expected '=' after "+name.Value); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if withSemicolon {
		if _, err := p.expect(lexer.SEMICOLON, "expected ';' after assignment"); err != nil {
			return nil, err
		}
	}
	return &ast.AssignStmt{Name: name.Value, Value: value, Pos: p.position(name)}, nil
}

// ---- Exit ----

func (p *Parser) parseExitStmt() (*ast.ExitStmt, error) {
	tok := p.advance() // consume EXIT
	value, err := p.parseParenExpr("'exit'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after exit"); err != nil {
		return nil, err
	}
	return &ast.ExitStmt{Value: value, Pos: p.position(tok)}, nil
}

// parseParenExpr parses "( expr )" following a keyword.
func (p *Parser) parseParenExpr(after string) (ast.Expr, error) {
	if _, err := p.expect(lexer.LPAREN, "expected '(' after "+after); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after "+after+" expression"); err != nil {
		return nil, err
	}
	return expr, nil
}

// ---- If / Else ----

func (p *Parser) parseIfStmt() (*ast.IfStmt, error) {
	tok := p.advance() // consume IF
	cond, err := p.parseParenExpr("'if'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("if body")
	if err != nil {
		return nil, err
	}
	return &ast.IfStmt{Condition: cond, Body: body, Pos: p.position(tok)}, nil
}

// parseElseStmt parses "else { ... }" as a statement of its own.
func (p *Parser) parseElseStmt() (*ast.ElseStmt, error) {
	tok := p.advance() // consume ELSE
	body, err := p.parseBlock("else body")
	if err != nil {
		return nil, err
	}
	return &ast.ElseStmt{Body: body, Pos: p.position(tok)}, nil
}

// ---- While ----

func (p *Parser) parseWhileStmt() (*ast.WhileStmt, error) {
	tok := p.advance() // consume WHILE
	cond, err := p.parseParenExpr("'while'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("while body")
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Body: body, Pos: p.position(tok)}, nil
}

// ---- For ----

func (p *Parser) parseForStmt() (*ast.ForStmt, error) {
	tok := p.advance() // consume FOR
	if _, err := p.expect(lexer.LPAREN, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	// Init clause, including its trailing semicolon.
	var init ast.Stmt
	var err error
	switch {
	case lexer.IsTypeKeyword(p.peek().Type), p.check(lexer.LET):
		init, err = p.parseVarDecl(true)
	case p.check(lexer.IDENT):
		init, err = p.parseAssign(true)
	default:
		err = p.errorAt(p.peek(), "expected declaration or assignment in for init")
	}
	if err != nil {
		return nil, err
	}

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after for condition"); err != nil {
		return nil, err
	}

	// Step clause has no trailing semicolon before ')'.
	step, err := p.parseAssign(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.parseBlock("for body")
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{
		Init:      init,
		Condition: cond,
		Step:      step,
		Body:      body,
		Pos:       p.position(tok),
	}, nil
}

// ---- Functions ----

func (p *Parser) parseFuncDecl() (*ast.FuncDeclStmt, error) {
	name := p.advance() // consume IDENT
	p.advance()         // consume (

	var params []*ast.Param
	if !p.check(lexer.RPAREN) {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			if len(params) == MaxParams {
				return nil, &ParseError{
					Message: fmt.Sprintf("function %s has more than %d parameters", name.Value, MaxParams),
					Line:    param.Pos.Line,
					Column:  param.Pos.Column,
				}
			}
			params = append(params, param)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	body, err := p.parseBlock("function body")
	if err != nil {
		return nil, err
	}
	return &ast.FuncDeclStmt{
		Name:   name.Value,
		Params: params,
		Body:   body,
		Pos:    p.position(name),
	}, nil
}

func (p *Parser) parseParam() (*ast.Param, error) {
	tok := p.peek()
	typ, ok := ast.TypeFromKeyword(tok.Value)
	if !lexer.IsTypeKeyword(tok.Type) || !ok {
		return nil, p.errorAt(tok, "expected parameter type")
	}
	p.advance()
	name, err := p.expect(lexer.IDENT, "expected parameter name")
	if err != nil {
		return nil, err
	}
	return &ast.Param{Type: typ, Name: name.Value, Pos: p.position(tok)}, nil
}

func (p *Parser) parseFuncCall() (*ast.FuncCallStmt, error) {
	name := p.advance() // consume IDENT
	p.advance()         // consume (

	var args []ast.Expr
	if !p.check(lexer.RPAREN) {
		for {
			tok := p.peek()
			switch tok.Type {
			case lexer.INT_LIT:
				args = append(args, &ast.IntLitExpr{Value: tok.Value, Pos: p.position(tok)})
			case lexer.CHAR_LIT:
				args = append(args, &ast.CharLitExpr{Value: tok.Value, Pos: p.position(tok)})
			case lexer.IDENT:
				args = append(args, &ast.IdentExpr{Name: tok.Value, Pos: p.position(tok)})
			default:
				return nil, p.errorAt(tok, "expected literal or identifier as argument to "+name.Value)
			}
			p.advance()
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after call"); err != nil {
		return nil, err
	}
	return &ast.FuncCallStmt{Name: name.Value, Args: args, Pos: p.position(name)}, nil
}

// =========================================================================
// Precedence-climbing expression parser
// =========================================================================

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parsePrecedence(precOr)
}

// parsePrecedence parses an expression whose operators all bind at least as
// tightly as minPrec.
func (p *Parser) parsePrecedence(minPrec int) (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec := infixPrecedence(tok.Type)
		if prec == precNone || prec < minPrec {
			return left, nil
		}
		p.advance()

		// Left-associative: the right side must bind strictly tighter.
		right, err := p.parsePrecedence(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Op:    binaryOps[tok.Type],
			Left:  left,
			Right: right,
			Pos:   p.position(tok),
		}
	}
}

// ---- Primary ----

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.INT_LIT:
		p.advance()
		return &ast.IntLitExpr{Value: tok.Value, Pos: p.position(tok)}, nil

	case lexer.CHAR_LIT:
		p.advance()
		return &ast.CharLitExpr{Value: tok.Value, Pos: p.position(tok)}, nil

	case lexer.IDENT:
		p.advance()
		return &ast.IdentExpr{Name: tok.Value, Pos: p.position(tok)}, nil

	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')' to close parenthesised expression"); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, p.errorAt(tok, "expected expression")
	}
}

// ---- Infix precedence table ----

var binaryOps = map[string]ast.BinaryOp{
	lexer.PLUS:  ast.Add,
	lexer.MINUS: ast.Sub,
	lexer.STAR:  ast.Mul,
	lexer.SLASH: ast.Div,
	lexer.EQ:    ast.Eq,
	lexer.NEQ:   ast.Neq,
	lexer.LT:    ast.Lt,
	lexer.LTE:   ast.Lte,
	lexer.GT:    ast.Gt,
	lexer.GTE:   ast.Gte,
	lexer.AND:   ast.And,
	lexer.OR:    ast.Or,
}

func infixPrecedence(typ string) int {
	switch typ {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.NEQ:
		return precEquality
	case lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		return precComparison
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.SLASH:
		return precMultiply
	default:
		return precNone
	}
}
