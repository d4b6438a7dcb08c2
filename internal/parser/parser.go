// Package parser implements foxlox's recursive-descent parser (§4.2):
// tokens in, an AST out, with panic-and-synchronize error recovery so
// later errors can still be reported in the same pass.
package parser

import (
	"fmt"

	"github.com/lone-wolf-akela/foxlox/internal/ast"
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/diagnostics"
	"github.com/lone-wolf-akela/foxlox/internal/scanner"
	"github.com/lone-wolf-akela/foxlox/internal/token"
)

// Parser holds the token stream and accumulates diagnostics.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diagnostics.Bag
}

// parseError unwinds to the nearest synchronization point.
type parseError struct{}

// Parse scans src in full, then parses it into a Program. Diags
// accumulates every error found; once any error is recorded the
// returned Program should not be code-generated.
func Parse(src string, diags *diagnostics.Bag) *ast.Program {
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.Next()
		if tok.Kind == token.ERROR {
			diags.Add(tok.Line, tok.Lexeme, tok.Lexeme)
			continue
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	p := &Parser{toks: toks, diags: diags}
	return p.parseProgram()
}

// ---- token stream helpers ----

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) prev() token.Token  { return p.toks[p.pos-1] }
func (p *Parser) atEnd() bool        { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) check(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) errorAt(tok token.Token, msg string) parseError {
	if tok.Kind == token.EOF {
		p.diags.AddAtEnd(tok.Line, msg)
	} else {
		p.diags.Add(tok.Line, tok.Lexeme, msg)
	}
	return parseError{}
}

func (p *Parser) consume(k token.Kind, msg string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), msg))
}

// synchronize discards tokens up to the next statement boundary so
// parsing can resume after an error without cascading failures.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.prev().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *Parser) recover() {
	if r := recover(); r != nil {
		if _, ok := r.(parseError); ok {
			p.synchronize()
			return
		}
		panic(r)
	}
}

// ---- program / declarations ----

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.atEnd() {
		if stmt := p.declarationSafe(); stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	return prog
}

func (p *Parser) declarationSafe() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()
	return p.declaration()
}

func (p *Parser) declaration() ast.Stmt {
	switch {
	case p.match(token.VAR):
		return p.varDeclaration()
	case p.match(token.FUN):
		return p.funDeclaration(false, nil)
	case p.match(token.CLASS):
		return p.classDeclaration()
	case p.match(token.IMPORT):
		return p.importStatement()
	case p.match(token.FROM):
		return p.fromImportStatement()
	case p.match(token.EXPORT):
		return p.exportStatement()
	default:
		return p.statement()
	}
}

// varDeclaration parses `var a [= init] (, b [= init])* ;`. Multiple
// names in one statement are represented as a VarGroupStmt of VarStmts,
// which opens no scope of its own, so each can see the names declared
// before it.
func (p *Parser) varDeclaration() ast.Stmt {
	var stmts []ast.Stmt
	for {
		nameTok := p.consume(token.IDENT, "expect variable name")
		var init ast.Expr
		if p.match(token.EQUAL) {
			init = p.expression()
		}
		stmts = append(stmts, &ast.VarStmt{Name: nameTok.Lexeme, Init: init, Line: nameTok.Line})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMICOLON, "expect ';' after variable declaration")
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &ast.VarGroupStmt{Stmts: stmts}
}

func (p *Parser) funDeclaration(isMethod bool, owner *ast.ClassStmt) *ast.FunctionStmt {
	nameTok := p.consume(token.IDENT, "expect function name")
	fn := p.functionBody(nameTok.Lexeme, isMethod, owner)
	fn.Line = nameTok.Line
	return fn
}

func (p *Parser) functionBody(name string, isMethod bool, owner *ast.ClassStmt) *ast.FunctionStmt {
	p.consume(token.LPAREN, "expect '(' after function name")
	var params []string
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= config.MaxParams {
				p.errorAt(p.peek(), fmt.Sprintf("can't have more than %d parameters", config.MaxParams))
			}
			tok := p.consume(token.IDENT, "expect parameter name")
			params = append(params, tok.Lexeme)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	body := p.block()
	return &ast.FunctionStmt{
		Name:         name,
		Params:       params,
		ParamStorage: make([]ast.Storage, len(params)),
		ParamSlot:    make([]uint16, len(params)),
		Body:         body,
		IsMethod:     isMethod,
		IsInit:       isMethod && name == "__init__",
		OwningClass:  owner,
	}
}

func (p *Parser) classDeclaration() ast.Stmt {
	nameTok := p.consume(token.IDENT, "expect class name")
	class := &ast.ClassStmt{Name: nameTok.Lexeme, Line: nameTok.Line}

	if p.match(token.COLON) {
		superTok := p.consume(token.IDENT, "expect superclass name")
		class.Superclass = &ast.VariableExpr{Name: superTok.Lexeme, Line: superTok.Line}
	}

	p.consume(token.LBRACE, "expect '{' before class body")
	for !p.check(token.RBRACE) && !p.atEnd() {
		class.Methods = append(class.Methods, p.funDeclaration(true, class))
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	return class
}

func (p *Parser) importStatement() ast.Stmt {
	line := p.prev().Line
	path := p.importPath()
	alias := path[len(path)-1]
	if p.match(token.AS) {
		alias = p.consume(token.IDENT, "expect alias name after 'as'").Lexeme
	}
	p.consume(token.SEMICOLON, "expect ';' after import statement")
	return &ast.ImportStmt{Path: path, Alias: alias, Line: line}
}

func (p *Parser) importPath() []string {
	var path []string
	path = append(path, p.consume(token.IDENT, "expect module path").Lexeme)
	for p.match(token.DOT) {
		path = append(path, p.consume(token.IDENT, "expect module path component").Lexeme)
	}
	return path
}

func (p *Parser) fromImportStatement() ast.Stmt {
	line := p.prev().Line
	path := p.importPath()
	p.consume(token.IMPORT, "expect 'import' after module path")
	var names []string
	for {
		names = append(names, p.consume(token.IDENT, "expect imported name").Lexeme)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMICOLON, "expect ';' after import statement")
	return &ast.FromImportStmt{
		Path:       path,
		Names:      names,
		Storage:    make([]ast.Storage, len(names)),
		StaticSlot: make([]uint16, len(names)),
		Line:       line,
	}
}

func (p *Parser) exportStatement() ast.Stmt {
	line := p.prev().Line
	var decl ast.Stmt
	switch {
	case p.match(token.VAR):
		decl = p.varDeclaration()
	case p.match(token.FUN):
		decl = p.funDeclaration(false, nil)
	case p.match(token.CLASS):
		decl = p.classDeclaration()
	default:
		panic(p.errorAt(p.peek(), "expect a declaration after 'export'"))
	}
	return &ast.ExportStmt{Decl: decl, Line: line}
}

// ---- statements ----

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.LBRACE):
		return &ast.BlockStmt{Stmts: p.block()}
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.BREAK):
		line := p.prev().Line
		p.consume(token.SEMICOLON, "expect ';' after 'break'")
		return &ast.BreakStmt{Line: line}
	case p.match(token.CONTINUE):
		line := p.prev().Line
		p.consume(token.SEMICOLON, "expect ';' after 'continue'")
		return &ast.ContinueStmt{Line: line}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.atEnd() {
		if stmt := p.declarationSafe(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.consume(token.RBRACE, "expect '}' after block")
	return stmts
}

// controlBody rejects a `var` declaration directly as a conditioned
// body (§4.3's "conditioned declaration" check) by requiring an
// explicit block wherever the grammar allows a single statement but a
// declaration would otherwise be ambiguous to scope.
func (p *Parser) controlBody() ast.Stmt {
	if p.check(token.VAR) {
		panic(p.errorAt(p.peek(), "variable declaration not allowed directly as the body of if/while/for; wrap it in a block"))
	}
	return p.statement()
}

func (p *Parser) ifStatement() ast.Stmt {
	line := p.prev().Line
	p.consume(token.LPAREN, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")
	then := p.controlBody()
	var els ast.Stmt
	if p.match(token.ELSE) {
		els = p.controlBody()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Line: line}
}

func (p *Parser) whileStatement() ast.Stmt {
	line := p.prev().Line
	p.consume(token.LPAREN, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")
	body := p.controlBody()
	return &ast.WhileStmt{Cond: cond, Body: body, Line: line}
}

func (p *Parser) forStatement() ast.Stmt {
	line := p.prev().Line
	p.consume(token.LPAREN, "expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		init = nil
	case p.match(token.VAR):
		init = p.varDeclaration()
	default:
		init = p.expressionStatement()
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.expression()
	}
	p.consume(token.SEMICOLON, "expect ';' after loop condition")

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr = p.expression()
	}
	p.consume(token.RPAREN, "expect ')' after for clauses")

	body := p.controlBody()
	return &ast.ForStmt{Init: init, Cond: cond, Incr: incr, Body: body, Line: line}
}

func (p *Parser) returnStatement() ast.Stmt {
	line := p.prev().Line
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.consume(token.SEMICOLON, "expect ';' after return value")
	return &ast.ReturnStmt{Value: value, Line: line}
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "expect ';' after expression")
	return &ast.ExpressionStmt{Expr: expr}
}

// ---- expressions: precedence climbing, lowest to highest ----
// assignment -> or -> and -> equality -> comparison -> term -> factor
// -> unary -> call -> primary

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.EQUAL) {
		eq := p.prev()
		value := p.assignment()
		return p.finishAssign(expr, value, eq.Line)
	}

	if kind, ok := compoundOps[p.peek().Kind]; ok {
		opTok := p.advance()
		rhs := p.expression()
		binOp := &ast.BinaryExpr{Left: cloneTarget(expr), Op: kind, Right: rhs, Line: opTok.Line}
		return p.finishAssign(expr, binOp, opTok.Line)
	}

	return expr
}

var compoundOps = map[token.Kind]token.Kind{
	token.PLUS_EQUAL:        token.PLUS,
	token.MINUS_EQUAL:       token.MINUS,
	token.STAR_EQUAL:        token.STAR,
	token.SLASH_EQUAL:       token.SLASH,
	token.SLASH_SLASH_EQUAL: token.SLASH_SLASH,
}

// finishAssign validates that target is a legal l-value (§4.2) and
// builds the Assign node (or rejects with a compile error).
func (p *Parser) finishAssign(target ast.Expr, value ast.Expr, line int) ast.Expr {
	if !isLegalTarget(target) {
		panic(p.errorAt(token.New(token.EQUAL, "=", line), "invalid assignment target"))
	}
	return &ast.AssignExpr{Target: target, Value: value, Line: line}
}

func isLegalTarget(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.VariableExpr, *ast.GetExpr, *ast.UnderscoreExpr:
		return true
	case *ast.TupleExpr:
		for _, el := range t.Elements {
			if !isLegalTarget(el) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// cloneTarget duplicates a legal l-value expression node so compound
// assignment can read and write the same location without aliasing
// the original AST node (§4.2).
func cloneTarget(e ast.Expr) ast.Expr {
	switch t := e.(type) {
	case *ast.VariableExpr:
		c := *t
		return &c
	case *ast.GetExpr:
		c := *t
		return &c
	case *ast.UnderscoreExpr:
		c := *t
		return &c
	default:
		return e
	}
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.check(token.OR) {
		opTok := p.advance()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Op: token.OR, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.check(token.AND) {
		opTok := p.advance()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Op: token.AND, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.check(token.EQUAL_EQUAL) || p.check(token.BANG_EQUAL) {
		opTok := p.advance()
		right := p.comparison()
		expr = &ast.BinaryExpr{Left: expr, Op: opTok.Kind, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.check(token.LESS) || p.check(token.LESS_EQUAL) || p.check(token.GREATER) || p.check(token.GREATER_EQUAL) {
		opTok := p.advance()
		right := p.term()
		expr = &ast.BinaryExpr{Left: expr, Op: opTok.Kind, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		opTok := p.advance()
		right := p.factor()
		expr = &ast.BinaryExpr{Left: expr, Op: opTok.Kind, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.SLASH_SLASH) {
		opTok := p.advance()
		right := p.unary()
		expr = &ast.BinaryExpr{Left: expr, Op: opTok.Kind, Right: right, Line: opTok.Line}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.check(token.BANG) || p.check(token.MINUS) {
		opTok := p.advance()
		operand := p.unary()
		return &ast.UnaryExpr{Op: opTok.Kind, Operand: operand, Line: opTok.Line}
	}
	if p.check(token.PLUS_PLUS) || p.check(token.MINUS_MINUS) {
		opTok := p.advance()
		target := p.unary()
		if !isIncDecTarget(target) {
			panic(p.errorAt(opTok, "'++'/'--' target must be a variable or property"))
		}
		one := &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitInt, Int: 1}, Line: opTok.Line}
		op := token.PLUS
		if opTok.Kind == token.MINUS_MINUS {
			op = token.MINUS
		}
		binOp := &ast.BinaryExpr{Left: cloneTarget(target), Op: op, Right: one, Line: opTok.Line}
		return &ast.AssignExpr{Target: target, Value: binOp, Line: opTok.Line}
	}
	return p.callOrPrimary()
}

func isIncDecTarget(e ast.Expr) bool {
	switch e.(type) {
	case *ast.VariableExpr, *ast.GetExpr:
		return true
	default:
		return false
	}
}

func (p *Parser) callOrPrimary() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			nameTok := p.consume(token.IDENT, "expect property name after '.'")
			expr = &ast.GetExpr{Object: expr, Name: nameTok.Lexeme, Line: nameTok.Line}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RPAREN, "expect ')' after arguments")
	return &ast.CallExpr{Callee: callee, ParenTok: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch {
	case p.match(token.FALSE):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitBool, Bool: false}, Line: tok.Line}
	case p.match(token.TRUE):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitBool, Bool: true}, Line: tok.Line}
	case p.match(token.NIL):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitNil}, Line: tok.Line}
	case p.match(token.INT):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitInt, Int: tok.Literal.Int}, Line: tok.Line}
	case p.match(token.FLOAT):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitFloat, Float: tok.Literal.Float}, Line: tok.Line}
	case p.match(token.STRING):
		return &ast.LiteralExpr{Value: ast.LiteralValue{Kind: ast.LitString, String: tok.Literal.String}, Line: tok.Line}
	case p.match(token.THIS):
		return &ast.ThisExpr{Tok: tok, Line: tok.Line}
	case p.match(token.SUPER):
		p.consume(token.DOT, "expect '.' after 'super'")
		method := p.consume(token.IDENT, "expect superclass method name")
		return &ast.SuperExpr{Tok: tok, Method: method.Lexeme, Line: tok.Line}
	case p.match(token.IDENT):
		if tok.Lexeme == "_" {
			return &ast.UnderscoreExpr{Line: tok.Line}
		}
		return &ast.VariableExpr{Name: tok.Lexeme, Line: tok.Line}
	case p.match(token.LPAREN):
		return p.groupingOrTuple(tok.Line)
	default:
		panic(p.errorAt(tok, "expect expression"))
	}
}

// groupingOrTuple parses the remainder of a `(` already consumed:
// `()` empty tuple, `(e,)` 1-tuple, `(e1, e2, ...)` n-tuple (trailing
// comma permitted), or a plain parenthesized expression.
func (p *Parser) groupingOrTuple(line int) ast.Expr {
	if p.match(token.RPAREN) {
		return &ast.TupleExpr{Line: line}
	}
	first := p.expression()
	if !p.check(token.COMMA) {
		p.consume(token.RPAREN, "expect ')' after expression")
		return &ast.GroupingExpr{Inner: first}
	}
	elems := []ast.Expr{first}
	for p.match(token.COMMA) {
		if p.check(token.RPAREN) {
			break // trailing comma
		}
		elems = append(elems, p.expression())
	}
	p.consume(token.RPAREN, "expect ')' after tuple elements")
	return &ast.TupleExpr{Elements: elems, Line: line}
}
