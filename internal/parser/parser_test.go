package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"vc/internal/ast"
	"vc/internal/lexer"
	"vc/internal/parser"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func mustParseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	expr, err := parser.ParseExpression(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return expr
}

func parseErr(t *testing.T, src string) *parser.ParseError {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(tokens)
	if err == nil {
		t.Fatalf("expected a parse error, got program:\n%s", ast.DebugString(prog))
	}
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *parser.ParseError, got %T: %v", err, err)
	}
	return pe
}

func pos(line, col int) ast.Position {
	return ast.Position{Line: line, Column: col}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func TestPrecedenceMulOverAdd(t *testing.T) {
	got := mustParseExpr(t, "1+2*3")
	want := &ast.BinaryExpr{
		Op:   ast.Add,
		Left: &ast.IntLitExpr{Value: "1", Pos: pos(1, 1)},
		Right: &ast.BinaryExpr{
			Op:    ast.Mul,
			Left:  &ast.IntLitExpr{Value: "2", Pos: pos(1, 3)},
			Right: &ast.IntLitExpr{Value: "3", Pos: pos(1, 5)},
			Pos:   pos(1, 4),
		},
		Pos: pos(1, 2),
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("tree mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestLeftAssociativity(t *testing.T) {
	got := mustParseExpr(t, "a-b-c")
	want := &ast.BinaryExpr{
		Op: ast.Sub,
		Left: &ast.BinaryExpr{
			Op:    ast.Sub,
			Left:  &ast.IdentExpr{Name: "a", Pos: pos(1, 1)},
			Right: &ast.IdentExpr{Name: "b", Pos: pos(1, 3)},
			Pos:   pos(1, 2),
		},
		Right: &ast.IdentExpr{Name: "c", Pos: pos(1, 5)},
		Pos:   pos(1, 4),
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("tree mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestExpressionShapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"a-b-c", "((a - b) - c)"},
		{"a/b*c", "((a / b) * c)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a == b && c != d", "((a == b) && (c != d))"},
		{"a || b && c", "(a || (b && c))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"x + 1 <= y * 2", "((x + 1) <= (y * 2))"},
		{"((x))", "x"},
		{"'a' + 1", "('a' + 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := ast.ExprString(mustParseExpr(t, tt.src))
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrailingTokensAfterExpression(t *testing.T) {
	tokens, err := lexer.Lex("1 + 2 3")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.ParseExpression(tokens); err == nil {
		t.Fatal("expected an error for trailing tokens")
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func TestVarDecls(t *testing.T) {
	prog := mustParse(t, "char c = 'x'; short s = 1; int i = 2; long l = 3; let z = 4;")
	want := []struct {
		typ  ast.Type
		name string
	}{
		{ast.Char, "c"},
		{ast.Short, "s"},
		{ast.Int, "i"},
		{ast.Long, "l"},
		{ast.Long, "z"},
	}
	if len(prog.Stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(prog.Stmts))
	}
	for i, w := range want {
		decl, ok := prog.Stmts[i].(*ast.VarDeclStmt)
		if !ok {
			t.Fatalf("stmt %d: expected *ast.VarDeclStmt, got %T", i, prog.Stmts[i])
		}
		if decl.Type != w.typ || decl.Name != w.name {
			t.Errorf("stmt %d: got %s %s, want %s %s", i, decl.Type, decl.Name, w.typ, w.name)
		}
	}
}

func TestAssignAndExit(t *testing.T) {
	prog := mustParse(t, "int x = 5;\nx = x + 1;\nexit(x);")
	want := []ast.Stmt{
		&ast.VarDeclStmt{
			Type: ast.Int,
			Name: "x",
			Init: &ast.IntLitExpr{Value: "5", Pos: pos(1, 9)},
			Pos:  pos(1, 1),
		},
		&ast.AssignStmt{
			Name: "x",
			Value: &ast.BinaryExpr{
				Op:    ast.Add,
				Left:  &ast.IdentExpr{Name: "x", Pos: pos(2, 5)},
				Right: &ast.IntLitExpr{Value: "1", Pos: pos(2, 9)},
				Pos:   pos(2, 7),
			},
			Pos: pos(2, 1),
		},
		&ast.ExitStmt{
			Value: &ast.IdentExpr{Name: "x", Pos: pos(3, 6)},
			Pos:   pos(3, 1),
		},
	}
	if diff := pretty.Diff(prog.Stmts, want); len(diff) > 0 {
		t.Errorf("statements mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestIfElseAreSeparateStatements(t *testing.T) {
	prog := mustParse(t, "if (1) { exit(1); } else { exit(2); }")
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Stmts))
	}
	ifStmt, ok := prog.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", prog.Stmts[0])
	}
	if len(ifStmt.Body) != 1 {
		t.Errorf("if body: expected 1 statement, got %d", len(ifStmt.Body))
	}
	elseStmt, ok := prog.Stmts[1].(*ast.ElseStmt)
	if !ok {
		t.Fatalf("expected *ast.ElseStmt, got %T", prog.Stmts[1])
	}
	if len(elseStmt.Body) != 1 {
		t.Errorf("else body: expected 1 statement, got %d", len(elseStmt.Body))
	}
}

func TestOrphanElseIsLegal(t *testing.T) {
	prog := mustParse(t, "else { exit(3); }")
	if _, ok := prog.Stmts[0].(*ast.ElseStmt); !ok {
		t.Fatalf("expected *ast.ElseStmt, got %T", prog.Stmts[0])
	}
}

func TestWhileLoop(t *testing.T) {
	prog := mustParse(t, "int i = 0; while (i < 3) { i = i + 1; } exit(i);")
	w, ok := prog.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected *ast.WhileStmt, got %T", prog.Stmts[1])
	}
	if got := ast.ExprString(w.Condition); got != "(i < 3)" {
		t.Errorf("condition: got %s", got)
	}
	if len(w.Body) != 1 {
		t.Errorf("body: expected 1 statement, got %d", len(w.Body))
	}
}

func TestForLoop(t *testing.T) {
	prog := mustParse(t, "for (int i = 0; i < 10; i = i + 1) { exit(i); }")
	f, ok := prog.Stmts[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", prog.Stmts[0])
	}
	if got := ast.StmtString(f.Init); got != "int i = 0" {
		t.Errorf("init: got %q", got)
	}
	if got := ast.ExprString(f.Condition); got != "(i < 10)" {
		t.Errorf("condition: got %q", got)
	}
	if got := ast.StmtString(f.Step); got != "i = (i + 1)" {
		t.Errorf("step: got %q", got)
	}
	if len(f.Body) != 1 {
		t.Errorf("body: expected 1 statement, got %d", len(f.Body))
	}
}

func TestForLoopWithAssignInit(t *testing.T) {
	prog := mustParse(t, "int i = 9; for (i = 0; i < 2; i = i + 1) { }")
	f := prog.Stmts[1].(*ast.ForStmt)
	if _, ok := f.Init.(*ast.AssignStmt); !ok {
		t.Errorf("init: expected *ast.AssignStmt, got %T", f.Init)
	}
	if len(f.Body) != 0 {
		t.Errorf("expected empty body, got %d statements", len(f.Body))
	}
}

func TestFuncDeclAndCall(t *testing.T) {
	prog := mustParse(t, "add(int a, char b) { exit(a); }\nadd(1, 'x');\nadd(y);\nnoargs();")
	if len(prog.Stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(prog.Stmts))
	}

	fn, ok := prog.Stmts[0].(*ast.FuncDeclStmt)
	if !ok {
		t.Fatalf("expected *ast.FuncDeclStmt, got %T", prog.Stmts[0])
	}
	wantParams := []*ast.Param{
		{Type: ast.Int, Name: "a", Pos: pos(1, 5)},
		{Type: ast.Char, Name: "b", Pos: pos(1, 12)},
	}
	if diff := pretty.Diff(fn.Params, wantParams); len(diff) > 0 {
		t.Errorf("params mismatch:\n%s", strings.Join(diff, "\n"))
	}

	call, ok := prog.Stmts[1].(*ast.FuncCallStmt)
	if !ok {
		t.Fatalf("expected *ast.FuncCallStmt, got %T", prog.Stmts[1])
	}
	wantArgs := []ast.Expr{
		&ast.IntLitExpr{Value: "1", Pos: pos(2, 5)},
		&ast.CharLitExpr{Value: "x", Pos: pos(2, 8)},
	}
	if diff := pretty.Diff(call.Args, wantArgs); len(diff) > 0 {
		t.Errorf("args mismatch:\n%s", strings.Join(diff, "\n"))
	}

	if got := ast.StmtString(prog.Stmts[2]); got != "add(y)" {
		t.Errorf("call with identifier: got %q", got)
	}
	if c := prog.Stmts[3].(*ast.FuncCallStmt); len(c.Args) != 0 {
		t.Errorf("expected no args, got %d", len(c.Args))
	}
}

func TestEmptyFuncDecl(t *testing.T) {
	prog := mustParse(t, "f() { }")
	fn, ok := prog.Stmts[0].(*ast.FuncDeclStmt)
	if !ok {
		t.Fatalf("expected *ast.FuncDeclStmt, got %T", prog.Stmts[0])
	}
	if len(fn.Params) != 0 || len(fn.Body) != 0 {
		t.Errorf("expected empty params and body, got %d and %d", len(fn.Params), len(fn.Body))
	}
}

func TestSixParamsAllowed(t *testing.T) {
	prog := mustParse(t, "f(int a, int b, int c, int d, int e, int g) { }")
	if fn := prog.Stmts[0].(*ast.FuncDeclStmt); len(fn.Params) != 6 {
		t.Errorf("expected 6 params, got %d", len(fn.Params))
	}
}

func TestNestedBlocks(t *testing.T) {
	prog := mustParse(t, "int a = 1; if (a) { while (a) { a = a - 1; if (a == 0) { exit(7); } } }")
	got := ast.DebugString(prog)
	want := strings.Join([]string{
		"Program",
		"  int a = 1",
		"  If (a)",
		"    While (a)",
		"      a = (a - 1)",
		"      If ((a == 0))",
		"        Exit 7",
		"",
	}, "\n")
	if got != want {
		t.Errorf("debug dump mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing semicolon", "int x = 1", "expected ';'"},
		{"missing rparen", "exit(1;", "expected ')'"},
		{"missing lparen", "exit 1;", "expected '('"},
		{"missing lbrace", "if (1) exit(1);", "expected '{'"},
		{"missing rbrace", "while (1) { exit(1);", "expected '}'"},
		{"unexpected primary", "exit(;);", "expected expression"},
		{"eof in expression", "int x = 1 +", "end of input"},
		{"decl without name", "int = 3;", "expected variable name"},
		{"decl without init", "int x;", "expected '='"},
		{"stray token", "; exit(0);", "expected a statement"},
		{"bad call argument", "f(-1);", "expected literal or identifier"},
		{"untyped parameter", "f(a) { }", "expected parameter type"},
		{"bad for step", "for (int i = 0; i < 1; exit(i)) { }", "expected variable name"},
		{"seven params", "f(int a, int b, int c, int d, int e, int g, int h) { }", "more than 6 parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseErr(t, tt.src)
			if !strings.Contains(pe.Message, tt.msg) {
				t.Errorf("message: got %q, want it to contain %q", pe.Message, tt.msg)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	pe := parseErr(t, "int x = 1;\nexit(x")
	if pe.Line != 2 {
		t.Errorf("expected error on line 2, got %d", pe.Line)
	}
	if !strings.HasPrefix(pe.Error(), "line 2, col ") {
		t.Errorf("unexpected error format: %q", pe.Error())
	}
}
