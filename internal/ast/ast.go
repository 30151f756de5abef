package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Type is a declarable variable or parameter type.
type Type int

const (
	Char Type = iota
	Short
	Int
	Long
)

// Width returns the number of bytes a value of the type occupies.
func (t Type) Width() int {
	switch t {
	case Char:
		return 1
	case Short:
		return 2
	case Int:
		return 4
	default:
		return 8
	}
}

func (t Type) String() string {
	switch t {
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	default:
		return "unknown"
	}
}

// TypeFromKeyword maps a type keyword to its Type.
func TypeFromKeyword(word string) (Type, bool) {
	switch word {
	case "char":
		return Char, true
	case "short":
		return Short, true
	case "int":
		return Int, true
	case "long":
		return Long, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Program (root)
// ---------------------------------------------------------------------------

// Program is the ordered sequence of top-level statements of one source file.
type Program struct {
	Stmts []Stmt
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// VarDeclStmt: <type> <name> = <init>;  or the legacy  let <name> = <init>;
type VarDeclStmt struct {
	Type Type
	Name string
	Init Expr
	Pos  Position
}

func (n *VarDeclStmt) GetPos() Position { return n.Pos }
func (n *VarDeclStmt) stmtNode()        {}

// AssignStmt: <name> = <value>;
type AssignStmt struct {
	Name  string
	Value Expr
	Pos   Position
}

func (n *AssignStmt) GetPos() Position { return n.Pos }
func (n *AssignStmt) stmtNode()        {}

// ExitStmt: exit(<value>);
type ExitStmt struct {
	Value Expr
	Pos   Position
}

func (n *ExitStmt) GetPos() Position { return n.Pos }
func (n *ExitStmt) stmtNode()        {}

// IfStmt: if (<cond>) { <body> }
type IfStmt struct {
	Condition Expr
	Body      []Stmt
	Pos       Position
}

func (n *IfStmt) GetPos() Position { return n.Pos }
func (n *IfStmt) stmtNode()        {}

// ElseStmt: else { <body> }. It is a statement of its own and is not
// attached to a preceding IfStmt.
type ElseStmt struct {
	Body []Stmt
	Pos  Position
}

func (n *ElseStmt) GetPos() Position { return n.Pos }
func (n *ElseStmt) stmtNode()        {}

// WhileStmt: while (<cond>) { <body> }
type WhileStmt struct {
	Condition Expr
	Body      []Stmt
	Pos       Position
}

func (n *WhileStmt) GetPos() Position { return n.Pos }
func (n *WhileStmt) stmtNode()        {}

// ForStmt: for (<init>; <cond>; <step>) { <body> }
type ForStmt struct {
	Init      Stmt // *VarDeclStmt or *AssignStmt
	Condition Expr
	Step      Stmt // *AssignStmt (no trailing semicolon)
	Body      []Stmt
	Pos       Position
}

func (n *ForStmt) GetPos() Position { return n.Pos }
func (n *ForStmt) stmtNode()        {}

// Param is a single function parameter: <type> <name>.
type Param struct {
	Type Type
	Name string
	Pos  Position
}

// FuncDeclStmt: <name>(<type> <name>, ...) { <body> }
type FuncDeclStmt struct {
	Name   string
	Params []*Param
	Body   []Stmt
	Pos    Position
}

func (n *FuncDeclStmt) GetPos() Position { return n.Pos }
func (n *FuncDeclStmt) stmtNode()        {}

// FuncCallStmt: <name>(<arg>, ...);  Each argument is a literal or identifier.
type FuncCallStmt struct {
	Name string
	Args []Expr
	Pos  Position
}

func (n *FuncCallStmt) GetPos() Position { return n.Pos }
func (n *FuncCallStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IdentExpr is a plain identifier reference.
type IdentExpr struct {
	Name string
	Pos  Position
}

func (n *IdentExpr) GetPos() Position { return n.Pos }
func (n *IdentExpr) exprNode()        {}

// IntLitExpr is an integer literal (value kept as the original lexeme).
type IntLitExpr struct {
	Value string
	Pos   Position
}

func (n *IntLitExpr) GetPos() Position { return n.Pos }
func (n *IntLitExpr) exprNode()        {}

// CharLitExpr is a char literal; Value holds the decoded character.
type CharLitExpr struct {
	Value string
	Pos   Position
}

func (n *CharLitExpr) GetPos() Position { return n.Pos }
func (n *CharLitExpr) exprNode()        {}

// BinaryOp identifies the operator of a BinaryExpr.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

var binaryOpSymbols = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Eq:  "==",
	Neq: "!=",
	Lt:  "<",
	Lte: "<=",
	Gt:  ">",
	Gte: ">=",
	And: "&&",
	Or:  "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

// IsArithmetic reports whether op is one of + - * /.
func (op BinaryOp) IsArithmetic() bool {
	return op == Add || op == Sub || op == Mul || op == Div
}

// IsComparison reports whether op is a relational or equality operator.
func (op BinaryOp) IsComparison() bool {
	return op >= Eq && op <= Gte
}

// BinaryExpr: <left> <op> <right>
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *BinaryExpr) GetPos() Position { return n.Pos }
func (n *BinaryExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer – produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the AST.
func DebugString(prog *Program) string {
	var b strings.Builder
	b.WriteString("Program\n")
	debugStmts(&b, prog.Stmts, 1)
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func debugStmts(b *strings.Builder, stmts []Stmt, level int) {
	for _, s := range stmts {
		debugStmt(b, s, level)
	}
}

func debugStmt(b *strings.Builder, s Stmt, level int) {
	writeIndent(b, level)
	switch s := s.(type) {
	case *VarDeclStmt, *AssignStmt:
		b.WriteString(StmtString(s))
		b.WriteString("\n")
	case *ExitStmt:
		fmt.Fprintf(b, "Exit %s\n", ExprString(s.Value))
	case *IfStmt:
		fmt.Fprintf(b, "If (%s)\n", ExprString(s.Condition))
		debugStmts(b, s.Body, level+1)
	case *ElseStmt:
		b.WriteString("Else\n")
		debugStmts(b, s.Body, level+1)
	case *WhileStmt:
		fmt.Fprintf(b, "While (%s)\n", ExprString(s.Condition))
		debugStmts(b, s.Body, level+1)
	case *ForStmt:
		fmt.Fprintf(b, "For (%s; %s; %s)\n", StmtString(s.Init), ExprString(s.Condition), StmtString(s.Step))
		debugStmts(b, s.Body, level+1)
	case *FuncDeclStmt:
		params := make([]string, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.Type.String() + " " + p.Name
		}
		fmt.Fprintf(b, "Func %s(%s)\n", s.Name, strings.Join(params, ", "))
		debugStmts(b, s.Body, level+1)
	case *FuncCallStmt:
		b.WriteString(StmtString(s))
		b.WriteString("\n")
	default:
		b.WriteString("<unknown stmt>\n")
	}
}

// StmtString returns a one-line summary of a simple statement (used inside
// for-loop headers).
func StmtString(s Stmt) string {
	switch s := s.(type) {
	case nil:
		return "<nil>"
	case *VarDeclStmt:
		return fmt.Sprintf("%s %s = %s", s.Type, s.Name, ExprString(s.Init))
	case *AssignStmt:
		return fmt.Sprintf("%s = %s", s.Name, ExprString(s.Value))
	case *FuncCallStmt:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", s.Name, strings.Join(args, ", "))
	default:
		return "<stmt>"
	}
}

// ExprString returns a concise one-line representation of an expression.
// Binary nodes are fully parenthesised, so "1+2*3" prints as "(1 + (2 * 3))".
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *IdentExpr:
		return e.Name
	case *IntLitExpr:
		return e.Value
	case *CharLitExpr:
		return fmt.Sprintf("%q", e.Value[0])
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	default:
		return "<unknown expr>"
	}
}
