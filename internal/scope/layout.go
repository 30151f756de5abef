package scope

import "vc/internal/ast"

// Layout is the stack layout of a whole compilation unit.
type Layout struct {
	Slots []Symbol
	Total int // sum of all slot widths
	Frame int // Total rounded up to 16
}

// Measure walks prog in source order, allocating slots exactly as the code
// generator does, and reports the resulting layout. Redeclaration conflicts
// are ignored here; the generator reports them.
func Measure(prog *ast.Program) Layout {
	a := NewAllocator()
	measureStmts(a, prog.Stmts)
	return Layout{
		Slots: a.Slots(),
		Total: a.Total(),
		Frame: AlignFrame(a.Total()),
	}
}

// FrameSize returns the number of bytes every prologue in prog reserves.
func FrameSize(prog *ast.Program) int {
	return Measure(prog).Frame
}

func measureStmts(a *Allocator, stmts []ast.Stmt) {
	for _, s := range stmts {
		measureStmt(a, s)
	}
}

func measureBlock(a *Allocator, stmts []ast.Stmt) {
	a.Push()
	measureStmts(a, stmts)
	a.Pop()
}

func measureStmt(a *Allocator, s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		a.Declare(s.Name, s.Type)
	case *ast.IfStmt:
		measureBlock(a, s.Body)
	case *ast.ElseStmt:
		measureBlock(a, s.Body)
	case *ast.WhileStmt:
		measureBlock(a, s.Body)
	case *ast.ForStmt:
		a.Push()
		if s.Init != nil {
			measureStmt(a, s.Init)
		}
		measureBlock(a, s.Body)
		a.Pop()
	case *ast.FuncDeclStmt:
		a.EnterFunction()
		for _, p := range s.Params {
			a.Declare(p.Name, p.Type)
		}
		measureBlock(a, s.Body)
		a.LeaveFunction()
	}
}
