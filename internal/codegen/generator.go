package codegen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vc/internal/ast"
	"vc/internal/scope"
)

// ---------------------------------------------------------------------------
// x86-64 NASM generator
//
// Every expression leaves its value in rax; rbx is the scratch register for
// the right operand of a binary node. Variables live at [rbp - offset] with
// offsets handed out by scope.Allocator. Each prologue reserves the frame
// size of the whole unit, so functions and the top level share one layout.
// ---------------------------------------------------------------------------

// funcSig is a function table entry.
type funcSig struct {
	name   string
	params []ast.Type
}

// Generator is the per-compilation context: label counter, symbol table,
// function table and output buffer.
type Generator struct {
	target *Target
	b      *strings.Builder
	alloc  *scope.Allocator
	funcs  map[string]*funcSig
	frame  int
	uid    int
}

// NewGenerator returns a fresh generator for target. A nil target means
// LinuxAMD64.
func NewGenerator(target *Target) *Generator {
	if target == nil {
		target = LinuxAMD64()
	}
	return &Generator{
		target: target,
		b:      &strings.Builder{},
		alloc:  scope.NewAllocator(),
		funcs:  make(map[string]*funcSig),
	}
}

// EmitAssembly compiles prog into a NASM listing using a fresh generator.
// On error the returned text is empty.
func EmitAssembly(prog *ast.Program) (string, error) {
	return NewGenerator(nil).Generate(prog)
}

// Generate lowers prog into the generator's buffer and returns the listing.
// A Generator is single-use.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	g.frame = scope.FrameSize(prog)

	g.line("global %s", g.target.EntryPoint)
	g.line("section .text")
	g.label(g.target.EntryPoint)
	g.prologue()

	if err := g.genStmts(prog.Stmts); err != nil {
		return "", err
	}

	// Fallthrough: exit(0).
	g.emit("mov %s, %d", g.target.SyscallReg, g.target.ExitSyscall)
	g.emit("mov %s, 0", g.target.SyscallArgReg)
	g.emit("%s", g.target.SyscallInstr)
	return g.b.String(), nil
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func (g *Generator) uniqueID() int {
	id := g.uid
	g.uid++
	return id
}

// emit writes one indented instruction.
func (g *Generator) emit(format string, args ...any) {
	g.b.WriteString("    ")
	fmt.Fprintf(g.b, format, args...)
	g.b.WriteString("\n")
}

// line writes an unindented directive.
func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(g.b, format, args...)
	g.b.WriteString("\n")
}

func (g *Generator) label(name string) {
	g.b.WriteString(name)
	g.b.WriteString(":\n")
}

func (g *Generator) prologue() {
	g.emit("push rbp")
	g.emit("mov rbp, rsp")
	if g.frame > 0 {
		g.emit("sub rsp, %d", g.frame)
	}
}

func (g *Generator) epilogue() {
	g.emit("mov rsp, rbp")
	g.emit("pop rbp")
	g.emit("ret")
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) genStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// genBlock generates stmts inside a nested scope.
func (g *Generator) genBlock(stmts []ast.Stmt) error {
	g.alloc.Push()
	defer g.alloc.Pop()
	return g.genStmts(stmts)
}

func (g *Generator) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		return g.genVarDecl(s)
	case *ast.AssignStmt:
		return g.genAssign(s)
	case *ast.ExitStmt:
		return g.genExit(s)
	case *ast.IfStmt:
		return g.genIf(s)
	case *ast.ElseStmt:
		return g.genElse(s)
	case *ast.WhileStmt:
		return g.genWhile(s)
	case *ast.ForStmt:
		return g.genFor(s)
	case *ast.FuncDeclStmt:
		return g.genFuncDecl(s)
	case *ast.FuncCallStmt:
		return g.genFuncCall(s)
	default:
		return fmt.Errorf("codegen: unsupported statement %T", stmt)
	}
}

func (g *Generator) genVarDecl(s *ast.VarDeclStmt) error {
	isChar, err := g.genExpr(s.Init)
	if err != nil {
		return err
	}
	if isChar && s.Type != ast.Char {
		return errorf(TypeMismatch, s.Pos, "cannot initialise %s variable %q with a char expression", s.Type, s.Name)
	}

	sym, _, err := g.alloc.Declare(s.Name, s.Type)
	if errors.Is(err, scope.ErrRedeclared) {
		return errorf(Redeclared, s.Pos, "%v", err)
	} else if err != nil {
		return err
	}
	g.emit("%s", storeInstr(accumulator, sym.Width, sym.Offset))
	return nil
}

func (g *Generator) genAssign(s *ast.AssignStmt) error {
	sym, ok := g.alloc.Lookup(s.Name)
	if !ok {
		return errorf(UndefinedVariable, s.Pos, "assignment to undeclared %q", s.Name)
	}
	isChar, err := g.genExpr(s.Value)
	if err != nil {
		return err
	}
	if isChar && sym.Type != ast.Char {
		return errorf(TypeMismatch, s.Pos, "cannot assign a char expression to %s variable %q", sym.Type, s.Name)
	}
	g.emit("%s", storeInstr(accumulator, sym.Width, sym.Offset))
	return nil
}

func (g *Generator) genExit(s *ast.ExitStmt) error {
	if _, err := g.genExpr(s.Value); err != nil {
		return err
	}
	g.emit("mov %s, rax", g.target.SyscallArgReg)
	g.emit("mov %s, %d", g.target.SyscallReg, g.target.ExitSyscall)
	g.emit("%s", g.target.SyscallInstr)
	return nil
}

// genCondJump evaluates cond and jumps to target when it is zero.
func (g *Generator) genCondJump(cond ast.Expr, target string) error {
	if _, err := g.genExpr(cond); err != nil {
		return err
	}
	g.emit("test rax, rax")
	g.emit("je %s", target)
	return nil
}

func (g *Generator) genIf(s *ast.IfStmt) error {
	end := fmt.Sprintf("if_end_%d", g.uniqueID())
	if err := g.genCondJump(s.Condition, end); err != nil {
		return err
	}
	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	g.label(end)
	return nil
}

// genElse emits the body unconditionally; an else is not tied to the if
// before it.
func (g *Generator) genElse(s *ast.ElseStmt) error {
	end := fmt.Sprintf("else_end_%d", g.uniqueID())
	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	g.label(end)
	return nil
}

func (g *Generator) genWhile(s *ast.WhileStmt) error {
	id := g.uniqueID()
	start := fmt.Sprintf("while_start_%d", id)
	end := fmt.Sprintf("while_end_%d", id)

	g.label(start)
	if err := g.genCondJump(s.Condition, end); err != nil {
		return err
	}
	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	g.emit("jmp %s", start)
	g.label(end)
	return nil
}

func (g *Generator) genFor(s *ast.ForStmt) error {
	// The init variable lives in a scope wrapping the whole loop.
	g.alloc.Push()
	defer g.alloc.Pop()

	if s.Init != nil {
		if err := g.genStmt(s.Init); err != nil {
			return err
		}
	}

	id := g.uniqueID()
	start := fmt.Sprintf("for_start_%d", id)
	end := fmt.Sprintf("for_end_%d", id)

	g.label(start)
	if err := g.genCondJump(s.Condition, end); err != nil {
		return err
	}
	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	if s.Step != nil {
		if err := g.genStmt(s.Step); err != nil {
			return err
		}
	}
	g.emit("jmp %s", start)
	g.label(end)
	return nil
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (g *Generator) genFuncDecl(s *ast.FuncDeclStmt) error {
	if len(s.Params) > MaxArgs {
		return errorf(TooManyParams, s.Pos, "function %s has %d parameters (max %d)", s.Name, len(s.Params), MaxArgs)
	}
	if _, exists := g.funcs[s.Name]; exists {
		return errorf(Redeclared, s.Pos, "function %s is already declared", s.Name)
	}

	// Record the signature first so the body may call itself.
	sig := &funcSig{name: s.Name}
	for _, p := range s.Params {
		sig.params = append(sig.params, p.Type)
	}
	g.funcs[s.Name] = sig

	end := fmt.Sprintf("func_end_%d", g.uniqueID())
	g.emit("jmp %s", end)
	g.label("fn_" + s.Name)
	g.prologue()

	g.alloc.EnterFunction()
	defer g.alloc.LeaveFunction()

	for i, p := range s.Params {
		sym, fresh, err := g.alloc.Declare(p.Name, p.Type)
		if err != nil || !fresh {
			return errorf(Redeclared, p.Pos, "duplicate parameter %s in function %s", p.Name, s.Name)
		}
		reg, err := ArgRegister(i, sym.Width)
		if err != nil {
			return err
		}
		g.emit("mov %s, %s", slotOperand(sym.Width, sym.Offset), reg)
	}

	if err := g.genBlock(s.Body); err != nil {
		return err
	}
	g.epilogue()
	g.label(end)
	return nil
}

func (g *Generator) genFuncCall(s *ast.FuncCallStmt) error {
	sig, ok := g.funcs[s.Name]
	if !ok {
		return errorf(UndefinedFunction, s.Pos, "call to undeclared function %s", s.Name)
	}
	if len(s.Args) != len(sig.params) {
		return errorf(ArgumentCount, s.Pos, "function %s expects %d argument(s), got %d", s.Name, len(sig.params), len(s.Args))
	}

	// Validate every argument before emitting anything for the call.
	loads := make([]string, len(s.Args))
	for i, arg := range s.Args {
		want := sig.params[i]
		reg, err := ArgRegister(i, 8)
		if err != nil {
			return err
		}

		switch a := arg.(type) {
		case *ast.IntLitExpr:
			if want == ast.Char {
				return errorf(TypeMismatch, a.Pos, "argument %d of %s: int literal passed to char parameter", i+1, s.Name)
			}
			v, err := intValue(a)
			if err != nil {
				return err
			}
			loads[i] = fmt.Sprintf("mov %s, %d", reg, v)

		case *ast.CharLitExpr:
			if want != ast.Char {
				return errorf(TypeMismatch, a.Pos, "argument %d of %s: char literal passed to %s parameter", i+1, s.Name, want)
			}
			v, err := charValue(a)
			if err != nil {
				return err
			}
			loads[i] = fmt.Sprintf("mov %s, %d", reg, v)

		case *ast.IdentExpr:
			sym, ok := g.alloc.Lookup(a.Name)
			if !ok {
				return errorf(UndefinedVariable, a.Pos, "%q", a.Name)
			}
			if sym.Type != want {
				return errorf(TypeMismatch, a.Pos, "argument %d of %s: %s variable %q passed to %s parameter", i+1, s.Name, sym.Type, a.Name, want)
			}
			loads[i] = loadInstr(reg, sym.Width, sym.Offset)

		default:
			return errorf(TypeMismatch, arg.GetPos(), "argument %d of %s must be a literal or identifier", i+1, s.Name)
		}
	}

	for _, l := range loads {
		g.emit("%s", l)
	}
	g.emit("call fn_%s", s.Name)
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// genExpr leaves the value of e in rax and reports whether e is char-typed.
func (g *Generator) genExpr(e ast.Expr) (isChar bool, err error) {
	switch e := e.(type) {
	case *ast.IntLitExpr:
		v, err := intValue(e)
		if err != nil {
			return false, err
		}
		g.emit("mov rax, %d", v)
		return false, nil

	case *ast.CharLitExpr:
		v, err := charValue(e)
		if err != nil {
			return false, err
		}
		g.emit("mov rax, %d", v)
		return true, nil

	case *ast.IdentExpr:
		sym, ok := g.alloc.Lookup(e.Name)
		if !ok {
			return false, errorf(UndefinedVariable, e.Pos, "%q", e.Name)
		}
		g.emit("%s", loadInstr("rax", sym.Width, sym.Offset))
		return sym.Type == ast.Char, nil

	case *ast.BinaryExpr:
		switch e.Op {
		case ast.And:
			return false, g.genAnd(e)
		case ast.Or:
			return false, g.genOr(e)
		}
		return g.genBinary(e)

	default:
		return false, fmt.Errorf("codegen: unsupported expression %T", e)
	}
}

var setccByOp = map[ast.BinaryOp]string{
	ast.Eq:  "sete",
	ast.Neq: "setne",
	ast.Lt:  "setl",
	ast.Lte: "setle",
	ast.Gt:  "setg",
	ast.Gte: "setge",
}

// genBinary handles arithmetic and comparison nodes: left is pushed while
// right is evaluated, then popped back into rax with right in rbx.
func (g *Generator) genBinary(e *ast.BinaryExpr) (bool, error) {
	leftChar, err := g.genExpr(e.Left)
	if err != nil {
		return false, err
	}
	g.emit("push rax")
	rightChar, err := g.genExpr(e.Right)
	if err != nil {
		return false, err
	}
	g.emit("mov rbx, rax")
	g.emit("pop rax")

	switch e.Op {
	case ast.Add:
		g.emit("add rax, rbx")
	case ast.Sub:
		g.emit("sub rax, rbx")
	case ast.Mul:
		g.emit("imul rax, rbx")
	case ast.Div:
		g.emit("cqo")
		g.emit("idiv rbx")
	default:
		setcc, ok := setccByOp[e.Op]
		if !ok {
			return false, fmt.Errorf("codegen: unsupported operator %s", e.Op)
		}
		g.emit("cmp rax, rbx")
		g.emit("%s al", setcc)
		g.emit("movzx rax, al")
		return false, nil
	}
	return leftChar && rightChar, nil
}

// genAnd short-circuits: right is skipped when left is zero.
func (g *Generator) genAnd(e *ast.BinaryExpr) error {
	id := g.uniqueID()
	falseLabel := fmt.Sprintf("and_false_%d", id)
	end := fmt.Sprintf("and_end_%d", id)

	if _, err := g.genExpr(e.Left); err != nil {
		return err
	}
	g.emit("test rax, rax")
	g.emit("je %s", falseLabel)
	if _, err := g.genExpr(e.Right); err != nil {
		return err
	}
	g.emit("test rax, rax")
	g.emit("setne al")
	g.emit("movzx rax, al")
	g.emit("jmp %s", end)
	g.label(falseLabel)
	g.emit("mov rax, 0")
	g.label(end)
	return nil
}

// genOr short-circuits: right is skipped when left is non-zero.
func (g *Generator) genOr(e *ast.BinaryExpr) error {
	id := g.uniqueID()
	trueLabel := fmt.Sprintf("or_true_%d", id)
	end := fmt.Sprintf("or_end_%d", id)

	if _, err := g.genExpr(e.Left); err != nil {
		return err
	}
	g.emit("test rax, rax")
	g.emit("jne %s", trueLabel)
	if _, err := g.genExpr(e.Right); err != nil {
		return err
	}
	g.emit("test rax, rax")
	g.emit("setne al")
	g.emit("movzx rax, al")
	g.emit("jmp %s", end)
	g.label(trueLabel)
	g.emit("mov rax, 1")
	g.label(end)
	return nil
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

func intValue(e *ast.IntLitExpr) (int64, error) {
	v, err := strconv.ParseInt(e.Value, 10, 64)
	if err != nil {
		return 0, errorf(InvalidLiteral, e.Pos, "integer literal %s does not fit in 64 bits", e.Value)
	}
	return v, nil
}

func charValue(e *ast.CharLitExpr) (int, error) {
	if len(e.Value) != 1 {
		return 0, errorf(InvalidLiteral, e.Pos, "char literal must hold exactly one byte, got %q", e.Value)
	}
	return int(e.Value[0]), nil
}
