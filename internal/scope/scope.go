package scope

import (
	"errors"
	"fmt"
	"vc/internal/ast"
)

// ErrRedeclared is returned by Declare when a name is declared twice in the
// same block with different types.
var ErrRedeclared = errors.New("redeclared with a different type")

// ---------------------------------------------------------------------------
// Symbol
// ---------------------------------------------------------------------------

// Symbol is one variable's stack slot. The value lives at [rbp - Offset]
// and occupies Width bytes.
type Symbol struct {
	Name   string
	Type   ast.Type
	Offset int
	Width  int
}

// ---------------------------------------------------------------------------
// Scope
// ---------------------------------------------------------------------------

// frame is the set of names introduced by one block, chained to its parent.
type frame struct {
	parent  *frame
	symbols map[string]*Symbol
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, symbols: make(map[string]*Symbol)}
}

// lookup traverses the scope chain (current → parent → …) to find a symbol.
func (f *frame) lookup(name string) *Symbol {
	for s := f; s != nil; s = s.parent {
		if sym := s.symbols[name]; sym != nil {
			return sym
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Allocator
// ---------------------------------------------------------------------------

// Allocator hands out stack slots and tracks which names are visible.
// Offsets only ever grow: popping a scope hides its names but keeps their
// bytes reserved for the rest of the compilation unit.
type Allocator struct {
	current *frame
	outer   []*frame // enclosing chains saved by EnterFunction
	total   int
	slots   []Symbol
}

// NewAllocator returns an allocator with a single, empty top-level scope.
func NewAllocator() *Allocator {
	return &Allocator{current: newFrame(nil)}
}

// Push opens a nested block scope.
func (a *Allocator) Push() {
	a.current = newFrame(a.current)
}

// Pop closes the innermost block scope, removing its names from view.
func (a *Allocator) Pop() {
	if a.current.parent != nil {
		a.current = a.current.parent
	}
}

// EnterFunction starts a fresh scope chain for a function body. Names from
// the enclosing code are not visible until LeaveFunction.
func (a *Allocator) EnterFunction() {
	a.outer = append(a.outer, a.current)
	a.current = newFrame(nil)
}

// LeaveFunction restores the scope chain saved by the matching
// EnterFunction.
func (a *Allocator) LeaveFunction() {
	if n := len(a.outer); n > 0 {
		a.current = a.outer[n-1]
		a.outer = a.outer[:n-1]
	}
}

// Declare binds name in the innermost scope. A name already declared in
// that same scope with the same type keeps its slot; fresh is false in
// that case. Shadowing a name from an enclosing scope always allocates.
func (a *Allocator) Declare(name string, typ ast.Type) (sym Symbol, fresh bool, err error) {
	if prev := a.current.symbols[name]; prev != nil {
		if prev.Type != typ {
			return *prev, false, fmt.Errorf("%s: %w (was %s, now %s)", name, ErrRedeclared, prev.Type, typ)
		}
		return *prev, false, nil
	}

	width := typ.Width()
	a.total += width
	s := &Symbol{Name: name, Type: typ, Offset: a.total, Width: width}
	a.current.symbols[name] = s
	a.slots = append(a.slots, *s)
	return *s, true, nil
}

// Lookup returns the innermost visible symbol for name.
func (a *Allocator) Lookup(name string) (Symbol, bool) {
	if sym := a.current.lookup(name); sym != nil {
		return *sym, true
	}
	return Symbol{}, false
}

// Total returns the number of stack bytes reserved so far.
func (a *Allocator) Total() int {
	return a.total
}

// Slots returns every slot allocated so far, in allocation order.
func (a *Allocator) Slots() []Symbol {
	out := make([]Symbol, len(a.slots))
	copy(out, a.slots)
	return out
}

// AlignFrame rounds n up to the next multiple of 16.
func AlignFrame(n int) int {
	return (n + 15) &^ 15
}
