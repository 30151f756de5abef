package codegen

import (
	"fmt"
	"vc/internal/ast"
)

// ErrorKind classifies a CompileError.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	UndefinedFunction
	ArgumentCount
	TypeMismatch
	Redeclared
	TooManyParams
	InvalidLiteral
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "undefined variable"
	case UndefinedFunction:
		return "undefined function"
	case ArgumentCount:
		return "argument count mismatch"
	case TypeMismatch:
		return "type mismatch"
	case Redeclared:
		return "redeclared"
	case TooManyParams:
		return "too many parameters"
	case InvalidLiteral:
		return "invalid literal"
	default:
		return "unknown"
	}
}

// CompileError is the first semantic error found while generating code.
// Generation stops as soon as one is raised.
type CompileError struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

func errorf(kind ErrorKind, pos ast.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: kind.String() + ": " + fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
	}
}
