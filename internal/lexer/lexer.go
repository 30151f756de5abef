package lexer

import "fmt"

const (
	// Special
	EOF = "EOF"

	// Literals
	IDENT    = "IDENT"    // identifiers: x, count, add2, …
	INT_LIT  = "INT_LIT"  // integer literals: 0, 42, …
	CHAR_LIT = "CHAR_LIT" // char literals: 'a', '\n', …

	// Keywords
	EXIT  = "EXIT"
	IF    = "IF"
	ELSE  = "ELSE"
	WHILE = "WHILE"
	FOR   = "FOR"
	LET   = "LET" // legacy unannotated declaration

	// Type keywords
	CHAR  = "CHAR"
	SHORT = "SHORT"
	INT   = "INT"
	LONG  = "LONG"

	// Delimiters
	LPAREN    = "LPAREN"    // (
	RPAREN    = "RPAREN"    // )
	LBRACE    = "LBRACE"    // {
	RBRACE    = "RBRACE"    // }
	SEMICOLON = "SEMICOLON" // ;
	COMMA     = "COMMA"     // ,

	// Operators
	ASSIGN = "ASSIGN" // =
	PLUS   = "PLUS"   // +
	MINUS  = "MINUS"  // -
	STAR   = "STAR"   // *
	SLASH  = "SLASH"  // /

	// Comparison operators
	EQ  = "EQ"  // ==
	NEQ = "NEQ" // !=
	LT  = "LT"  // <
	GT  = "GT"  // >
	LTE = "LTE" // <=
	GTE = "GTE" // >=

	// Logical operators
	AND = "AND" // &&
	OR  = "OR"  // ||
)

// keywords maps reserved words to their token types.
var keywords = map[string]string{
	"exit":  EXIT,
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"for":   FOR,
	"let":   LET,
	"char":  CHAR,
	"short": SHORT,
	"int":   INT,
	"long":  LONG,
}

// Token represents a single lexical token produced by the lexer.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
}

// LexError is the first lexical error found in the input.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}

// IsTypeKeyword reports whether typ names one of the declarable types.
func IsTypeKeyword(typ string) bool {
	switch typ {
	case CHAR, SHORT, INT, LONG:
		return true
	}
	return false
}

/**
* Lexes the given input string into a slice of Tokens terminated by an EOF token.
* Lexing stops at the first error.
* @param input The source code to lex.
* @return A slice of Tokens, or the LexError that stopped the scan.
 */
func Lex(input string) ([]Token, error) {
	var tokens []Token
	line, col, i := 1, 1, 0

	for i < len(input) {
		ch := input[i]
		if isWhitespace(ch) {
			if ch == '\n' {
				line++
				col = 1
			} else if ch != '\r' {
				col++
			}
			i++
			continue
		}

		// Single-line comment: // …
		if ch == '/' && i+1 < len(input) && input[i+1] == '/' {
			i, col = skipLineComment(input, i, col)
			continue
		}

		if ch == '\'' {
			tok, width, err := lexChar(input, i, line, col)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i += width
			col += width
			continue
		}

		if isDigit(ch) {
			tok, newI, newCol := lexNumber(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		// Keywords and identifiers
		if isIdentStart(ch) {
			tok, newI, newCol := lexIdentifier(input, i, line, col)
			tokens = append(tokens, tok)
			i, col = newI, newCol
			continue
		}

		if tok, width := lexOperatorOrDelimiter(input, i, line, col); width > 0 {
			tokens = append(tokens, tok)
			i += width
			col += width
			continue
		}

		return nil, &LexError{
			Message: "unexpected character",
			Lexeme:  string(ch),
			Line:    line,
			Column:  col,
		}
	}

	tokens = append(tokens, Token{EOF, "", line, col})
	return tokens, nil
}

func skipLineComment(input string, i int, col int) (int, int) {
	for i < len(input) && input[i] != '\n' {
		i++
		col++
	}
	return i, col
}

// lexChar scans a char literal starting at the opening quote. The token
// value is the decoded character, so '\n' yields a one-byte "\n".
func lexChar(input string, start int, line int, col int) (Token, int, error) {
	i := start + 1
	if i >= len(input) || input[i] == '\n' || input[i] == '\'' {
		return Token{}, 0, &LexError{
			Message: "empty or unterminated char literal",
			Lexeme:  input[start:min(i+1, len(input))],
			Line:    line,
			Column:  col,
		}
	}

	value := input[i]
	if value == '\\' {
		if i+1 >= len(input) {
			return Token{}, 0, &LexError{
				Message: "unterminated escape sequence at end of input",
				Lexeme:  "\\",
				Line:    line,
				Column:  col + 1,
			}
		}
		decoded, ok := decodeEscape(input[i+1])
		if !ok {
			return Token{}, 0, &LexError{
				Message: fmt.Sprintf("invalid escape sequence '\\%c'", input[i+1]),
				Lexeme:  string([]byte{'\\', input[i+1]}),
				Line:    line,
				Column:  col + 1,
			}
		}
		value = decoded
		i++
	}
	i++

	if i >= len(input) || input[i] != '\'' {
		return Token{}, 0, &LexError{
			Message: "unterminated char literal",
			Lexeme:  input[start:min(i+1, len(input))],
			Line:    line,
			Column:  col,
		}
	}
	return Token{CHAR_LIT, string([]byte{value}), line, col}, i + 1 - start, nil
}

// lexNumber scans a decimal integer literal.
func lexNumber(input string, start int, line int, col int) (Token, int, int) {
	i := start
	startCol := col
	for i < len(input) && isDigit(input[i]) {
		i++
		col++
	}
	return Token{INT_LIT, input[start:i], line, startCol}, i, col
}

func lexIdentifier(input string, start int, line int, col int) (Token, int, int) {
	i := start
	startCol := col
	for i < len(input) && isIdentPart(input[i]) {
		i++
		col++
	}
	word := input[start:i]
	tokType := IDENT
	if kw, ok := keywords[word]; ok {
		tokType = kw
	}
	return Token{tokType, word, line, startCol}, i, col
}

// lexOperatorOrDelimiter tries to match a 1- or 2-character operator or
// delimiter starting at input[i]. Returns the token and the number of
// characters consumed (0 if nothing matched).
func lexOperatorOrDelimiter(input string, i int, line int, col int) (Token, int) {
	ch := input[i]
	var next byte
	if i+1 < len(input) {
		next = input[i+1]
	}

	// Two-character tokens
	switch ch {
	case '=':
		if next == '=' {
			return Token{EQ, "==", line, col}, 2
		}
		return Token{ASSIGN, "=", line, col}, 1
	case '!':
		if next == '=' {
			return Token{NEQ, "!=", line, col}, 2
		}
		return Token{}, 0
	case '<':
		if next == '=' {
			return Token{LTE, "<=", line, col}, 2
		}
		return Token{LT, "<", line, col}, 1
	case '>':
		if next == '=' {
			return Token{GTE, ">=", line, col}, 2
		}
		return Token{GT, ">", line, col}, 1
	case '&':
		if next == '&' {
			return Token{AND, "&&", line, col}, 2
		}
		return Token{}, 0
	case '|':
		if next == '|' {
			return Token{OR, "||", line, col}, 2
		}
		return Token{}, 0
	}

	// Single-character tokens
	switch ch {
	case '(':
		return Token{LPAREN, "(", line, col}, 1
	case ')':
		return Token{RPAREN, ")", line, col}, 1
	case '{':
		return Token{LBRACE, "{", line, col}, 1
	case '}':
		return Token{RBRACE, "}", line, col}, 1
	case ';':
		return Token{SEMICOLON, ";", line, col}, 1
	case ',':
		return Token{COMMA, ",", line, col}, 1
	case '+':
		return Token{PLUS, "+", line, col}, 1
	case '-':
		return Token{MINUS, "-", line, col}, 1
	case '*':
		return Token{STAR, "*", line, col}, 1
	case '/':
		return Token{SLASH, "/", line, col}, 1
	}

	return Token{}, 0
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func decodeEscape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return ch, true
	default:
		return 0, false
	}
}
