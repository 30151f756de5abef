package main

import (
	"fmt"
	"os"
	"strings"
	"time"
	"vc/internal/ast"
	"vc/internal/codegen"
	"vc/internal/lexer"
	"vc/internal/parser"
	"vc/internal/scope"

	"github.com/kr/pretty"
)

const VERSION = "0.3.0"

var debugMode = false

func main() {
	start := time.Now()
	exitCode := run()
	if exitCode == 0 {
		fmt.Printf("Compile time: %s\n", time.Since(start))
	}
	os.Exit(exitCode)
}

func run() int {
	debugMode = false
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			debugMode = true
			break
		}
	}

	fmt.Println("vc compiler v" + VERSION)
	printDebug("Using debug mode.")

	// Find the source file (first non-flag argument).
	var filePath string
	for _, arg := range os.Args[1:] {
		if len(arg) > 0 && arg[0] != '-' {
			filePath = arg
			break
		}
	}
	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: vc [--debug] [--asm-only] [--skip-link] [--out-dir=DIR] [--name=NAME] <file>")
		return 1
	}
	printDebug("Building using: " + filePath)

	if !fileExists(filePath) {
		fmt.Fprintf(os.Stderr, "Error: file %s does not exist.\n", filePath)
		return 1
	}

	fileContent, err := getFileContent(filePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: could not read file.")
		fmt.Fprintln(os.Stderr, "Error details: "+err.Error())
		return 1
	}

	// --- Lexing ---
	printDebug("Starting lexing process...")
	tokens, err := lexer.Lex(fileContent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lexing error: %s\n", err)
		return 1
	}
	printDebug(fmt.Sprintf("Lexing complete. %d tokens produced.", len(tokens)))
	printTokens(tokens)

	// --- Parsing ---
	printDebug("Starting parsing process...")
	program, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %s\n", err)
		return 1
	}
	printDebug("Parsing complete. No errors.")

	printDebug("--- AST ---")
	printDebug(ast.DebugString(program))
	printDebug("--- End AST ---")

	if debugMode {
		printDebug("--- Layout ---")
		printDebug(pretty.Sprint(scope.Measure(program)))
		printDebug("--- End Layout ---")
	}

	// --- Code generation ---
	printDebug("Starting code generation...")

	codegenOpts := codegen.DefaultOptions()
	codegenOpts.Verbose = debugMode

	for _, arg := range os.Args[1:] {
		switch {
		case arg == "--asm-only":
			codegenOpts.AsmOnly = true
		case arg == "--skip-link":
			codegenOpts.SkipLink = true
		case strings.HasPrefix(arg, "--out-dir="):
			codegenOpts.OutputDir = strings.TrimPrefix(arg, "--out-dir=")
		case strings.HasPrefix(arg, "--name="):
			codegenOpts.OutputName = strings.TrimPrefix(arg, "--name=")
		case arg == "--debug":
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Error: unknown flag %s\n", arg)
			return 1
		}
	}

	result, err := codegen.Generate(program, codegenOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %s\n", err)
		return 1
	}

	fmt.Println("Build artifacts:")
	if result.AsmFile != "" {
		fmt.Printf("  Assembly: %s\n", result.AsmFile)
	}
	if result.ObjFile != "" {
		fmt.Printf("  Object:   %s\n", result.ObjFile)
	}
	if result.ExeFile != "" {
		fmt.Printf("  Binary:   %s\n", result.ExeFile)
	}

	printDebug("Compilation pipeline finished successfully.")
	return 0
}

// printDebug prints a message prefixed with [DEBUG] when --debug is set.
func printDebug(message string) {
	if !debugMode {
		return
	}
	fmt.Println("[DEBUG] " + message)
}

func printTokens(tokens []lexer.Token) {
	if !debugMode {
		return
	}
	for _, token := range tokens {
		fmt.Printf("[DEBUG] Token: %s, Value: %s, Line: %d, Column: %d\n", token.Type, token.Value, token.Line, token.Column)
	}
}

func fileExists(filePath string) bool {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return false
	}
	return true
}

func getFileContent(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
