package dsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseString parses src (a DSL program, named name for diagnostics)
// into its AST. Grounded on the teacher's grammar.ParseFile, adapted to
// take source text directly rather than a path (the CLI reads the file
// itself; see cmd/ssac).
func ParseString(name, src string) (*Program, error) {
	program, err := parser.ParseString(name, src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return program, nil
}

// reportParseError prints a caret-style parse error, same format as the
// teacher's grammar.reportParseError.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
