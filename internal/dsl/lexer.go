// Package dsl implements a small textual front-end for the IR builder
// (§6A): a direct text rendering of Builder calls, with no expressions,
// structs, storage or semantic analysis. It exists so the backend can
// be exercised end-to-end by a CLI or test without a real source
// language.
//
// Grounded on the teacher's grammar package: a participle stateful
// lexer plus a participle.Build[T] struct-tag grammar
// (grammar/lexer.go, grammar/grammar.go, grammar/parser.go).
package dsl

import "github.com/alecthomas/participle/v2/lexer"

// Lexer tokenizes DSL source. Rule order: comments first, then
// identifiers (keywords are lexed as identifiers and matched as
// literals in the grammar itself), then integers, then the arrow and
// punctuation, then whitespace. Comments and whitespace are elided by
// the parser.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Arrow", `->`, nil},
		{"Punct", `[%#$:,(){}=-]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
