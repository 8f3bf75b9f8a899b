package dsl

// Program is the root grammar node: a sequence of function
// definitions, each a direct text rendering of Builder calls.
//
// Grounded on the teacher's grammar/grammar.go struct-tag style
// (pointer-typed alternatives, `@@*` repeats, `[ ... ]` optionals).
type Program struct {
	Functions []*Function `@@*`
}

// Function is:
//
//	fn name(p0: t0, p1: t1) -> rettype [pub|priv|extern] {
//	    var name: type
//	    block name:
//	        ...
//	}
type Function struct {
	Name    string      `"fn" @Ident`
	Params  []*Param    `"(" ( @@ ( "," @@ )* )? ")"`
	RetType string      `"->" @Ident`
	Linkage string      `( @( "pub" | "priv" | "extern" ) )?`
	Open    string      `"{"`
	Vars    []*VarDecl  `@@*`
	Blocks  []*Block    `@@*`
	Close   string      `"}"`
}

// Param is one `name: type` in a function's parameter list.
type Param struct {
	Name string `@Ident ":"`
	Type string `@Ident`
}

// VarDecl declares a memory-cell variable, SSA-construction's input.
type VarDecl struct {
	Name string `"var" @Ident ":"`
	Type string `@Ident`
}

// Block is a labelled sequence of instructions ending in a terminator.
type Block struct {
	Name   string        `"block" @Ident ":"`
	Instrs []*Instr      `@@*`
	Term   *Terminator   `@@`
}

// Instr is an optionally-yielding instruction: `%n = op args` or just
// `op args` for instructions with no result (StoreVar).
type Instr struct {
	Yield *int `( "%" @Integer "=" )?`
	Op    *Op  `@@`
}

// Op is the union of instruction-producing operations the DSL supports.
type Op struct {
	Int   *IntOp   `  @@`
	Bin   *BinOp   `| @@`
	Call  *CallOp  `| @@`
	Load  *LoadOp  `| @@`
	Store *StoreOp `| @@`
}

// IntOp is `int <literal>`.
type IntOp struct {
	Value int `"int" @Integer`
}

// BinOp is `<op> %a, %b` for one of the sixteen binary operators.
type BinOp struct {
	Op  string `@( "add" | "sub" | "mul" | "div" | "mod" | "and" | "or" | "xor" | "shl" | "shr" | "eq" | "ne" | "lt" | "le" | "gt" | "ge" )`
	Lhs int    `"%" @Integer ","`
	Rhs int    `"%" @Integer`
}

// CallOp is `call $fn(%a, %b, ...)`.
type CallOp struct {
	Func string `"call" "$" @Ident`
	Args []int  `"(" ( "%" @Integer ( "," "%" @Integer )* )? ")"`
}

// LoadOp is `load #var`.
type LoadOp struct {
	Var string `"load" "#" @Ident`
}

// StoreOp is `store #var, %v`. Never yields a value.
type StoreOp struct {
	Var   string `"store" "#" @Ident ","`
	Value int    `"%" @Integer`
}

// Terminator is the union of block-ending forms.
type Terminator struct {
	Return *ReturnTerm `  @@`
	Jump   *JumpTerm   `| @@`
	Branch *BranchTerm `| @@`
}

// ReturnTerm is `ret %v` or `ret void` (Value left nil for void).
type ReturnTerm struct {
	Value *int `"ret" ( "void" | "%" @Integer )`
}

// JumpTerm is `jmp $block`.
type JumpTerm struct {
	Target string `"jmp" "$" @Ident`
}

// BranchTerm is `br %cond, $then, $else`.
type BranchTerm struct {
	Cond int    `"br" "%" @Integer ","`
	Then string `"$" @Ident ","`
	Else string `"$" @Ident`
}
