package ir

import "fmt"

// ModuleBuilder is the construction API consumed by front-ends (§4.2). It
// is the only code allowed to mutate a Module before the pass pipeline
// takes over; every method keeps the CFG edges and value use-lists
// (Children) consistent as it goes.
type ModuleBuilder struct {
	module       *Module
	currentFunc  *FunctionID
	currentBlock *BlockID
}

// NewModuleBuilder creates a builder for a new, empty module.
func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{module: NewModule(name)}
}

// Build hands back the constructed module. The builder must not be used
// again afterwards.
func (b *ModuleBuilder) Build() *Module { return b.module }

// Module exposes the module under construction, for front-ends that
// need to inspect it mid-build (e.g. resolving a call to a function
// pushed earlier in the same source file).
func (b *ModuleBuilder) Module() *Module { return b.module }

// PushFunction appends a new, blockless function and returns its id.
func (b *ModuleBuilder) PushFunction(name string, ret Type, params []Param, linkage Linkage) FunctionID {
	id := FunctionID(len(b.module.Functions))
	b.module.Functions = append(b.module.Functions, &Function{
		ID:         id,
		Name:       name,
		ReturnType: ret,
		Params:     params,
		Linkage:    linkage,
	})
	return id
}

// SwitchToFunction makes id the target of subsequent Push/Build calls.
func (b *ModuleBuilder) SwitchToFunction(id FunctionID) { b.currentFunc = &id }

// SwitchToBlock makes id the target of subsequent Build calls.
func (b *ModuleBuilder) SwitchToBlock(id BlockID) { b.currentBlock = &id }

func (b *ModuleBuilder) fn() *Function {
	if b.currentFunc == nil {
		panic("ir: builder has no current function")
	}
	return b.module.Func(*b.currentFunc)
}

func (b *ModuleBuilder) block() *BasicBlock {
	if b.currentBlock == nil {
		panic("ir: builder has no current block")
	}
	return b.fn().Block(*b.currentBlock)
}

// PushBlock appends a new, empty block (terminator TermNone) to the
// current function and returns its id.
func (b *ModuleBuilder) PushBlock(name string) BlockID {
	f := b.fn()
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &BasicBlock{
		ID:         id,
		Name:       name,
		Terminator: TermNone{},
	})
	return id
}

// PushVariable allocates a mutable cell in the current function.
func (b *ModuleBuilder) PushVariable(name string, ty Type) VariableID {
	f := b.fn()
	id := VariableID(len(f.Variables))
	f.Variables = append(f.Variables, &Variable{
		Name:             name,
		Type:             ty,
		BlocksAssignedTo: make(map[BlockID]bool),
	})
	return id
}

// pushValue allocates a value owned by the current block.
func (b *ModuleBuilder) pushValue(ty Type) ValueID {
	f := b.fn()
	id := ValueID(len(f.Values))
	f.Values = append(f.Values, &Value{ID: id, Type: ty, Owner: *b.currentBlock})
	return id
}

func (b *ModuleBuilder) pushInstr(yielded *ValueID, op Op) {
	blk := b.block()
	blk.Instructions = append(blk.Instructions, &Instruction{Yielded: yielded, Op: op})
}

// BuildInteger appends an Integer(k) instruction and returns its value.
func (b *ModuleBuilder) BuildInteger(v int64, ty Type) ValueID {
	id := b.pushValue(ty)
	b.pushInstr(&id, OpInteger{Value: v})
	return id
}

// BuildBinOp appends a BinOp instruction, recording lhs/rhs as parents of
// the new value (invariant 5).
func (b *ModuleBuilder) BuildBinOp(op BinOp, lhs, rhs ValueID, ty Type) ValueID {
	id := b.pushValue(ty)
	f := b.fn()
	f.Val(lhs).AddChild(id)
	f.Val(rhs).AddChild(id)
	b.pushInstr(&id, OpBinOp{Op: op, Lhs: lhs, Rhs: rhs})
	return id
}

// BuildCall appends a Call instruction.
func (b *ModuleBuilder) BuildCall(fn FunctionID, args []ValueID, ty Type) ValueID {
	id := b.pushValue(ty)
	f := b.fn()
	for _, a := range args {
		f.Val(a).AddChild(id)
	}
	b.pushInstr(&id, OpCall{Function: fn, Args: args})
	return id
}

// BuildLoad appends a LoadVar instruction, an SSA candidate removed by
// SSA construction (§4.3).
func (b *ModuleBuilder) BuildLoad(v VariableID) ValueID {
	ty := b.fn().Var(v).Type
	id := b.pushValue(ty)
	b.pushInstr(&id, OpLoadVar{Var: v})
	return id
}

// BuildStore appends a StoreVar instruction and records the current block
// in the variable's BlocksAssignedTo set, seeding SSA construction.
func (b *ModuleBuilder) BuildStore(v VariableID, value ValueID) {
	f := b.fn()
	b.pushInstr(nil, OpStoreVar{Var: v, Value: value})
	f.Var(v).BlocksAssignedTo[*b.currentBlock] = true
}

// SetTerminator installs t as the current block's terminator and updates
// the pred/succ edges of every block it targets. Installing TermNone, or
// overwriting an already-terminated block, is a programming error.
func (b *ModuleBuilder) SetTerminator(t Term) {
	if _, ok := t.(TermNone); ok {
		panic("ir: tried to set terminator to NoTerm")
	}
	blk := b.block()
	if _, ok := blk.Terminator.(TermNone); !ok {
		panic(fmt.Sprintf("ir: block %s already has a terminator", blk.Name))
	}
	f := b.fn()
	for _, succ := range t.Successors() {
		f.Block(succ).AddPred(*b.currentBlock)
	}
	blk.Succs = append(blk.Succs[:0], t.Successors()...)
	blk.Terminator = t
}

// ReplaceChildrenWith rewrites every use of original, across the whole
// function, to refer to replacement instead — instructions, terminators
// and the Children back-references alike. Used by SSA construction's
// alias step (load-to-definition aliasing) and trivial-phi pruning.
func (f *Function) ReplaceChildrenWith(original, replacement ValueID) {
	for _, blk := range f.Blocks {
		for _, instr := range blk.Instructions {
			replaceInOp(instr, original, replacement)
		}
		blk.Terminator = replaceInTerm(blk.Terminator, original, replacement)
	}
	orig := f.Val(original)
	repl := f.Val(replacement)
	repl.Children = append(repl.Children, orig.Children...)
	orig.Children = nil
}

func replaceInOp(instr *Instruction, original, replacement ValueID) {
	switch o := instr.Op.(type) {
	case OpBinOp:
		if o.Lhs == original {
			o.Lhs = replacement
		}
		if o.Rhs == original {
			o.Rhs = replacement
		}
		instr.Op = o
	case OpCall:
		args := append([]ValueID(nil), o.Args...)
		for i, a := range args {
			if a == original {
				args[i] = replacement
			}
		}
		o.Args = args
		instr.Op = o
	case OpStoreVar:
		if o.Value == original {
			o.Value = replacement
		}
		instr.Op = o
	case OpPhi:
		ops := append([]ValueID(nil), o.Operands_...)
		for i, v := range ops {
			if v == original {
				ops[i] = replacement
			}
		}
		o.Operands_ = ops
		instr.Op = o
	}
}

func replaceInTerm(t Term, original, replacement ValueID) Term {
	switch term := t.(type) {
	case TermReturn:
		if term.Value != nil && *term.Value == original {
			v := replacement
			term.Value = &v
		}
		return term
	case TermBranch:
		if term.Cond == original {
			term.Cond = replacement
		}
		return term
	default:
		return t
	}
}

// ReplaceInstruction overwrites the instruction at the given position in
// block with a new one, keeping its slot (and therefore any positional
// bookkeeping like phi arity) stable.
func (f *Function) ReplaceInstruction(block BlockID, pos int, instr *Instruction) {
	f.Block(block).Instructions[pos] = instr
}
