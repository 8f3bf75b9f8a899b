// Package urcl implements instruction selection for the URCL target
// (§4.7): a small RISC-like ISA (the "Universal Redstone Computer
// Language" used across several esoteric-CPU projects) with a flat
// general-purpose register file and no addressing modes beyond direct
// register operands.
//
// Grounded on the original Rust source's src/arch/urcl.rs: the register
// constants (URCL_REG_1..8), the UrclInstr/UrclAluOp shapes, and
// get_usable_regs carry over directly. UrclSelector.select there is an
// unimplemented todo!(); this port completes it per the lowering table
// in spec.md §4.7, and extends UrclAluOp to cover every ir.BinOp this
// package's IR supports (the Rust enum only had the arithmetic/bitwise
// ops; comparisons and shifts are added here using URCL's real SETxx
// and BSL/BSR opcodes).
package urcl

import (
	"fmt"

	"ssa/internal/ir"
	"ssa/internal/regalloc"
	"ssa/internal/vcode"
)

const (
	Reg1 = 1
	Reg2 = 2
	Reg3 = 3
	Reg4 = 4
	Reg5 = 5
	Reg6 = 6
	Reg7 = 7
	Reg8 = 8
)

// AluOp is a URCL ALU opcode.
type AluOp int

const (
	OpAdd AluOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpBsl
	OpBsr
	OpSetE
	OpSetNE
	OpSetL
	OpSetLE
	OpSetG
	OpSetGE
)

func (op AluOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mlt"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpBsl:
		return "bsl"
	case OpBsr:
		return "bsr"
	case OpSetE:
		return "sete"
	case OpSetNE:
		return "setne"
	case OpSetL:
		return "setl"
	case OpSetLE:
		return "setle"
	case OpSetG:
		return "setg"
	case OpSetGE:
		return "setge"
	default:
		return "???"
	}
}

var binOpToAlu = map[ir.BinOp]AluOp{
	ir.Add: OpAdd, ir.Sub: OpSub, ir.Mul: OpMul, ir.Div: OpDiv, ir.Mod: OpMod,
	ir.And: OpAnd, ir.Or: OpOr, ir.Xor: OpXor, ir.Shl: OpBsl, ir.Shr: OpBsr,
	ir.Eq: OpSetE, ir.Ne: OpSetNE, ir.Lt: OpSetL, ir.Le: OpSetLE, ir.Gt: OpSetG, ir.Ge: OpSetGE,
}

// Instr is a single URCL VCode instruction.
type Instr interface {
	vcode.VCodeInstr
}

// AluInstr is a three-operand ALU instruction: dst = src1 op src2.
type AluInstr struct {
	Op              AluOp
	Dst, Src1, Src2 regalloc.VReg
}

func (i *AluInstr) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Dst, i.Src1, i.Src2)
}
func (i *AluInstr) CollectRegisters(c regalloc.Collector) {
	c.AddUse(i.Src1)
	c.AddUse(i.Src2)
	c.AddDef(i.Dst)
	c.NextInstr()
}
func (i *AluInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {
	regalloc.ApplyAlloc(&i.Dst, allocs)
	regalloc.ApplyAlloc(&i.Src1, allocs)
	regalloc.ApplyAlloc(&i.Src2, allocs)
}

// ImmInstr loads an immediate into dst.
type ImmInstr struct {
	Dst regalloc.VReg
	Val int64
}

func (i *ImmInstr) String() string { return fmt.Sprintf("imm %s, %d", i.Dst, i.Val) }
func (i *ImmInstr) CollectRegisters(c regalloc.Collector) {
	c.AddDef(i.Dst)
	c.NextInstr()
}
func (i *ImmInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {
	regalloc.ApplyAlloc(&i.Dst, allocs)
}

// MovInstr copies src into dst. CoalesceMove lets the register
// allocator try to assign src and dst the same physical register,
// turning the copy into a no-op the selector can later drop (left for a
// peephole pass; not required by §4.7).
type MovInstr struct {
	Dst, Src regalloc.VReg
}

func (i *MovInstr) String() string { return fmt.Sprintf("mov %s, %s", i.Dst, i.Src) }
func (i *MovInstr) CollectRegisters(c regalloc.Collector) {
	c.AddUse(i.Src)
	c.AddDef(i.Dst)
	c.CoalesceMove(i.Src, i.Dst)
	c.NextInstr()
}
func (i *MovInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {
	regalloc.ApplyAlloc(&i.Dst, allocs)
	regalloc.ApplyAlloc(&i.Src, allocs)
}

// JmpInstr is an unconditional jump.
type JmpInstr struct {
	Dst vcode.LabelDest
}

func (i *JmpInstr) String() string                                         { return fmt.Sprintf("jmp %s", i.Dst) }
func (i *JmpInstr) CollectRegisters(c regalloc.Collector)                   { c.NextInstr() }
func (i *JmpInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg)      {}

// BeqInstr branches to Dst when Src is non-zero ("branch-if-nonzero",
// per spec.md §4.7's Branch lowering note).
type BeqInstr struct {
	Src regalloc.VReg
	Dst vcode.LabelDest
}

func (i *BeqInstr) String() string { return fmt.Sprintf("bnz %s, %s", i.Dst, i.Src) }
func (i *BeqInstr) CollectRegisters(c regalloc.Collector) {
	c.AddUse(i.Src)
	c.NextInstr()
}
func (i *BeqInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {
	regalloc.ApplyAlloc(&i.Src, allocs)
}

// RetInstr returns from the current function.
type RetInstr struct{}

func (i *RetInstr) String() string                                    { return "ret" }
func (i *RetInstr) CollectRegisters(c regalloc.Collector)              { c.NextInstr() }
func (i *RetInstr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {}

// ReturnReg is r1, the URCL calling convention's return-value register
// (spec.md §4.8, Calling convention).
var ReturnReg = regalloc.VReg{Kind: regalloc.Real, Index: Reg1}

// scratchA and scratchB are reserved out of the allocatable set (see
// Selector.UsableRegs) so ExpandSpills always has somewhere to stage a
// spilled operand without risking a collision with a live allocation.
var (
	scratchA = regalloc.VReg{Kind: regalloc.Real, Index: Reg7}
	scratchB = regalloc.VReg{Kind: regalloc.Real, Index: Reg8}
)

// Selector implements vcode.InstrSelector for the URCL target.
type Selector struct{}

// UsableRegs lists r1..r6: the Rust source's get_usable_regs offered
// r1..r8 to the allocator with no reserved scratch, leaving
// alloc_regs's spill branch an empty stub with nowhere safe to stage a
// reload. Reserving r7/r8 here is what lets ExpandSpills actually
// materialize Spilled operands instead of leaving them as unaddressable
// bracket syntax in the output.
func (Selector) UsableRegs() []regalloc.VReg {
	return []regalloc.VReg{
		{Kind: regalloc.Real, Index: Reg1}, {Kind: regalloc.Real, Index: Reg2},
		{Kind: regalloc.Real, Index: Reg3}, {Kind: regalloc.Real, Index: Reg4},
		{Kind: regalloc.Real, Index: Reg5}, {Kind: regalloc.Real, Index: Reg6},
	}
}

// Select lowers a single IR instruction per the §4.7 table. LoadVar and
// StoreVar are absent once SSA construction has run (invariant 2); no
// earlier pass checks that it did, so Select itself panics if one
// reaches it.
func (s Selector) Select(gen *vcode.VCodeGenerator, instr *ir.Instruction) {
	switch op := instr.Op.(type) {
	case ir.OpInteger:
		gen.PushInstr(&ImmInstr{Dst: gen.VReg(*instr.Yielded), Val: op.Value})

	case ir.OpBinOp:
		alu, ok := binOpToAlu[op.Op]
		if !ok {
			panic(fmt.Sprintf("urcl: unhandled BinOp %s", op.Op))
		}
		gen.PushInstr(&AluInstr{
			Op: alu, Dst: gen.VReg(*instr.Yielded),
			Src1: gen.VReg(op.Lhs), Src2: gen.VReg(op.Rhs),
		})

	case ir.OpMove:
		gen.PushInstr(&MovInstr{Dst: gen.VReg(*instr.Yielded), Src: gen.VReg(op.Src)})

	case ir.OpPhi:
		panic("urcl: phi reached instruction selection; parallel-move sequencing must run first")

	case ir.OpLoadVar, ir.OpStoreVar:
		panic("urcl: LoadVar/StoreVar reached instruction selection; SSA construction must run first")

	case ir.OpCall:
		// Call selection is not implemented for this target; a call
		// reaching selection (the DSL's `call` op builds one) panics.
		panic("urcl: call instruction selection is not implemented")

	default:
		panic(fmt.Sprintf("urcl: unhandled IR op %T", op))
	}
}

// SelectTerminator lowers a block terminator per the §4.7 table.
func (s Selector) SelectTerminator(gen *vcode.VCodeGenerator, term ir.Term) {
	switch t := term.(type) {
	case ir.TermReturn:
		if t.Value != nil {
			gen.PushInstr(&MovInstr{Dst: ReturnReg, Src: gen.VReg(*t.Value)})
		}
		gen.PushInstr(&RetInstr{})

	case ir.TermJump:
		gen.PushInstr(&JmpInstr{Dst: vcode.LabelDest{Kind: vcode.LabelBlock, Index: int(t.Target)}})

	case ir.TermBranch:
		gen.PushInstr(&BeqInstr{
			Src: gen.VReg(t.Cond),
			Dst: vcode.LabelDest{Kind: vcode.LabelBlock, Index: int(t.Then)},
		})
		gen.PushInstr(&JmpInstr{Dst: vcode.LabelDest{Kind: vcode.LabelBlock, Index: int(t.Else)}})

	case ir.TermNone:
		panic("urcl: unterminated block reached instruction selection")
	}
}

// regRecorder is a regalloc.Collector that records every def/use an
// instruction reports, unfiltered by VReg kind (regalloc.LinearScan
// only tracks Virtual regs; spill expansion needs to see Real and
// Spilled operands too).
type regRecorder struct {
	defs, uses []regalloc.VReg
}

func (r *regRecorder) AddDef(reg regalloc.VReg)            { r.defs = append(r.defs, reg) }
func (r *regRecorder) AddUse(reg regalloc.VReg)            { r.uses = append(r.uses, reg) }
func (r *regRecorder) NextInstr()                          {}
func (r *regRecorder) CoalesceMove(from, to regalloc.VReg) {}

// ExpandSpills runs after register allocation (§4.8's "Spill reloads/
// stores are inserted by the selector-specific apply step"): every
// instruction touching a Spilled operand is preceded by a reload of
// each spilled use into a reserved scratch register and followed by a
// store-back of each spilled def, with the instruction itself rewritten
// (via its own ApplyAllocs) to reference the scratch register instead
// of the spill slot directly.
func ExpandSpills(fn *vcode.VCodeFunction) {
	for bi, blk := range fn.Blocks {
		var out []vcode.VCodeInstr
		for _, instr := range blk.Instrs {
			rec := &regRecorder{}
			instr.CollectRegisters(rec)

			scratch := make(map[regalloc.VReg]regalloc.VReg)
			next := []regalloc.VReg{scratchA, scratchB}
			assign := func(v regalloc.VReg) {
				if v.Kind != regalloc.Spilled {
					return
				}
				if _, ok := scratch[v]; ok {
					return
				}
				if len(next) == 0 {
					// Only a def gets here (no instruction reads more than
					// two registers); it is written after every use is
					// read, so it can share the first scratch register.
					next = []regalloc.VReg{scratchA}
				}
				scratch[v] = next[0]
				next = next[1:]
			}
			for _, u := range rec.uses {
				assign(u)
			}
			for _, d := range rec.defs {
				assign(d)
			}

			for _, u := range rec.uses {
				if sc, ok := scratch[u]; ok {
					out = append(out, &MovInstr{Dst: sc, Src: u})
				}
			}

			if len(scratch) > 0 {
				instr.ApplyAllocs(scratch)
			}
			out = append(out, instr)

			for _, d := range rec.defs {
				if sc, ok := scratch[d]; ok {
					out = append(out, &MovInstr{Dst: d, Src: sc})
				}
			}
		}
		fn.Blocks[bi].Instrs = out
	}
}
