// Package vcode implements the target-parametric virtual-register
// intermediate form instruction selection lowers IR into (§4.7):
// VCodeGenerator owns functions, blocks and an instruction buffer and
// mints a fresh virtual register per selected value; IR ValueIds map
// 1:1 onto virtual registers.
//
// Grounded on the original Rust source's src/vcode.rs. The Rust
// VCodeGenerator/VCodeFunction/LabelledInstructions are generic over an
// associated VCodeInstr type; this port uses a plain VCodeInstr
// interface instead (the teacher's codebase never reaches for Go
// generics, preferring interfaces throughout, e.g. internal/ir's
// Type/Op/Term).
package vcode

import (
	"fmt"
	"strings"

	"ssa/internal/ir"
	"ssa/internal/regalloc"
)

// VCodeInstr is one target instruction in VCode form.
type VCodeInstr interface {
	fmt.Stringer
	CollectRegisters(c regalloc.Collector)
	ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg)
}

// InstrSelector lowers IR instructions and terminators into VCode for
// one target.
type InstrSelector interface {
	Select(gen *VCodeGenerator, instr *ir.Instruction)
	SelectTerminator(gen *VCodeGenerator, term ir.Term)
	// UsableRegs lists the physical registers Pass B of register
	// allocation may assign, in preference order (least-preferred
	// first, since the allocator treats it as a pop stack).
	UsableRegs() []regalloc.VReg
}

// LabelDestKind distinguishes what a LabelDest refers to.
type LabelDestKind int

const (
	LabelFunction LabelDestKind = iota
	LabelBlock
)

// LabelDest names a jump target: either another function (a call, not
// used by this target's selector yet) or a block within the current
// function.
type LabelDest struct {
	Kind  LabelDestKind
	Index int
}

func (l LabelDest) String() string { return fmt.Sprintf(".L%d", l.Index) }

// LabelledInstructions is the VCode for a single basic block: its
// position in VCodeFunction.Blocks is its label.
type LabelledInstructions struct {
	Instrs []VCodeInstr
}

// VCodeFunction is one function's lowered form.
type VCodeFunction struct {
	Name     string
	Blocks   []LabelledInstructions
	Linkage  ir.Linkage
	ArgCount int
}

// VCode is the lowered form of an entire module.
type VCode struct {
	Functions []VCodeFunction
}

func (v VCode) String() string {
	var b strings.Builder
	for _, fn := range v.Functions {
		fmt.Fprintf(&b, "%s:\n", fn.Name)
		for i, blk := range fn.Blocks {
			fmt.Fprintf(&b, "  .L%d:\n", i)
			for _, instr := range blk.Instrs {
				fmt.Fprintf(&b, "    %s\n", instr)
			}
		}
	}
	return b.String()
}

// VCodeGenerator accumulates VCode as an InstrSelector walks a module.
type VCodeGenerator struct {
	code         VCode
	currentFunc  int
	currentBlock int
	vregCount    int
}

// NewVCodeGenerator creates an empty generator.
func NewVCodeGenerator() *VCodeGenerator {
	return &VCodeGenerator{currentFunc: -1, currentBlock: -1}
}

// PushVReg mints a fresh virtual register.
func (g *VCodeGenerator) PushVReg() regalloc.VReg {
	v := regalloc.VReg{Kind: regalloc.Virtual, Index: g.vregCount}
	g.vregCount++
	return v
}

// VReg returns the virtual register 1:1 associated with an IR value.
func (g *VCodeGenerator) VReg(id ir.ValueID) regalloc.VReg {
	return regalloc.VReg{Kind: regalloc.Virtual, Index: int(id)}
}

// PushInstr appends instr to the current block.
func (g *VCodeGenerator) PushInstr(instr VCodeInstr) {
	fn := &g.code.Functions[g.currentFunc]
	fn.Blocks[g.currentBlock].Instrs = append(fn.Blocks[g.currentBlock].Instrs, instr)
}

// PushBlock appends an empty block to the current function, returning
// its label (index).
func (g *VCodeGenerator) PushBlock() int {
	fn := &g.code.Functions[g.currentFunc]
	fn.Blocks = append(fn.Blocks, LabelledInstructions{})
	return len(fn.Blocks) - 1
}

// PushFunction appends an empty function, returning its index.
func (g *VCodeGenerator) PushFunction(name string, linkage ir.Linkage, argCount int) int {
	g.code.Functions = append(g.code.Functions, VCodeFunction{
		Name: name, Linkage: linkage, ArgCount: argCount,
	})
	return len(g.code.Functions) - 1
}

// SwitchToFunc changes which function subsequent PushBlock/PushInstr
// calls target.
func (g *VCodeGenerator) SwitchToFunc(id int) { g.currentFunc = id }

// SwitchToBlock changes which block subsequent PushInstr calls target.
func (g *VCodeGenerator) SwitchToBlock(id int) { g.currentBlock = id }

// Build finalizes the generator, returning the accumulated VCode.
func (g *VCodeGenerator) Build() VCode { return g.code }

// SelectModule lowers every function in module to VCode using sel,
// requiring parallel-move sequencing to have already run (§5 ordering:
// phi-lower -> par-move-sequence -> instruction-select).
func SelectModule(module *ir.Module, sel InstrSelector) VCode {
	module.MustHaveRun(ir.PassLowerParMoves)

	gen := NewVCodeGenerator()
	for _, fn := range module.Functions {
		fi := gen.PushFunction(fn.Name, fn.Linkage, len(fn.Params))
		gen.SwitchToFunc(fi)
		for range fn.Blocks {
			gen.PushBlock()
		}
		for bi, blk := range fn.Blocks {
			gen.SwitchToBlock(bi)
			for _, instr := range blk.Instructions {
				sel.Select(gen, instr)
			}
			for _, mv := range blk.Moves {
				sel.Select(gen, &ir.Instruction{
					Yielded: &mv.Dst,
					Op:      ir.OpMove{Src: mv.Src},
				})
			}
			sel.SelectTerminator(gen, blk.Terminator)
		}
	}

	module.MarkRun(ir.PassInstructionSelect)
	return gen.Build()
}
