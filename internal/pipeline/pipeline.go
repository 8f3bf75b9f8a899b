// Package pipeline orchestrates the full compilation sequence (§5):
// SSA construction, optional optimizations, critical-edge splitting,
// phi lowering, parallel-move sequencing, instruction selection and
// register allocation, in that fixed order. Phi lowering, parallel-move
// sequencing and instruction selection each assert their prerequisite
// against Module.AlgosRun; critical-edge splitting, the optimization
// passes and register allocation do not check what ran before them.
//
// There is no equivalent orchestration point in the original Rust
// source (main.rs wires a handful of steps ad hoc for its one example);
// this is modeled on the teacher's OptimizationPipeline
// (internal/ir/optimizations.go), which drives a fixed pass list and
// logs progress as it goes, generalized here to the whole backend and
// logging through commonlog instead of fmt.Printf.
package pipeline

import (
	"ssa/internal/arch/urcl"
	"ssa/internal/critedge"
	"ssa/internal/ir"
	"ssa/internal/opt"
	"ssa/internal/parmove"
	"ssa/internal/philower"
	"ssa/internal/regalloc"
	"ssa/internal/ssa"
	"ssa/internal/vcode"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ssa.pipeline")

// Result carries the SSA-construction warnings and the final,
// register-allocated VCode. Intermediate state is not kept; the module
// passed to Run is left in its post-pipeline form.
type Result struct {
	Warnings []string
	VCode    vcode.VCode
}

// Run executes the full pipeline against module using the URCL target,
// mutating module in place and returning the register-allocated VCode
// plus any SSA-construction warnings.
func Run(module *ir.Module) *Result {
	log.Infof("lowering %q to SSA form", module.Name)
	lowerResult := ssa.Lower(module)

	result := &Result{}
	for _, w := range lowerResult.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
		log.Warningf("%s", w.Error())
	}

	log.Infof("running optimization passes")
	opt.NewPipeline().Run(module)

	log.Infof("splitting critical edges")
	critedge.Split(module)

	log.Infof("lowering phis to parallel moves")
	philower.Lower(module)

	log.Infof("sequencing parallel moves")
	parmove.Sequence(module)

	log.Infof("selecting URCL instructions")
	sel := urcl.Selector{}
	code := vcode.SelectModule(module, sel)

	log.Infof("allocating registers")
	allocate(code, sel)
	for i := range code.Functions {
		urcl.ExpandSpills(&code.Functions[i])
	}

	module.MarkRun(ir.PassRegisterAllocation)
	result.VCode = code
	return result
}

// allocate runs the two-pass linear scan allocator (§4.8) over each
// function's instruction stream independently and rewrites that
// function's instructions in place. Allocation is per function:
// VReg.Index mirrors the owning function's own value-id space, so a
// virtual register numbered 3 in one function is unrelated to the
// identically-numbered register in another, and a single merged
// allocation map would silently cross-contaminate them.
func allocate(code vcode.VCode, sel urcl.Selector) {
	for _, fn := range code.Functions {
		ls := regalloc.NewLinearScan()
		for _, blk := range fn.Blocks {
			for _, instr := range blk.Instrs {
				instr.CollectRegisters(ls)
			}
		}
		allocs := ls.Allocate(sel.UsableRegs())
		for _, blk := range fn.Blocks {
			for _, instr := range blk.Instrs {
				instr.ApplyAllocs(allocs)
			}
		}
	}
}
