// Package philower lowers phi instructions into parallel moves attached
// to predecessor blocks (§4.5). It requires critical edges to already be
// split: without that, a move placed in a predecessor could be observed
// by that predecessor's other successors, changing program semantics.
//
// Grounded on the original Rust source's src/algos/phi_lowering.rs: for
// each phi operand, the move is appended to the par_moves of the block
// that OWNS the operand value, which (post SSA-construction) is exactly
// the corresponding predecessor.
package philower

import "ssa/internal/ir"

// Lower replaces every Phi in module with parallel moves on its
// predecessors' ParMoves lists. Panics if critical-edge splitting has
// not run (ir.Module.MustHaveRun), matching the Rust source's assert.
func Lower(module *ir.Module) {
	module.MustHaveRun(ir.PassCriticalEdgeSplit)

	for _, fn := range module.Functions {
		lowerFunction(fn)
	}
	module.MarkRun(ir.PassPhiLowering)
}

func lowerFunction(fn *ir.Function) {
	mask := ir.NewDeletionMask(fn)

	for bi, blk := range fn.Blocks {
		for ii, instr := range blk.Instructions {
			phi, ok := instr.Op.(ir.OpPhi)
			if !ok {
				continue
			}
			yielded := *instr.Yielded
			for _, operand := range phi.Operands_ {
				owner := fn.Val(operand).Owner
				fn.Block(owner).ParMoves = append(fn.Block(owner).ParMoves, ir.Move{
					Dst: yielded,
					Src: operand,
				})
			}
			mask[bi][ii] = true
		}
	}

	ir.DeleteMarkedInFunction(fn, mask)
}
