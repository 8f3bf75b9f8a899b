// Package critedge splits critical edges (§4.4): a CFG edge u -> v is
// critical when u has more than one successor and v has more than one
// predecessor. Splitting them first is what lets phi lowering (§4.5)
// place a move in a single predecessor block without affecting that
// block's other successors.
//
// Grounded directly on the original Rust source's
// src/algos/remove_critical_edges.rs, generalized from "only Branch
// terminators have >1 successor" (true there and here, since Jump and
// Return each have at most one successor) to the general definition
// above.
package critedge

import "ssa/internal/ir"

// Split inserts bridge blocks for every critical edge in module, in
// place. It is safe to call before SSA construction or after; nothing
// here depends on AnalysisStage.
func Split(module *ir.Module) {
	for _, fn := range module.Functions {
		splitFunction(fn)
	}
	module.MarkRun(ir.PassCriticalEdgeSplit)
}

func splitFunction(fn *ir.Function) {
	// Snapshot the original block count: new bridge blocks are appended,
	// and must not themselves be scanned for outgoing critical edges.
	original := len(fn.Blocks)

	for bi := 0; bi < original; bi++ {
		blk := fn.Blocks[bi]
		branch, ok := blk.Terminator.(ir.TermBranch)
		if !ok {
			continue
		}
		if len(fn.Block(branch.Then).Preds) > 1 {
			branch.Then = bridge(fn, blk.ID, branch.Then)
		}
		if len(fn.Block(branch.Else).Preds) > 1 {
			branch.Else = bridge(fn, blk.ID, branch.Else)
		}
		blk.Terminator = branch
		blk.Succs = branch.Successors()
	}
}

// bridge allocates a new empty block jumping straight to target, with
// from as its sole predecessor, and rewires target's predecessor list
// to point at the bridge instead of from.
func bridge(fn *ir.Function, from, target ir.BlockID) ir.BlockID {
	id := ir.BlockID(len(fn.Blocks))
	bb := &ir.BasicBlock{
		ID:         id,
		Name:       "critical_edge",
		Preds:      []ir.BlockID{from},
		Terminator: ir.TermJump{Target: target},
		Succs:      []ir.BlockID{target},
	}
	fn.Blocks = append(fn.Blocks, bb)
	fn.Block(target).ReplacePred(from, id)
	return id
}
