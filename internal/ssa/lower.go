// Package ssa implements SSA construction (§4.3): replacing memory-cell
// load/store instructions with direct value references and phi nodes via
// a recursive predecessor search, without computing dominance or
// dominance frontiers.
//
// Grounded on the teacher's pass-as-a-function style (internal/ir's
// OptimizationPass.Apply) and directly on the original Rust source's
// src/algos/lower_to_ssa.rs, which this port completes: the Rust
// predecessor walk and trivial-phi pruning are carried over verbatim in
// spirit; the undef-load behavior the Rust source left unhandled is
// resolved here (see Result.Warnings).
package ssa

import (
	"ssa/internal/diagnostics"
	"ssa/internal/ir"
)

// Result reports non-fatal outcomes of a Lower call: warnings about
// variables read with no reaching definition on some path (§4.3 Failure
// modes), resolved here by inserting a zero value rather than aborting.
type Result struct {
	Warnings []diagnostics.Diagnostic
}

// Lower replaces every LoadVar/StoreVar in module with direct value
// references and phi nodes, then prunes trivial phis once. It is a
// programming error to call Lower twice on the same module (pass
// ordering is asserted via Module.AlgosRun).
func Lower(module *ir.Module) *Result {
	if module.HasRun(ir.PassSSAConstruct) {
		panic("ssa: pass ordering violation: SSA construction has already run")
	}
	result := &Result{}
	for _, fn := range module.Functions {
		lowerFunction(fn, result)
	}
	module.MarkRun(ir.PassSSAConstruct)
	module.AnalysisStage = ir.LoweredToSSA
	removeTrivialPhis(module)
	return result
}

func lowerFunction(fn *ir.Function, result *Result) {
	mask := ir.NewDeletionMask(fn)

	for bi, blk := range fn.Blocks {
		lastDef := make(map[ir.VariableID]ir.ValueID)
		for ii, instr := range blk.Instructions {
			switch op := instr.Op.(type) {
			case ir.OpStoreVar:
				lastDef[op.Var] = op.Value
				mask[bi][ii] = true

			case ir.OpLoadVar:
				yielded := *instr.Yielded
				if val, ok := lastDef[op.Var]; ok {
					fn.ReplaceChildrenWith(yielded, val)
					mask[bi][ii] = true
					continue
				}
				defs, undef := findDefsInPreds(fn, blk.ID, op.Var, blk.ID, yielded, map[ir.BlockID]bool{})
				// A block with no predecessors (the entry block) has no
				// reaching definition at all: the load itself becomes the
				// zero value.
				var newOp ir.Op = ir.OpPhi{Operands_: defs}
				if len(defs) == 0 {
					undef = true
					newOp = ir.OpInteger{Value: 0}
				}
				for _, d := range defs {
					fn.Val(d).AddChild(yielded)
				}
				if undef {
					result.Warnings = append(result.Warnings, diagnostics.Diagnostic{
						Level:   diagnostics.Warning,
						Code:    diagnostics.CodeUndefReachingDef,
						Message: "variable read with no reaching definition on some path; substituting zero value",
						Location: diagnostics.Location{
							Function: fn.Name, Block: bi, Instruction: ii,
						},
					})
				}
				fn.ReplaceInstruction(blk.ID, ii, &ir.Instruction{
					Yielded: instr.Yielded,
					Op:      newOp,
				})
			}
		}
	}

	ir.DeleteMarkedInFunction(fn, mask)
}

// findLastDef scans bb's instructions in reverse for the last StoreVar to
// var, before any LoadVar/StoreVar deletion has happened (it runs against
// the still-unmodified predecessor blocks).
func findLastDef(bb *ir.BasicBlock, v ir.VariableID) (ir.ValueID, bool) {
	for i := len(bb.Instructions) - 1; i >= 0; i-- {
		if store, ok := bb.Instructions[i].Op.(ir.OpStoreVar); ok && store.Var == v {
			return store.Value, true
		}
	}
	return 0, false
}

// findDefsInPreds recurses through block's predecessors looking for the
// reaching definition of v on each incoming edge. stopAt is the block
// whose load triggered this walk: when the recursion loops back around to
// it (a back-edge), the phi's own yielded id (selfDef) is contributed as
// the reaching definition on that edge, tying the loop without needing
// dominance information. visiting guards against re-entering a
// predecessor already on the current recursion stack, so irreducible CFGs
// terminate. The bool result reports whether any edge had no definition
// at all (an undef load).
func findDefsInPreds(fn *ir.Function, block ir.BlockID, v ir.VariableID, stopAt ir.BlockID, selfDef ir.ValueID, visiting map[ir.BlockID]bool) ([]ir.ValueID, bool) {
	var defs []ir.ValueID
	undef := false
	visiting[block] = true
	defer delete(visiting, block)

	for _, pred := range fn.Block(block).Preds {
		if pred == stopAt {
			defs = append(defs, selfDef)
			continue
		}
		if val, ok := findLastDef(fn.Block(pred), v); ok {
			defs = append(defs, val)
			continue
		}
		if visiting[pred] {
			// Already on the recursion stack (irreducible CFG); treat as
			// undef on this edge rather than recursing forever.
			defs = append(defs, selfDef)
			undef = true
			continue
		}
		sub, subUndef := findDefsInPreds(fn, pred, v, stopAt, selfDef, visiting)
		if len(sub) == 0 {
			defs = append(defs, zeroValue(fn, v))
			undef = true
			continue
		}
		defs = append(defs, sub...)
		undef = undef || subUndef
	}
	return defs, undef
}

// zeroValue materializes a fresh Integer(0) value of v's type, owned by
// v's declaring function's entry block, used when a load has no reaching
// definition on some path at all. The instruction is appended after the
// entry block's existing instructions, so the positions recorded in the
// pass's deletion mask stay valid.
func zeroValue(fn *ir.Function, v ir.VariableID) ir.ValueID {
	id := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: id, Type: fn.Var(v).Type, Owner: fn.Blocks[0].ID})
	fn.Blocks[0].Instructions = append(fn.Blocks[0].Instructions, &ir.Instruction{
		Yielded: &id,
		Op:      ir.OpInteger{Value: 0},
	})
	return id
}

// removeTrivialPhis replaces every phi whose operand list contains
// exactly one distinct value with that value. Run once; iterative
// pruning is not required for correctness (§4.3).
func removeTrivialPhis(module *ir.Module) {
	for _, fn := range module.Functions {
		mask := ir.NewDeletionMask(fn)
		for bi, blk := range fn.Blocks {
			for ii, instr := range blk.Instructions {
				phi, ok := instr.Op.(ir.OpPhi)
				if !ok {
					continue
				}
				if distinct := distinctValues(phi.Operands_); len(distinct) == 1 {
					fn.ReplaceChildrenWith(*instr.Yielded, distinct[0])
					mask[bi][ii] = true
				}
			}
		}
		ir.DeleteMarkedInFunction(fn, mask)
	}
}

func distinctValues(vs []ir.ValueID) []ir.ValueID {
	seen := make(map[ir.ValueID]bool)
	var out []ir.ValueID
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
