// Package parmove sequences each block's parallel moves into an
// ordinary, dependency-correct sequence of moves (§4.6).
//
// The Rust source this crate was ported from never implemented this
// pass (src/algos/lower_par_moves.rs is an empty loop body, a stub);
// this package is authored directly from the spec's algorithm
// description rather than ported from existing code. It follows the
// classic parallel-move sequentialization algorithm used by register
// allocators in many real compilers (Cranelift, LLVM's PHIElimination,
// et al.): repeatedly emit any move whose destination no remaining
// move still needs to read, and when only cycles remain, break one by
// copying its first member's destination into a scratch value before
// continuing.
package parmove

import "ssa/internal/ir"

// Sequence lowers every block's ParMoves into Moves, in program order,
// across all functions in module. Requires phi lowering to have run.
func Sequence(module *ir.Module) {
	module.MustHaveRun(ir.PassPhiLowering)

	for _, fn := range module.Functions {
		for _, blk := range fn.Blocks {
			sequenceBlock(fn, blk)
		}
	}
	module.MarkRun(ir.PassLowerParMoves)
}

func sequenceBlock(fn *ir.Function, blk *ir.BasicBlock) {
	if len(blk.ParMoves) == 0 {
		return
	}

	remaining := make([]ir.Move, 0, len(blk.ParMoves))
	for _, m := range blk.ParMoves {
		if m.Dst != m.Src {
			remaining = append(remaining, m)
		}
	}

	var out []ir.Move
	for len(remaining) > 0 {
		if i := readyIndex(remaining); i >= 0 {
			out = append(out, remaining[i])
			remaining = append(remaining[:i], remaining[i+1:]...)
			continue
		}

		// Every remaining move is part of a cycle. Break the cycle headed
		// by the first remaining move: save its destination's current
		// value into a scratch, then redirect every move that was going
		// to read that destination to read the scratch instead. This
		// frees the destination for a normal, non-cyclic emission on the
		// next iteration.
		head := remaining[0]
		scratch := scratchValue(fn, blk, head.Dst)
		out = append(out, ir.Move{Dst: scratch, Src: head.Dst})
		for i := range remaining {
			if remaining[i].Src == head.Dst {
				remaining[i].Src = scratch
			}
		}
	}

	blk.Moves = out
	blk.ParMoves = nil
}

// readyIndex finds a move in remaining whose destination is not read as
// a source by any other move still remaining — meaning it can be
// emitted now without clobbering a value another move still needs.
func readyIndex(remaining []ir.Move) int {
	for i, m := range remaining {
		used := false
		for j, other := range remaining {
			if j != i && other.Src == m.Dst {
				used = true
				break
			}
		}
		if !used {
			return i
		}
	}
	return -1
}

// scratchValue allocates a fresh pseudo-value of like's type, owned by
// blk, to hold a value temporarily displaced while breaking a move
// cycle.
func scratchValue(fn *ir.Function, blk *ir.BasicBlock, like ir.ValueID) ir.ValueID {
	id := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: id, Type: fn.Val(like).Type, Owner: blk.ID})
	return id
}
