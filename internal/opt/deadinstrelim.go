package opt

import "ssa/internal/ir"

// DeadInstrElim removes instructions whose yielded value has no
// children (is never read by another instruction or a terminator) and
// has no side effect of its own.
//
// Completes the original Rust source's src/algos/opt/dead_instr_elim.rs,
// whose run body locates exactly these candidate values (empty
// children, not referenced by a terminator) but leaves the actual
// deletion as a TODO ("delete assignment to the instr"). StoreVar is
// kept unconditionally: it is a side-effecting write to a variable
// cell, not a pure value producer, so "unused" does not apply to it the
// same way.
type DeadInstrElim struct{}

func (d *DeadInstrElim) Name() string { return "dead instruction elimination" }
func (d *DeadInstrElim) Description() string {
	return "removes instructions whose result is never read"
}

func (d *DeadInstrElim) Apply(module *ir.Module) bool {
	changed := false
	for _, fn := range module.Functions {
		if d.eliminateFunction(fn) {
			changed = true
		}
	}
	return changed
}

func (d *DeadInstrElim) eliminateFunction(fn *ir.Function) bool {
	mask := ir.NewDeletionMask(fn)
	changed := false
	usedByTerm := termUses(fn)

	for bi, blk := range fn.Blocks {
		for ii, instr := range blk.Instructions {
			if instr.Yielded == nil {
				continue
			}
			if _, isStore := instr.Op.(ir.OpStoreVar); isStore {
				continue
			}
			if _, isCall := instr.Op.(ir.OpCall); isCall {
				// Calls may have side effects beyond their return value;
				// never treated as dead even when unused.
				continue
			}
			if usedByTerm[*instr.Yielded] {
				continue
			}
			val := fn.Val(*instr.Yielded)
			if len(val.Children) == 0 {
				for _, operand := range instr.Op.Operands() {
					fn.Val(operand).RemoveChild(*instr.Yielded)
				}
				mask[bi][ii] = true
				changed = true
			}
		}
	}

	if changed {
		ir.DeleteMarkedInFunction(fn, mask)
	}
	return changed
}

// termUses collects every value a block terminator reads directly
// (TermReturn's value, TermBranch's condition), since Children only
// tracks value-producing consumers (§3 invariant 5) and a terminator
// is never one.
func termUses(fn *ir.Function) map[ir.ValueID]bool {
	used := make(map[ir.ValueID]bool)
	for _, blk := range fn.Blocks {
		switch t := blk.Terminator.(type) {
		case ir.TermReturn:
			if t.Value != nil {
				used[*t.Value] = true
			}
		case ir.TermBranch:
			used[t.Cond] = true
		}
	}
	return used
}
