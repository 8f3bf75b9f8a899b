package ir

import (
	"fmt"

	"ssa/internal/diagnostics"
)

// Validate re-checks invariants 1, 3 and 5 (§3) against the current state
// of f: every operand resolves within the function, every phi's arity
// matches its block's predecessor count, and every value's Children
// includes every instruction that reads it (extra Children entries are
// not reported). It also reports blocks left without a terminator. It never
// panics; violations are returned as diagnostics so tests and tooling can
// report them precisely rather than crash.
func (f *Function) Validate() []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic

	maxValue := ValueID(len(f.Values))
	checkOperand := func(blockIdx, instrIdx int, v ValueID) {
		if v < 0 || v >= maxValue {
			diags = append(diags, diagnostics.Diagnostic{
				Level:   diagnostics.Error,
				Code:    diagnostics.CodeUndefinedValueUse,
				Message: fmt.Sprintf("use of undefined value %s", v),
				Location: diagnostics.Location{
					Function: f.Name, Block: blockIdx, Instruction: instrIdx,
				},
			})
		}
	}

	wantChildren := make(map[ValueID]map[ValueID]bool)
	addWant := func(user ValueID, operand ValueID) {
		if wantChildren[operand] == nil {
			wantChildren[operand] = make(map[ValueID]bool)
		}
		wantChildren[operand][user] = true
	}

	for bi, blk := range f.Blocks {
		if _, ok := blk.Terminator.(TermNone); ok {
			diags = append(diags, diagnostics.Diagnostic{
				Level:    diagnostics.Error,
				Code:     diagnostics.CodeUnterminatedBlock,
				Message:  fmt.Sprintf("block %q has no terminator", blk.Name),
				Location: diagnostics.Location{Function: f.Name, Block: bi, Instruction: -1},
			})
		}

		for ii, instr := range blk.Instructions {
			for _, operand := range instr.Op.Operands() {
				checkOperand(bi, ii, operand)
				if instr.Yielded != nil {
					addWant(*instr.Yielded, operand)
				}
			}
			if phi, ok := instr.Op.(OpPhi); ok {
				if len(phi.Operands_) != len(blk.Preds) {
					diags = append(diags, diagnostics.Diagnostic{
						Level:   diagnostics.Error,
						Code:    diagnostics.CodePhiArityMismatch,
						Message: fmt.Sprintf("phi has %d operands but block has %d predecessors", len(phi.Operands_), len(blk.Preds)),
						Location: diagnostics.Location{
							Function: f.Name, Block: bi, Instruction: ii,
						},
					})
				}
			}
		}
		for _, operand := range blk.Terminator.Successors() {
			_ = operand // successors are BlockIDs, not ValueIDs; nothing to validate here.
		}
		if branch, ok := blk.Terminator.(TermBranch); ok {
			checkOperand(bi, -1, branch.Cond)
		}
		if ret, ok := blk.Terminator.(TermReturn); ok && ret.Value != nil {
			checkOperand(bi, -1, *ret.Value)
		}
	}

	for id, val := range f.Values {
		got := make(map[ValueID]bool)
		for _, c := range val.Children {
			got[c] = true
		}
		want := wantChildren[ValueID(id)]
		for user := range want {
			if !got[user] {
				diags = append(diags, diagnostics.Diagnostic{
					Level:   diagnostics.Warning,
					Code:    diagnostics.CodeUndefinedValueUse,
					Message: fmt.Sprintf("value %s is missing child %s in its use-list", ValueID(id), user),
					Location: diagnostics.Location{Function: f.Name, Block: -1, Instruction: -1},
				})
			}
		}
	}

	return diags
}
