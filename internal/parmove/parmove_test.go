package parmove

import (
	"testing"

	"ssa/internal/ir"
)

// simulate executes moves sequentially against regs (a snapshot of every
// value id's current content, keyed by its own id for values not touched),
// returning the resulting content of each of the watched ids.
func simulate(moves []ir.Move, initial map[ir.ValueID]int, watch []ir.ValueID) map[ir.ValueID]int {
	regs := make(map[ir.ValueID]int)
	for id, v := range initial {
		regs[id] = v
	}
	for _, m := range moves {
		regs[m.Dst] = regs[m.Src]
	}
	out := make(map[ir.ValueID]int)
	for _, w := range watch {
		out[w] = regs[w]
	}
	return out
}

// parallelSemantics computes the textbook meaning of a set of parallel
// moves: every Src is read from the initial state, simultaneously.
func parallelSemantics(moves []ir.Move, initial map[ir.ValueID]int) map[ir.ValueID]int {
	out := make(map[ir.ValueID]int)
	for id, v := range initial {
		out[id] = v
	}
	for _, m := range moves {
		out[m.Dst] = initial[m.Src]
	}
	return out
}

func newFuncWithBlock() (*ir.Function, *ir.BasicBlock) {
	blk := &ir.BasicBlock{ID: 0, Name: "entry"}
	fn := &ir.Function{Blocks: []*ir.BasicBlock{blk}}
	return fn, blk
}

// TestSequenceSwapIsEquivalentToParallelMove covers the classic two-value
// literal swap, the case that forces the cycle-breaking scratch path.
func TestSequenceSwapIsEquivalentToParallelMove(t *testing.T) {
	fn, blk := newFuncWithBlock()
	a := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: a, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})
	c := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: c, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})

	blk.ParMoves = []ir.Move{
		{Dst: a, Src: c},
		{Dst: c, Src: a},
	}

	initial := map[ir.ValueID]int{a: 1, c: 2}
	want := parallelSemantics(blk.ParMoves, initial)

	sequenceBlock(fn, blk)

	if len(blk.ParMoves) != 0 {
		t.Errorf("expected ParMoves to be cleared, got %v", blk.ParMoves)
	}
	got := simulate(blk.Moves, initial, []ir.ValueID{a, c})
	if got[a] != want[a] || got[c] != want[c] {
		t.Errorf("sequenced moves %v not equivalent to parallel move: got %v, want %v", blk.Moves, got, want)
	}
}

// TestSequenceThreeCycleIsEquivalentToParallelMove covers a rotation
// a<-b<-c<-a, a larger cycle than a plain swap.
func TestSequenceThreeCycleIsEquivalentToParallelMove(t *testing.T) {
	fn, blk := newFuncWithBlock()
	ids := make([]ir.ValueID, 3)
	for i := range ids {
		id := ir.ValueID(len(fn.Values))
		fn.Values = append(fn.Values, &ir.Value{ID: id, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})
		ids[i] = id
	}
	a, b, c := ids[0], ids[1], ids[2]

	blk.ParMoves = []ir.Move{
		{Dst: a, Src: b},
		{Dst: b, Src: c},
		{Dst: c, Src: a},
	}

	initial := map[ir.ValueID]int{a: 10, b: 20, c: 30}
	want := parallelSemantics(blk.ParMoves, initial)

	sequenceBlock(fn, blk)
	got := simulate(blk.Moves, initial, []ir.ValueID{a, b, c})
	if got[a] != want[a] || got[b] != want[b] || got[c] != want[c] {
		t.Errorf("sequenced moves %v not equivalent to parallel move: got %v, want %v", blk.Moves, got, want)
	}
}

// TestSequenceDropsSelfMoves covers a no-op move (dst == src), which must
// not appear in the output at all.
func TestSequenceDropsSelfMoves(t *testing.T) {
	fn, blk := newFuncWithBlock()
	a := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: a, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})

	blk.ParMoves = []ir.Move{{Dst: a, Src: a}}
	sequenceBlock(fn, blk)

	if len(blk.Moves) != 0 {
		t.Errorf("expected self-move to be dropped, got %v", blk.Moves)
	}
}

// TestSequenceAcyclicChainNeedsNoScratch covers a simple acyclic chain
// (no cycle-breaking scratch should be needed).
func TestSequenceAcyclicChainNeedsNoScratch(t *testing.T) {
	fn, blk := newFuncWithBlock()
	a := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: a, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})
	b := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: b, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})
	d := ir.ValueID(len(fn.Values))
	fn.Values = append(fn.Values, &ir.Value{ID: d, Type: ir.IntegerType{Bits: 32, Signed: true}, Owner: blk.ID})

	blk.ParMoves = []ir.Move{{Dst: d, Src: a}, {Dst: a, Src: b}}
	initial := map[ir.ValueID]int{a: 1, b: 2, d: 0}
	want := parallelSemantics(blk.ParMoves, initial)

	sequenceBlock(fn, blk)
	if len(fn.Values) != 3 {
		t.Errorf("expected no scratch values allocated for an acyclic chain, got %d values", len(fn.Values))
	}
	got := simulate(blk.Moves, initial, []ir.ValueID{a, d})
	if got[a] != want[a] || got[d] != want[d] {
		t.Errorf("sequenced moves %v not equivalent to parallel move: got %v, want %v", blk.Moves, got, want)
	}
}
