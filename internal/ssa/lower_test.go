package ssa

import (
	"testing"

	"ssa/internal/ir"
)

var i32 = ir.IntegerType{Bits: 32, Signed: true}

// TestLowerAliasesSingleStoreLoad covers a single store followed by a
// single load of the same variable in one block: the load should become
// a direct alias of the stored value, with no phi inserted.
func TestLowerAliasesSingleStoreLoad(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	v := b.PushVariable("x", i32)
	ten := b.BuildInteger(10, i32)
	b.BuildStore(v, ten)
	loaded := b.BuildLoad(v)
	b.SetTerminator(ir.TermReturn{Value: &loaded})

	module := b.Build()
	Lower(module)

	fn := module.Func(fid)
	blk := fn.Blocks[0]
	for _, instr := range blk.Instructions {
		switch instr.Op.(type) {
		case ir.OpStoreVar, ir.OpLoadVar:
			t.Fatalf("expected LoadVar/StoreVar eliminated, found %T", instr.Op)
		}
	}
	ret, ok := blk.Terminator.(ir.TermReturn)
	if !ok || ret.Value == nil || *ret.Value != ten {
		t.Errorf("expected return of the stored literal %s, got %v", ten, blk.Terminator)
	}
}

// TestLowerDiamondInsertsSinglePhi covers a diamond CFG (entry branches to
// two blocks that both store to the same variable, joining at a merge
// block that loads it): exactly one phi should be inserted at the merge,
// with operands in predecessor order.
func TestLowerDiamondInsertsSinglePhi(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)

	entry := b.PushBlock("entry")
	left := b.PushBlock("left")
	right := b.PushBlock("right")
	merge := b.PushBlock("merge")

	v := b.PushVariable("x", i32)

	b.SwitchToBlock(entry)
	cond := b.BuildInteger(1, ir.IntegerType{Bits: 1, Signed: false})
	b.SetTerminator(ir.TermBranch{Cond: cond, Then: left, Else: right})

	b.SwitchToBlock(left)
	one := b.BuildInteger(1, i32)
	b.BuildStore(v, one)
	b.SetTerminator(ir.TermJump{Target: merge})

	b.SwitchToBlock(right)
	two := b.BuildInteger(2, i32)
	b.BuildStore(v, two)
	b.SetTerminator(ir.TermJump{Target: merge})

	b.SwitchToBlock(merge)
	loaded := b.BuildLoad(v)
	b.SetTerminator(ir.TermReturn{Value: &loaded})

	module := b.Build()
	Lower(module)

	fn := module.Func(fid)
	mergeBlk := fn.Block(merge)

	var phis []ir.OpPhi
	for _, instr := range mergeBlk.Instructions {
		if phi, ok := instr.Op.(ir.OpPhi); ok {
			phis = append(phis, phi)
		}
	}
	if len(phis) != 1 {
		t.Fatalf("expected exactly one phi at the merge block, got %d", len(phis))
	}
	phi := phis[0]
	if len(phi.Operands_) != 2 {
		t.Fatalf("expected 2 phi operands (one per predecessor), got %d", len(phi.Operands_))
	}
	if phi.Operands_[0] != one || phi.Operands_[1] != two {
		t.Errorf("expected phi operands in predecessor order [%s, %s], got %v", one, two, phi.Operands_)
	}
}

// TestLowerLoopTiesBackEdgeToPhi covers a self-looping block that both
// reads and writes the same variable: the load inside the loop should
// become a phi whose back-edge operand is the phi's own yielded value.
func TestLowerLoopTiesBackEdgeToPhi(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)

	entry := b.PushBlock("entry")
	loop := b.PushBlock("loop")
	exit := b.PushBlock("exit")

	v := b.PushVariable("x", i32)

	b.SwitchToBlock(entry)
	zero := b.BuildInteger(0, i32)
	b.BuildStore(v, zero)
	b.SetTerminator(ir.TermJump{Target: loop})

	b.SwitchToBlock(loop)
	cur := b.BuildLoad(v)
	one := b.BuildInteger(1, i32)
	next := b.BuildBinOp(ir.Add, cur, one, i32)
	b.BuildStore(v, next)
	cond := b.BuildInteger(1, ir.IntegerType{Bits: 1, Signed: false})
	b.SetTerminator(ir.TermBranch{Cond: cond, Then: loop, Else: exit})

	b.SwitchToBlock(exit)
	final := b.BuildLoad(v)
	b.SetTerminator(ir.TermReturn{Value: &final})

	module := b.Build()
	Lower(module)

	fn := module.Func(fid)
	loopBlk := fn.Block(loop)

	var phiYield ir.ValueID
	found := false
	for _, instr := range loopBlk.Instructions {
		if phi, ok := instr.Op.(ir.OpPhi); ok {
			found = true
			phiYield = *instr.Yielded
			hasSelf := false
			for _, op := range phi.Operands_ {
				if op == phiYield {
					hasSelf = true
				}
			}
			if !hasSelf {
				t.Errorf("expected the phi's back-edge operand to be its own yielded value, got %v", phi.Operands_)
			}
		}
	}
	if !found {
		t.Fatal("expected a phi to be inserted in the loop block")
	}
}
