package opt

import (
	"testing"

	"ssa/internal/ir"
)

var i32 = ir.IntegerType{Bits: 32, Signed: true}

func buildFoldable(b *ir.ModuleBuilder) (ir.ValueID, ir.ValueID) {
	lhs := b.BuildInteger(2, i32)
	rhs := b.BuildInteger(3, i32)
	sum := b.BuildBinOp(ir.Add, lhs, rhs, i32)
	return sum, lhs
}

func TestConstantFoldingReplacesBinOp(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	sum, _ := buildFoldable(b)
	b.SetTerminator(ir.TermReturn{Value: &sum})
	module := b.Build()

	pass := &ConstantFolding{}
	if !pass.Apply(module) {
		t.Fatal("expected constant folding to report a change")
	}

	fn := module.Func(fid)
	var folded ir.OpInteger
	found := false
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.Yielded != nil && *instr.Yielded == sum {
			lit, ok := instr.Op.(ir.OpInteger)
			if !ok {
				t.Fatalf("expected the sum instruction to be folded to an Integer, got %T", instr.Op)
			}
			folded = lit
			found = true
		}
	}
	if !found {
		t.Fatal("could not find the sum instruction after folding")
	}
	if folded.Value != 5 {
		t.Errorf("expected folded value 5, got %d", folded.Value)
	}

	if pass.Apply(module) {
		t.Error("expected a second Apply with nothing left to fold to report no change")
	}
}

func TestConstantFoldingLeavesDivByZeroUnfolded(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	lhs := b.BuildInteger(10, i32)
	zero := b.BuildInteger(0, i32)
	quot := b.BuildBinOp(ir.Div, lhs, zero, i32)
	b.SetTerminator(ir.TermReturn{Value: &quot})
	module := b.Build()

	pass := &ConstantFolding{}
	pass.Apply(module)

	fn := module.Func(fid)
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.Yielded != nil && *instr.Yielded == quot {
			if _, ok := instr.Op.(ir.OpBinOp); !ok {
				t.Errorf("expected a division by a literal zero to be left unfolded, got %T", instr.Op)
			}
		}
	}
}

func TestDeadInstrElimRemovesUnusedValue(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	used := b.BuildInteger(1, i32)
	unused := b.BuildInteger(2, i32)
	_ = b.BuildBinOp(ir.Add, used, used, i32) // keeps `used` alive, ignores `unused`
	b.SetTerminator(ir.TermReturn{})
	module := b.Build()

	pass := &DeadInstrElim{}
	if !pass.Apply(module) {
		t.Fatal("expected dead instruction elimination to report a change")
	}

	fn := module.Func(fid)
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.Yielded != nil && *instr.Yielded == unused {
			t.Errorf("expected the unused literal to be deleted, found %T still present", instr.Op)
		}
	}
}

func TestDeadInstrElimKeepsValueUsedByTerminator(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", i32, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	lhs := b.BuildInteger(1, i32)
	rhs := b.BuildInteger(2, i32)
	sum := b.BuildBinOp(ir.Add, lhs, rhs, i32)
	b.SetTerminator(ir.TermReturn{Value: &sum})
	module := b.Build()

	pass := &DeadInstrElim{}
	pass.Apply(module)

	fn := module.Func(fid)
	found := false
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.Yielded != nil && *instr.Yielded == sum {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the value read by ret to survive dead instruction elimination")
	}
}

func TestDeadInstrElimKeepsStoreAndCall(t *testing.T) {
	b := ir.NewModuleBuilder("m")
	fid := b.PushFunction("f", ir.VoidType{}, nil, ir.Private)
	b.SwitchToFunction(fid)
	entry := b.PushBlock("entry")
	b.SwitchToBlock(entry)

	callee := b.PushFunction("g", i32, nil, ir.Private)
	b.SwitchToFunction(callee)
	calleeEntry := b.PushBlock("entry")
	b.SwitchToBlock(calleeEntry)
	zero := b.BuildInteger(0, i32)
	b.SetTerminator(ir.TermReturn{Value: &zero})

	b.SwitchToFunction(fid)
	b.SwitchToBlock(entry)
	v := b.PushVariable("x", i32)
	one := b.BuildInteger(1, i32)
	b.BuildStore(v, one)
	_ = b.BuildCall(callee, nil, i32) // unused return value, but the call itself must survive
	b.SetTerminator(ir.TermReturn{})
	module := b.Build()

	pass := &DeadInstrElim{}
	pass.Apply(module)

	fn := module.Func(fid)
	var sawStore, sawCall bool
	for _, instr := range fn.Blocks[0].Instructions {
		switch instr.Op.(type) {
		case ir.OpStoreVar:
			sawStore = true
		case ir.OpCall:
			sawCall = true
		}
	}
	if !sawStore {
		t.Error("expected StoreVar to survive dead instruction elimination")
	}
	if !sawCall {
		t.Error("expected an unused Call's side effect to survive dead instruction elimination")
	}
}
