// Package regalloc implements linear-scan register allocation over
// VCode (§4.8): a two-pass allocator that collects integer live ranges
// against a fixed total instruction order, then walks those ranges once
// assigning physical registers from a free-register stack, spilling the
// longest-remaining-range virtual when the stack runs dry.
//
// Grounded on the original Rust source's src/regalloc.rs,
// src/regalloc/mod.rs and src/regalloc/linear_scan.rs: VReg's three
// variants (Virtual/Real/Spilled) and the Regalloc trait's
// add_def/add_use/next_instr/coalesce_move shape carry over directly.
// alloc_regs's spill branch there is an empty `else {}` (todo); this
// port completes it with the behavior spec.md §4.8 describes.
package regalloc

import "fmt"

// VRegKind distinguishes the three states a VReg can be in, mirroring
// the Rust source's VReg enum.
type VRegKind int

const (
	Virtual VRegKind = iota
	Real
	Spilled
)

// VReg is a virtual, physical, or spilled register reference. VCode
// instructions are built entirely in terms of Virtual regs; allocation
// rewrites them to Real or Spilled.
type VReg struct {
	Kind  VRegKind
	Index int
}

func (v VReg) String() string {
	switch v.Kind {
	case Real:
		return fmt.Sprintf("r%d", v.Index)
	case Spilled:
		return fmt.Sprintf("[s%d]", v.Index)
	default:
		return fmt.Sprintf("v%d", v.Index)
	}
}

// Collector is the interface a VCode instruction's CollectRegisters
// uses to report register traffic to an allocator during Pass A.
type Collector interface {
	AddDef(reg VReg)
	AddUse(reg VReg)
	NextInstr()
	CoalesceMove(from, to VReg)
}

// ApplyAlloc rewrites reg through allocs in place, leaving it unchanged
// if it has no entry (true of every Real or already-Spilled reg, and of
// any Virtual reg never collected).
func ApplyAlloc(reg *VReg, allocs map[VReg]VReg) {
	if to, ok := allocs[*reg]; ok {
		*reg = to
	}
}
