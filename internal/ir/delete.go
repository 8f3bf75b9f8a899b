package ir

// DeletionMask marks, for a single function, which instruction in each
// block should be dropped by DeleteMarked. The outer slice is indexed by
// block id, the inner by instruction position — mirroring the
// function/block/instruction nesting every pass walks in.
type DeletionMask [][]bool

// NewDeletionMask allocates a mask shaped to f's current blocks, all
// false.
func NewDeletionMask(f *Function) DeletionMask {
	mask := make(DeletionMask, len(f.Blocks))
	for i, blk := range f.Blocks {
		mask[i] = make([]bool, len(blk.Instructions))
	}
	return mask
}

// DeleteMarked drops every instruction flagged in masks (one mask per
// function, in Module.Functions order) from its block, compacting the
// remaining instructions in place. Deletion is logical everywhere else in
// the pipeline: values stay in the arena even once unreferenced
// (invariant-preserving append-only arenas, §3 Lifecycles); only the
// instruction list is compacted.
func DeleteMarked(module *Module, masks []DeletionMask) {
	for fi, fn := range module.Functions {
		DeleteMarkedInFunction(fn, masks[fi])
	}
}

// DeleteMarkedInFunction applies mask to a single function, without
// requiring a throwaway Module wrapper.
func DeleteMarkedInFunction(fn *Function, mask DeletionMask) {
	for bi, blk := range fn.Blocks {
		kept := blk.Instructions[:0:0]
		for ii, instr := range blk.Instructions {
			if ii < len(mask[bi]) && mask[bi][ii] {
				continue
			}
			kept = append(kept, instr)
		}
		blk.Instructions = kept
	}
}
