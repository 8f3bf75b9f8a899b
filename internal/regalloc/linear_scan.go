package regalloc

import "sort"

// liveRange is the closed instruction-position interval
// [start, end] a virtual register is live across, plus bookkeeping used
// while allocating.
type liveRange struct {
	reg        VReg
	start, end int
	uses       int
	coalesce   *VReg
}

// LinearScan is a two-pass linear-scan allocator (§4.8). Pass A
// (AddDef/AddUse/NextInstr/CoalesceMove) is driven by walking VCode in
// program order; Pass B (Allocate) is a single pass over the collected
// ranges.
type LinearScan struct {
	ranges     []*liveRange
	byReg      map[VReg]*liveRange
	liveCount  int
	spillCount int
}

// NewLinearScan creates an allocator ready for Pass A.
func NewLinearScan() *LinearScan {
	return &LinearScan{byReg: make(map[VReg]*liveRange)}
}

func (l *LinearScan) find(reg VReg) *liveRange {
	return l.byReg[reg]
}

// AddDef records reg as defined at the current position, extending its
// live range to cover it. Non-virtual regs are ignored: only Virtual
// registers participate in allocation.
func (l *LinearScan) AddDef(reg VReg) {
	if reg.Kind != Virtual {
		return
	}
	if r := l.find(reg); r != nil {
		r.end = l.liveCount
		return
	}
	r := &liveRange{reg: reg, start: l.liveCount, end: l.liveCount}
	l.ranges = append(l.ranges, r)
	l.byReg[reg] = r
}

// AddUse records reg as used at the current position.
func (l *LinearScan) AddUse(reg VReg) {
	if reg.Kind != Virtual {
		return
	}
	if r := l.find(reg); r != nil {
		r.uses++
		r.end = l.liveCount
		return
	}
	r := &liveRange{reg: reg, start: l.liveCount, end: l.liveCount, uses: 1}
	l.ranges = append(l.ranges, r)
	l.byReg[reg] = r
}

// NextInstr advances the logical instruction position.
func (l *LinearScan) NextInstr() {
	l.liveCount++
}

// CoalesceMove hints that from and to should, all else equal, be
// assigned the same physical register.
func (l *LinearScan) CoalesceMove(from, to VReg) {
	if from.Kind != Virtual {
		return
	}
	if r := l.find(from); r != nil {
		toCopy := to
		r.coalesce = &toCopy
	}
}

// Allocate runs Pass B: walks positions 0..liveCount, assigning and
// freeing physical registers from usable (searched from the end, used
// as a stack), spilling the live range with the longest remaining
// lifetime when usable is exhausted at an allocation point.
func (l *LinearScan) Allocate(usable []VReg) map[VReg]VReg {
	allocs := make(map[VReg]VReg)
	freeStack := append([]VReg(nil), usable...)

	// live holds, at each step, the ranges currently holding a physical
	// register, so the longest-remaining one can be found for spilling.
	var live []*liveRange

	pop := func() (VReg, bool) {
		if len(freeStack) == 0 {
			return VReg{}, false
		}
		n := len(freeStack) - 1
		r := freeStack[n]
		freeStack = freeStack[:n]
		return r, true
	}
	push := func(r VReg) {
		freeStack = append(freeStack, r)
	}

	for i := 0; i <= l.liveCount; i++ {
		for _, r := range l.ranges {
			if r.start != i {
				continue
			}
			if _, ok := l.popPreferred(&freeStack, r, allocs); ok {
				live = append(live, r)
				continue
			}
			if to, hadPop := pop(); hadPop {
				allocs[r.reg] = to
				live = append(live, r)
				continue
			}
			// No free physical register: spill the live range with the
			// longest remaining lifetime, including r itself as a
			// candidate, freeing its physical register (if any) for reuse.
			victim := longestRemaining(live, r, i)
			if victim == r {
				allocs[r.reg] = VReg{Kind: Spilled, Index: l.spillCount}
				l.spillCount++
				continue
			}
			freed := allocs[victim.reg]
			allocs[victim.reg] = VReg{Kind: Spilled, Index: l.spillCount}
			l.spillCount++
			live = removeRange(live, victim)
			allocs[r.reg] = freed
			live = append(live, r)
		}
		for j := 0; j < len(live); j++ {
			r := live[j]
			if r.end == i {
				if phys, ok := allocs[r.reg]; ok && phys.Kind == Real {
					push(phys)
				}
				live = append(live[:j], live[j+1:]...)
				j--
			}
		}
	}

	return allocs
}

// popPreferred tries to satisfy r's coalesce hint by pulling its
// preferred physical register out of freeStack wherever it sits, not
// just from the top.
func (l *LinearScan) popPreferred(freeStack *[]VReg, r *liveRange, allocs map[VReg]VReg) (VReg, bool) {
	if r.coalesce == nil {
		return VReg{}, false
	}
	want, ok := allocs[*r.coalesce]
	if !ok {
		want = *r.coalesce
	}
	if want.Kind != Real {
		return VReg{}, false
	}
	for i, cand := range *freeStack {
		if cand == want {
			*freeStack = append((*freeStack)[:i], (*freeStack)[i+1:]...)
			allocs[r.reg] = want
			return want, true
		}
	}
	return VReg{}, false
}

// longestRemaining picks, among live plus candidate, the range whose
// end is furthest from now — the classic linear-scan spill heuristic.
func longestRemaining(live []*liveRange, candidate *liveRange, now int) *liveRange {
	worst := candidate
	for _, r := range live {
		if r.end-now > worst.end-now {
			worst = r
		}
	}
	return worst
}

func removeRange(live []*liveRange, target *liveRange) []*liveRange {
	for i, r := range live {
		if r == target {
			return append(live[:i], live[i+1:]...)
		}
	}
	return live
}

// sortedRanges is exposed for tests that want deterministic iteration
// over collected ranges.
func (l *LinearScan) sortedRanges() []*liveRange {
	out := append([]*liveRange(nil), l.ranges...)
	sort.Slice(out, func(i, j int) bool { return out[i].reg.Index < out[j].reg.Index })
	return out
}
