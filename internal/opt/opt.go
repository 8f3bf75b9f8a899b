// Package opt implements the optional optimization passes that may run
// between SSA construction and critical-edge splitting (§5 ordering:
// "SSA-construct -> (opts)* -> critical-edge-split -> ..."). Passes are
// optional and repeatable; none of them is a precondition for a later
// required pass, so none calls Module.MarkRun.
//
// Grounded on the teacher's internal/ir/optimizations.go OptimizationPass
// interface (Name/Apply/Description, a Pipeline driving a fixed list of
// passes, changed-bool return), adapted to this package's dense-id IR.
// DeadInstrElim is grounded on the original Rust source's
// src/algos/opt/dead_instr_elim.rs OptPass trait, whose run body is a
// TODO stub ("delete assignment to the instr") that this port completes.
package opt

import "ssa/internal/ir"

// Pass is a single optimization transformation over a module. Apply
// reports whether it changed anything, mirroring the teacher's
// OptimizationPass.Apply contract.
type Pass interface {
	Name() string
	Description() string
	Apply(module *ir.Module) bool
}

// Pipeline runs a fixed sequence of passes, repeating the whole sequence
// until a fixed point (no pass reports a change) or a safety cap on
// iterations is hit, since constant folding can expose new dead
// instructions and vice versa.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the default pipeline: constant folding then dead
// instruction elimination.
func NewPipeline() *Pipeline {
	return &Pipeline{passes: []Pass{&ConstantFolding{}, &DeadInstrElim{}}}
}

// AddPass appends a pass to the pipeline.
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run applies every pass in order, repeating up to maxRounds times or
// until nothing changes.
func (p *Pipeline) Run(module *ir.Module) {
	const maxRounds = 8
	for round := 0; round < maxRounds; round++ {
		changed := false
		for _, pass := range p.passes {
			if pass.Apply(module) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}
