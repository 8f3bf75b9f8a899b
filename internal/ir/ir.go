// Package ir implements the in-memory intermediate representation shared by
// every pass in the backend: functions, basic blocks, typed SSA-candidate
// values, variables, phi nodes and parallel-move annotations.
//
// Entities are referenced by dense integer ids (FunctionID, BlockID,
// ValueID, VariableID) rather than pointers, so that back-references (phi
// operands, CFG predecessor/successor lists, value use-lists) never form a
// pointer cycle. Arenas are append-only slices indexed directly by id.
package ir

import "fmt"

// AnalysisStage tracks how far a Module has progressed through the
// mandatory pipeline.
type AnalysisStage int

const (
	Unanalyzed AnalysisStage = iota
	LoweredToSSA
	Optimised
)

func (s AnalysisStage) String() string {
	switch s {
	case LoweredToSSA:
		return "SSA form of"
	case Optimised:
		return "Optimised form of"
	default:
		return "Unanalyzed"
	}
}

// PassTag names a pass that has run against a Module, recorded in
// Module.AlgosRun so later passes can assert their preconditions.
type PassTag string

const (
	PassSSAConstruct       PassTag = "SSAConstruct"
	PassCriticalEdgeSplit  PassTag = "CriticalEdgeSplitting"
	PassPhiLowering        PassTag = "PhiLowering"
	PassLowerParMoves      PassTag = "LowerParMoves"
	PassConstantFold       PassTag = "ConstantFold"
	PassDeadInstrElim      PassTag = "DeadInstrElim"
	PassInstructionSelect  PassTag = "InstructionSelect"
	PassRegisterAllocation PassTag = "RegisterAllocation"
)

// Module is the named container of functions plus the monotonic pass-log.
type Module struct {
	Name          string
	Functions     []*Function
	AnalysisStage AnalysisStage
	AlgosRun      []PassTag
}

// NewModule creates an empty, unanalyzed module.
func NewModule(name string) *Module {
	return &Module{Name: name, AnalysisStage: Unanalyzed}
}

// HasRun reports whether the given pass tag appears in AlgosRun.
func (m *Module) HasRun(tag PassTag) bool {
	for _, t := range m.AlgosRun {
		if t == tag {
			return true
		}
	}
	return false
}

// MarkRun appends tag to AlgosRun. Pass implementations call this exactly
// once, after they have fully applied their transformation.
func (m *Module) MarkRun(tag PassTag) {
	m.AlgosRun = append(m.AlgosRun, tag)
}

// MustHaveRun panics (a programming error per the error taxonomy) if the
// given prerequisite pass has not already run. Pass ordering violations
// are not recoverable.
func (m *Module) MustHaveRun(tag PassTag) {
	if !m.HasRun(tag) {
		panic(fmt.Sprintf("ir: pass ordering violation: prerequisite %q has not run", tag))
	}
}

// Func resolves a FunctionID. Out-of-range ids are a programming error.
func (m *Module) Func(id FunctionID) *Function {
	return m.Functions[id]
}
