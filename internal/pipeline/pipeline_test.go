package pipeline

import (
	"testing"

	"ssa/internal/dsl"
	"ssa/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunDiamondProgram exercises the whole pipeline (SSA construction,
// optimization, critical-edge splitting, phi lowering, parallel-move
// sequencing, instruction selection and register allocation) end to end
// over a small DSL program with a diamond CFG, so a join point actually
// exercises phi lowering and move sequencing.
func TestRunDiamondProgram(t *testing.T) {
	source := `
fn choose(c: u32) -> u32 {
    var x: u32
    block entry:
        %0 = int 1
        br %0, $left, $right
    block left:
        %1 = int 10
        store #x, %1
        jmp $merge
    block right:
        %2 = int 20
        store #x, %2
        jmp $merge
    block merge:
        %3 = load #x
        ret %3
}
`
	module, err := dsl.Parse("diamond", source)
	require.NoError(t, err)

	result := Run(module)
	require.NotEmpty(t, result.VCode.Functions)

	fn := result.VCode.Functions[0]
	assert.Equal(t, "choose", fn.Name)
	assert.NotEmpty(t, fn.Blocks, "expected the function to retain its blocks after lowering")

	for _, p := range allPasses() {
		assert.True(t, module.HasRun(p), "expected pass %s to have run", p)
	}
}

// TestRunStraightLineProgram covers a program with no branches at all,
// where phi lowering and move sequencing should both be no-ops.
func TestRunStraightLineProgram(t *testing.T) {
	source := `
fn add(a: u32, b: u32) -> u32 {
    block entry:
        %0 = int 1
        %1 = int 2
        %2 = add %0, %1
        ret %2
}
`
	module, err := dsl.Parse("straight", source)
	require.NoError(t, err)

	result := Run(module)
	require.Len(t, result.VCode.Functions, 1)
	assert.Empty(t, result.Warnings)
}

func allPasses() []ir.PassTag {
	return []ir.PassTag{
		ir.PassSSAConstruct,
		ir.PassCriticalEdgeSplit,
		ir.PassPhiLowering,
		ir.PassLowerParMoves,
		ir.PassInstructionSelect,
		ir.PassRegisterAllocation,
	}
}
