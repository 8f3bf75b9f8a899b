// Package diagnostics implements the structured-diagnostic half of the
// error handling design (spec §7): IR validity errors are reported with a
// code, message and precise location rather than a bare Go error, so a
// caller can point at the offending function/block/instruction. Pass
// ordering violations and other programming errors are not diagnostics —
// they panic immediately (see ir.Module.MustHaveRun).
//
// Grounded on the teacher's internal/errors package (CompilerError,
// ErrorReporter, error-code ranges), adapted from a source-text error
// reporter to one that locates errors within the IR itself.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Error code ranges, mirroring the teacher's documented convention but a
// fresh range for this backend:
//
//	D001-D099: SSA construction errors/warnings
//	D100-D199: structural/validity errors (phi arity, unterminated blocks)
//	D200-D299: register allocation diagnostics
const (
	CodeUndefReachingDef = "D001"
	CodeTrivialPhi       = "D002"
	CodePhiArityMismatch = "D100"
	CodeUnterminatedBlock = "D101"
	CodeUndefinedValueUse = "D102"
	CodeSpillExhausted    = "D200"
)

// Location pinpoints a diagnostic within a function. Block/Instruction are
// -1 when not applicable (e.g. a whole-function diagnostic).
type Location struct {
	Function    string
	Block       int
	Instruction int
}

func (l Location) String() string {
	switch {
	case l.Instruction >= 0:
		return fmt.Sprintf("%s: block %d, instr %d", l.Function, l.Block, l.Instruction)
	case l.Block >= 0:
		return fmt.Sprintf("%s: block %d", l.Function, l.Block)
	default:
		return l.Function
	}
}

// Diagnostic is a single structured error or warning.
type Diagnostic struct {
	Level    Level
	Code     string
	Message  string
	Location Location
	Notes    []string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Level, d.Location, d.Message)
}

// Reporter renders diagnostics with the teacher's fatih/color styling.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Format renders d as a colorized, multi-line report.
func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder
	header := fmt.Sprintf("[%s] %s: %s", d.Code, d.Level, d.Message)
	switch d.Level {
	case Error:
		b.WriteString(color.RedString(header))
	case Warning:
		b.WriteString(color.YellowString(header))
	default:
		b.WriteString(color.CyanString(header))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  --> %s\n", d.Location)
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "  note: %s\n", note)
	}
	return b.String()
}
