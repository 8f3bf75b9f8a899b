package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Module in the textual IR format (§6). It is not a
// stable wire format.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates an empty printer.
func NewPrinter() *Printer { return &Printer{} }

// Print returns the textual rendering of module.
func Print(module *Module) string {
	p := NewPrinter()
	p.printModule(module)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("    ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) write(format string, args ...interface{}) {
	p.output.WriteString(fmt.Sprintf(format, args...))
}

func (p *Printer) printModule(module *Module) {
	p.write("/* %s module %s */\n", module.AnalysisStage, module.Name)
	for _, fn := range module.Functions {
		p.printFunction(fn)
	}
}

func (p *Printer) printFunction(fn *Function) {
	args := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		args[i] = fmt.Sprintf("%s: %s", param.Name, param.Type)
	}
	p.write("%s: fn %s(%s) %s {\n", fn.ID, fn.Name, strings.Join(args, ", "), fn.ReturnType)
	p.indent++
	for _, blk := range fn.Blocks {
		p.printBlock(blk)
	}
	p.indent--
	p.write("}\n")
}

func (p *Printer) printBlock(blk *BasicBlock) {
	preds := make([]string, len(blk.Preds))
	for i, pr := range blk.Preds {
		preds[i] = pr.String()
	}
	p.writeLine("$%s ($%d): ; preds = %s", blk.Name, int(blk.ID), strings.Join(preds, ", "))
	p.indent++
	for _, instr := range blk.Instructions {
		p.printInstruction(instr)
	}
	for _, mv := range blk.ParMoves {
		p.writeLine("parmove %s <- %s", mv.Dst, mv.Src)
	}
	for _, mv := range blk.Moves {
		p.writeLine("mov %s <- %s", mv.Dst, mv.Src)
	}
	p.writeLine("%s", blk.Terminator)
	p.indent--
}

func (p *Printer) printInstruction(instr *Instruction) {
	if instr.Yielded != nil {
		p.writeLine("%s = %s", *instr.Yielded, instr.Op)
		return
	}
	p.writeLine("%s", instr.Op)
}
