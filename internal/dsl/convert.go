package dsl

import (
	"fmt"
	"regexp"
	"strconv"

	"ssa/internal/ir"
)

// Parse parses src and drives ir.ModuleBuilder from it, producing a
// ready-to-lower Module. name is used both as the module name and as
// the diagnostic source name.
func Parse(name, src string) (*ir.Module, error) {
	program, err := ParseString(name, src)
	if err != nil {
		return nil, err
	}
	return convert(name, program)
}

func convert(name string, program *Program) (*ir.Module, error) {
	b := ir.NewModuleBuilder(name)

	for _, fn := range program.Functions {
		if err := convertFunction(b, fn); err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}

	return b.Build(), nil
}

func convertFunction(b *ir.ModuleBuilder, fn *Function) error {
	retType, err := parseType(fn.RetType)
	if err != nil {
		return err
	}

	params := make([]ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		pt, err := parseType(p.Type)
		if err != nil {
			return err
		}
		params[i] = ir.Param{Name: p.Name, Type: pt}
	}

	fid := b.PushFunction(fn.Name, retType, params, parseLinkage(fn.Linkage))
	b.SwitchToFunction(fid)

	vars := make(map[string]ir.VariableID)
	for _, v := range fn.Vars {
		vt, err := parseType(v.Type)
		if err != nil {
			return err
		}
		vars[v.Name] = b.PushVariable(v.Name, vt)
	}

	// Blocks are created up front so forward references in jmp/br (and
	// across loop back-edges) resolve regardless of textual order.
	blocks := make(map[string]ir.BlockID)
	for _, blk := range fn.Blocks {
		blocks[blk.Name] = b.PushBlock(blk.Name)
	}

	values := make(map[int]ir.ValueID)
	resolve := func(n int) (ir.ValueID, error) {
		v, ok := values[n]
		if !ok {
			return 0, fmt.Errorf("%%%d used before definition", n)
		}
		return v, nil
	}

	for _, blk := range fn.Blocks {
		b.SwitchToBlock(blocks[blk.Name])
		for _, instr := range blk.Instrs {
			v, err := convertInstr(b, instr, vars, values, resolve)
			if err != nil {
				return fmt.Errorf("block %s: %w", blk.Name, err)
			}
			if instr.Yield != nil {
				if v == nil {
					return fmt.Errorf("block %s: %%%d assigned from a non-yielding op", blk.Name, *instr.Yield)
				}
				values[*instr.Yield] = *v
			}
		}
		if err := convertTerminator(b, blk.Term, blocks, resolve); err != nil {
			return fmt.Errorf("block %s: %w", blk.Name, err)
		}
	}

	return nil
}

func convertInstr(
	b *ir.ModuleBuilder, instr *Instr,
	vars map[string]ir.VariableID, values map[int]ir.ValueID,
	resolve func(int) (ir.ValueID, error),
) (*ir.ValueID, error) {
	switch {
	case instr.Op.Int != nil:
		v := b.BuildInteger(int64(instr.Op.Int.Value), ir.IntegerType{Bits: 32, Signed: true})
		return &v, nil

	case instr.Op.Bin != nil:
		op, err := parseBinOp(instr.Op.Bin.Op)
		if err != nil {
			return nil, err
		}
		lhs, err := resolve(instr.Op.Bin.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := resolve(instr.Op.Bin.Rhs)
		if err != nil {
			return nil, err
		}
		v := b.BuildBinOp(op, lhs, rhs, ir.IntegerType{Bits: 32, Signed: true})
		return &v, nil

	case instr.Op.Call != nil:
		args := make([]ir.ValueID, len(instr.Op.Call.Args))
		for i, a := range instr.Op.Call.Args {
			v, err := resolve(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		callee, err := lookupFunction(b, instr.Op.Call.Func)
		if err != nil {
			return nil, err
		}
		v := b.BuildCall(callee, args, ir.IntegerType{Bits: 32, Signed: true})
		return &v, nil

	case instr.Op.Load != nil:
		vid, ok := vars[instr.Op.Load.Var]
		if !ok {
			return nil, fmt.Errorf("undeclared variable %q", instr.Op.Load.Var)
		}
		v := b.BuildLoad(vid)
		return &v, nil

	case instr.Op.Store != nil:
		vid, ok := vars[instr.Op.Store.Var]
		if !ok {
			return nil, fmt.Errorf("undeclared variable %q", instr.Op.Store.Var)
		}
		value, err := resolve(instr.Op.Store.Value)
		if err != nil {
			return nil, err
		}
		b.BuildStore(vid, value)
		return nil, nil
	}
	return nil, fmt.Errorf("empty operation")
}

func convertTerminator(
	b *ir.ModuleBuilder, term *Terminator,
	blocks map[string]ir.BlockID, resolve func(int) (ir.ValueID, error),
) error {
	switch {
	case term.Return != nil:
		if term.Return.Value == nil {
			b.SetTerminator(ir.TermReturn{})
			return nil
		}
		v, err := resolve(*term.Return.Value)
		if err != nil {
			return err
		}
		b.SetTerminator(ir.TermReturn{Value: &v})
		return nil

	case term.Jump != nil:
		target, ok := blocks[term.Jump.Target]
		if !ok {
			return fmt.Errorf("undeclared block %q", term.Jump.Target)
		}
		b.SetTerminator(ir.TermJump{Target: target})
		return nil

	case term.Branch != nil:
		cond, err := resolve(term.Branch.Cond)
		if err != nil {
			return err
		}
		then, ok := blocks[term.Branch.Then]
		if !ok {
			return fmt.Errorf("undeclared block %q", term.Branch.Then)
		}
		els, ok := blocks[term.Branch.Else]
		if !ok {
			return fmt.Errorf("undeclared block %q", term.Branch.Else)
		}
		b.SetTerminator(ir.TermBranch{Cond: cond, Then: then, Else: els})
		return nil
	}
	return fmt.Errorf("missing terminator")
}

// lookupFunction resolves a callee by name against functions already
// pushed into the module being built. Forward calls to a function
// later in the same source file are not supported: this minimal DSL
// requires callees to be declared first.
func lookupFunction(b *ir.ModuleBuilder, name string) (ir.FunctionID, error) {
	for _, fn := range b.Module().Functions {
		if fn.Name == name {
			return fn.ID, nil
		}
	}
	return 0, fmt.Errorf("call to undeclared function %q", name)
}

func parseLinkage(s string) ir.Linkage {
	switch s {
	case "pub":
		return ir.Public
	case "extern":
		return ir.External
	default:
		return ir.Private
	}
}

var intTypeRe = regexp.MustCompile(`^([us])(\d+)$`)

func parseType(name string) (ir.Type, error) {
	if name == "void" {
		return ir.VoidType{}, nil
	}
	if m := intTypeRe.FindStringSubmatch(name); m != nil {
		bits, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, err
		}
		return ir.IntegerType{Bits: bits, Signed: m[1] == "s"}, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func parseBinOp(name string) (ir.BinOp, error) {
	switch name {
	case "add":
		return ir.Add, nil
	case "sub":
		return ir.Sub, nil
	case "mul":
		return ir.Mul, nil
	case "div":
		return ir.Div, nil
	case "mod":
		return ir.Mod, nil
	case "and":
		return ir.And, nil
	case "or":
		return ir.Or, nil
	case "xor":
		return ir.Xor, nil
	case "shl":
		return ir.Shl, nil
	case "shr":
		return ir.Shr, nil
	case "eq":
		return ir.Eq, nil
	case "ne":
		return ir.Ne, nil
	case "lt":
		return ir.Lt, nil
	case "le":
		return ir.Le, nil
	case "gt":
		return ir.Gt, nil
	case "ge":
		return ir.Ge, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %q", name)
	}
}
