package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a code block and,
// recursively, every nested block a FuncValue instruction allocates.
// Grounded on the teacher's internal/mir/pretty.go: one
// per-instruction-kind formatter plus a dispatch switch, the same
// shape generalised from basic blocks to a flat forward-jump stream.
func Disassemble(b *CodeBlock) string {
	var out strings.Builder
	disassembleBlock(&out, b, "")
	return out.String()
}

func disassembleBlock(out *strings.Builder, b *CodeBlock, indent string) {
	name := b.Name
	if name == "" {
		name = "<anonymous>"
	}
	fmt.Fprintf(out, "%sblock %s(args=%d, statics=%d, locals=%d) {\n", indent, name, b.NumArgs, b.NumStatic, b.NumLocals)
	inner := indent + "  "
	var nested []*CodeBlock
	for i, instr := range b.Instrs {
		fmt.Fprintf(out, "%s%3d: %s\n", inner, i, instrString(instr))
		if fv, ok := instr.(*FuncValue); ok {
			nested = append(nested, fv.Code)
		}
	}
	fmt.Fprintf(out, "%s}\n", indent)
	for _, n := range nested {
		disassembleBlock(out, n, indent)
	}
}

func frameIndexString(fi FrameIndex) string {
	return fmt.Sprintf("%s[%d]", fi.Space, fi.Index)
}

func frameIndexListString(fis []FrameIndex) string {
	parts := make([]string, len(fis))
	for i, fi := range fis {
		parts[i] = frameIndexString(fi)
	}
	return strings.Join(parts, ", ")
}

func instrString(instr Instr) string {
	switch i := instr.(type) {
	case *DataType:
		kind := "struct"
		if i.IsUnion {
			kind = "union"
		}
		fields := make([]string, len(i.Fields))
		for j, f := range i.Fields {
			name := ""
			if j < len(i.Names) {
				name = i.Names[j]
			}
			fields[j] = fmt.Sprintf("%s: %s", name, frameIndexString(f))
		}
		return fmt.Sprintf("locals[%d] = data_type %s {%s}", i.Dest, kind, strings.Join(fields, ", "))
	case *StructValueType:
		return fmt.Sprintf("locals[%d] = struct_value_type %s", i.Dest, frameIndexString(i.Type))
	case *UnionValueType:
		return fmt.Sprintf("locals[%d] = union_value_type %s", i.Dest, frameIndexString(i.Type))
	case *StructValue:
		return fmt.Sprintf("locals[%d] = struct_value %s(%s)", i.Dest, frameIndexString(i.Type), frameIndexListString(i.Args))
	case *UnionValue:
		return fmt.Sprintf("locals[%d] = union_value %s:%d(%s)", i.Dest, frameIndexString(i.Type), i.Tag, frameIndexString(i.Arg))
	case *StructAccess:
		return fmt.Sprintf("locals[%d] = struct_access %s.%d", i.Dest, frameIndexString(i.Obj), i.Tag)
	case *UnionAccess:
		return fmt.Sprintf("locals[%d] = union_access %s.%d", i.Dest, frameIndexString(i.Obj), i.Tag)
	case *UnionSelect:
		jumps := make([]string, len(i.Jumps))
		for j, n := range i.Jumps {
			jumps[j] = fmt.Sprintf("%d:+%d", j, n)
		}
		return fmt.Sprintf("select %s [%s]", frameIndexString(i.Cond), strings.Join(jumps, ", "))
	case *Jump:
		return fmt.Sprintf("jump +%d", i.N)
	case *FuncValue:
		name := i.Code.Name
		if name == "" {
			name = "<anonymous>"
		}
		return fmt.Sprintf("locals[%d] = func_value %s captures(%s)", i.Dest, name, frameIndexListString(i.Captures))
	case *Call:
		tail := ""
		if i.Exit {
			tail = " tail"
		}
		return fmt.Sprintf("locals[%d] = call%s %s(%s)", i.Dest, tail, frameIndexString(i.Func), frameIndexListString(i.Args))
	case *Link:
		return fmt.Sprintf("locals[%d], locals[%d] = link %s", i.GetDest, i.PutDest, frameIndexString(i.Elem))
	case *Fork:
		return fmt.Sprintf("fork %s -> %v", frameIndexListString(i.Args), i.Dests)
	case *Join:
		return "join"
	case *Copy:
		return fmt.Sprintf("locals[%d] = copy %s", i.Dest, frameIndexString(i.Src))
	case *RefValue:
		return fmt.Sprintf("locals[%d] = ref_value", i.Dest)
	case *RefDef:
		return fmt.Sprintf("ref_def %s := %s", frameIndexString(i.Ref), frameIndexString(i.Value))
	case *Return:
		return fmt.Sprintf("return %s", frameIndexString(i.Result))
	case *Type:
		return fmt.Sprintf("locals[%d] = type", i.Dest)
	case *Release:
		return fmt.Sprintf("release %s", frameIndexString(i.Target))
	case *List:
		return fmt.Sprintf("locals[%d] = list [%s]", i.Dest, frameIndexListString(i.Elems))
	case *Literal:
		return fmt.Sprintf("locals[%d] = literal %v", i.Dest, i.Value)
	default:
		return fmt.Sprintf("<?instr:%T>", instr)
	}
}
