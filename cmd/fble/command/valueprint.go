package command

import (
	"fmt"
	"strings"

	"github.com/malphas-lang/fble/internal/interp"
)

// formatValue renders a runtime Value for `fble run`'s output. Fble
// values carry no type-name tag at runtime (spec.md §3.5 erases types
// after checking), so this prints structure only: struct field lists,
// union tag index + payload, and a func/link placeholder.
func formatValue(v *interp.Value) string {
	if v == nil {
		return "<aborted>"
	}
	if v.DebugLiteral != nil {
		return fmt.Sprintf("%v", v.DebugLiteral)
	}
	switch v.Kind {
	case interp.KindStruct:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = formatValue(f)
		}
		return "*(" + strings.Join(parts, ", ") + ")"
	case interp.KindUnion:
		return fmt.Sprintf("%d(%s)", v.Tag, formatValue(v.Arg))
	case interp.KindFunc:
		return "<func>"
	case interp.KindRef:
		if !v.RefBound {
			return "<undefined ref>"
		}
		return formatValue(v.Ref)
	case interp.KindDataType:
		return "<type>"
	case interp.KindLink:
		return "<link>"
	default:
		return "<value>"
	}
}
