package command

import (
	"fmt"
	"os"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/ftype"
	"github.com/malphas-lang/fble/internal/parser"
	"go.uber.org/zap"
)

// compileResult carries every artifact the three subcommands need out
// of the shared parse/check/assemble pipeline, so `run`, `check`, and
// `disasm` stop short at whichever stage they need rather than each
// reimplementing it.
type compileResult struct {
	Name  string
	Block *bytecode.CodeBlock
	Sink  *diag.Sink
}

// compileFile runs the reference front end over a single in-memory
// source file (spec.md §1: module loading beyond one file is out of
// scope). Parse errors are returned directly; type errors are left on
// the returned Sink for the caller to format and decide severity.
func compileFile(filename string, logger *zap.SugaredLogger) (*compileResult, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	p := parser.New(filename, string(src))
	expr := p.ParseExpr()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%s", errs[0])
	}

	sink := diag.NewSink(logger)
	checker := ftype.NewChecker(sink)
	tc := checker.Check(ftype.NewScope(), expr)

	result := &compileResult{Name: filename, Sink: sink}
	if sink.HasErrors() {
		return result, nil
	}

	asm := bytecode.NewAssembler()
	result.Block = asm.AssembleTop(filename, tc)
	return result, nil
}
