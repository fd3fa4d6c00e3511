// Command fble is the reference front end over internal/{ast,lexer,
// parser,ftype,bytecode,interp,linker,haruspex}: `run` evaluates a
// source file, `check` runs the type checker plus the haruspex
// liveness checker without executing anything, and `disasm` prints a
// code block's bytecode listing (or serves it over the haruspex
// disassembly RPC). Replaces cmd/malphas's bare `flag`-based CLI
// (DESIGN.md) with cobra/pflag, grounded on
// _examples/DataDog-datadog-agent's cmd/ tree (SPEC_FULL.md §A).
package main

import (
	"fmt"
	"os"

	"github.com/malphas-lang/fble/cmd/fble/command"
)

func main() {
	if err := command.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
