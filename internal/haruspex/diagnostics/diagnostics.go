// Package diagnostics collects findings from the bytecode checker
// (internal/haruspex/analysis), independent of internal/diag's
// type-checker/interpreter taxonomy (spec.md §7) since these are
// static-analysis findings about the assembler's own output, not
// fble-program errors. Adapted from the teacher's
// internal/haruspex/diagnostics.go (Reporter collecting sorted
// Diagnostic values), swapping its lexer.Span for a block-name+PC
// anchor, since bytecode carries no source span of its own.
package diagnostics

import (
	"fmt"
	"sort"
)

// Kind is the severity of a haruspex finding.
type Kind int

const (
	KindWarning Kind = iota
	KindInfo
)

func (k Kind) String() string {
	if k == KindInfo {
		return "INFO"
	}
	return "WARNING"
}

// Diagnostic is one reported finding, anchored to the block name and
// instruction index (PC) it concerns rather than to a source span,
// since bytecode has no source text of its own once past the
// assembler.
type Diagnostic struct {
	Block   string
	PC      int
	Message string
	Kind    Kind
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.Block, d.PC, d.Kind, d.Message)
}

// Reporter collects findings during one block's analysis.
type Reporter struct {
	block       string
	diagnostics []Diagnostic
}

// NewReporter creates a reporter for the named code block.
func NewReporter(block string) *Reporter {
	return &Reporter{block: block}
}

// Report records a finding at instruction pc.
func (r *Reporter) Report(kind Kind, pc int, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{
		Block:   r.block,
		PC:      pc,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	})
}

func (r *Reporter) Warning(pc int, format string, args ...any) { r.Report(KindWarning, pc, format, args...) }
func (r *Reporter) Info(pc int, format string, args ...any)    { r.Report(KindInfo, pc, format, args...) }

// Diagnostics returns all collected findings, sorted by instruction
// index.
func (r *Reporter) Diagnostics() []Diagnostic {
	sorted := make([]Diagnostic, len(r.diagnostics))
	copy(sorted, r.diagnostics)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PC < sorted[j].PC })
	return sorted
}
