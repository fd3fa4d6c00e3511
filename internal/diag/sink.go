package diag

import (
	"fmt"

	"go.uber.org/zap"
)

// Sink accumulates diagnostics across a single type-checking pass.
// spec.md §7: "the type checker accumulates errors ... and returns a
// single failed sentinel at the top; it does not interleave error
// reports with successful output." Generalizes the teacher's bare
// formatter into something the checker can hold a reference to and
// the CLI can drain after the pass completes. Threaded explicitly
// through the checker and interpreter rather than a package-global
// stream, per spec.md §9's design note.
type Sink struct {
	log         *zap.SugaredLogger
	diagnostics []Diagnostic
}

// NewSink constructs an empty sink. log may be nil, in which case
// diagnostics are only buffered, never also logged.
func NewSink(log *zap.SugaredLogger) *Sink {
	return &Sink{log: log}
}

// Report buffers a diagnostic. It does not stop the caller — the
// checker keeps walking unrelated subterms (spec.md §7).
func (s *Sink) Report(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
	if s.log == nil {
		return
	}
	if d.Severity == SeverityError {
		s.log.Errorw(d.Message, "stage", d.Stage, "code", d.Code, "span", d.Span.String())
	} else {
		s.log.Warnw(d.Message, "stage", d.Stage, "code", d.Code, "span", d.Span.String())
	}
}

// Errorf is a convenience for reporting a formatted error diagnostic.
func (s *Sink) Errorf(stage Stage, code Code, span Span, format string, args ...any) {
	s.Report(Diagnostic{Stage: stage, Severity: SeverityError, Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Warnf is a convenience for reporting a formatted warning diagnostic.
func (s *Sink) Warnf(stage Stage, code Code, span Span, format string, args ...any) {
	s.Report(Diagnostic{Stage: stage, Severity: SeverityWarning, Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns every diagnostic reported so far, in report
// order.
func (s *Sink) Diagnostics() []Diagnostic { return s.diagnostics }

// HasErrors reports whether any SeverityError diagnostic was reported.
// The checker's top-level entry point uses this to decide whether to
// return its "failed" sentinel (spec.md §7).
func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
