package server

import (
	"encoding/json"
	"fmt"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/ftype"
	"github.com/malphas-lang/fble/internal/haruspex"
	"github.com/malphas-lang/fble/internal/parser"
)

// HandleMessage dispatches an RPC request. The only method this
// server exposes is "disassemble" — `fble disasm --serve` pipes a
// source fragment in and gets its disassembly plus haruspex findings
// back, the disassembly/inspection RPC SPEC_FULL.md §D calls for in
// place of the teacher's textDocument/* LSP lifecycle.
func (s *Server) HandleMessage(msg *RPCMessage) {
	if msg.Method != "disassemble" {
		if msg.ID != nil {
			s.writeError(msg.ID, -32601, fmt.Sprintf("unknown method %q", msg.Method))
		}
		return
	}
	s.handleDisassemble(msg)
}

type disassembleParams struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type disassembleResult struct {
	Disassembly string       `json:"disassembly"`
	Findings    []findingDTO `json:"findings"`
}

type findingDTO struct {
	Block   string `json:"block"`
	PC      int    `json:"pc"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleDisassemble(msg *RPCMessage) {
	var params disassembleParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.writeError(msg.ID, -32602, fmt.Sprintf("invalid params: %v", err))
		return
	}

	p := parser.New(params.Name, params.Source)
	expr := p.ParseExpr()
	if errs := p.Errors(); len(errs) > 0 {
		s.writeError(msg.ID, 1, fmt.Sprintf("parse error: %v", errs[0]))
		return
	}

	sink := diag.NewSink(nil)
	checker := ftype.NewChecker(sink)
	tc := checker.Check(ftype.NewScope(), expr)
	if len(sink.Diagnostics()) > 0 {
		s.writeError(msg.ID, 2, fmt.Sprintf("type error: %v", sink.Diagnostics()[0]))
		return
	}

	block := bytecode.NewAssembler().AssembleTop(params.Name, tc)
	findings := haruspex.Check(block)

	result := disassembleResult{
		Disassembly: bytecode.Disassemble(block),
	}
	for _, f := range findings {
		result.Findings = append(result.Findings, findingDTO{
			Block:   f.Block,
			PC:      f.PC,
			Kind:    f.Kind.String(),
			Message: f.Message,
		})
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		s.writeError(msg.ID, -32603, fmt.Sprintf("internal error: %v", err))
		return
	}
	s.write(&RPCMessage{JSONRPC: "2.0", ID: msg.ID, Result: resultBytes})
}

func (s *Server) writeError(id *json.RawMessage, code int, message string) {
	if id == nil {
		return
	}
	s.write(&RPCMessage{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}
