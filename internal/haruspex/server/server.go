package server

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// Server is the `fble disasm --serve` process: a single-request RPC
// endpoint over stdin/stdout, not a long-lived editor session. The
// teacher's Server drove an indefinite textDocument/* LSP lifecycle
// across many messages from one client; this one exists only so a
// caller can pipe a source fragment in and read its disassembly plus
// haruspex findings back over the same Content-Length framing,
// described fully in handler.go's HandleMessage.
type Server struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewServer creates a server reading requests from stdin and writing
// responses to stdout.
func NewServer() *Server {
	return &Server{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}
}

// Serve reads exactly one RPC message and handles it, then returns.
// Unlike an LSP server's Serve, which loops for the process lifetime,
// `fble disasm --serve` is invoked once per disassembly request — the
// caller closes the pipe after reading the response, rather than this
// protocol needing a shutdown notification to understand.
func (s *Server) Serve() error {
	msg, err := ReadMessage(s.reader)
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	s.HandleMessage(msg)
	return nil
}

func (s *Server) write(msg *RPCMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	WriteMessage(s.writer, msg)
}
