package command_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/malphas-lang/fble/cmd/fble/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullAdderSrc = `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  FullAdderOut@ = *(Bit z, Bit cout),
  z = Bit:1(Unit()),
  cout = Bit:0(Unit());
FullAdderOut(z, cout)
`

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunPrintsResultValue(t *testing.T) {
	path := writeSource(t, "adder.fble", fullAdderSrc)

	root := command.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"run", path})

	require.NoError(t, root.Execute())
	assert.NotEmpty(t, out.String())
}

func TestCheckPassesOnWellFormedProgram(t *testing.T) {
	path := writeSource(t, "adder.fble", fullAdderSrc)

	root := command.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"check", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ok")
}

func TestDisasmPrintsListing(t *testing.T) {
	path := writeSource(t, "adder.fble", fullAdderSrc)

	root := command.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"disasm", path})

	require.NoError(t, root.Execute())
	assert.NotEmpty(t, out.String())
}

func TestRunReportsTypeErrors(t *testing.T) {
	path := writeSource(t, "bad.fble", "let Unit@ = *(); Undefined()")

	root := command.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"run", path})

	assert.Error(t, root.Execute())
}

func TestRunScenarioDiscoversAndRunsTestFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adder_test.fble"), []byte(fullAdderSrc), 0o644))

	root := command.NewRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"run", "--scenario", dir})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "1 total, 1 passed")
}
