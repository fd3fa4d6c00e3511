package command

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/malphas-lang/fble/internal/interp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runScenarios adapts cmd/malphas/test.go's test-discovery shape
// (DESIGN.md's "dropped teacher code" note) into `fble run --scenario`:
// it walks dir for `*_test.fble` files, evaluates each independently,
// and reports a pass/fail tally instead of compiling to a native
// binary and checking its exit code. A scenario passes when
// evaluation completes without aborting (spec.md §4.5's only failure
// signal at this layer — there is no process exit code once the
// teacher's LLVM backend is gone).
func runScenarios(cmd *cobra.Command, dir string, logger *zap.SugaredLogger) error {
	files, err := findScenarioFiles(dir)
	if err != nil {
		return fmt.Errorf("discovering scenarios in %s: %w", dir, err)
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no scenario files found in %s\n", dir)
		return nil
	}

	var total, passed int
	for _, f := range files {
		total++
		if err := runScenarioFile(cmd, f, logger); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  FAIL %s: %v\n", f, err)
			continue
		}
		passed++
		fmt.Fprintf(cmd.OutOrStdout(), "  PASS %s\n", f)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d total, %d passed, %d failed\n", total, passed, total-passed)
	if passed != total {
		return fmt.Errorf("%d scenario(s) failed", total-passed)
	}
	return nil
}

func findScenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(path, "_test.fble") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func runScenarioFile(cmd *cobra.Command, filename string, logger *zap.SugaredLogger) error {
	res, err := compileFile(filename, logger)
	if err != nil {
		return err
	}
	if res.Sink.HasErrors() {
		return res.Sink.Diagnostics()[0]
	}
	s := interp.NewScheduler()
	result := s.EvaluateContext(cmd.Context(), res.Block, nil)
	if result == nil {
		return fmt.Errorf("evaluation aborted")
	}
	return nil
}
