package command

import (
	"fmt"

	"github.com/malphas-lang/fble/internal/interp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	var scenarioMode bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Evaluate a source file and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v)
			defer logger.Sync()

			if scenarioMode {
				return runScenarios(cmd, args[0], logger)
			}
			return runFile(cmd, args[0], logger)
		},
	}
	cmd.Flags().BoolVar(&scenarioMode, "scenario", false, "treat the argument as a directory of *_test.fble scenario files instead of a single program")
	return cmd
}

func runFile(cmd *cobra.Command, filename string, logger *zap.SugaredLogger) error {
	res, err := compileFile(filename, logger)
	if err != nil {
		return err
	}
	if res.Sink.HasErrors() {
		for _, d := range res.Sink.Diagnostics() {
			fmt.Fprintln(cmd.ErrOrStderr(), d.String())
		}
		return fmt.Errorf("type check failed for %s", filename)
	}

	s := interp.NewScheduler()
	result := s.EvaluateContext(cmd.Context(), res.Block, nil)
	if result == nil {
		return fmt.Errorf("%s: evaluation aborted", filename)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(result))
	return nil
}
