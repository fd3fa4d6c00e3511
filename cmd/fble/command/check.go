package command

import (
	"fmt"

	"github.com/malphas-lang/fble/internal/haruspex"
	"github.com/malphas-lang/fble/internal/haruspex/diagnostics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCheckCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Type-check a source file and run the bytecode liveness checker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(v)
			defer logger.Sync()

			res, err := compileFile(args[0], logger)
			if err != nil {
				return err
			}
			if res.Sink.HasErrors() {
				for _, d := range res.Sink.Diagnostics() {
					fmt.Fprintln(cmd.ErrOrStderr(), d.String())
				}
				return fmt.Errorf("type check failed for %s", args[0])
			}

			findings := haruspex.Check(res.Block)
			var warnings int
			for _, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), f.String())
				if f.Kind == diagnostics.KindWarning {
					warnings++
				}
			}
			if warnings > 0 {
				return fmt.Errorf("%d abort-mirror warning(s) in %s", warnings, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
