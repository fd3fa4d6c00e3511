package command

import (
	"fmt"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/haruspex/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDisasmCommand(v *viper.Viper) *cobra.Command {
	var serve bool
	cmd := &cobra.Command{
		Use:   "disasm [file]",
		Short: "Print a source file's bytecode listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serve {
				return server.NewServer().Serve()
			}
			if len(args) != 1 {
				return fmt.Errorf("disasm requires exactly one file unless --serve is given")
			}

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

			fmt.Fprint(cmd.OutOrStdout(), bytecode.Disassemble(res.Block))
			return nil
		},
	}
	cmd.Flags().BoolVar(&serve, "serve", false, "serve the haruspex disassembly RPC over stdin/stdout instead of disassembling a file")
	return cmd
}
