// Package command assembles the fble CLI's cobra command tree and its
// ambient config/logging plumbing (SPEC_FULL.md §A): viper for the
// log level knob, zap for structured logging threaded explicitly into
// the checker rather than held as a package global.
package command

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRoot builds the root `fble` command and its subcommands.
func NewRoot() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FBLE")
	v.AutomaticEnv()
	v.SetDefault("log-level", "warn")

	root := &cobra.Command{
		Use:           "fble",
		Short:         "Reference front end for the fble language core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgFile string
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (yaml/json/toml)")
	root.PersistentFlags().String("log-level", "warn", "zap log level: debug, info, warn, error")
	v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		return nil
	}

	root.AddCommand(newRunCommand(v), newCheckCommand(v), newDisasmCommand(v))
	return root
}

func newLogger(v *viper.Viper) *zap.SugaredLogger {
	level := zap.WarnLevel
	_ = level.UnmarshalText([]byte(v.GetString("log-level")))
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
