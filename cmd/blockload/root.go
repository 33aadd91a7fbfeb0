package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pthm/blockload"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose bool
	Config  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "blockload",
		Short: "Hydrate block-based HTML pages",
		Long: `blockload attaches block stylesheets and scripts to server-rendered
pages, inlines fragments, and rewrites canonical links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "block configuration (YAML)")

	cmd.AddCommand(newHydrateCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newTraceCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (o *rootOptions) loadConfig() (*blockload.Config, error) {
	if o.Config == "" {
		return blockload.DefaultConfig(), nil
	}
	return blockload.LoadConfig(o.Config)
}
