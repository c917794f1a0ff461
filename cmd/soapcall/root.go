package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-soapws/internal/config"
)

// globalFlags are shared by all subcommands
type globalFlags struct {
	ConfigPath string
	Verbose    bool
}

// cli carries state from the root command into subcommands
type cli struct {
	flags  globalFlags
	config *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "soapcall",
		Short: "SOAP web service client",
		Long: `soapcall sends SOAP requests and prints the response payload.

The destination is taken from the command line, a DNS U-NAPTR lookup or the
configured default URI, in that order. Faults and HTTP errors are reported
with a non-zero exit status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.flags.ConfigPath, "config", "c", "", "configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&c.flags.Verbose, "verbose", "v", false, "log exchanges at debug level")

	rootCmd.AddCommand(newSendCmd(c))
	rootCmd.AddCommand(newResolveCmd(c))
	rootCmd.AddCommand(newJournalCmd(c))

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if c.flags.ConfigPath != "" {
		var err error
		cfg, err = config.Load(c.flags.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
	}
	if c.flags.Verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	c.config = cfg
	c.logger = logger
	return nil
}
