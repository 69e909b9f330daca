// Command sandbox hosts the Interop.Core sample assembly and exchanges
// objects with it directly and through shared memory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/clr-host/config"
	"github.com/wippyai/clr-host/internal/logging"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

type options struct {
	configFile  string
	runtime     string
	logLevel    string
	interactive bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	os.Exit(exitSuccess)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sandbox",
		Short:         "Host a managed runtime and call into the sample assembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interactive {
				return runInteractiveCmd(cmd, opts)
			}
			return runSequence(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "YAML config file overlaid on the environment")
	pf.StringVar(&opts.runtime, "runtime", "", `runtime version to host; empty or "latest" selects the highest installed`)
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "interactive mode with TUI")

	root.AddCommand(
		newRunCmd(opts),
		newDiscoverCmd(opts),
		newShmCmd(opts),
	)
	return root
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.runtime != "" {
		cfg.Runtime.Version = opts.runtime
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

// setup loads config and installs the process logger.
func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	logging.Install(log)
	return cfg, log, nil
}

func runInteractiveCmd(cmd *cobra.Command, opts *options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	return runInteractive(cmd.Context(), cfg, log)
}
