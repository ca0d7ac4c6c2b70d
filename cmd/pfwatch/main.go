package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/pfwatch/internal/filter"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Exit codes.
const (
	exitConfig = 1
	exitIngest = 2
)

// exitError carries the process exit code for a failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pfwatch: %v\n", err)
		code := exitConfig
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pfwatch [log-file]",
		Short: "Live viewer for pf firewall logs",
		Long: `pfwatch reads pf filterlog lines from a file, stdin or a syslog TCP
listener and shows the records that match the given criteria.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags(), args)
			if err != nil {
				return &exitError{code: exitConfig, err: err}
			}
			f, err := filter.Build(cfg.Criteria)
			if err != nil {
				return &exitError{code: exitConfig, err: fmt.Errorf("invalid filter:\n%w", err)}
			}
			if cfg.DumpFilter {
				out, err := f.YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return run(cmd.Context(), cfg, f)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("pfwatch %s (commit %s, built %s)\n", version, commit, buildTime))

	fl := cmd.Flags()
	fl.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/pfwatch/config.yml)")
	fl.StringSliceP("interfaces", "i", nil, "only show records on these interfaces")
	fl.StringSliceP("protocols", "p", nil, "only show these protocols (name or number)")
	fl.StringSliceP("actions", "a", nil, "only show these actions (pass, block, reject)")
	fl.StringSlice("src-ip", nil, "only show records from these addresses or CIDR prefixes")
	fl.StringSlice("dst-ip", nil, "only show records to these addresses or CIDR prefixes")
	fl.StringSlice("src-port", nil, "only show records from these ports or ranges (P or A-B)")
	fl.StringSlice("dst-port", nil, "only show records to these ports or ranges (P or A-B)")
	fl.Bool("follow", false, "keep reading the log file as it grows")
	fl.Bool("headless", false, "run without the terminal UI")
	fl.Bool("dump-filter", false, "print the effective filter as YAML and exit")
	fl.Bool("tcp-enabled", false, "accept syslog over TCP")
	fl.String("tcp-addr", defaultTCPAddr, "syslog TCP listen address")
	fl.Bool("api-enabled", false, "serve the read-only HTTP API")
	fl.String("api-addr", defaultAPIAddr, "HTTP API listen address")
	fl.Bool("mirror-enabled", false, "mirror matches into an in-memory SQL table")
	fl.Duration("update-interval", defaultUpdateInterval, "terminal UI refresh interval")
	fl.String("state-dir", "", "directory for the runtime log (default ~/.local/state/pfwatch)")

	return cmd
}
