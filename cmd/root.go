package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghss/cmd/audit"
	"github.com/scan-io-git/ghss/cmd/fetch"
	"github.com/scan-io-git/ghss/cmd/serve"
	"github.com/scan-io-git/ghss/cmd/version"
	"github.com/scan-io-git/ghss/internal/config"
	"github.com/scan-io-git/ghss/internal/logger"
)

var (
	cfgFile string

	// AppConfig and Logger are populated by initConfig before any
	// subcommand runs.
	AppConfig *config.Config
	Logger    hclog.Logger

	rootCmd = &cobra.Command{
		Use:                   "ghss [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "ghss audits GitHub Actions workflows for vulnerable actions and dependencies.",
		Long: `ghss walks the GitHub Actions reachable from a workflow file — composite
actions, reusable workflows, and their declared dependencies — and reports
known advisories for each node it discovers.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none, env vars only)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(audit.NewAuditCmd())
	rootCmd.AddCommand(fetch.NewFetchCmd())
	rootCmd.AddCommand(serve.NewServeCmd())
}

// Execute runs the root command and returns the process exit code: 1 when
// the command returns an error (among them a missing/unreadable input file,
// unparsable top-level YAML, an unrecognized CLI flag or subcommand, and an
// invalid selection), 0 otherwise. Advisories and stage errors found during
// the walk do not produce an error.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	AppConfig = cfg
	Logger = logger.NewLogger(cfg, "ghss")

	version.Init(cfg)
	audit.Init(cfg, Logger)
	fetch.Init(cfg, Logger)
	serve.Init(cfg, Logger)
}
