// Package audit implements the "ghss audit" subcommand: the core workflow
// of spec.md — parse a workflow file's `uses:` references into root
// ActionRefs, walk the dependency graph they imply, and render the
// resulting forest.
package audit

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghss/internal/config"
	"github.com/scan-io-git/ghss/internal/httpclient"
	"github.com/scan-io-git/ghss/output"
	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
	"github.com/scan-io-git/ghss/pkg/audit/providers"
	"github.com/scan-io-git/ghss/pkg/audit/stages"
)

// RunOptionsAudit holds the arguments for the audit command.
type RunOptionsAudit struct {
	InputFile      string
	Provider       string
	Format         string
	OutputPath     string
	Selection      string
	MaxDepth       int
	MaxConcurrency int
}

var (
	AppConfig *config.Config
	Logger    hclog.Logger

	auditOptions RunOptionsAudit

	exampleAuditUsage = `  # Audit every action reachable from a workflow file, text output
  ghss audit --input-file .github/workflows/ci.yml

  # Audit using only the OSV provider, rendering JSON to a file
  ghss audit --input-file ci.yml --provider osv --format json --output report.json

  # Audit only the first three root actions discovered in the workflow
  ghss audit --input-file ci.yml --select 1-3`
)

// AuditCmd walks every action reachable from a workflow file and reports
// known advisories for each node discovered.
var AuditCmd = &cobra.Command{
	Use:                   "audit --input-file PATH [--provider ghsa|osv|all] [--format text|json|sarif] [--select SELECTION]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAuditUsage,
	Short:                 "Audits the actions and dependencies reachable from a GitHub Actions workflow",
	RunE:                  runAuditCommand,
}

// NewAuditCmd returns the audit subcommand for registration on the root
// command.
func NewAuditCmd() *cobra.Command {
	return AuditCmd
}

// Init records the resolved configuration and logger.
func Init(cfg *config.Config, logger hclog.Logger) {
	AppConfig = cfg
	Logger = logger
}

func runAuditCommand(cmd *cobra.Command, args []string) error {
	if auditOptions.InputFile == "" {
		return fmt.Errorf("the --input-file flag must be specified")
	}

	raw, err := os.ReadFile(auditOptions.InputFile)
	if err != nil {
		Logger.Error("failed to read workflow file", "path", auditOptions.InputFile, "error", err)
		return fmt.Errorf("reading %q: %w", auditOptions.InputFile, err)
	}

	uses, err := audit.ParseWorkflow(raw, Logger)
	if err != nil {
		Logger.Error("failed to parse workflow YAML", "path", auditOptions.InputFile, "error", err)
		return fmt.Errorf("parsing %q: %w", auditOptions.InputFile, err)
	}

	roots := audit.DedupRoots(audit.ClassifyChildren(uses, Logger))
	roots, err = audit.ParseSelection(auditOptions.Selection, roots)
	if err != nil {
		Logger.Error("invalid selection", "selection", auditOptions.Selection, "error", err)
		return err
	}

	providerName := auditOptions.Provider
	if providerName == "" {
		providerName = AppConfig.Provider
	}
	maxDepth := AppConfig.MaxDepth
	if cmd.Flags().Changed("max-depth") {
		maxDepth = auditOptions.MaxDepth
	}
	maxConcurrency := AppConfig.MaxConcurrency
	if cmd.Flags().Changed("max-concurrency") {
		maxConcurrency = auditOptions.MaxConcurrency
	}

	httpOpts := httpclient.Options{
		RetryCount:    AppConfig.HTTPClient.RetryCount,
		RetryWaitTime: AppConfig.HTTPClient.RetryWaitTime,
		Timeout:       AppConfig.HTTPClient.Timeout,
		Debug:         AppConfig.HTTPClient.Debug,
	}

	ghClient := githubclient.New(githubclient.Config{
		Token:      AppConfig.GitHubToken,
		APIBaseURL: AppConfig.APIBaseURL,
		RawBaseURL: AppConfig.RawBaseURL,
	}, httpOpts, Logger)

	providerSet, err := providers.Build(providerName, ghClient, httpOpts, AppConfig.OSVBaseURL, Logger)
	if err != nil {
		Logger.Error("failed to build advisory providers", "provider", providerName, "error", err)
		return err
	}

	pipeline := audit.NewPipelineBuilder().
		Stage(stages.NewRefResolveStage(ghClient, Logger)).
		Stage(stages.NewCompositeExpandStage(ghClient, Logger)).
		Stage(stages.NewWorkflowExpandStage(ghClient, Logger)).
		Stage(stages.NewAdvisoryStage(providerSet.ActionProviders, Logger)).
		Stage(stages.NewScanStage(ghClient, Logger)).
		Stage(stages.NewDependencyStage(ghClient, providerSet.PackageProviders, Logger)).
		MaxConcurrency(maxConcurrency).
		Logger(Logger).
		Build()

	walker, err := audit.NewWalker(pipeline, maxDepth, maxConcurrency, Logger)
	if err != nil {
		Logger.Error("failed to build walker", "error", err)
		return err
	}

	nodes := walker.Walk(cmd.Context(), roots)

	renderer, err := selectRenderer(auditOptions.Format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if auditOptions.OutputPath != "" {
		f, err := os.Create(auditOptions.OutputPath)
		if err != nil {
			Logger.Error("failed to create output file", "path", auditOptions.OutputPath, "error", err)
			return err
		}
		defer f.Close()
		out = f
	}

	if err := renderer.WriteResults(nodes, out); err != nil {
		Logger.Error("failed to render results", "format", auditOptions.Format, "error", err)
		return err
	}

	Logger.Info("audit command completed", "roots", len(roots), "format", auditOptions.Format)
	return nil
}

func selectRenderer(format string) (output.Renderer, error) {
	switch format {
	case "", "text":
		return output.TextOutput{}, nil
	case "json":
		return output.JSONOutput{}, nil
	case "sarif":
		return output.NewSARIFOutput("ghss"), nil
	default:
		return nil, fmt.Errorf("unknown --format %q, expected text|json|sarif", format)
	}
}

func init() {
	AuditCmd.Flags().StringVarP(&auditOptions.InputFile, "input-file", "i", "", "Path to a GitHub Actions workflow YAML file.")
	AuditCmd.Flags().StringVarP(&auditOptions.Provider, "provider", "p", "", "Advisory provider: ghsa, osv, or all (default: config value).")
	AuditCmd.Flags().StringVarP(&auditOptions.Format, "format", "f", "text", "Output format: text, json, or sarif.")
	AuditCmd.Flags().StringVarP(&auditOptions.OutputPath, "output", "o", "", "Write output to a file instead of stdout.")
	AuditCmd.Flags().StringVar(&auditOptions.Selection, "select", "all", `Root selection: "all" or a comma-separated list of 1-indexed ranges, e.g. "1-3,5".`)
	AuditCmd.Flags().IntVar(&auditOptions.MaxDepth, "max-depth", -1, "Maximum traversal depth; negative means unlimited.")
	AuditCmd.Flags().IntVar(&auditOptions.MaxConcurrency, "max-concurrency", 10, "Maximum concurrent pipeline runs per frontier.")
}
