// Package serve implements the "ghss serve" subcommand: a minimal HTTP
// wrapper around the Walker (a supplemented feature; spec.md's CLI surface
// is batch-only). Each request gets a correlation ID the way the teacher's
// cmd/run.go stamps job IDs with google/uuid.
package serve

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
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

// RunOptionsServe holds the arguments for the serve command.
type RunOptionsServe struct {
	Addr string
}

var (
	AppConfig *config.Config
	Logger    hclog.Logger

	serveOptions RunOptionsServe
)

// ServeCmd starts an HTTP server exposing the audit Walker as a
// POST /audit endpoint: the request body is a workflow YAML document, the
// response is the JSON-rendered audit forest.
var ServeCmd = &cobra.Command{
	Use:                   "serve [--addr HOST:PORT]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Serves the audit Walker over HTTP",
	RunE:                  runServeCommand,
}

// NewServeCmd returns the serve subcommand for registration on the root
// command.
func NewServeCmd() *cobra.Command {
	return ServeCmd
}

// Init records the resolved configuration and logger.
func Init(cfg *config.Config, logger hclog.Logger) {
	AppConfig = cfg
	Logger = logger
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/audit", handleAudit)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         serveOptions.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	Logger.Info("starting HTTP server", "addr", serveOptions.Addr)
	return server.ListenAndServe()
}

func handleAudit(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New()
	logger := Logger.With("request_id", requestID.String())

	if r.Method != http.MethodPost {
		http.Error(w, "only POST is supported", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		logger.Error("failed to read request body", "error", err)
		http.Error(w, fmt.Sprintf("reading body: %v", err), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	providerName := query.Get("provider")
	if providerName == "" {
		providerName = AppConfig.Provider
	}

	uses, err := audit.ParseWorkflow(buf.Bytes(), logger)
	if err != nil {
		logger.Warn("failed to parse workflow YAML", "error", err)
		http.Error(w, fmt.Sprintf("parsing workflow: %v", err), http.StatusBadRequest)
		return
	}

	roots := audit.DedupRoots(audit.ClassifyChildren(uses, logger))

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
	}, httpOpts, logger)

	providerSet, err := providers.Build(providerName, ghClient, httpOpts, AppConfig.OSVBaseURL, logger)
	if err != nil {
		logger.Error("failed to build advisory providers", "provider", providerName, "error", err)
		http.Error(w, fmt.Sprintf("building providers: %v", err), http.StatusBadRequest)
		return
	}

	pipeline := audit.NewPipelineBuilder().
		Stage(stages.NewRefResolveStage(ghClient, logger)).
		Stage(stages.NewCompositeExpandStage(ghClient, logger)).
		Stage(stages.NewWorkflowExpandStage(ghClient, logger)).
		Stage(stages.NewAdvisoryStage(providerSet.ActionProviders, logger)).
		Stage(stages.NewScanStage(ghClient, logger)).
		Stage(stages.NewDependencyStage(ghClient, providerSet.PackageProviders, logger)).
		MaxConcurrency(AppConfig.MaxConcurrency).
		Logger(logger).
		Build()

	walker, err := audit.NewWalker(pipeline, AppConfig.MaxDepth, AppConfig.MaxConcurrency, logger)
	if err != nil {
		logger.Error("failed to build walker", "error", err)
		http.Error(w, fmt.Sprintf("building walker: %v", err), http.StatusInternalServerError)
		return
	}

	nodes := walker.Walk(r.Context(), roots)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID.String())
	if err := (output.JSONOutput{}).WriteResults(nodes, w); err != nil {
		logger.Error("failed to render results", "error", err)
	}
}

func init() {
	ServeCmd.Flags().StringVar(&serveOptions.Addr, "addr", "127.0.0.1:8080", "Address to listen on.")
}
