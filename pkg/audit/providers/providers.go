// Package providers implements the advisory provider strategy abstraction
// of spec.md §4.4: two capability contracts and the concrete GHSA/OSV
// providers that back them.
package providers

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/internal/httpclient"
	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// ActionAdvisoryProvider queries advisories for a GitHub Action reference.
type ActionAdvisoryProvider interface {
	Query(ctx context.Context, action audit.ActionRef) ([]audit.Advisory, error)
	Name() string
}

// PackageAdvisoryProvider queries advisories for a language-ecosystem
// package, e.g. an npm dependency discovered by the Dependency stage.
type PackageAdvisoryProvider interface {
	Query(ctx context.Context, packageName string, ecosystem audit.Ecosystem) ([]audit.Advisory, error)
	Name() string
}

// Set bundles the providers wired for one audit run: zero or more action
// providers, and zero or more package providers.
type Set struct {
	ActionProviders  []ActionAdvisoryProvider
	PackageProviders []PackageAdvisoryProvider
}

// Build constructs the provider Set selected by name: "ghsa" wires GHSA
// only (action contract only), "osv" wires the shared OSV client behind
// both contracts, "all" wires GHSA plus OSV, per spec.md §4.4.
func Build(name string, gh *githubclient.Client, httpOpts httpclient.Options, osvBaseURL string, logger hclog.Logger) (Set, error) {
	switch name {
	case "ghsa":
		return Set{ActionProviders: []ActionAdvisoryProvider{NewGHSAProvider(gh)}}, nil
	case "osv":
		osv := NewOSVClient(osvBaseURL, httpOpts, logger)
		return Set{
			ActionProviders:  []ActionAdvisoryProvider{NewOSVActionProvider(osv)},
			PackageProviders: []PackageAdvisoryProvider{NewOSVPackageProvider(osv)},
		}, nil
	case "all":
		osv := NewOSVClient(osvBaseURL, httpOpts, logger)
		return Set{
			ActionProviders: []ActionAdvisoryProvider{
				NewGHSAProvider(gh),
				NewOSVActionProvider(osv),
			},
			PackageProviders: []PackageAdvisoryProvider{NewOSVPackageProvider(osv)},
		}, nil
	default:
		return Set{}, fmt.Errorf("unknown provider %q: must be one of ghsa|osv|all", name)
	}
}
