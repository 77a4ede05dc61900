package stages

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
	"github.com/scan-io-git/ghss/pkg/audit/providers"
)

// DependencyStage enumerates dependencies for every ecosystem with a
// concrete extractor (npm is the sole instance required by spec.md §4.6)
// and queries package advisory providers for each one. Skips entirely when
// ctx.Scan is absent or detected no ecosystems.
type DependencyStage struct {
	client    *githubclient.Client
	providers []providers.PackageAdvisoryProvider
	logger    hclog.Logger
}

// NewDependencyStage builds a DependencyStage.
func NewDependencyStage(client *githubclient.Client, providers []providers.PackageAdvisoryProvider, logger hclog.Logger) *DependencyStage {
	return &DependencyStage{client: client, providers: providers, logger: logger}
}

func (s *DependencyStage) Name() string { return "Dependency" }

func (s *DependencyStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	if actx.Scan == nil || len(actx.Scan.DetectedEcosystems) == 0 {
		if s.logger != nil {
			s.logger.Debug("no ecosystems to scan for dependencies", "action", actx.Action.Raw)
		}
		return nil
	}

	if !actx.Scan.HasEcosystem(audit.EcosystemNpm) {
		return nil
	}

	action := actx.Action
	content, ok, err := s.client.GetRawContentOptional(ctx, action.Owner, action.Repo, action.GitRef, "package.json")
	if err != nil {
		return err
	}
	if !ok {
		if s.logger != nil {
			s.logger.Debug("package.json not found, skipping", "action", action.Raw)
		}
		return nil
	}

	packages, err := audit.ParseNpmDependencies(content)
	if err != nil {
		return err
	}

	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })

	reports := make([]audit.DependencyReport, 0, len(packages))
	for _, pkg := range packages {
		advisories, errs := s.queryPackage(ctx, pkg.Name)
		for _, e := range errs {
			actx.RecordError(s.Name(), e)
		}
		reports = append(reports, audit.DependencyReport{
			Name:       pkg.Name,
			Version:    pkg.Version,
			Ecosystem:  audit.EcosystemNpm,
			Advisories: audit.DeduplicateAdvisories(advisories),
		})
	}

	actx.Dependencies = reports
	return nil
}

func (s *DependencyStage) queryPackage(ctx context.Context, packageName string) ([]audit.Advisory, []error) {
	results := make([]advisoryResult, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p providers.PackageAdvisoryProvider) {
			defer wg.Done()
			advs, err := p.Query(ctx, packageName, audit.EcosystemNpm)
			results[i] = advisoryResult{provider: p.Name(), advisories: advs, err: err}
		}(i, p)
	}
	wg.Wait()

	var advisories []audit.Advisory
	var errs []error
	for _, r := range results {
		if r.err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to query advisories for npm package", "package", packageName, "provider", r.provider, "error", r.err)
			}
			errs = append(errs, fmt.Errorf("%s: %s: %w", r.provider, packageName, r.err))
			continue
		}
		advisories = append(advisories, r.advisories...)
	}
	return advisories, errs
}
