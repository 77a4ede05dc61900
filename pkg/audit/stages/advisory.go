package stages

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/providers"
)

// AdvisoryStage queries every configured action advisory provider
// concurrently and merges the results via audit.DeduplicateAdvisories, per
// spec.md §4.6. A failing provider contributes exactly one StageError; the
// surviving providers' results are still stored.
type AdvisoryStage struct {
	providers []providers.ActionAdvisoryProvider
	logger    hclog.Logger
}

// NewAdvisoryStage builds an AdvisoryStage over the given providers.
func NewAdvisoryStage(providers []providers.ActionAdvisoryProvider, logger hclog.Logger) *AdvisoryStage {
	return &AdvisoryStage{providers: providers, logger: logger}
}

func (s *AdvisoryStage) Name() string { return "Advisory" }

type advisoryResult struct {
	provider   string
	advisories []audit.Advisory
	err        error
}

func (s *AdvisoryStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	results := make([]advisoryResult, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p providers.ActionAdvisoryProvider) {
			defer wg.Done()
			advs, err := p.Query(ctx, actx.Action)
			results[i] = advisoryResult{provider: p.Name(), advisories: advs, err: err}
		}(i, p)
	}
	wg.Wait()

	var advisories []audit.Advisory
	for _, r := range results {
		if r.err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to query advisories", "action", actx.Action.Raw, "provider", r.provider, "error", r.err)
			}
			actx.RecordError(s.Name(), fmt.Errorf("%s: %w", r.provider, r.err))
			continue
		}
		advisories = append(advisories, r.advisories...)
	}

	actx.Advisories = audit.DeduplicateAdvisories(advisories)
	return nil
}
