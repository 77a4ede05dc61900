package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// GHSAProvider queries GitHub's own advisory database for actions. It only
// implements the action-advisory contract: GHSA has no generic package
// advisory endpoint scoped the way OSV's is.
type GHSAProvider struct {
	client *githubclient.Client
}

// NewGHSAProvider builds a GHSAProvider sharing client with the rest of the
// pipeline's GitHub API calls.
func NewGHSAProvider(client *githubclient.Client) *GHSAProvider {
	return &GHSAProvider{client: client}
}

func (p *GHSAProvider) Name() string { return "GHSA" }

type ghsaAdvisory struct {
	GhsaID          string `json:"ghsa_id"`
	Summary         string `json:"summary"`
	Severity        string `json:"severity"`
	HTMLURL         string `json:"html_url"`
	Vulnerabilities []struct {
		VulnerableVersionRange string `json:"vulnerable_version_range"`
	} `json:"vulnerabilities"`
}

// Query looks up GHSA advisories affecting action.PackageName() via
// GET /advisories?ecosystem=actions&affects=<package_name>, per spec.md
// §4.4.
func (p *GHSAProvider) Query(ctx context.Context, action audit.ActionRef) ([]audit.Advisory, error) {
	packageName := action.PackageName()

	var items []ghsaAdvisory
	path := "/advisories?ecosystem=actions&affects=" + url.QueryEscape(packageName)
	if err := p.client.APIGetJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("querying GHSA advisories for %s: %w", packageName, err)
	}

	advisories := make([]audit.Advisory, 0, len(items))
	for _, item := range items {
		id := item.GhsaID
		if id == "" {
			id = "unknown"
		}

		var affectedRange string
		for _, v := range item.Vulnerabilities {
			if v.VulnerableVersionRange != "" {
				affectedRange = v.VulnerableVersionRange
				break
			}
		}

		advisories = append(advisories, audit.Advisory{
			ID:            id,
			Summary:       item.Summary,
			Severity:      audit.ParseSeverity(item.Severity),
			URL:           item.HTMLURL,
			AffectedRange: affectedRange,
			Source:        "GHSA",
		})
	}

	return advisories, nil
}
