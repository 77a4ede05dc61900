package providers

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/internal/httpclient"
	"github.com/scan-io-git/ghss/pkg/audit"
)

const osvActionsEcosystem = "GitHub Actions"

// osvClient is the shared inner client for both OSV provider wrappers
// (spec.md §4.4's "shared-client pattern": one upstream, two contracts).
// It is never itself exposed as a provider.
type osvClient struct {
	resty   *resty.Client
	baseURL string
}

// NewOSVClient builds the shared OSV client. baseURL is overridable via
// GHSS_OSV_BASE_URL (internal/config).
func NewOSVClient(baseURL string, httpOpts httpclient.Options, logger hclog.Logger) *osvClient {
	return &osvClient{
		resty:   httpclient.New(logger, httpOpts),
		baseURL: baseURL,
	}
}

type osvQueryRequest struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID                string            `json:"id"`
	Aliases           []string          `json:"aliases"`
	Summary           string            `json:"summary"`
	References        []osvReference    `json:"references"`
	Affected          []osvAffected     `json:"affected"`
	DatabaseSpecific  *osvDBSpecific    `json:"database_specific"`
}

type osvReference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type osvAffected struct {
	Ranges []osvRange `json:"ranges"`
}

type osvRange struct {
	Events []osvEvent `json:"events"`
}

type osvEvent struct {
	Introduced   string `json:"introduced"`
	Fixed        string `json:"fixed"`
	LastAffected string `json:"last_affected"`
}

type osvDBSpecific struct {
	Severity string `json:"severity"`
}

// query posts one OSV lookup for (packageName, ecosystem, version) and
// returns the normalized advisories.
func (c *osvClient) query(ctx context.Context, packageName, ecosystem, version string) ([]audit.Advisory, error) {
	body := osvQueryRequest{
		Package: osvPackage{Name: packageName, Ecosystem: ecosystem},
		Version: version,
	}

	var result osvResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(body).
		ForceContentType("application/json").
		SetResult(&result).
		Post(c.baseURL + "/v1/query")
	if err != nil {
		return nil, fmt.Errorf("querying OSV for %s: %w", packageName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("OSV API returned HTTP %d for %s", resp.StatusCode(), packageName)
	}

	advisories := make([]audit.Advisory, 0, len(result.Vulns))
	for _, v := range result.Vulns {
		advisories = append(advisories, convertOSVVuln(v))
	}
	return advisories, nil
}

func convertOSVVuln(v osvVuln) audit.Advisory {
	severity := "unknown"
	if v.DatabaseSpecific != nil && v.DatabaseSpecific.Severity != "" {
		severity = v.DatabaseSpecific.Severity
	}

	url := pickOSVURL(v.References)

	var affectedRange string
	if len(v.Affected) > 0 && len(v.Affected[0].Ranges) > 0 {
		affectedRange = formatRangeEvents(v.Affected[0].Ranges[0].Events)
	}

	return audit.Advisory{
		ID:            v.ID,
		Aliases:       v.Aliases,
		Summary:       v.Summary,
		Severity:      audit.ParseSeverity(severity),
		URL:           url,
		AffectedRange: affectedRange,
		Source:        "OSV",
	}
}

func pickOSVURL(refs []osvReference) string {
	var web string
	for _, r := range refs {
		if r.Type == "ADVISORY" {
			return r.URL
		}
		if r.Type == "WEB" && web == "" {
			web = r.URL
		}
	}
	return web
}

func formatRangeEvents(events []osvEvent) string {
	var parts []string
	for _, e := range events {
		if e.Introduced != "" && e.Introduced != "0" {
			parts = append(parts, ">= "+e.Introduced)
		}
		if e.Fixed != "" {
			parts = append(parts, "< "+e.Fixed)
		}
		if e.LastAffected != "" {
			parts = append(parts, "<= "+e.LastAffected)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// OSVActionProvider wraps the shared osvClient behind the action-advisory
// contract, pre-configured with the "GitHub Actions" ecosystem string.
type OSVActionProvider struct {
	client *osvClient
}

// NewOSVActionProvider wraps client for action queries.
func NewOSVActionProvider(client *osvClient) *OSVActionProvider {
	return &OSVActionProvider{client: client}
}

func (p *OSVActionProvider) Name() string { return "OSV" }

// Query issues a POST /v1/query with ecosystem "GitHub Actions" and version
// set to the action's raw git ref, per spec.md §4.4.
func (p *OSVActionProvider) Query(ctx context.Context, action audit.ActionRef) ([]audit.Advisory, error) {
	return p.client.query(ctx, action.PackageName(), osvActionsEcosystem, action.Version())
}

// OSVPackageProvider wraps the shared osvClient behind the package-advisory
// contract, used by the Dependency stage.
type OSVPackageProvider struct {
	client *osvClient
}

// NewOSVPackageProvider wraps client for package-level dependency queries.
func NewOSVPackageProvider(client *osvClient) *OSVPackageProvider {
	return &OSVPackageProvider{client: client}
}

func (p *OSVPackageProvider) Name() string { return "OSV" }

// Query issues a POST /v1/query using ecosystem's canonical OSV name.
func (p *OSVPackageProvider) Query(ctx context.Context, packageName string, ecosystem audit.Ecosystem) ([]audit.Advisory, error) {
	return p.client.query(ctx, packageName, osvEcosystemName(ecosystem), "")
}

// osvEcosystemName maps our internal Ecosystem identifiers to OSV's
// canonical ecosystem names (https://ossf.github.io/osv-schema/#defined-ecosystems).
func osvEcosystemName(e audit.Ecosystem) string {
	switch e {
	case audit.EcosystemNpm:
		return "npm"
	case audit.EcosystemCargo:
		return "crates.io"
	case audit.EcosystemGo:
		return "Go"
	case audit.EcosystemPip:
		return "PyPI"
	case audit.EcosystemMaven:
		return "Maven"
	case audit.EcosystemGradle:
		return "Maven"
	case audit.EcosystemRubyGems:
		return "RubyGems"
	case audit.EcosystemComposer:
		return "Packagist"
	case audit.EcosystemDocker:
		return "Docker"
	default:
		return string(e)
	}
}
