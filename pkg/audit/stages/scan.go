package stages

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// ScanStage gathers repository-level metadata via one GraphQL query per
// node: primary language and presence of a fixed set of manifest files, per
// spec.md §4.6.
type ScanStage struct {
	client *githubclient.Client
	logger hclog.Logger
}

// NewScanStage builds a ScanStage.
func NewScanStage(client *githubclient.Client, logger hclog.Logger) *ScanStage {
	return &ScanStage{client: client, logger: logger}
}

func (s *ScanStage) Name() string { return "Scan" }

const scanQuery = `
query($owner: String!, $repo: String!, $ref: String!) {
  repository(owner: $owner, name: $repo) {
    primaryLanguage { name }
    packageJSON: object(expression: $ref + ":package.json") { ... on Blob { byteSize } }
    cargoToml: object(expression: $ref + ":Cargo.toml") { ... on Blob { byteSize } }
    goMod: object(expression: $ref + ":go.mod") { ... on Blob { byteSize } }
    requirementsTxt: object(expression: $ref + ":requirements.txt") { ... on Blob { byteSize } }
    pyprojectToml: object(expression: $ref + ":pyproject.toml") { ... on Blob { byteSize } }
    pomXml: object(expression: $ref + ":pom.xml") { ... on Blob { byteSize } }
    buildGradle: object(expression: $ref + ":build.gradle") { ... on Blob { byteSize } }
    buildGradleKts: object(expression: $ref + ":build.gradle.kts") { ... on Blob { byteSize } }
    gemfile: object(expression: $ref + ":Gemfile") { ... on Blob { byteSize } }
    composerJSON: object(expression: $ref + ":composer.json") { ... on Blob { byteSize } }
    dockerfile: object(expression: $ref + ":Dockerfile") { ... on Blob { byteSize } }
  }
}`

type scanQueryResponse struct {
	Repository struct {
		PrimaryLanguage *struct {
			Name string `json:"name"`
		} `json:"primaryLanguage"`
		PackageJSON     *struct{} `json:"packageJSON"`
		CargoToml       *struct{} `json:"cargoToml"`
		GoMod           *struct{} `json:"goMod"`
		RequirementsTxt *struct{} `json:"requirementsTxt"`
		PyprojectToml   *struct{} `json:"pyprojectToml"`
		PomXml          *struct{} `json:"pomXml"`
		BuildGradle     *struct{} `json:"buildGradle"`
		BuildGradleKts  *struct{} `json:"buildGradleKts"`
		Gemfile         *struct{} `json:"gemfile"`
		ComposerJSON    *struct{} `json:"composerJSON"`
		Dockerfile      *struct{} `json:"dockerfile"`
	} `json:"repository"`
}

func (s *ScanStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	action := actx.Action

	var resp scanQueryResponse
	vars := map[string]interface{}{
		"owner": action.Owner,
		"repo":  action.Repo,
		"ref":   action.GitRef,
	}
	if err := s.client.GraphQLPost(ctx, scanQuery, vars, &resp); err != nil {
		return fmt.Errorf("scanning %s: %w", action.PackageName(), err)
	}

	result := &audit.ScanResult{}
	if resp.Repository.PrimaryLanguage != nil {
		result.PrimaryLanguage = resp.Repository.PrimaryLanguage.Name
	}

	present := map[audit.Ecosystem]bool{}
	markIf := func(objectPresent bool, eco audit.Ecosystem) {
		if objectPresent {
			present[eco] = true
		}
	}
	markIf(resp.Repository.PackageJSON != nil, audit.EcosystemNpm)
	markIf(resp.Repository.CargoToml != nil, audit.EcosystemCargo)
	markIf(resp.Repository.GoMod != nil, audit.EcosystemGo)
	markIf(resp.Repository.RequirementsTxt != nil, audit.EcosystemPip)
	markIf(resp.Repository.PyprojectToml != nil, audit.EcosystemPip)
	markIf(resp.Repository.PomXml != nil, audit.EcosystemMaven)
	markIf(resp.Repository.BuildGradle != nil, audit.EcosystemGradle)
	markIf(resp.Repository.BuildGradleKts != nil, audit.EcosystemGradle)
	markIf(resp.Repository.Gemfile != nil, audit.EcosystemRubyGems)
	markIf(resp.Repository.ComposerJSON != nil, audit.EcosystemComposer)
	markIf(resp.Repository.Dockerfile != nil, audit.EcosystemDocker)

	for _, eco := range []audit.Ecosystem{
		audit.EcosystemNpm, audit.EcosystemCargo, audit.EcosystemGo, audit.EcosystemPip,
		audit.EcosystemMaven, audit.EcosystemGradle, audit.EcosystemRubyGems,
		audit.EcosystemComposer, audit.EcosystemDocker,
	} {
		if present[eco] {
			result.DetectedEcosystems = append(result.DetectedEcosystems, eco)
		}
	}

	if s.logger != nil {
		s.logger.Debug("scan complete", "action", action.Raw, "language", result.PrimaryLanguage, "ecosystems", result.DetectedEcosystems)
	}
	actx.Scan = result
	return nil
}
