package audit

import (
	"encoding/json"
	"fmt"
)

// DependencyReport is one package discovered inside an action's repository,
// populated only for ecosystems with a concrete extractor (npm is the sole
// instance required by spec.md §4.6).
type DependencyReport struct {
	Name       string
	Version    string
	Ecosystem  Ecosystem
	Advisories []Advisory
}

// npmPackageManifest is the subset of package.json this module cares about.
type npmPackageManifest struct {
	Dependencies map[string]string `json:"dependencies"`
}

// ParseNpmDependencies extracts (name, version) pairs from a package.json's
// "dependencies" object. devDependencies and anything else are ignored.
func ParseNpmDependencies(content []byte) ([]PackageVersion, error) {
	var manifest npmPackageManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	deps := make([]PackageVersion, 0, len(manifest.Dependencies))
	for name, version := range manifest.Dependencies {
		deps = append(deps, PackageVersion{Name: name, Version: version})
	}
	return deps, nil
}

// PackageVersion is a bare (name, version) pair read from a manifest, prior
// to advisory enrichment.
type PackageVersion struct {
	Name    string
	Version string
}
