package output

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/scan-io-git/ghss/pkg/audit"
)

// jsonActionRef is the nested "action" object of spec.md §6's fixed JSON
// shape.
type jsonActionRef struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	GitRef  string `json:"git_ref"`
	RefKind string `json:"ref_kind"`
	Raw     string `json:"raw"`
}

type jsonAdvisory struct {
	ID            string   `json:"id"`
	Aliases       []string `json:"aliases"`
	Summary       string   `json:"summary"`
	Severity      string   `json:"severity"`
	URL           string   `json:"url"`
	AffectedRange string   `json:"affected_range"`
	Source        string   `json:"source"`
}

type jsonScanResult struct {
	PrimaryLanguage    *string  `json:"primary_language"`
	DetectedEcosystems []string `json:"detected_ecosystems"`
}

type jsonDependencyReport struct {
	Name       string         `json:"name"`
	Version    string         `json:"version"`
	Ecosystem  string         `json:"ecosystem"`
	Advisories []jsonAdvisory `json:"advisories"`
}

type jsonStageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// jsonAuditNode is the fixed field set spec.md §6 requires for every node:
// {action, resolved_ref, advisories, scan, dependencies, errors, children}.
// Absent values are explicit null/empty, never omitted — no `omitempty`
// tags here, by design.
type jsonAuditNode struct {
	Action       jsonActionRef          `json:"action"`
	ResolvedRef  *string                `json:"resolved_ref"`
	Advisories   []jsonAdvisory         `json:"advisories"`
	Scan         *jsonScanResult        `json:"scan"`
	Dependencies []jsonDependencyReport `json:"dependencies"`
	Errors       []jsonStageError       `json:"errors"`
	Children     []jsonAuditNode        `json:"children"`
}

// JSONOutput renders the audit tree as a fixed-shape JSON document.
type JSONOutput struct{}

// WriteResults pretty-prints nodes to w, sorting siblings by identity key
// immediately before formatting (see TextOutput.WriteResults).
func (JSONOutput) WriteResults(nodes []audit.AuditNode, w io.Writer) error {
	converted := convertNodes(nodes)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(converted)
}

func convertNodes(nodes []audit.AuditNode) []jsonAuditNode {
	sorted := append([]audit.AuditNode(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Entry.Action.IdentityKey() < sorted[j].Entry.Action.IdentityKey()
	})

	out := make([]jsonAuditNode, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, convertNode(n))
	}
	return out
}

func convertNode(n audit.AuditNode) jsonAuditNode {
	entry := n.Entry

	jn := jsonAuditNode{
		Action: jsonActionRef{
			Owner:   entry.Action.Owner,
			Repo:    entry.Action.Repo,
			Path:    entry.Action.Path,
			GitRef:  entry.Action.GitRef,
			RefKind: entry.Action.RefKind.String(),
			Raw:     entry.Action.Raw,
		},
		Advisories:   convertAdvisories(entry.Advisories),
		Dependencies: []jsonDependencyReport{},
		Errors:       []jsonStageError{},
		Children:     convertNodes(n.Children),
	}

	if entry.ResolvedRef != "" {
		ref := entry.ResolvedRef
		jn.ResolvedRef = &ref
	}

	if entry.Scan != nil {
		ecos := make([]string, len(entry.Scan.DetectedEcosystems))
		for i, e := range entry.Scan.DetectedEcosystems {
			ecos[i] = string(e)
		}
		scan := &jsonScanResult{DetectedEcosystems: ecos}
		if entry.Scan.PrimaryLanguage != "" {
			lang := entry.Scan.PrimaryLanguage
			scan.PrimaryLanguage = &lang
		}
		jn.Scan = scan
	}

	for _, dep := range entry.Dependencies {
		jn.Dependencies = append(jn.Dependencies, jsonDependencyReport{
			Name:       dep.Name,
			Version:    dep.Version,
			Ecosystem:  string(dep.Ecosystem),
			Advisories: convertAdvisories(dep.Advisories),
		})
	}

	for _, e := range entry.Errors {
		jn.Errors = append(jn.Errors, jsonStageError{Stage: e.Stage, Message: e.Message})
	}

	return jn
}

func convertAdvisories(advisories []audit.Advisory) []jsonAdvisory {
	out := make([]jsonAdvisory, 0, len(advisories))
	for _, a := range advisories {
		aliases := a.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		out = append(out, jsonAdvisory{
			ID:            a.ID,
			Aliases:       aliases,
			Summary:       a.Summary,
			Severity:      a.Severity.String(),
			URL:           a.URL,
			AffectedRange: a.AffectedRange,
			Source:        a.Source,
		})
	}
	return out
}
