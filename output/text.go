// Package output renders a Walker's result forest as text, JSON, or SARIF,
// the three external-collaborator formats of spec.md §6.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/scan-io-git/ghss/pkg/audit"
)

// Renderer writes a Walker result forest to w in some external format.
type Renderer interface {
	WriteResults(nodes []audit.AuditNode, w io.Writer) error
}

// TextOutput renders the audit tree as an indented hierarchy, grounded on
// original_source/src/lib/output.rs's write_node.
type TextOutput struct{}

// WriteResults renders nodes to w. Siblings are sorted by identity key
// immediately before formatting, per spec.md §5(ii): the Walker itself
// preserves discovery order and makes no ordering guarantee among
// siblings.
func (TextOutput) WriteResults(nodes []audit.AuditNode, w io.Writer) error {
	for _, node := range sortedNodes(nodes) {
		if err := writeNode(node, 0, w); err != nil {
			return err
		}
	}
	return nil
}

func sortedNodes(nodes []audit.AuditNode) []audit.AuditNode {
	sorted := append([]audit.AuditNode(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Entry.Action.IdentityKey() < sorted[j].Entry.Action.IdentityKey()
	})
	return sorted
}

// writeNode renders one node per spec.md §6: owner/repo@ref on its own
// line (resolved SHA in parentheses when present), then bulleted
// advisories by descending severity (already the order DeduplicateAdvisories
// produces), then a scan one-liner, then dependency advisories. Depth is
// encoded purely by indentation width.
func writeNode(node audit.AuditNode, depth int, w io.Writer) error {
	indent := strings.Repeat("  ", depth)
	entry := node.Entry

	header := entry.Action.PackageName() + "@" + entry.Action.GitRef
	if entry.ResolvedRef != "" {
		header += fmt.Sprintf(" (%s)", entry.ResolvedRef)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, header); err != nil {
		return err
	}

	if len(entry.Advisories) == 0 {
		if _, err := fmt.Fprintf(w, "%s  - advisories: none\n", indent); err != nil {
			return err
		}
	} else {
		for _, adv := range entry.Advisories {
			if _, err := fmt.Fprintf(w, "%s  - %s\n", indent, formatAdvisory(adv)); err != nil {
				return err
			}
		}
	}

	if entry.Scan != nil {
		if _, err := fmt.Fprintf(w, "%s  scan: %s\n", indent, formatScan(*entry.Scan)); err != nil {
			return err
		}
	}

	for _, dep := range entry.Dependencies {
		if _, err := fmt.Fprintf(w, "%s  - dependency %s@%s (%s)\n", indent, dep.Name, dep.Version, dep.Ecosystem); err != nil {
			return err
		}
		for _, adv := range dep.Advisories {
			if _, err := fmt.Fprintf(w, "%s      %s\n", indent, formatAdvisory(adv)); err != nil {
				return err
			}
		}
	}

	for _, child := range sortedNodes(node.Children) {
		if err := writeNode(child, depth+1, w); err != nil {
			return err
		}
	}

	return nil
}

func formatScan(s audit.ScanResult) string {
	lang := s.PrimaryLanguage
	if lang == "" {
		lang = "unknown"
	}
	if len(s.DetectedEcosystems) == 0 {
		return lang
	}
	ecos := make([]string, len(s.DetectedEcosystems))
	for i, e := range s.DetectedEcosystems {
		ecos[i] = string(e)
	}
	return fmt.Sprintf("%s, ecosystems: %s", lang, strings.Join(ecos, ", "))
}

func formatAdvisory(a audit.Advisory) string {
	return fmt.Sprintf("[%s] %s (%s) — %s", a.Severity, a.ID, a.Source, a.Summary)
}
