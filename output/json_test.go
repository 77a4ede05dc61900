package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/scan-io-git/ghss/pkg/audit"
)

func TestJSONOutputShapeHasNoOmittedFields(t *testing.T) {
	node := audit.AuditNode{
		Entry: audit.ActionEntry{
			Action: mustRef(t, "actions/checkout@v4"),
		},
	}

	var buf strings.Builder
	if err := (JSONOutput{}).WriteResults([]audit.AuditNode{node}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 node, got %d", len(decoded))
	}

	n := decoded[0]
	for _, field := range []string{"action", "resolved_ref", "advisories", "scan", "dependencies", "errors", "children"} {
		if _, ok := n[field]; !ok {
			t.Errorf("expected field %q to be present (even if null), got keys %v", field, keysOf(n))
		}
	}
	if n["resolved_ref"] != nil {
		t.Fatalf("expected resolved_ref to be null when unset, got %v", n["resolved_ref"])
	}
	if n["scan"] != nil {
		t.Fatalf("expected scan to be null when unset, got %v", n["scan"])
	}
	if advs, ok := n["advisories"].([]interface{}); !ok || len(advs) != 0 {
		t.Fatalf("expected advisories to be an empty array, got %v", n["advisories"])
	}
}

func keysOf(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestJSONOutputEncodesResolvedRefAndScan(t *testing.T) {
	node := audit.AuditNode{
		Entry: audit.ActionEntry{
			Action:      mustRef(t, "actions/checkout@v4"),
			ResolvedRef: "abc123",
			Scan: &audit.ScanResult{
				PrimaryLanguage:    "Go",
				DetectedEcosystems: []audit.Ecosystem{audit.EcosystemGo},
			},
		},
	}

	var buf strings.Builder
	if err := (JSONOutput{}).WriteResults([]audit.AuditNode{node}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}

	n := decoded[0]
	if n["resolved_ref"] != "abc123" {
		t.Fatalf("unexpected resolved_ref: %v", n["resolved_ref"])
	}
	scan, ok := n["scan"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected scan object, got %v", n["scan"])
	}
	if scan["primary_language"] != "Go" {
		t.Fatalf("unexpected primary_language: %v", scan["primary_language"])
	}
}

func TestJSONOutputSortsSiblings(t *testing.T) {
	nodeB := audit.AuditNode{Entry: audit.ActionEntry{Action: mustRef(t, "owner/b@v1")}}
	nodeA := audit.AuditNode{Entry: audit.ActionEntry{Action: mustRef(t, "owner/a@v1")}}

	var buf strings.Builder
	if err := (JSONOutput{}).WriteResults([]audit.AuditNode{nodeB, nodeA}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	first := decoded[0]["action"].(map[string]interface{})
	if first["repo"] != "a" {
		t.Fatalf("expected owner/a to sort first, got %v", first)
	}
}
