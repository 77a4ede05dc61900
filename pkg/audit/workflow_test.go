package audit

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestParseWorkflowExtractsUsesInOrder(t *testing.T) {
	raw := []byte(`
jobs:
  build:
    uses: ./.github/workflows/reusable.yml
  test:
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-node@v3
      - run: echo hi
`)
	uses, err := ParseWorkflow(raw, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"./.github/workflows/reusable.yml",
		"actions/checkout@v4",
		"actions/setup-node@v3",
	}
	if len(uses) != len(want) {
		t.Fatalf("expected %d uses entries, got %d: %v", len(want), len(uses), uses)
	}
	for i, u := range uses {
		if u != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], u)
		}
	}
}

func TestParseWorkflowMalformedTopLevel(t *testing.T) {
	if _, err := ParseWorkflow([]byte("not: valid: yaml: ["), hclog.NewNullLogger()); err == nil {
		t.Fatal("expected error for malformed top-level YAML")
	}
}

func TestParseWorkflowSkipsMalformedJob(t *testing.T) {
	raw := []byte(`
jobs:
  good:
    uses: actions/checkout@v4
  bad: "this is a string, not a job map"
`)
	uses, err := ParseWorkflow(raw, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(uses) != 1 || uses[0] != "actions/checkout@v4" {
		t.Fatalf("expected only the well-formed job's uses, got %v", uses)
	}
}

func TestParseCompositeActionDetectsComposite(t *testing.T) {
	raw := []byte(`
runs:
  using: composite
  steps:
    - uses: actions/checkout@v4
    - run: echo hi
`)
	uses, composite, err := ParseCompositeAction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !composite {
		t.Fatal("expected composite action to be detected")
	}
	if len(uses) != 1 || uses[0] != "actions/checkout@v4" {
		t.Fatalf("unexpected uses: %v", uses)
	}
}

func TestParseCompositeActionNonComposite(t *testing.T) {
	raw := []byte(`
runs:
  using: node20
  main: index.js
`)
	uses, composite, err := ParseCompositeAction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if composite {
		t.Fatal("expected non-composite action")
	}
	if uses != nil {
		t.Fatalf("expected nil uses for non-composite action, got %v", uses)
	}
}

func TestClassifyChildrenDropsLocalAndDocker(t *testing.T) {
	raw := []string{
		"actions/checkout@v4",
		"./local-action",
		"docker://alpine:3.18",
		"actions/setup-node@v3",
	}
	children := ClassifyChildren(raw, hclog.NewNullLogger())
	if len(children) != 2 {
		t.Fatalf("expected 2 classified children, got %d: %+v", len(children), children)
	}
	if children[0].Repo != "checkout" || children[1].Repo != "setup-node" {
		t.Fatalf("unexpected classified children: %+v", children)
	}
}
