package audit

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// workflowDocument is the minimal shape of a workflow YAML file needed to
// extract `uses:` references: the jobs mapping, kept as a raw yaml.Node so
// jobs are visited in document order and a malformed individual job doesn't
// abort the whole parse.
type workflowDocument struct {
	Jobs yaml.Node `yaml:"jobs"`
}

type workflowStep struct {
	Uses string `yaml:"uses"`
}

type workflowJob struct {
	Uses  string         `yaml:"uses"`
	Steps []workflowStep `yaml:"steps"`
}

// ParseWorkflow is the workflow-YAML-parser external collaborator named in
// spec.md §6: bytes in, every `uses:` string out, in document order,
// including duplicates. A job that fails to parse individually emits a
// stderr warning via logger and is skipped; the overall call only fails if
// the top-level YAML document itself is unparsable.
func ParseWorkflow(raw []byte, logger hclog.Logger) ([]string, error) {
	var doc workflowDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	jobs := doc.Jobs.Content
	if doc.Jobs.Kind != yaml.MappingNode {
		jobs = nil
		if doc.Jobs.Kind != 0 {
			var asMap map[string]yaml.Node
			if err := doc.Jobs.Decode(&asMap); err != nil {
				return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
			}
		}
	}

	var uses []string
	for i := 0; i+1 < len(jobs); i += 2 {
		name, node := jobs[i].Value, jobs[i+1]
		var job workflowJob
		if err := node.Decode(&job); err != nil {
			if logger != nil {
				logger.Warn("failed to parse job", "job", name, "error", err)
			}
			continue
		}
		if job.Uses != "" {
			uses = append(uses, job.Uses)
		}
		for _, step := range job.Steps {
			if step.Uses != "" {
				uses = append(uses, step.Uses)
			}
		}
	}

	return uses, nil
}

// actionManifest is the subset of action.yml/action.yaml needed to detect
// and expand a composite action (spec.md §4.6 Composite-expand).
type actionManifest struct {
	Runs struct {
		Using string         `yaml:"using"`
		Steps []workflowStep `yaml:"steps"`
	} `yaml:"runs"`
}

// ParseCompositeAction parses an action.yml/action.yaml document and
// returns the raw `uses:` strings of its steps when it is a composite
// action. It returns (nil, false, nil) when the manifest exists but is not
// composite, and a non-nil error only when the YAML itself is malformed.
func ParseCompositeAction(raw []byte) ([]string, bool, error) {
	var manifest actionManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, false, fmt.Errorf("failed to parse action manifest: %w", err)
	}

	if manifest.Runs.Using != "composite" {
		return nil, false, nil
	}

	uses := make([]string, 0, len(manifest.Runs.Steps))
	for _, step := range manifest.Runs.Steps {
		if step.Uses != "" {
			uses = append(uses, step.Uses)
		}
	}
	return uses, true, nil
}

// ClassifyChildren parses raw `uses:` strings into third-party ActionRefs,
// dropping local/Docker references and logging a warning for anything that
// fails to parse — per spec.md §4.1's exclusion rules.
func ClassifyChildren(raw []string, logger hclog.Logger) []ActionRef {
	children := make([]ActionRef, 0, len(raw))
	for _, r := range raw {
		ref, err := ParseActionRef(r)
		if err != nil {
			if logger != nil && err != ErrLocalAction && err != ErrDockerAction {
				logger.Warn("failed to parse action reference", "uses", r, "error", err)
			}
			continue
		}
		children = append(children, ref)
	}
	return children
}
