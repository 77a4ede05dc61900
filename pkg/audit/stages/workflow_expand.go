package stages

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// WorkflowExpandStage discovers children of a reusable workflow file: every
// job-level and step-level `uses:` reference, per spec.md §4.6. It only
// applies when the action's path targets a .github/workflows/ file.
type WorkflowExpandStage struct {
	client *githubclient.Client
	logger hclog.Logger
}

// NewWorkflowExpandStage builds a WorkflowExpandStage.
func NewWorkflowExpandStage(client *githubclient.Client, logger hclog.Logger) *WorkflowExpandStage {
	return &WorkflowExpandStage{client: client, logger: logger}
}

func (s *WorkflowExpandStage) Name() string { return "WorkflowExpand" }

func (s *WorkflowExpandStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	action := actx.Action

	if !strings.Contains(action.Path, ".github/workflows/") {
		if s.logger != nil {
			s.logger.Debug("not a reusable workflow path, skipping", "action", action.Raw)
		}
		return nil
	}

	content, ok, err := s.client.GetRawContentOptional(ctx, action.Owner, action.Repo, action.GitRef, action.Path)
	if err != nil {
		return err
	}
	if !ok {
		if s.logger != nil {
			s.logger.Debug("workflow file not found, skipping", "action", action.Raw)
		}
		return nil
	}

	uses, err := audit.ParseWorkflow(content, s.logger)
	if err != nil {
		return err
	}

	children := audit.ClassifyChildren(uses, s.logger)
	if s.logger != nil {
		s.logger.Debug("discovered workflow children", "action", action.Raw, "count", len(children))
	}
	actx.Children = append(actx.Children, children...)
	return nil
}
