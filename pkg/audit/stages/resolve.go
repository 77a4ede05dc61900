// Package stages implements the concrete audit.Stage pipeline stages of
// spec.md §4.6: ref resolution, composite/workflow expansion, advisory
// lookup, repository scanning, and dependency enrichment.
package stages

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// RefResolveStage resolves the action's symbolic ref to a commit SHA, or
// echoes it unchanged when it is already a SHA (spec.md §4.6).
type RefResolveStage struct {
	client *githubclient.Client
	logger hclog.Logger
}

// NewRefResolveStage builds a RefResolveStage.
func NewRefResolveStage(client *githubclient.Client, logger hclog.Logger) *RefResolveStage {
	return &RefResolveStage{client: client, logger: logger}
}

func (s *RefResolveStage) Name() string { return "RefResolve" }

func (s *RefResolveStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	if actx.Action.RefKind == audit.RefSha {
		actx.ResolvedRef = actx.Action.GitRef
		return nil
	}

	sha, err := s.client.ResolveRef(ctx, actx.Action.Owner, actx.Action.Repo, actx.Action.GitRef)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to resolve ref", "action", actx.Action.Raw, "error", err)
		}
		return err
	}
	actx.ResolvedRef = sha
	return nil
}
