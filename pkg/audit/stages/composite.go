package stages

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/githubclient"
)

// CompositeExpandStage discovers children of a composite action by fetching
// and parsing action.yml/action.yaml, per spec.md §4.6.
type CompositeExpandStage struct {
	client *githubclient.Client
	logger hclog.Logger
}

// NewCompositeExpandStage builds a CompositeExpandStage.
func NewCompositeExpandStage(client *githubclient.Client, logger hclog.Logger) *CompositeExpandStage {
	return &CompositeExpandStage{client: client, logger: logger}
}

func (s *CompositeExpandStage) Name() string { return "CompositeExpand" }

func (s *CompositeExpandStage) Run(ctx context.Context, actx *audit.AuditContext) error {
	action := actx.Action

	var content []byte
	for _, filename := range []string{"action.yml", "action.yaml"} {
		c, ok, err := s.client.GetRawContentOptional(ctx, action.Owner, action.Repo, action.GitRef, filename)
		if err != nil {
			return err
		}
		if ok {
			content = c
			break
		}
	}

	if content == nil {
		if s.logger != nil {
			s.logger.Debug("no action.yml or action.yaml found, treating as leaf node", "action", action.Raw)
		}
		return nil
	}

	uses, isComposite, err := audit.ParseCompositeAction(content)
	if err != nil {
		return err
	}
	if !isComposite {
		return nil
	}

	children := audit.ClassifyChildren(uses, s.logger)
	if s.logger != nil {
		s.logger.Debug("discovered composite action children", "action", action.Raw, "count", len(children))
	}
	actx.Children = append(actx.Children, children...)
	return nil
}
