package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/pkg/audit"
	"github.com/scan-io-git/ghss/pkg/audit/providers"
)

type fakeActionProvider struct {
	name       string
	advisories []audit.Advisory
	err        error
}

func (p *fakeActionProvider) Name() string { return p.name }

func (p *fakeActionProvider) Query(ctx context.Context, action audit.ActionRef) ([]audit.Advisory, error) {
	return p.advisories, p.err
}

func TestAdvisoryStageMergesAcrossProviders(t *testing.T) {
	p1 := &fakeActionProvider{name: "GHSA", advisories: []audit.Advisory{{ID: "GHSA-1", Severity: audit.SeverityHigh, Source: "GHSA"}}}
	p2 := &fakeActionProvider{name: "OSV", advisories: []audit.Advisory{{ID: "OSV-1", Severity: audit.SeverityLow, Source: "OSV"}}}

	s := NewAdvisoryStage([]providers.ActionAdvisoryProvider{p1, p2}, hclog.NewNullLogger())
	action, _ := audit.ParseActionRef("owner/repo@v1")
	actx := &audit.AuditContext{Action: action}

	if err := s.Run(context.Background(), actx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actx.Advisories) != 2 {
		t.Fatalf("expected 2 distinct advisories, got %+v", actx.Advisories)
	}
	if actx.Advisories[0].ID != "GHSA-1" {
		t.Fatalf("expected descending-severity order with GHSA-1 first, got %+v", actx.Advisories)
	}
}

func TestAdvisoryStageRecordsFailingProviderButKeepsOthers(t *testing.T) {
	good := &fakeActionProvider{name: "GHSA", advisories: []audit.Advisory{{ID: "GHSA-1", Severity: audit.SeverityModerate, Source: "GHSA"}}}
	bad := &fakeActionProvider{name: "OSV", err: errors.New("upstream down")}

	s := NewAdvisoryStage([]providers.ActionAdvisoryProvider{good, bad}, hclog.NewNullLogger())
	action, _ := audit.ParseActionRef("owner/repo@v1")
	actx := &audit.AuditContext{Action: action}

	if err := s.Run(context.Background(), actx); err != nil {
		t.Fatalf("expected stage-level errors to be recorded, not returned: %v", err)
	}
	if len(actx.Advisories) != 1 || actx.Advisories[0].ID != "GHSA-1" {
		t.Fatalf("expected the surviving provider's advisory to be kept, got %+v", actx.Advisories)
	}
	if len(actx.Errors) != 1 {
		t.Fatalf("expected 1 recorded stage error, got %+v", actx.Errors)
	}
}

func TestAdvisoryStageNoProvidersNoAdvisories(t *testing.T) {
	s := NewAdvisoryStage(nil, hclog.NewNullLogger())
	action, _ := audit.ParseActionRef("owner/repo@v1")
	actx := &audit.AuditContext{Action: action}

	if err := s.Run(context.Background(), actx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actx.Advisories) != 0 {
		t.Fatalf("expected no advisories, got %+v", actx.Advisories)
	}
}
