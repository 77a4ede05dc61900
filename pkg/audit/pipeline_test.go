package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
)

type fixedStage struct {
	name string
	err  error
	run  func(actx *AuditContext)
}

func (s *fixedStage) Name() string { return s.name }

func (s *fixedStage) Run(ctx context.Context, actx *AuditContext) error {
	if s.run != nil {
		s.run(actx)
	}
	return s.err
}

func TestPipelineRunOneContinuesAfterStageError(t *testing.T) {
	first := &fixedStage{name: "first", err: errors.New("boom")}
	second := &fixedStage{name: "second", run: func(actx *AuditContext) {
		actx.ResolvedRef = "ran-anyway"
	}}

	pipeline := NewPipelineBuilder().Stage(first).Stage(second).Logger(hclog.NewNullLogger()).Build()

	actx := &AuditContext{Action: ActionRef{Owner: "o", Repo: "r", GitRef: "v1"}}
	pipeline.RunOne(context.Background(), actx)

	if actx.ResolvedRef != "ran-anyway" {
		t.Fatal("expected second stage to run despite first stage's error")
	}
	if len(actx.Errors) != 1 || actx.Errors[0].Stage != "first" {
		t.Fatalf("expected one recorded error from stage %q, got %+v", "first", actx.Errors)
	}
}

func TestPipelineRunOneNoErrorsOnSuccess(t *testing.T) {
	stage := &fixedStage{name: "ok"}
	pipeline := NewPipelineBuilder().Stage(stage).Build()

	actx := &AuditContext{Action: ActionRef{Owner: "o", Repo: "r", GitRef: "v1"}}
	pipeline.RunOne(context.Background(), actx)

	if len(actx.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", actx.Errors)
	}
}

func TestPipelineBuilderDefaults(t *testing.T) {
	p := NewPipelineBuilder().Build()
	if p.MaxConcurrency() != 10 {
		t.Fatalf("expected default max_concurrency 10, got %d", p.MaxConcurrency())
	}
	if p.StageCount() != 0 {
		t.Fatalf("expected 0 stages, got %d", p.StageCount())
	}
}

func TestPipelineBuilderOverrides(t *testing.T) {
	p := NewPipelineBuilder().Stage(&fixedStage{name: "a"}).Stage(&fixedStage{name: "b"}).MaxConcurrency(3).Build()
	if p.MaxConcurrency() != 3 {
		t.Fatalf("expected overridden max_concurrency 3, got %d", p.MaxConcurrency())
	}
	if p.StageCount() != 2 {
		t.Fatalf("expected 2 stages, got %d", p.StageCount())
	}
}

func TestRecordErrorIsNoOpForNil(t *testing.T) {
	actx := &AuditContext{}
	actx.RecordError("stage", nil)
	if len(actx.Errors) != 0 {
		t.Fatalf("expected RecordError(nil) to be a no-op, got %+v", actx.Errors)
	}
}
