package audit

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Pipeline holds an ordered, immutable sequence of Stages shared across all
// nodes in a walk. Pipelines are safe for concurrent use — they carry no
// mutable state of their own.
type Pipeline struct {
	stages          []Stage
	maxConcurrency  int
	logger          hclog.Logger
}

// RunOne executes every stage against actx in order. A stage returning an
// error appends a StageError and execution continues with the next stage;
// no stage error is ever fatal to the pipeline (spec.md §4.5, §7).
func (p *Pipeline) RunOne(ctx context.Context, actx *AuditContext) {
	for _, stage := range p.stages {
		if err := stage.Run(ctx, actx); err != nil {
			if p.logger != nil {
				p.logger.Warn("stage failed", "stage", stage.Name(), "action", actx.Action.Raw, "error", err)
			}
			actx.RecordError(stage.Name(), err)
			continue
		}
		if p.logger != nil {
			p.logger.Debug("stage complete", "stage", stage.Name(), "action", actx.Action.Raw)
		}
	}
}

// StageCount returns the number of stages in the pipeline.
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}

// MaxConcurrency returns the pipeline's configured Walker concurrency bound.
func (p *Pipeline) MaxConcurrency() int {
	return p.maxConcurrency
}

// PipelineBuilder accumulates stages and a max_concurrency setting. It does
// not validate stage ordering — that responsibility lies with the
// assembler wiring the pipeline together (spec.md §4.5).
type PipelineBuilder struct {
	stages         []Stage
	maxConcurrency int
	logger         hclog.Logger
}

// NewPipelineBuilder returns a builder with the spec's default
// max_concurrency of 10.
func NewPipelineBuilder() *PipelineBuilder {
	return &PipelineBuilder{maxConcurrency: 10}
}

// Stage appends a stage to the pipeline, in call order.
func (b *PipelineBuilder) Stage(s Stage) *PipelineBuilder {
	b.stages = append(b.stages, s)
	return b
}

// MaxConcurrency overrides the default max_concurrency.
func (b *PipelineBuilder) MaxConcurrency(n int) *PipelineBuilder {
	b.maxConcurrency = n
	return b
}

// Logger attaches a logger used to report stage failures and completions.
func (b *PipelineBuilder) Logger(l hclog.Logger) *PipelineBuilder {
	b.logger = l
	return b
}

// Build finalizes the pipeline.
func (b *PipelineBuilder) Build() Pipeline {
	return Pipeline{
		stages:         b.stages,
		maxConcurrency: b.maxConcurrency,
		logger:         b.logger,
	}
}
