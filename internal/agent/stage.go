package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

// Stage is one step of the turn pipeline. Stages run in ascending Order.
// Applicable is re-checked on every iteration so stages can opt out once
// their preconditions no longer hold.
type Stage interface {
	Name() string
	Order() int
	Enabled() bool
	Applicable(tc *TurnContext) bool
	Run(ctx context.Context, tc *TurnContext) error
}

// Pipeline runs stages in order with failure isolation: a stage error or
// panic becomes a failure event on the turn context and the remaining stages
// still run.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds a pipeline, sorting the stages by Order.
func NewPipeline(stages ...Stage) *Pipeline {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Pipeline{stages: sorted}
}

// Stages returns the ordered stage list.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Run executes one pipeline iteration over the turn context.
func (p *Pipeline) Run(ctx context.Context, tc *TurnContext) {
	for _, stage := range p.stages {
		p.runIsolated(ctx, tc, stage)
	}
}

// runIsolated covers the precondition checks too: a panicking Enabled or
// Applicable is absorbed the same way as a panicking Run.
func (p *Pipeline) runIsolated(ctx context.Context, tc *TurnContext, stage Stage) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Stage panicked", "stage", stage.Name(), "panic", r,
				"stack", string(debug.Stack()))
			tc.AddFailure(domain.FailureSourceSystem, stage.Name(), domain.FailureException,
				fmt.Sprintf("panic: %v", r))
		}
	}()
	if !stage.Enabled() || !stage.Applicable(tc) {
		return
	}
	if err := stage.Run(ctx, tc); err != nil {
		slog.Error("Stage failed", "stage", stage.Name(), "trace_id", tc.Inbound.TraceID, "error", err)
		tc.AddFailure(domain.FailureSourceSystem, stage.Name(), domain.FailureException, err.Error())
	}
}
