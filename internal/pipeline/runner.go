package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/observability"
)

// runStages executes stages in order, recording timing, handing each stage's
// issues to the gate, and stopping on the first fatal or canceled outcome.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := NewCanceledStageError(st.Name, err)
			bs.Report.addStageError(se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, bs.Recorder)
			bs.observer.OnStageComplete(st.Name, 0, StageResultCanceled)
			return se
		}
		bs.observer.OnStageStart(st.Name)
		sctx := observability.WithStage(ctx, string(st.Name))
		t0 := time.Now()
		issues, err := st.Fn(sctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		bs.Report.AddIssues(st.Name, issues)

		out := classifyStageResult(st.Name, err)
		if out.Error == nil {
			out = classifyStageResult(st.Name, bs.gate.Evaluate(st.Name, issues))
		}
		if out.Error != nil {
			bs.Report.addStageError(out.Error)
		}
		bs.Report.RecordStageResult(st.Name, out.Result, bs.Recorder)
		bs.observer.OnStageComplete(st.Name, dur, out.Result)

		errs, warns := issues.Counts()
		observability.DebugContext(sctx, "Stage complete",
			logfields.DurationMS(float64(dur.Milliseconds())),
			slog.String("result", string(out.Result)),
			slog.Int("errors", errs),
			slog.Int("warnings", warns))

		if out.Abort {
			observability.ErrorContext(sctx, "Stage aborted build",
				logfields.Error(out.Error),
				slog.Bool("transient", out.Transient))
			return out.Error
		}
	}
	return nil
}
