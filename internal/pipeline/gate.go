package pipeline

import (
	"fmt"
	"log/slog"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Gate decides whether a stage's issues make the build fail. Any ERROR issue
// is fatal; warnings are logged and never block.
type Gate struct{}

// Evaluate returns a fatal *StageError listing the offending contexts when
// issues contains at least one ERROR, nil otherwise.
func (Gate) Evaluate(stage StageName, issues issue.List) error {
	for _, w := range issues.Warnings() {
		slog.Warn(w.Message, logfields.Stage(string(stage)), slog.String("code", string(w.Code)), slog.String("context", w.Context))
	}
	errs := issues.Errors()
	if len(errs) == 0 {
		return nil
	}
	contexts := make([]string, 0, len(errs))
	for _, e := range errs {
		slog.Error(e.Message, logfields.Stage(string(stage)), slog.String("code", string(e.Code)), slog.String("context", e.Context))
		contexts = append(contexts, e.Context)
	}
	msg := fmt.Sprintf("%d error issue(s) in stage %s", len(errs), stage)
	b := foundationerrors.ValidationError(msg)
	if stage == StageRenderAll || stage == StageGenerate404 {
		b = foundationerrors.RenderError(msg).Fatal()
	}
	cause := b.WithContext("stage", string(stage)).WithContext("contexts", contexts).Build()
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: cause, Contexts: contexts}
}
