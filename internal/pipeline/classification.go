package pipeline

import (
	"errors"
)

// StageOutcome normalized result of stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	Transient bool
	Abort     bool
}

func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// classifyStageResult converts a raw error from a stage into a StageOutcome.
// Errors that are not StageErrors are fatal unless they are context errors.
func classifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}
	var se *StageError
	if !errors.As(err, &se) {
		if IsCanceled(err) {
			se = NewCanceledStageError(stage, err)
		} else {
			se = NewFatalStageError(stage, err)
		}
	}
	return StageOutcome{
		Stage:     stage,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		Transient: se.Transient(),
		Abort:     se.Kind == StageErrorFatal || se.Kind == StageErrorCanceled,
	}
}
