package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/issue"
)

// Stage is a discrete unit of work in the site build. A non-nil error aborts
// the build; issues are recorded and handed to the gate.
type Stage func(ctx context.Context, bs *BuildState) (issue.List, error)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageInit                StageName = "init"
	StageAssetCheck          StageName = "asset_check"
	StageRenderAll           StageName = "render_all"
	StageWriteManifest       StageName = "write_manifest"
	StageGenerate404         StageName = "generate_404"
	StageGenerateSitemaps    StageName = "generate_sitemaps"
	StageValidateSitemapURLs StageName = "validate_sitemap_urls"
	StageValidateCanonicals  StageName = "validate_canonicals"
	StageVerifyCriticalFiles StageName = "verify_critical_files"
	StageValidateHTML        StageName = "validate_html"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
// Contexts lists the offending URLs or files when the gate raised it.
type StageError struct {
	Kind     StageErrorKind
	Stage    StageName
	Err      error
	Contexts []string
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying error condition is likely transient.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	switch e.Stage {
	case StageInit:
		// Content fetches that exhausted their retries may succeed on the next build.
		return errors.IsRetryable(e.Err)
	default:
		return false
	}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// IsCanceled reports whether err is a canceled StageError or a context error.
func IsCanceled(err error) bool {
	var se *StageError
	if stderrors.As(err, &se) {
		return se.Kind == StageErrorCanceled
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 10)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
