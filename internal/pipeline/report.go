package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/metrics"
	"git.home.luguber.info/inful/fundsite/internal/version"
)

// Report file names in the output root.
const (
	ReportJSONFile = "build-report.json"
	ReportTextFile = "build-report.txt"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// BuildReport captures high-level metrics about a site build.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion (at most one today)
	Warnings        []error // non-fatal stage errors
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	// Issues holds every issue reported by any stage, in stage order.
	Issues        issue.List
	Routes        int
	RenderedPages int
	FailedPages   int
	SitemapURLs   int
	SitemapFiles  int
	Outcome       BuildOutcome
	ConfigHash    string
	Version       string
}

func newBuildReport(buildID string, start time.Time) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         buildID,
		Start:           start,
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		Version:         version.Version,
	}
}

// AddIssues appends issues, stamping the stage name on any without a source.
func (r *BuildReport) AddIssues(stage StageName, l issue.List) {
	for _, i := range l {
		if i.Source == "" {
			i.Source = string(stage)
		}
		r.Issues = append(r.Issues, i)
	}
}

// addStageError mirrors a classified stage error into Errors/Warnings.
func (r *BuildReport) addStageError(se *StageError) {
	r.StageErrorKinds[se.Stage] = se.Kind
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

// RecordStageResult updates BuildReport counters and emits metrics (if recorder non-nil).
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	label := metrics.ResultSuccess
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
		label = metrics.ResultWarning
	case StageResultFatal:
		sc.Fatal++
		label = metrics.ResultFatal
	case StageResultCanceled:
		sc.Canceled++
		label = metrics.ResultCanceled
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), label)
	}
}

// Finish sets the end time of the report and derives the outcome.
func (r *BuildReport) Finish(end time.Time) {
	r.End = end
	r.DeriveOutcome()
}

// DeriveOutcome sets the Outcome field based on recorded errors, warnings and issues.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if IsCanceled(e) {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if r.Issues.HasErrors() {
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 || len(r.Issues) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	errs, warns := r.Issues.Counts()
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("build=%s routes=%d rendered=%d failed=%d sitemap_urls=%d sitemap_files=%d duration=%s error_issues=%d warning_issues=%d stages=%d outcome=%s",
		r.BuildID, r.Routes, r.RenderedPages, r.FailedPages, r.SitemapURLs, r.SitemapFiles,
		dur.Truncate(time.Millisecond), errs, warns, len(r.StageDurations), string(r.Outcome))
}

// Persist writes build-report.json (machine readable) and build-report.txt
// (human summary) to root. Errors are returned for caller logging but do not
// change the build outcome.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish(time.Now())
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(root, ReportJSONFile), jb, 0o644); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(root, ReportTextFile), []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	BuildID         string                   `json:"build_id"`
	Version         string                   `json:"version"`
	ConfigHash      string                   `json:"config_hash,omitempty"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Outcome         string                   `json:"outcome"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount    `json:"stage_counts"`
	Routes          int                      `json:"routes"`
	RenderedPages   int                      `json:"rendered_pages"`
	FailedPages     int                      `json:"failed_pages"`
	SitemapURLs     int                      `json:"sitemap_urls"`
	SitemapFiles    int                      `json:"sitemap_files"`
	ErrorIssues     int                      `json:"error_issues"`
	WarningIssues   int                      `json:"warning_issues"`
	Issues          []issue.Issue            `json:"issues"`
}

func (r *BuildReport) sanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	issues := r.Issues
	if issues == nil {
		issues = issue.List{}
	}
	errs, warns := issues.Counts()
	s := &BuildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Version:         r.Version,
		ConfigHash:      r.ConfigHash,
		Start:           r.Start,
		End:             r.End,
		Outcome:         string(r.Outcome),
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  r.StageDurations,
		StageErrorKinds: sek,
		StageCounts:     stageCounts,
		Routes:          r.Routes,
		RenderedPages:   r.RenderedPages,
		FailedPages:     r.FailedPages,
		SitemapURLs:     r.SitemapURLs,
		SitemapFiles:    r.SitemapFiles,
		ErrorIssues:     errs,
		WarningIssues:   warns,
		Issues:          issues,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}
