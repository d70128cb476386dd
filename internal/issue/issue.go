// Package issue defines the severity-tagged results returned by build stages
// and post-build validators. Validators never decide fatality themselves; the
// pipeline's build gate inspects the severities.
package issue

import (
	"fmt"
	"sort"
)

// Severity is the impact level of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable machine-readable issue identifier. Codes are only ever appended.
type Code string

const (
	CodeRenderFailed      Code = "RENDER_FAILED"
	CodeSlugCollision     Code = "SLUG_COLLISION"
	CodeEmptySlug         Code = "EMPTY_SLUG"
	CodeDuplicateID       Code = "DUPLICATE_RECORD_ID"
	CodePageStructure     Code = "PAGE_STRUCTURE"
	CodeSitemapGap        Code = "SITEMAP_GAP_REPAIRED"
	CodeSitemapDrift      Code = "SITEMAP_DISK_DRIFT"
	CodeMissingTitle      Code = "MISSING_TITLE"
	CodeMultipleTitles    Code = "MULTIPLE_TITLES"
	CodeMissingDesc       Code = "MISSING_DESCRIPTION"
	CodeMissingCanonical  Code = "MISSING_CANONICAL"
	CodeCanonicalNotSelf  Code = "CANONICAL_NOT_SELF"
	CodeMissingSchema     Code = "MISSING_STRUCTURED_DATA"
	CodeMissingEntity     Code = "MISSING_PRIMARY_ENTITY"
	CodeMissingFAQ        Code = "MISSING_FAQ"
	CodeFewFAQQuestions   Code = "FEW_FAQ_QUESTIONS"
	CodeThinContent       Code = "THIN_CONTENT"
	CodeCanonicalMismatch Code = "CANONICAL_MISMATCH"
	CodeMissingPage       Code = "MISSING_PAGE"
	CodeDuplicateIndex    Code = "DUPLICATE_INDEX"
	CodeUnprefixedSlug    Code = "UNPREFIXED_SLUG"
	CodeMissingEssential  Code = "MISSING_ESSENTIAL_PATH"
	CodeMissingFile       Code = "MISSING_CRITICAL_FILE"
	CodeUnreadable        Code = "UNREADABLE_DOCUMENT"
)

// Issue is a single validation or stage finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Context  string   `json:"context,omitempty"` // URL or file path
	Source   string   `json:"source,omitempty"`  // validator or stage that produced it
}

func (i Issue) String() string {
	if i.Context == "" {
		return fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.Code, i.Context, i.Message)
}

// Errorf builds an error-severity issue.
func Errorf(code Code, context, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Code: code, Context: context, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity issue.
func Warnf(code Code, context, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Code: code, Context: context, Message: fmt.Sprintf(format, args...)}
}

// List is an ordered collection of issues.
type List []Issue

// Add appends issues.
func (l *List) Add(issues ...Issue) { *l = append(*l, issues...) }

// WithSource returns a copy with Source set on every issue that lacks one.
func (l List) WithSource(source string) List {
	out := make(List, len(l))
	for i, is := range l {
		if is.Source == "" {
			is.Source = source
		}
		out[i] = is
	}
	return out
}

// HasErrors reports whether any issue has error severity.
func (l List) HasErrors() bool {
	for _, is := range l {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity issues.
func (l List) Errors() List { return l.filter(SeverityError) }

// Warnings returns the warning-severity issues.
func (l List) Warnings() List { return l.filter(SeverityWarning) }

func (l List) filter(sev Severity) List {
	var out List
	for _, is := range l {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// Counts returns the number of errors and warnings.
func (l List) Counts() (errors, warnings int) {
	for _, is := range l {
		switch is.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Sorted returns a copy ordered by severity (errors first), context, then code.
func (l List) Sorted() List {
	out := append(List(nil), l...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == SeverityError
		}
		if out[i].Context != out[j].Context {
			return out[i].Context < out[j].Context
		}
		return out[i].Code < out[j].Code
	})
	return out
}
