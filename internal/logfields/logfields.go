package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyPageKind   = "page_kind"
	KeySource     = "source"
	KeyOperation  = "operation"
	KeyAttempt    = "attempt"
	KeyCount      = "count"
	KeyFile       = "file"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func PageKind(k string) slog.Attr     { return slog.String(KeyPageKind, k) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
