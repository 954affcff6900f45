package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyJob        = "job"
	KeyRunner     = "runner"
	KeyStep       = "step"
	KeyRepo       = "repository"
	KeyRef        = "ref"
	KeyCommit     = "commit"
	KeyEvent      = "event"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyCacheKey   = "cache_key"
	KeyScheduleID = "schedule_id"
	KeyWorker     = "worker"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func Runner(os string) slog.Attr      { return slog.String(KeyRunner, os) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Commit(sha string) slog.Attr     { return slog.String(KeyCommit, sha) }
func Event(kind string) slog.Attr     { return slog.String(KeyEvent, kind) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func CacheKey(k string) slog.Attr     { return slog.String(KeyCacheKey, k) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
