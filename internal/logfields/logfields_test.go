package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Job", KeyJob, "linux", Job("linux")},
		{"Runner", KeyRunner, "ubuntu-latest", Runner("ubuntu-latest")},
		{"Step", KeyStep, "lint", Step("lint")},
		{"Repository", KeyRepo, "acme/widget", Repository("acme/widget")},
		{"Ref", KeyRef, "refs/heads/main", Ref("refs/heads/main")},
		{"Commit", KeyCommit, "abc1234", Commit("abc1234")},
		{"Event", KeyEvent, "push", Event("push")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"CacheKey", KeyCacheKey, "deps-linux-1a2b", CacheKey("deps-linux-1a2b")},
		{"ScheduleID", KeyScheduleID, "sch1", ScheduleID("sch1")},
		{"Worker", KeyWorker, "w1", Worker("w1")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Errorf("%s: expected key %q, got %q", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Errorf("%s: expected value %q, got %q", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestErrorHelper(t *testing.T) {
	a := Error(errors.New("boom"))
	if a.Key != KeyError || a.Value.String() != "boom" {
		t.Errorf("unexpected attr %v", a)
	}
	if Error(nil).Value.String() != "" {
		t.Error("nil error should yield empty value")
	}
}
