package logger

import "testing"

func TestNewParsesLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) error = %v", level, err)
		}
	}
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	log, err := New("not-a-level")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !log.Core().Enabled(0) { // info
		t.Error("fallback logger does not log at info")
	}
	if log.Core().Enabled(-1) { // debug
		t.Error("fallback logger unexpectedly logs at debug")
	}
}
