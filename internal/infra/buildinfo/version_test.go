package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
}

func TestGet_StampedCommitWins(t *testing.T) {
	old := Commit
	Commit = "abc1234"
	t.Cleanup(func() { Commit = old })

	if got := Get().Commit; got != "abc1234" {
		t.Errorf("Commit = %q, want abc1234", got)
	}
}

func TestString(t *testing.T) {
	s := String()

	for _, want := range []string{Version, "built at", runtime.Version()} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
