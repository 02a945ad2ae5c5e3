package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected Go version %q, got %q", runtime.Version(), info.GoVersion)
	}
	if info.GitCommit == "" {
		t.Error("Expected a commit, even if unknown")
	}
}

func TestStringShortensCommit(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })
	GitCommit = "0123456789abcdef"

	got := String()
	if !strings.HasSuffix(got, "(0123456)") {
		t.Errorf("Expected shortened commit, got %q", got)
	}
}
