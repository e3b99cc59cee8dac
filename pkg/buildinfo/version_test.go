package buildinfo

import (
	"strings"
	"testing"
)

func TestStringAndTemplate(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc1234", "2026-01-02T03:04:05Z"

	if got, want := String(), "version: v1.2.3\ncommit: abc1234\nbuilt: 2026-01-02T03:04:05Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version v1.2.3\n") {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(tmpl, "commit: abc1234") {
		t.Errorf("Template() missing commit: %q", tmpl)
	}
}

func TestResolveKeepsStampedValues(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v9.9.9", "deadbee", "then"

	Resolve()
	if Version != "v9.9.9" || Commit != "deadbee" || Date != "then" {
		t.Errorf("Resolve() overwrote stamped values: %s %s %s", Version, Commit, Date)
	}
}
