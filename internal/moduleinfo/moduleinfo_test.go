package moduleinfo

import "testing"

func TestVersionString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "1.2.3"
	if got := VersionString(); got != "libsuno 1.2.3" {
		t.Fatalf("unexpected version string %q", got)
	}
}
