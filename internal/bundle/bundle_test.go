package bundle

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFindPackageCaseInsensitiveSubstring(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "TailscaleSetup.pkg", "notes.txt", "gstreamer-1.0.pkg")

	got, ok := Find(dir, "tailscale", PackageRule(".pkg"))
	if !ok {
		t.Fatal("expected a match")
	}
	if filepath.Base(got) != "TailscaleSetup.pkg" {
		t.Fatalf("got %s", got)
	}

	got, ok = Find(dir, "1.0", PackageRule(".pkg"))
	if !ok || filepath.Base(got) != "gstreamer-1.0.pkg" {
		t.Fatalf("substring match failed: %s %v", got, ok)
	}
}

func TestFindIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "tailscale-notes.txt", "tailscale.dmg")

	if got, ok := Find(dir, "tailscale", PackageRule(".pkg")); ok {
		t.Fatalf("unexpected match %s", got)
	}
}

func TestFindSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "tailscale.pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := Find(dir, "tailscale", PackageRule(".pkg")); ok {
		t.Fatal("directories must not match")
	}
}

func TestFindMissingOrEmptyDir(t *testing.T) {
	if _, ok := Find(filepath.Join(t.TempDir(), "missing"), "x", PackageRule(".pkg")); ok {
		t.Fatal("missing dir should not match")
	}
	if _, ok := Find(t.TempDir(), "x", PackageRule(".pkg")); ok {
		t.Fatal("empty dir should not match")
	}
}

func TestFindWheelIsAnchored(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "not_pyzmq-1.0-py3-none-any.whl", "PyZMQ-25.1.2-cp311-cp311-macosx_11_0_arm64.whl")

	got, ok := Find(dir, "pyzmq", WheelRule())
	if !ok || filepath.Base(got) != "PyZMQ-25.1.2-cp311-cp311-macosx_11_0_arm64.whl" {
		t.Fatalf("got %s %v", got, ok)
	}

	only := t.TempDir()
	touch(t, only, "not_pyzmq-1.0-py3-none-any.whl")
	if got, ok := Find(only, "pyzmq", WheelRule()); ok {
		t.Fatalf("wheel match must be anchored, got %s", got)
	}
}

func TestRuleMatchExtensionCase(t *testing.T) {
	if !PackageRule(".pkg").Match("Tailscale.PKG", "tailscale") {
		t.Fatal("extension comparison should ignore case")
	}
}

func TestDigestStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pkg")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	d1, err := Digest(path)
	if err != nil {
		t.Fatal(err)
	}
	d2, _ := Digest(path)
	if d1 != d2 || len(d1) != 64 {
		t.Fatalf("digest %q / %q", d1, d2)
	}
	if _, err := Digest(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
