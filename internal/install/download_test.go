package install

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"teleop/internal/config"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

func TestDownloadInstallsPackage(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "teleop/") {
			t.Errorf("user agent = %q", ua)
		}
		_, _ = w.Write([]byte("pkg-bytes"))
	}))
	defer srv.Close()
	f.env.Config.Mesh.PackageURL = srv.URL + "/Tailscale.pkg"
	f.env.HTTP = srv.Client()
	f.run.Succeed("/usr/sbin/installer", "installer: The install was successful.")

	out, err := NewMeshDownload(f.env).Install(context.Background())
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	dest := f.env.Config.Mesh.PackagePath
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "pkg-bytes" {
		t.Fatalf("downloaded file = %q, %v", data, err)
	}
	if out.Status != StatusInstalled || out.Artifact != dest || out.Digest == "" {
		t.Fatalf("outcome = %+v", out)
	}
	want := "/usr/sbin/installer -pkg " + dest + " -target /"
	if lines := f.run.Lines(); len(lines) != 1 || lines[0] != want {
		t.Fatalf("calls = %v, want %q", lines, want)
	}
}

func TestDownloadHTTPFailureAborts(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	f.env.Config.Mesh.PackageURL = srv.URL
	f.env.HTTP = srv.Client()

	out, err := NewMeshDownload(f.env).Install(context.Background())
	if !runner.IsOperation(err) {
		t.Fatalf("expected OperationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "download failed") || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v", err)
	}
	if out.Status != StatusFailed || len(f.run.Calls()) != 0 {
		t.Fatalf("installer must not run, calls = %v", f.run.Lines())
	}
}

func TestDownloadInstallerFailureCarriesOutput(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()
	f.env.Config.Mesh.PackageURL = srv.URL
	f.env.HTTP = srv.Client()
	f.run.Fail("/usr/sbin/installer", 1, "installer: must be run as root")

	_, err := NewMeshDownload(f.env).Install(context.Background())
	if !runner.IsOperation(err) || !strings.Contains(err.Error(), "must be run as root") {
		t.Fatalf("err = %v", err)
	}
}

func TestDownloadSkipsWhenPresent(t *testing.T) {
	f := newFixture(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	f.env.Config.Mesh.PackageURL = srv.URL
	f.env.HTTP = srv.Client()
	f.loc.add(tools.Mesh, "tailscale")

	out, err := NewMeshDownload(f.env).Install(context.Background())
	if err != nil || out.Status != StatusPresent {
		t.Fatalf("outcome = %+v, err = %v", out, err)
	}
	if hits.Load() != 0 || len(f.run.Calls()) != 0 {
		t.Fatal("present tool must not be downloaded or installed")
	}
}

func TestScriptInstall(t *testing.T) {
	f := newFixture(t)
	f.env.Config.Mesh.ScriptURL = "https://tailscale.com/install.sh"
	f.run.Succeed("sh", "Installation complete!")

	out, err := NewMeshScript(f.env).Install(context.Background())
	if err != nil || out.Status != StatusInstalled {
		t.Fatalf("outcome = %+v, err = %v", out, err)
	}
	if lines := f.run.Lines(); lines[0] != "sh -c curl -fsSL https://tailscale.com/install.sh | sh" {
		t.Fatalf("calls = %v", lines)
	}
}

func TestNewMeshSelectsByMethod(t *testing.T) {
	f := newFixture(t)
	f.env.Config.Mesh.InstallMethod = config.MeshInstallScript
	if _, ok := NewMesh(f.env).(*Script); !ok {
		t.Fatal("script method should build a Script installer")
	}
	f.env.Config.Mesh.InstallMethod = config.MeshInstallPackage
	if _, ok := NewMesh(f.env).(*Download); !ok {
		t.Fatal("package method should build a Download installer")
	}
}

func TestExpand(t *testing.T) {
	cmd, err := expand([]string{"msiexec", "/i", "{artifact}", "/qn"}, `C:\a.msi`)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Program != "msiexec" || cmd.Args[1] != `C:\a.msi` {
		t.Fatalf("cmd = %+v", cmd)
	}
	if _, err := expand(nil, "x"); err == nil {
		t.Fatal("empty template should fail")
	}
}
