package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

func TestCollectorWritesTextfile(t *testing.T) {
	c := New()
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	c.StepFinished(install.Outcome{Step: install.StepMesh, Status: install.StatusInstalled}, 2*time.Second)
	c.StepFinished(install.Outcome{Step: install.StepMedia, Status: install.StatusFailed}, 30*time.Second)
	c.StepFinished(install.Outcome{Step: install.StepMedia, Status: install.StatusFailed}, time.Second)
	c.RunFinished(bootstrap.Report{Mode: bootstrap.ModeNetworked})

	path := filepath.Join(t.TempDir(), "collector", "teleop.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`teleop_bootstrap_steps_total{status="installed",step="mesh-client"} 1`,
		`teleop_bootstrap_steps_total{status="failed",step="media-toolkit"} 2`,
		`teleop_bootstrap_step_duration_seconds_count{step="media-toolkit"} 2`,
		`teleop_bootstrap_last_run_timestamp_seconds{mode="networked"} 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := New().WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestCollectorIsObserver(t *testing.T) {
	var _ bootstrap.Observer = New()
}
