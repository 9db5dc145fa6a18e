package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
	"teleop/internal/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleReport(id string, started time.Time) bootstrap.Report {
	return bootstrap.Report{
		RunID:      id,
		Mode:       bootstrap.ModeOffline,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Outcomes: []install.Outcome{
			{Step: install.StepMesh, Status: install.StatusInstalled, Artifact: "/r/TailscaleSetup.pkg", Digest: "abc"},
			{Step: install.StepMedia, Status: install.StatusFailed, Err: &runner.OperationError{Step: install.StepMedia, Err: errors.New("exit status 1")}},
			{Step: install.StepMessaging, Status: install.StatusSkipped},
		},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, sampleReport("r1", started)))

	run, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "offline", run.Mode)
	assert.False(t, run.OK)
	assert.Equal(t, "2024-05-01T10:00:00Z", run.StartedAt)
	require.Len(t, run.Steps, 3)
	assert.Equal(t, "abc", run.Steps[0].Digest)
	assert.Equal(t, "media-toolkit err: exit status 1", run.Steps[1].Detail)
	assert.Equal(t, "skipped", run.Steps[2].Status)
	assert.Empty(t, run.Steps[2].Detail)
}

func TestGetRunMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
	assert.Len(t, runs[0].Steps, 3)
}

func TestRecordDuplicateRunFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := sampleReport("dup", time.Now())
	require.NoError(t, s.Record(ctx, r))
	assert.Error(t, s.Record(ctx, r))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), sampleReport("keep", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.GetRun(context.Background(), "keep")
	assert.NoError(t, err)
}

func TestStoreSatisfiesRecorder(t *testing.T) {
	var _ bootstrap.Recorder = (*Store)(nil)
}
