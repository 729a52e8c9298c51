package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.wav")
	fresh := filepath.Join(dir, "fresh.mp3")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	log, _ := test.NewNullLogger()
	s := NewScheduler(dir, 60, 24, log)

	assert.Equal(t, 1, s.Sweep())
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestSweepMissingDir(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := NewScheduler(filepath.Join(t.TempDir(), "missing"), 60, 24, log)
	assert.Equal(t, 0, s.Sweep())
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "stale.webm")
	require.NoError(t, os.WriteFile(old, nil, 0644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	log, _ := test.NewNullLogger()
	s := NewScheduler(dir, 1, 1, log)
	s.Start()
	assert.NoFileExists(t, old)
	s.Stop()
	s.Stop()
}

func TestEnsureTempDirExists(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureTempDirExists(dir, log))
	assert.DirExists(t, dir)
}
