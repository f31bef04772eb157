package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/riadafridishibly/atimewalk/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLatestRun(t *testing.T) {
	s := openStore(t)
	t0 := time.Unix(1670000000, 123456789)
	result := scanner.ScanResult{
		{Path: "/r/file1.txt", Atime: t0},
		{Path: "/r/subdir", Atime: t0.Add(time.Second)},
		{Path: "/r/subdir/file2.txt", Atime: t0},
	}

	_, err := s.LatestRun("/r", scanner.StrategyScandirFd)
	assert.ErrorIs(t, err, ErrNoRun)

	scannedAt := time.Unix(1700000000, 0)
	id, err := s.SaveRun("/r", scanner.StrategyScandirFd, scannedAt, result)
	require.NoError(t, err)

	run, err := s.LatestRun("/r", scanner.StrategyScandirFd)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, scanner.StrategyScandirFd, run.Strategy)
	assert.Equal(t, 3, run.Entries)
	assert.True(t, run.ScannedAt.Equal(scannedAt))
	assert.True(t, scanner.Equal(result, run.Result), "round trip keeps order and nanoseconds")

	_, err = s.LatestRun("/r", scanner.StrategyScandir)
	assert.ErrorIs(t, err, ErrNoRun, "runs are kept per strategy")
}

func TestLatestRunPicksNewest(t *testing.T) {
	s := openStore(t)
	t0 := time.Unix(1670000000, 0)

	_, err := s.SaveRun("/r", scanner.StrategyScandir, t0, scanner.ScanResult{{Path: "/r/a", Atime: t0}})
	require.NoError(t, err)
	newer := scanner.ScanResult{{Path: "/r/a", Atime: t0.Add(time.Hour)}}
	_, err = s.SaveRun("/r", scanner.StrategyScandir, t0.Add(time.Minute), newer)
	require.NoError(t, err)

	run, err := s.LatestRun("/r", scanner.StrategyScandir)
	require.NoError(t, err)
	assert.True(t, scanner.Equal(newer, run.Result))
}

func TestRunsAndDelete(t *testing.T) {
	s := openStore(t)
	t0 := time.Unix(1670000000, 0)

	for i, st := range scanner.Strategies() {
		_, err := s.SaveRun("/r", st, t0.Add(time.Duration(i)*time.Minute), nil)
		require.NoError(t, err)
	}
	_, err := s.SaveRun("/other", scanner.StrategyScandir, t0, nil)
	require.NoError(t, err)

	runs, err := s.Runs("/r")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, scanner.StrategyScandirFd, runs[0].Strategy, "most recent first")
	assert.Equal(t, scanner.StrategyScandir, runs[2].Strategy)

	require.NoError(t, s.DeleteRuns("/r"))
	runs, err = s.Runs("/r")
	require.NoError(t, err)
	assert.Empty(t, runs)

	runs, err = s.Runs("/other")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestDeleteRunsCascadesToEntries(t *testing.T) {
	s := openStore(t)
	t0 := time.Unix(1670000000, 0)

	var enabled int
	require.NoError(t, s.db.QueryRow(`PRAGMA foreign_keys;`).Scan(&enabled))
	assert.Equal(t, 1, enabled)

	result := scanner.ScanResult{{Path: "/r/a", Atime: t0}, {Path: "/r/b", Atime: t0}}
	_, err := s.SaveRun("/r", scanner.StrategyScandir, t0, result)
	require.NoError(t, err)
	_, err = s.SaveRun("/other", scanner.StrategyScandir, t0, result[:1])
	require.NoError(t, err)

	require.NoError(t, s.DeleteRuns("/r"))

	var orphans, kept int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM entries WHERE run_id NOT IN (SELECT id FROM runs)`,
	).Scan(&orphans))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&kept))
	assert.Zero(t, orphans)
	assert.Equal(t, 1, kept)
}
