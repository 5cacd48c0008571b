package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"campus_energy/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	return config.Config{
		DataDir:          filepath.Join(root, "data"),
		OutDir:           filepath.Join(root, "out"),
		DBPath:           filepath.Join(root, "out", "test.db"),
		WorkerCount:      4,
		SourceTimeoutSec: 30,
	}
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunOnceEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeCSV(t, cfg.DataDir, "Library.csv",
		"Date,KWH\n2023-01-02,100\n2023-01-03,300\n2023-01-04,200\n")
	writeCSV(t, cfg.DataDir, "Dormitory.csv",
		"Date,KWH\n2023-01-02,400\n2023-01-03,250\n")

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()
	require.NoError(t, application.RunOnce(ctx))

	for _, name := range []string{"summary.txt", "cleaned_energy_data.csv", "building_summary.csv", "dashboard.png"} {
		info, err := os.Stat(filepath.Join(cfg.OutDir, name))
		require.NoError(t, err, "expected output %s", name)
		require.NotZero(t, info.Size(), "%s is empty", name)
	}

	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, "summary.txt"))
	require.NoError(t, err)
	text := string(raw)
	require.Contains(t, text, "Total Campus Consumption")
	require.Contains(t, text, "Dormitory")

	run, err := application.store.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, "ok", run.Status)
	require.Equal(t, 2, run.SourcesLoaded)
	require.Equal(t, 5, run.Records)

	n, err := application.store.ReadingCount(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestRunOnceEmptyDataDir(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()
	require.NoError(t, application.RunOnce(ctx))

	run, err := application.store.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, "no_data", run.Status)

	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, "summary.txt"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "Insufficient data")
}

func TestRunOnceSeedsWhenMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedIfMissing = true

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.RunOnce(context.Background()))

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	var csvs int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".csv") {
			csvs++
		}
	}
	require.Equal(t, 3, csvs)

	run, err := application.store.LatestRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", run.Status)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeCSV(t, cfg.DataDir, "Cafeteria.csv", "Date,KWH\n2023-01-02,150\n")

	application, err := New(cfg)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()
	require.NoError(t, application.RunOnce(ctx))
	first, err := os.ReadFile(filepath.Join(cfg.OutDir, "summary.txt"))
	require.NoError(t, err)

	require.NoError(t, application.RunOnce(ctx))
	second, err := os.ReadFile(filepath.Join(cfg.OutDir, "summary.txt"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}
