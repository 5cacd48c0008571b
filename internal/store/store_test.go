package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"campus_energy/internal/aggregate"
	"campus_energy/internal/dataset"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	started := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	runID, err := s.BeginRun(ctx, started)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := s.FinishRun(ctx, runID, "ok", 3, 1, 90, 10, "", started.Add(time.Second)); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	run, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run == nil || run.ID != runID {
		t.Fatalf("unexpected latest run: %+v", run)
	}
	if run.Status != "ok" || run.SourcesLoaded != 3 || run.SourcesFailed != 1 || run.Records != 90 || run.Dropped != 10 {
		t.Fatalf("run counters not persisted: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestLatestRunEmpty(t *testing.T) {
	s := openTemp(t)
	run, err := s.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}
}

func TestReplaceReadingsAndSummary(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	runID, err := s.BeginRun(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	ds := dataset.New([]dataset.Record{
		{Timestamp: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Building: "Library", KWH: 100},
		{Timestamp: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), Building: "Library", KWH: 200},
	})
	if err := s.ReplaceReadings(ctx, runID, ds); err != nil {
		t.Fatalf("replace readings: %v", err)
	}
	// Replacing again must not duplicate.
	if err := s.ReplaceReadings(ctx, runID, ds); err != nil {
		t.Fatalf("replace readings again: %v", err)
	}
	n, err := s.ReadingCount(ctx, runID)
	if err != nil {
		t.Fatalf("reading count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 readings, got %d", n)
	}

	table := aggregate.SummaryByBuilding(ds)
	if err := s.ReplaceSummary(ctx, runID, table); err != nil {
		t.Fatalf("replace summary: %v", err)
	}
	rows, err := s.SummaryRows(ctx, runID)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	row, ok := rows["Library"]
	if !ok {
		t.Fatal("Library missing from stored summary")
	}
	if row.Sum != 300 || row.Min != 100 || row.Max != 200 || row.Count != 2 {
		t.Fatalf("stored summary mismatch: %+v", row)
	}
}

func TestHealth(t *testing.T) {
	s := openTemp(t)
	if err := s.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
