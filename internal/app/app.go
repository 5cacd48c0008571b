package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"campus_energy/internal/aggregate"
	"campus_energy/internal/config"
	"campus_energy/internal/dashboard"
	"campus_energy/internal/dataset"
	"campus_energy/internal/events"
	"campus_energy/internal/export"
	"campus_energy/internal/ingest"
	"campus_energy/internal/ledger"
	"campus_energy/internal/metrics"
	"campus_energy/internal/sample"
	"campus_energy/internal/store"
	"campus_energy/internal/summary"
	"campus_energy/internal/watch"
)

// App wires the pipeline components together. One App owns one store
// and runs the pipeline either once (batch mode) or on every data-dir
// change (watch mode). Runs never overlap.
type App struct {
	cfg      config.Config
	store    *store.Store
	bus      *events.Bus
	metrics  *metrics.Metrics
	requests chan struct{}
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		store:    st,
		bus:      events.NewBus(),
		metrics:  metrics.New(),
		requests: make(chan struct{}, 1),
	}, nil
}

func (a *App) Close() error { return a.store.Close() }

// Run executes the pipeline. In batch mode it runs once and returns; in
// watch mode it runs once, then again on every CSV change until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	go a.logDiagnostics(ctx)

	if err := a.RunOnce(ctx); err != nil {
		if !a.cfg.Watch {
			return err
		}
		log.Printf("run failed: %v", err)
	}
	if !a.cfg.Watch {
		return nil
	}

	watcher := watch.New(a.cfg.DataDir, a.requests)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	log.Printf("watching %s for meter data", a.cfg.DataDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.requests:
			if err := a.RunOnce(ctx); err != nil {
				log.Printf("run failed: %v", err)
			}
		}
	}
}

// RunOnce executes one full batch: ingest, aggregate, summarize,
// persist, export, render. Per-source and per-record problems are
// recovered inside ingest; only infrastructure failures (store, output
// files) surface as errors.
func (a *App) RunOnce(ctx context.Context) error {
	started := config.Now()
	runID, err := a.store.BeginRun(ctx, started)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	ds, report, err := a.ingest(ctx)
	a.metrics.RecordIngest(report.SourcesLoaded, report.SourcesFailed, report.Dropped)
	if err != nil {
		a.finishRun(ctx, runID, "failed", report, err)
		a.metrics.RecordRunCompletion(err)
		return err
	}
	log.Printf("ingest: sources=%d failed=%d rows=%d dropped=%d records=%d",
		report.SourcesLoaded, report.SourcesFailed, report.RowsRead, report.Dropped, report.Records)

	err = a.process(ctx, runID, ds)
	a.bus.Publish(events.RunFinished{Records: ds.Len(), Dropped: report.Dropped, Err: err})
	a.metrics.RecordRunCompletion(err)
	if err != nil {
		a.finishRun(ctx, runID, "failed", report, err)
		return err
	}

	status := "ok"
	if ds.Empty() {
		status = "no_data"
	}
	a.finishRun(ctx, runID, status, report, nil)
	snap := a.metrics.Snapshot()
	log.Printf("run complete: status=%s runs_ok=%d runs_failed=%d", status, snap.RunsCompleted, snap.RunsFailed)
	return nil
}

func (a *App) ingest(ctx context.Context) (*dataset.Dataset, ingest.Report, error) {
	if _, err := os.Stat(a.cfg.DataDir); os.IsNotExist(err) && a.cfg.SeedIfMissing {
		log.Printf("warning: %s not found, generating sample data", a.cfg.DataDir)
		if err := sample.Generate(a.cfg.DataDir); err != nil {
			return nil, ingest.Report{}, fmt.Errorf("generate sample data: %w", err)
		}
	}
	sources, err := ingest.Discover(a.cfg.DataDir)
	if err != nil {
		return nil, ingest.Report{}, fmt.Errorf("discover sources: %w", err)
	}
	ds, report := ingest.Merge(ctx, sources, ingest.Options{
		Workers: a.cfg.WorkerCount,
		Timeout: a.cfg.SourceTimeout(),
		Bus:     a.bus,
	})
	return ds, report, nil
}

func (a *App) process(ctx context.Context, runID int64, ds *dataset.Dataset) error {
	daily := aggregate.Daily(ds)
	weekly := aggregate.Weekly(ds)
	table := aggregate.SummaryByBuilding(ds)

	registry := ledger.NewRegistry()
	for _, r := range ds.Records() {
		registry.Record(r.Building, r.Timestamp, r.KWH)
	}
	for _, rep := range registry.AllReports() {
		log.Println(rep.String())
	}

	headline, err := summary.Build(ds, table, weekly)
	if errors.Is(err, summary.ErrNoData) {
		log.Printf("no valid meter records; writing insufficient-data summary")
		return a.writeFile("summary.txt", summary.RenderNoData())
	}
	if err != nil {
		return err
	}

	if err := a.writeFile("summary.txt", headline.Render()); err != nil {
		return err
	}
	if err := export.WriteCleanedCSV(a.outPath("cleaned_energy_data.csv"), ds); err != nil {
		return err
	}
	if err := export.WriteBuildingSummaryCSV(a.outPath("building_summary.csv"), table); err != nil {
		return err
	}

	buildings, weeklyMeans := aggregate.WeeklyMeanByBuilding(ds)
	views := dashboard.Views{
		Daily:        daily,
		Buildings:    buildings,
		WeeklyMeans:  weeklyMeans,
		DayOfWeek:    aggregate.DayOfWeekPoints(ds),
		Distribution: aggregate.Values(ds),
	}
	if err := dashboard.Save(a.outPath("dashboard.png"), views); err != nil {
		return err
	}

	if err := a.store.ReplaceReadings(ctx, runID, ds); err != nil {
		return fmt.Errorf("persist readings: %w", err)
	}
	if err := a.store.ReplaceSummary(ctx, runID, table); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	log.Print("\n" + headline.Render())
	return nil
}

func (a *App) finishRun(ctx context.Context, runID int64, status string, report ingest.Report, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := a.store.FinishRun(ctx, runID, status, report.SourcesLoaded, report.SourcesFailed, report.Records, report.Dropped, msg, config.Now()); err != nil {
		log.Printf("finish run update failed: %v", err)
	}
}

func (a *App) writeFile(name, content string) error {
	path := a.outPath(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (a *App) outPath(name string) string {
	return filepath.Join(a.cfg.OutDir, name)
}

func (a *App) logDiagnostics(ctx context.Context) {
	ch := a.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			switch e := ev.(type) {
			case events.SourceLoaded:
				log.Printf("source=%s loaded rows=%d", e.Source, e.Rows)
			case events.SourceFailed:
				log.Printf("source=%s unavailable: %v (skipped)", e.Source, e.Err)
			case events.RecordDropped:
				log.Printf("source=%s record dropped: %s", e.Source, e.Reason)
			case events.RunFinished:
				log.Printf("pipeline finished records=%d dropped=%d err=%v", e.Records, e.Dropped, e.Err)
			}
		}
	}
}
