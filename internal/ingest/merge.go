package ingest

import (
	"context"
	"fmt"
	"math"
	"time"

	"campus_energy/internal/dataset"
	"campus_energy/internal/events"
	"campus_energy/internal/queue"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Options tunes one merge run.
type Options struct {
	// Workers bounds the number of sources read concurrently. Zero means
	// one source at a time.
	Workers int
	// Timeout bounds reading a single source. Zero means no limit.
	Timeout time.Duration
	// Bus, when set, receives SourceLoaded/SourceFailed/RecordDropped
	// diagnostics as they happen.
	Bus *events.Bus
}

// Diagnostic is one skipped-source or dropped-record note.
type Diagnostic struct {
	Source string
	Detail string
}

// Report summarizes one merge run.
type Report struct {
	SourcesLoaded int
	SourcesFailed int
	RowsRead      int
	Dropped       int
	Records       int
	Diagnostics   []Diagnostic
}

type sourceResult struct {
	set RowSet
	err error
}

// Merge reads all sources, validates their rows, and produces the
// canonical time-indexed dataset.
//
// Sources are read concurrently but merged strictly in input order
// behind a full barrier, so the result is identical across runs on the
// same sources. An unreadable source is skipped with a diagnostic; a
// malformed row is skipped; a merged row whose Date does not parse or
// whose KWH is missing, non-finite, or negative is dropped. None of
// these aborts the run. Rows lacking a Building take the source's label.
func Merge(ctx context.Context, sources []Source, opts Options) (*dataset.Dataset, Report) {
	results := readAll(ctx, sources, opts)

	var report Report
	var records []dataset.Record
	for i, src := range sources {
		label := src.Label()
		res := results[i]
		if res.err != nil {
			report.SourcesFailed++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{Source: label, Detail: res.err.Error()})
			opts.Bus.Publish(events.SourceFailed{Source: label, Err: res.err})
			continue
		}
		report.SourcesLoaded++
		report.RowsRead += len(res.set.Rows) + len(res.set.Malformed)
		for _, detail := range res.set.Malformed {
			report.drop(opts.Bus, label, detail)
		}
		for _, row := range res.set.Rows {
			building := row.Building
			if building == "" {
				building = label
			}
			ts, err := parseDate(row.Date)
			if err != nil {
				report.drop(opts.Bus, label, err.Error())
				continue
			}
			if row.KWH == nil {
				report.drop(opts.Bus, label, "kwh missing or not numeric")
				continue
			}
			if math.IsNaN(*row.KWH) || math.IsInf(*row.KWH, 0) {
				report.drop(opts.Bus, label, fmt.Sprintf("non-finite kwh %g", *row.KWH))
				continue
			}
			if *row.KWH < 0 {
				report.drop(opts.Bus, label, fmt.Sprintf("negative kwh %g", *row.KWH))
				continue
			}
			records = append(records, dataset.Record{Timestamp: ts, Building: building, KWH: *row.KWH})
		}
		opts.Bus.Publish(events.SourceLoaded{Source: label, Rows: len(res.set.Rows)})
	}

	ds := dataset.New(records)
	report.Records = ds.Len()
	return ds, report
}

type indexedResult struct {
	index int
	res   sourceResult
}

// readAll fans source reads out over a bounded worker pool and waits
// for every read to finish before returning. Workers hand results back
// over a channel keyed by the source's own index, so merge order is
// independent of completion order and the caller never observes a
// half-written slot. On context cancellation the unfinished slots are
// marked failed and the in-flight reads are abandoned to their
// buffered channel sends.
func readAll(ctx context.Context, sources []Source, opts Options) []sourceResult {
	results := make([]sourceResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	q := queue.New(len(sources), workers, opts.Timeout)
	q.Start(ctx)
	defer q.Stop(ctx)

	out := make(chan indexedResult, len(sources))
	pending := 0
	for i, src := range sources {
		i, src := i, src
		ok := q.Enqueue(queue.Job{
			ID:   src.Label(),
			Kind: "ingest",
			Work: func(ctx context.Context) error {
				set, err := src.Read()
				out <- indexedResult{index: i, res: sourceResult{set: set, err: err}}
				return err
			},
		})
		if !ok {
			// Queue capacity equals the source count, so this only
			// happens when the context is already gone.
			results[i] = sourceResult{err: fmt.Errorf("source read not scheduled")}
			continue
		}
		pending++
	}

	received := make([]bool, len(sources))
	for pending > 0 {
		select {
		case r := <-out:
			results[r.index] = r.res
			received[r.index] = true
			pending--
		case <-ctx.Done():
			for i := range results {
				if !received[i] && results[i].err == nil {
					results[i] = sourceResult{err: fmt.Errorf("source read canceled: %w", ctx.Err())}
				}
			}
			return results
		}
	}
	return results
}

func (r *Report) drop(bus *events.Bus, source, detail string) {
	r.Dropped++
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Source: source, Detail: detail})
	bus.Publish(events.RecordDropped{Source: source, Reason: detail})
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
