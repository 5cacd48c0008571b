package dataset

import (
	"sort"
	"time"
)

// Record is one validated meter observation: a timestamped KWH value
// attributed to a building. Records are created only by the ingest
// validation step; everything downstream may assume the timestamp is
// set and KWH is non-negative.
type Record struct {
	Timestamp time.Time
	Building  string
	KWH       float64
}

// Month returns the calendar month of the record's timestamp.
func (r Record) Month() time.Month {
	return r.Timestamp.Month()
}

// Dataset is the canonical, time-indexed record set used for all
// aggregation. Records are sorted by timestamp; the sort is stable, so
// records sharing a timestamp keep their merge order.
type Dataset struct {
	records []Record
}

// New builds a Dataset from validated records. The input slice is copied
// before sorting so callers keep their ordering.
func New(records []Record) *Dataset {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &Dataset{records: sorted}
}

// Records returns the time-ordered records. Callers must not mutate the
// returned slice.
func (d *Dataset) Records() []Record { return d.records }

func (d *Dataset) Len() int { return len(d.records) }

func (d *Dataset) Empty() bool { return len(d.records) == 0 }

// TotalKWH sums consumption over the whole dataset.
func (d *Dataset) TotalKWH() float64 {
	var total float64
	for _, r := range d.records {
		total += r.KWH
	}
	return total
}

// Span returns the first and last timestamps. ok is false for an empty
// dataset.
func (d *Dataset) Span() (start, end time.Time, ok bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.records[0].Timestamp, d.records[len(d.records)-1].Timestamp, true
}

// Buildings returns distinct building names in order of first appearance
// in the time-ordered records.
func (d *Dataset) Buildings() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range d.records {
		if _, ok := seen[r.Building]; ok {
			continue
		}
		seen[r.Building] = struct{}{}
		names = append(names, r.Building)
	}
	return names
}
