package summary

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"campus_energy/internal/aggregate"
	"campus_energy/internal/dataset"
)

// ErrNoData is returned when the canonical dataset holds zero valid
// records. Callers must surface this as an explicit "insufficient data"
// outcome instead of reporting zero-filled facts.
var ErrNoData = errors.New("insufficient data: no valid meter records")

// WeeklyStats are descriptive statistics over the weekly series values.
type WeeklyStats struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}

// Report holds the headline facts derived from one run.
type Report struct {
	TotalKWH       float64
	TopBuilding    string
	TopBuildingKWH float64
	PeakAt         time.Time
	PeakKWH        float64
	Weekly         WeeklyStats
}

// Build derives the headline report from the canonical dataset, the
// per-building summary table, and the weekly series. It returns
// ErrNoData when the dataset is empty; every fact is undefined in that
// case and none is computed.
//
// Tie-breaking is deterministic: the top building is the first one in
// table order among those sharing the maximum sum, and the peak
// timestamp is the earliest record among those sharing the maximum KWH.
func Build(ds *dataset.Dataset, table *aggregate.Table, weekly aggregate.Series) (Report, error) {
	if ds.Empty() {
		return Report{}, ErrNoData
	}

	r := Report{TotalKWH: ds.TotalKWH()}

	for i, name := range table.Names() {
		row, _ := table.Row(name)
		if i == 0 || row.Sum > r.TopBuildingKWH {
			r.TopBuilding = name
			r.TopBuildingKWH = row.Sum
		}
	}

	// Records are time-ordered, so a strict > scan lands on the earliest
	// qualifying timestamp.
	for i, rec := range ds.Records() {
		if i == 0 || rec.KWH > r.PeakKWH {
			r.PeakKWH = rec.KWH
			r.PeakAt = rec.Timestamp
		}
	}

	r.Weekly = describeWeekly(weekly)
	return r, nil
}

func describeWeekly(weekly aggregate.Series) WeeklyStats {
	stats := WeeklyStats{Count: len(weekly)}
	if stats.Count == 0 {
		return stats
	}
	values := weekly.Values()
	stats.Min = values[0]
	stats.Max = values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = sum / float64(stats.Count)
	var variance float64
	for _, v := range values {
		d := v - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(stats.Count))
	return stats
}

// Render formats the report as the executive summary text block.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString("Campus Energy Usage Summary\n")
	b.WriteString("===========================\n")
	fmt.Fprintf(&b, "Total Campus Consumption: %g KWH\n", r.TotalKWH)
	fmt.Fprintf(&b, "Highest-Consuming Building: %s (%g KWH)\n", r.TopBuilding, r.TopBuildingKWH)
	fmt.Fprintf(&b, "Peak Load Time: %s (%g KWH)\n", r.PeakAt.Format("2006-01-02 15:04:05"), r.PeakKWH)
	fmt.Fprintf(&b, "Weekly Trends (Mean: %.2f, Max: %.2f, Weeks: %d)\n", r.Weekly.Mean, r.Weekly.Max, r.Weekly.Count)
	b.WriteString("Daily Trends: See dashboard for visualizations.\n")
	return b.String()
}

// RenderNoData is the marker emitted when a run produced zero valid
// records.
func RenderNoData() string {
	return "Campus Energy Usage Summary\n===========================\nInsufficient data: no valid meter records were ingested.\n"
}
