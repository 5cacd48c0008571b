package aggregate

import (
	"time"

	"campus_energy/internal/dataset"
)

// Bucket is one calendar period of an aggregate series.
type Bucket struct {
	PeriodStart time.Time
	KWH         float64
}

// Series is a time-bucketed sequence of summed consumption, one bucket
// per calendar period. Periods are contiguous for the requested
// granularity; a period with no underlying records sums to zero rather
// than being skipped.
type Series []Bucket

// Total sums the series values.
func (s Series) Total() float64 {
	var total float64
	for _, b := range s {
		total += b.KWH
	}
	return total
}

// Values returns just the summed values in period order.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, b := range s {
		vals[i] = b.KWH
	}
	return vals
}

// Daily buckets the dataset by calendar day, summing KWH across all
// buildings. An empty dataset yields an empty series.
func Daily(ds *dataset.Dataset) Series {
	return resample(ds, dayStart, nextDay)
}

// Weekly buckets the dataset by calendar week, summing KWH across all
// buildings. Week policy: ISO weeks, starting Monday 00:00. An empty
// dataset yields an empty series.
func Weekly(ds *dataset.Dataset) Series {
	return resample(ds, weekStart, nextWeek)
}

func resample(ds *dataset.Dataset, truncate func(time.Time) time.Time, next func(time.Time) time.Time) Series {
	first, last, ok := ds.Span()
	if !ok {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, r := range ds.Records() {
		sums[truncate(r.Timestamp)] += r.KWH
	}

	var series Series
	end := truncate(last)
	for period := truncate(first); !period.After(end); period = next(period) {
		series = append(series, Bucket{PeriodStart: period, KWH: sums[period]})
	}
	return series
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nextDay(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

// weekStart backs a timestamp up to the Monday that starts its ISO week.
func weekStart(t time.Time) time.Time {
	day := dayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func nextWeek(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
