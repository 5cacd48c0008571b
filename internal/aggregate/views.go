package aggregate

import (
	"time"

	"campus_energy/internal/dataset"
)

// Point pairs a day of week with one record's consumption. Used by the
// dashboard scatter panel.
type Point struct {
	Day time.Weekday
	KWH float64
}

// WeeklyMeanByBuilding computes, per building, the mean of that
// building's weekly totals. Buildings are returned in first-appearance
// order alongside their means.
func WeeklyMeanByBuilding(ds *dataset.Dataset) ([]string, []float64) {
	names := ds.Buildings()
	if len(names) == 0 {
		return nil, nil
	}

	perBuilding := make(map[string][]dataset.Record)
	for _, r := range ds.Records() {
		perBuilding[r.Building] = append(perBuilding[r.Building], r)
	}

	means := make([]float64, len(names))
	for i, name := range names {
		weekly := Weekly(dataset.New(perBuilding[name]))
		if len(weekly) == 0 {
			continue
		}
		means[i] = weekly.Total() / float64(len(weekly))
	}
	return names, means
}

// DayOfWeekPoints returns one point per record, pairing its weekday
// with its KWH value.
func DayOfWeekPoints(ds *dataset.Dataset) []Point {
	records := ds.Records()
	points := make([]Point, len(records))
	for i, r := range records {
		points[i] = Point{Day: r.Timestamp.Weekday(), KWH: r.KWH}
	}
	return points
}

// Values returns the raw KWH distribution in time order.
func Values(ds *dataset.Dataset) []float64 {
	records := ds.Records()
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.KWH
	}
	return vals
}
