package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_energy/internal/dataset"
)

// monday is 2023-01-02, the start of an ISO week.
var monday = time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

func rec(ts time.Time, building string, kwh float64) dataset.Record {
	return dataset.Record{Timestamp: ts, Building: building, KWH: kwh}
}

// constantWeek builds the three-building fixture: 7 daily readings of
// 200 KWH per building, starting Monday.
func constantWeek() *dataset.Dataset {
	var records []dataset.Record
	for day := 0; day < 7; day++ {
		for _, b := range []string{"Library", "Dormitory", "Cafeteria"} {
			records = append(records, rec(monday.AddDate(0, 0, day), b, 200))
		}
	}
	return dataset.New(records)
}

func TestConstantWeekScenario(t *testing.T) {
	ds := constantWeek()

	daily := Daily(ds)
	require.Len(t, daily, 7)
	for _, b := range daily {
		assert.Equal(t, 600.0, b.KWH)
	}

	weekly := Weekly(ds)
	require.Len(t, weekly, 1)
	assert.Equal(t, monday, weekly[0].PeriodStart)

	table := SummaryByBuilding(ds)
	require.Equal(t, 3, table.Len())
	for _, name := range table.Names() {
		row, ok := table.Row(name)
		require.True(t, ok)
		assert.Equal(t, 200.0, row.Mean)
		assert.Equal(t, 200.0, row.Min)
		assert.Equal(t, 200.0, row.Max)
		assert.Equal(t, 1400.0, row.Sum)
	}
}

func TestTotalsConservedAcrossRebucketing(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec(monday, "A", 120.5),
		rec(monday.AddDate(0, 0, 3), "B", 310.25),
		rec(monday.AddDate(0, 0, 9), "A", 99.75),
		rec(monday.AddDate(0, 0, 20), "C", 450),
	})
	total := ds.TotalKWH()
	assert.InDelta(t, total, Daily(ds).Total(), 1e-9)
	assert.InDelta(t, total, Weekly(ds).Total(), 1e-9)
}

func TestDailyZeroFillsEmptyPeriods(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec(monday, "A", 100),
		rec(monday.AddDate(0, 0, 3), "A", 50),
	})
	daily := Daily(ds)
	require.Len(t, daily, 4)
	assert.Equal(t, 100.0, daily[0].KWH)
	assert.Equal(t, 0.0, daily[1].KWH)
	assert.Equal(t, 0.0, daily[2].KWH)
	assert.Equal(t, 50.0, daily[3].KWH)
}

func TestWeeklyISOMondayBoundary(t *testing.T) {
	sunday := monday.AddDate(0, 0, 6)
	nextMonday := monday.AddDate(0, 0, 7)
	ds := dataset.New([]dataset.Record{
		rec(sunday, "A", 10),
		rec(nextMonday, "A", 20),
	})
	weekly := Weekly(ds)
	require.Len(t, weekly, 2)
	assert.Equal(t, monday, weekly[0].PeriodStart)
	assert.Equal(t, nextMonday, weekly[1].PeriodStart)
	assert.Equal(t, 10.0, weekly[0].KWH)
	assert.Equal(t, 20.0, weekly[1].KWH)
}

func TestEmptyDatasetYieldsEmptyOutputs(t *testing.T) {
	ds := dataset.New(nil)
	assert.Empty(t, Daily(ds))
	assert.Empty(t, Weekly(ds))
	assert.Equal(t, 0, SummaryByBuilding(ds).Len())
}

func TestSingleRecord(t *testing.T) {
	ds := dataset.New([]dataset.Record{rec(monday, "Library", 321)})

	daily := Daily(ds)
	require.Len(t, daily, 1)
	assert.Equal(t, 321.0, daily[0].KWH)

	table := SummaryByBuilding(ds)
	row, ok := table.Row("Library")
	require.True(t, ok)
	assert.Equal(t, Stats{Count: 1, Sum: 321, Mean: 321, Min: 321, Max: 321}, row)
}

func TestWeeklyMeanByBuilding(t *testing.T) {
	// Library: one week of 100/day (700 total); Dormitory: two weeks,
	// 700 then 0 (mean 350).
	var records []dataset.Record
	for day := 0; day < 7; day++ {
		records = append(records, rec(monday.AddDate(0, 0, day), "Library", 100))
		records = append(records, rec(monday.AddDate(0, 0, day), "Dormitory", 100))
	}
	records = append(records, rec(monday.AddDate(0, 0, 7), "Dormitory", 0))

	names, means := WeeklyMeanByBuilding(dataset.New(records))
	require.Equal(t, []string{"Library", "Dormitory"}, names)
	assert.InDelta(t, 700.0, means[0], 1e-9)
	assert.InDelta(t, 350.0, means[1], 1e-9)
}

func TestViews(t *testing.T) {
	ds := dataset.New([]dataset.Record{
		rec(monday, "A", 10),             // Monday
		rec(monday.AddDate(0, 0, 5), "A", 20), // Saturday
	})
	points := DayOfWeekPoints(ds)
	require.Len(t, points, 2)
	assert.Equal(t, time.Monday, points[0].Day)
	assert.Equal(t, time.Saturday, points[1].Day)

	assert.Equal(t, []float64{10, 20}, Values(ds))
}
