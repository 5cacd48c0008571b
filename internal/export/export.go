package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"campus_energy/internal/aggregate"
	"campus_energy/internal/dataset"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteCleanedCSV writes the canonical dataset as a flat table with
// Date, Building, KWH columns, in time order.
func WriteCleanedCSV(path string, ds *dataset.Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Date", "Building", "KWH"}); err != nil {
		return err
	}
	for _, r := range ds.Records() {
		row := []string{
			r.Timestamp.Format(timeLayout),
			r.Building,
			formatFloat(r.KWH),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteBuildingSummaryCSV writes the per-building summary table in its
// iteration order.
func WriteBuildingSummaryCSV(path string, table *aggregate.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Building", "mean", "min", "max", "sum"}); err != nil {
		return err
	}
	for _, name := range table.Names() {
		row, _ := table.Row(name)
		record := []string{
			name,
			formatFloat(row.Mean),
			formatFloat(row.Min),
			formatFloat(row.Max),
			formatFloat(row.Sum),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
