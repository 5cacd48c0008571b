package sample

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Buildings are the demo meters generated when no real data exists.
var Buildings = []string{"Library", "Dormitory", "Cafeteria"}

// Generate writes one demo CSV per building into dir: a full year of
// daily readings between 100 and 500 KWH. Used by cmd/seed and by the
// app when the data directory is missing.
func Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

	for _, building := range Buildings {
		if err := writeBuilding(filepath.Join(dir, building+".csv"), building, start, end, rng); err != nil {
			return fmt.Errorf("seed %s: %w", building, err)
		}
	}
	return nil
}

func writeBuilding(path, building string, start, end time.Time, rng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Date", "Building", "KWH"}); err != nil {
		return err
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		kwh := rng.Intn(400) + 100
		if err := w.Write([]string{day.Format("2006-01-02"), building, strconv.Itoa(kwh)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
