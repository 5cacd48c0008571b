package dashboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"campus_energy/internal/aggregate"
)

func sampleViews() Views {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	daily := aggregate.Series{}
	for i := 0; i < 14; i++ {
		daily = append(daily, aggregate.Bucket{PeriodStart: start.AddDate(0, 0, i), KWH: float64(100 + i*10)})
	}
	return Views{
		Daily:        daily,
		Buildings:    []string{"Library", "Dormitory", "Cafeteria"},
		WeeklyMeans:  []float64{700, 650, 800},
		DayOfWeek:    []aggregate.Point{{Day: time.Monday, KWH: 120}, {Day: time.Sunday, KWH: 90}},
		Distribution: []float64{100, 110, 120, 200, 210, 450},
	}
}

func TestRenderDimensions(t *testing.T) {
	img := Render(sampleViews())
	bounds := img.Bounds()
	if bounds.Dx() != imgWidth || bounds.Dy() != imgHeight {
		t.Fatalf("unexpected dimensions: %v", bounds)
	}
}

func TestRenderEmptyViews(t *testing.T) {
	// No data must still yield a framed, blank dashboard.
	img := Render(Views{})
	if img == nil {
		t.Fatal("expected an image")
	}
}

func TestSaveWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.png")
	if err := Save(path, sampleViews()); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty png written")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw[1:4]) != "PNG" {
		t.Fatalf("not a png header: %q", raw[:8])
	}
}
