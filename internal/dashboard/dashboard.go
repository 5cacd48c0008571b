// Package dashboard renders the four-panel usage dashboard as a PNG:
// daily consumption trend, average weekly usage per building, KWH by
// day of week, and the KWH distribution. All series arrive precomputed;
// the renderer only draws.
package dashboard

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"campus_energy/internal/aggregate"
)

// Views are the independent chart inputs for one render.
type Views struct {
	Daily        aggregate.Series
	Buildings    []string
	WeeklyMeans  []float64
	DayOfWeek    []aggregate.Point
	Distribution []float64
}

const (
	imgWidth      = 1400
	imgHeight     = 1000
	panelPad      = 50
	histogramBins = 20
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorAxis       = color.RGBA{60, 60, 60, 255}
	colorSeries     = color.RGBA{31, 119, 180, 255}
	colorBar        = color.RGBA{255, 127, 14, 255}
	colorScatter    = color.RGBA{44, 160, 44, 255}
	colorHist       = color.RGBA{148, 103, 189, 255}
)

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Save renders the dashboard and writes it as PNG.
func Save(path string, v Views) error {
	img := Render(v)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// Render draws the 2x2 panel grid.
func Render(v Views) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)

	half := image.Point{imgWidth / 2, imgHeight / 2}
	drawDailyTrend(img, panelRect(0, 0, half), v.Daily)
	drawWeeklyBars(img, panelRect(1, 0, half), v.Buildings, v.WeeklyMeans)
	drawDayOfWeekScatter(img, panelRect(0, 1, half), v.DayOfWeek)
	drawHistogram(img, panelRect(1, 1, half), v.Distribution)
	return img
}

func panelRect(col, row int, half image.Point) image.Rectangle {
	x0 := col*half.X + panelPad
	y0 := row*half.Y + panelPad
	return image.Rect(x0, y0, (col+1)*half.X-panelPad, (row+1)*half.Y-panelPad)
}

func drawDailyTrend(img *image.RGBA, rect image.Rectangle, daily aggregate.Series) {
	drawFrame(img, rect, "Daily Consumption Trend", "Date", "Total KWH")
	if len(daily) == 0 {
		return
	}
	maxVal := seriesMax(daily.Values())
	n := len(daily)
	var prev image.Point
	for i, b := range daily {
		x := rect.Min.X + scale(i, maxInt(n-1, 1), rect.Dx())
		y := rect.Max.Y - scaleF(b.KWH, maxVal, rect.Dy())
		pt := image.Point{x, y}
		if i > 0 {
			drawLine(img, prev, pt, colorSeries)
		}
		prev = pt
	}
	label(img, rect.Min.X, rect.Min.Y-6, fmt.Sprintf("max %.0f", maxVal))
}

func drawWeeklyBars(img *image.RGBA, rect image.Rectangle, names []string, means []float64) {
	drawFrame(img, rect, "Average Weekly Usage by Building", "Building", "Average KWH")
	if len(names) == 0 || len(names) != len(means) {
		return
	}
	maxVal := seriesMax(means)
	slot := rect.Dx() / len(names)
	barWidth := slot * 6 / 10
	for i, mean := range means {
		h := scaleF(mean, maxVal, rect.Dy())
		x0 := rect.Min.X + i*slot + (slot-barWidth)/2
		fillRect(img, image.Rect(x0, rect.Max.Y-h, x0+barWidth, rect.Max.Y), colorBar)
		label(img, x0, rect.Max.Y+16, truncateLabel(names[i], slot/7))
	}
}

func drawDayOfWeekScatter(img *image.RGBA, rect image.Rectangle, points []aggregate.Point) {
	drawFrame(img, rect, "Consumption vs. Day of Week", "Day of Week", "KWH")
	var maxVal float64
	for _, p := range points {
		if p.KWH > maxVal {
			maxVal = p.KWH
		}
	}
	slot := rect.Dx() / 7
	for i, name := range weekdayLabels {
		label(img, rect.Min.X+i*slot+slot/2-10, rect.Max.Y+16, name)
	}
	for _, p := range points {
		// Monday-first axis.
		day := (int(p.Day) + 6) % 7
		x := rect.Min.X + day*slot + slot/2
		y := rect.Max.Y - scaleF(p.KWH, maxVal, rect.Dy())
		fillRect(img, image.Rect(x-2, y-2, x+2, y+2), colorScatter)
	}
}

func drawHistogram(img *image.RGBA, rect image.Rectangle, values []float64) {
	drawFrame(img, rect, "KWH Distribution", "KWH", "Frequency")
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	counts := make([]int, histogramBins)
	for _, v := range values {
		bin := 0
		if span > 0 {
			bin = int((v - lo) / span * float64(histogramBins))
		}
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		counts[bin]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	slot := rect.Dx() / histogramBins
	for i, c := range counts {
		h := scale(c, maxCount, rect.Dy())
		x0 := rect.Min.X + i*slot
		fillRect(img, image.Rect(x0+1, rect.Max.Y-h, x0+slot-1, rect.Max.Y), colorHist)
	}
	label(img, rect.Min.X, rect.Max.Y+16, fmt.Sprintf("%.0f", lo))
	label(img, rect.Max.X-40, rect.Max.Y+16, fmt.Sprintf("%.0f", hi))
}

func drawFrame(img *image.RGBA, rect image.Rectangle, title, xLabel, yLabel string) {
	drawLine(img, image.Point{rect.Min.X, rect.Min.Y}, image.Point{rect.Min.X, rect.Max.Y}, colorAxis)
	drawLine(img, image.Point{rect.Min.X, rect.Max.Y}, image.Point{rect.Max.X, rect.Max.Y}, colorAxis)
	label(img, rect.Min.X+rect.Dx()/2-len(title)*7/2, rect.Min.Y-18, title)
	label(img, rect.Min.X+rect.Dx()/2-len(xLabel)*7/2, rect.Max.Y+32, xLabel)
	label(img, rect.Min.X-panelPad+6, rect.Min.Y+12, yLabel)
}

func label(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{colorAxis},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawLine rasterizes a segment with integer DDA.
func drawLine(img *image.RGBA, a, b image.Point, c color.Color) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := maxInt(absInt(dx), absInt(dy))
	if steps == 0 {
		img.Set(a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := a.X + dx*i/steps
		y := a.Y + dy*i/steps
		img.Set(x, y, c)
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{c}, image.Point{}, draw.Src)
}

func seriesMax(values []float64) float64 {
	var maxVal float64
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func scale(v, maxVal, size int) int {
	if maxVal <= 0 {
		return 0
	}
	return v * size / maxVal
}

func scaleF(v, maxVal float64, size int) int {
	if maxVal <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(v / maxVal * float64(size))
}

func truncateLabel(s string, maxLen int) string {
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
