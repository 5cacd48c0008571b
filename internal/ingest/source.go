package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Row is one unvalidated record from a row source. KWH is nil when the
// field is absent or not numeric; validation decides what to do with it.
type Row struct {
	Date     string
	KWH      *float64
	Building string
}

// RowSet is the outcome of reading one source: the rows that parsed
// plus a note per row that had to be skipped.
type RowSet struct {
	Rows      []Row
	Malformed []string
}

// Source is an ordered sequence of raw rows with an origin label. The
// label stands in for the building name on rows that lack one.
type Source interface {
	Label() string
	Read() (RowSet, error)
}

// CSVFile reads one meter CSV with a Date column, a KWH column, and an
// optional Building column. Column matching is case-insensitive.
type CSVFile struct {
	path string
}

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

// Label is the file name without extension, e.g. data/Library.csv →
// "Library".
func (f *CSVFile) Label() string {
	base := filepath.Base(f.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (f *CSVFile) Read() (RowSet, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return RowSet{}, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return RowSet{}, nil
	}
	if err != nil {
		return RowSet{}, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateIdx, ok := cols["date"]
	if !ok {
		return RowSet{}, fmt.Errorf("missing required csv column: Date")
	}
	kwhIdx, hasKWH := cols["kwh"]
	if !hasKWH {
		return RowSet{}, fmt.Errorf("missing required csv column: KWH")
	}
	buildingIdx, hasBuilding := cols["building"]

	var set RowSet
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			set.Malformed = append(set.Malformed, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		row := Row{}
		if dateIdx < len(record) {
			row.Date = strings.TrimSpace(record[dateIdx])
		}
		if kwhIdx < len(record) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[kwhIdx]), 64); err == nil {
				row.KWH = &v
			}
		}
		if hasBuilding && buildingIdx < len(record) {
			row.Building = strings.TrimSpace(record[buildingIdx])
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

// Discover lists the CSV sources in dir, sorted by file name so a run
// over the same directory always merges in the same order.
func Discover(dir string) ([]Source, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, NewCSVFile(m))
	}
	return sources, nil
}
