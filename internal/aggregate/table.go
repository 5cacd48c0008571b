package aggregate

import "campus_energy/internal/dataset"

// Stats are descriptive statistics over one building's KWH values.
// Mean is 0 when Count is 0; no NaN is ever returned.
type Stats struct {
	Count int
	Sum   float64
	Mean  float64
	Min   float64
	Max   float64
}

// Table maps building name to its Stats. Iteration order (Names) is the
// order buildings first appear in the time-ordered dataset, which keeps
// downstream tie-breaking deterministic.
type Table struct {
	names []string
	rows  map[string]Stats
}

func (t *Table) Names() []string { return t.names }

func (t *Table) Row(name string) (Stats, bool) {
	s, ok := t.rows[name]
	return s, ok
}

func (t *Table) Len() int { return len(t.names) }

// SummaryByBuilding groups the dataset by building and computes
// mean/min/max/sum of KWH per group. An empty dataset yields an empty
// table.
func SummaryByBuilding(ds *dataset.Dataset) *Table {
	table := &Table{rows: make(map[string]Stats)}
	for _, r := range ds.Records() {
		s, seen := table.rows[r.Building]
		if !seen {
			table.names = append(table.names, r.Building)
			s = Stats{Min: r.KWH, Max: r.KWH}
		}
		s.Count++
		s.Sum += r.KWH
		if r.KWH < s.Min {
			s.Min = r.KWH
		}
		if r.KWH > s.Max {
			s.Max = r.KWH
		}
		table.rows[r.Building] = s
	}
	for name, s := range table.rows {
		s.Mean = s.Sum / float64(s.Count)
		table.rows[name] = s
	}
	return table
}
