package ledger

import (
	"fmt"
	"time"
)

// Reading is a single timestamped meter observation. Readings are
// immutable once created and belong to exactly one Ledger. KWH is
// non-negative by construction; invalid values are rejected at
// ingestion, not here.
type Reading struct {
	Timestamp time.Time
	KWH       float64
}

// Ledger accumulates readings for one building. Readings are kept in
// insertion order, which is not necessarily chronological.
type Ledger struct {
	name     string
	readings []Reading
}

// Report is the derived per-building view: total consumption and the
// average per reading. Average is 0 for an empty ledger by policy.
type Report struct {
	Name    string
	Total   float64
	Average float64
}

func newLedger(name string) *Ledger {
	return &Ledger{name: name}
}

func (l *Ledger) Name() string { return l.name }

func (l *Ledger) Add(ts time.Time, kwh float64) {
	l.readings = append(l.readings, Reading{Timestamp: ts, KWH: kwh})
}

func (l *Ledger) Count() int { return len(l.readings) }

// Total sums KWH over all readings.
func (l *Ledger) Total() float64 {
	var total float64
	for _, r := range l.readings {
		total += r.KWH
	}
	return total
}

// Report derives the ledger's totals. Pure function of current state.
func (l *Ledger) Report() Report {
	total := l.Total()
	var avg float64
	if len(l.readings) > 0 {
		avg = total / float64(len(l.readings))
	}
	return Report{Name: l.name, Total: total, Average: avg}
}

func (r Report) String() string {
	return fmt.Sprintf("Building: %s, Total KWH: %g, Average KWH: %.2f", r.Name, r.Total, r.Average)
}

// Registry owns one Ledger per distinct building name. Iteration order
// follows first insertion of each name, so repeated runs over the same
// input produce reports in the same order.
type Registry struct {
	ledgers map[string]*Ledger
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[string]*Ledger)}
}

// Ensure creates the ledger for name on first use. Idempotent.
func (g *Registry) Ensure(name string) *Ledger {
	if l, ok := g.ledgers[name]; ok {
		return l
	}
	l := newLedger(name)
	g.ledgers[name] = l
	g.order = append(g.order, name)
	return l
}

// Record appends a reading to the named building's ledger, creating the
// ledger if needed.
func (g *Registry) Record(name string, ts time.Time, kwh float64) {
	g.Ensure(name).Add(ts, kwh)
}

// Ledger returns the ledger for name, or nil if no reading has been
// recorded for it.
func (g *Registry) Ledger(name string) *Ledger {
	return g.ledgers[name]
}

func (g *Registry) Len() int { return len(g.ledgers) }

// AllReports derives a report per ledger in first-insertion order.
func (g *Registry) AllReports() []Report {
	reports := make([]Report, 0, len(g.order))
	for _, name := range g.order {
		reports = append(reports, g.ledgers[name].Report())
	}
	return reports
}
