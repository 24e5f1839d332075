// Package defects implements the categorical defect breakdowns and Pareto
// (80/20) ranking used to find the vital few defect types.
package defects

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"tirepulse/internal/store"
)

// Breakdown is one group's share of all defects in the window.
type Breakdown struct {
	Key        string  `json:"key"`
	Name       string  `json:"name,omitempty"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ParetoEntry is one defect type in the Pareto ranking. CumulativePct
// reaches 100 at the last entry (floating-point rounding aside); VitalFew
// marks the entries that together account for the first 80% of defects.
type ParetoEntry struct {
	DefectCode    string  `json:"defect_code"`
	DefectName    string  `json:"defect_name"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
	CumulativePct float64 `json:"cumulative_pct"`
	VitalFew      bool    `json:"vital_few"`
}

// Analysis is the full defect analysis for a window.
type Analysis struct {
	PeriodStart  time.Time   `json:"period_start"`
	PeriodEnd    time.Time   `json:"period_end"`
	TotalDefects int         `json:"total_defects"`
	ByType       []Breakdown `json:"by_type"`
	ByCategory   []Breakdown `json:"by_category"`
	ByLine       []Breakdown `json:"by_line"`
	Pareto       []ParetoEntry `json:"pareto"`
}

// Engine builds defect analyses from the store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEngine creates a defect analysis engine.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger}
}

// Analyze groups defects by type, category and line over [from, to] and
// ranks types Pareto-style. An empty window yields an empty analysis, not
// an error.
func (e *Engine) Analyze(ctx context.Context, from, to time.Time) (*Analysis, error) {
	counts, err := e.store.DefectCounts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load defect counts: %w", err)
	}

	a := &Analysis{PeriodStart: from, PeriodEnd: to}
	byType := make(map[string]*Breakdown)
	byCategory := make(map[string]int)
	byLine := make(map[string]int)

	for _, c := range counts {
		a.TotalDefects += c.Count
		if b, ok := byType[c.DefectCode]; ok {
			b.Count += c.Count
		} else {
			byType[c.DefectCode] = &Breakdown{Key: c.DefectCode, Name: c.DefectName, Count: c.Count}
		}
		byCategory[c.Category] += c.Count
		if c.LineCode != "" {
			byLine[c.LineCode] += c.Count
		}
	}
	if a.TotalDefects == 0 {
		return a, nil
	}

	for _, b := range byType {
		b.Percentage = pct(b.Count, a.TotalDefects)
		a.ByType = append(a.ByType, *b)
	}
	sortBreakdowns(a.ByType)
	a.ByCategory = toBreakdowns(byCategory, a.TotalDefects)
	a.ByLine = toBreakdowns(byLine, a.TotalDefects)
	a.Pareto = BuildPareto(a.ByType, a.TotalDefects)

	e.logger.Debug("defect analysis complete",
		slog.Int("total", a.TotalDefects),
		slog.Int("types", len(a.ByType)))
	return a, nil
}

// BuildPareto ranks per-type breakdowns descending by count and annotates
// cumulative percentages. The input must already be sorted descending.
func BuildPareto(byType []Breakdown, total int) []ParetoEntry {
	if total == 0 {
		return nil
	}
	var out []ParetoEntry
	cumulative := 0
	for _, b := range byType {
		cumulative += b.Count
		entry := ParetoEntry{
			DefectCode:    b.Key,
			DefectName:    b.Name,
			Count:         b.Count,
			Percentage:    pct(b.Count, total),
			CumulativePct: pct(cumulative, total),
		}
		// Vital few: entries up to and including the one that crosses 80%.
		entry.VitalFew = pct(cumulative-b.Count, total) < 80
		out = append(out, entry)
	}
	return out
}

func toBreakdowns(m map[string]int, total int) []Breakdown {
	var out []Breakdown
	for k, count := range m {
		out = append(out, Breakdown{Key: k, Count: count, Percentage: pct(count, total)})
	}
	sortBreakdowns(out)
	return out
}

func sortBreakdowns(b []Breakdown) {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Count != b[j].Count {
			return b[i].Count > b[j].Count
		}
		return b[i].Key < b[j].Key
	})
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
