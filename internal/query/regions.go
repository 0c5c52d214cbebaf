package query

import (
	"math"
	"sort"
	"strings"

	"github.com/rewired-gh/incomelens/internal/models"
)

// Summarize derives the display row of one complete state. Per-capita values
// are rounded half to even to the nearest dollar. ok is false when the state
// lacks GDP or population, or its population is zero.
func Summarize(s models.StateAggregate) (models.StateSummary, bool) {
	if !s.Complete() || s.PopulationMillions <= 0 {
		return models.StateSummary{}, false
	}
	return models.StateSummary{
		Name:               s.Name,
		Display:            models.DisplayName(s.Name),
		Region:             s.Region,
		PopulationMillions: s.PopulationMillions,
		GDP:                s.GDP,
		Income:             s.Income,
		GDPPerCapita:       perCapita(s.GDP, s.PopulationMillions),
		IncomePerCapita:    perCapita(s.Income, s.PopulationMillions),
	}, true
}

func perCapita(millions int, populationMillions float64) int {
	return int(math.RoundToEven(float64(millions) / populationMillions))
}

// RegionStates returns the summaries of the states in region, sorted by
// display name. The region "all" selects every state. ok is false when region
// is neither a known region nor "all". States missing GDP or population are
// left out.
func RegionStates(m *models.StateMap, region string) ([]models.StateSummary, bool) {
	if region != models.AllRegions && !models.IsRegion(region) {
		return nil, false
	}

	out := []models.StateSummary{}
	for _, s := range m.States() {
		if region != models.AllRegions && s.Region != region {
			continue
		}
		sum, ok := Summarize(s)
		if !ok {
			continue
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Display < out[j].Display })
	return out, true
}

// Extremes holds the states at either end of the per-capita rankings.
type Extremes struct {
	MinIncome models.StateSummary
	MaxIncome models.StateSummary
	MinGDP    models.StateSummary
	MaxGDP    models.StateSummary
}

// RegionExtremes finds the lowest and highest income per capita and GDP per
// capita among summaries. ok is false for empty input.
func RegionExtremes(summaries []models.StateSummary) (Extremes, bool) {
	var e Extremes
	var ok bool
	e.MinIncome, e.MaxIncome, ok = MinMaxBy(summaries, MetricIncomePerCapita.Value)
	if !ok {
		return Extremes{}, false
	}
	e.MinGDP, e.MaxGDP, _ = MinMaxBy(summaries, MetricGDPPerCapita.Value)
	return e, true
}

// Metric is a plottable column of a state summary.
type Metric int

const (
	MetricPopulation Metric = iota
	MetricGDP
	MetricIncome
	MetricGDPPerCapita
	MetricIncomePerCapita
)

var metricCodes = [...]string{"Pop", "GDP", "PI", "GDPp", "PIp"}

var metricLabels = [...]string{
	"Population(m)",
	"GDP(m)",
	"Income(m)",
	"GDP per capita",
	"Income per capita",
}

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricPopulation, MetricGDP, MetricIncome, MetricGDPPerCapita, MetricIncomePerCapita}

// String returns the short code typed by users.
func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricCodes) {
		return "unknown"
	}
	return metricCodes[m]
}

// Label returns the axis label.
func (m Metric) Label() string {
	if m < 0 || int(m) >= len(metricLabels) {
		return "unknown"
	}
	return metricLabels[m]
}

// Value reads the metric from a summary.
func (m Metric) Value(s models.StateSummary) float64 {
	switch m {
	case MetricPopulation:
		return s.PopulationMillions
	case MetricGDP:
		return float64(s.GDP)
	case MetricIncome:
		return float64(s.Income)
	case MetricGDPPerCapita:
		return float64(s.GDPPerCapita)
	case MetricIncomePerCapita:
		return float64(s.IncomePerCapita)
	}
	return 0
}

// ParseMetric matches a metric code case-insensitively.
func ParseMetric(code string) (Metric, bool) {
	code = strings.TrimSpace(code)
	for i, c := range metricCodes {
		if strings.EqualFold(c, code) {
			return Metric(i), true
		}
	}
	return 0, false
}

// Series extracts two equal-length sequences and the point labels for a
// scatter plot of y against x.
func Series(summaries []models.StateSummary, x, y Metric) (xs, ys []float64, labels []string) {
	xs = make([]float64, 0, len(summaries))
	ys = make([]float64, 0, len(summaries))
	labels = make([]string, 0, len(summaries))
	for _, s := range summaries {
		xs = append(xs, x.Value(s))
		ys = append(ys, y.Value(s))
		labels = append(labels, s.Display)
	}
	return xs, ys, labels
}
