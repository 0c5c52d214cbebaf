package query

import "github.com/rewired-gh/incomelens/internal/models"

// MedianPercent is the cumulative percent at which the median bracket starts.
const MedianPercent = 50.0

// DefaultPlotBrackets is how many brackets the cumulative chart shows.
const DefaultPlotBrackets = 40

func cumulativePercent(b models.Bracket) float64 { return b.CumulativePercent }
func aggregateIncome(b models.Bracket) float64   { return b.AggregateIncome }
func householdCount(b models.Bracket) float64    { return float64(b.Count) }

// AverageIncome returns total income over total households, rounded to cents.
func AverageIncome(brackets []models.Bracket) (float64, error) {
	return Average(brackets, aggregateIncome, householdCount)
}

// MedianIncome returns the average income of the first bracket that reaches
// the fiftieth percentile.
func MedianIncome(brackets []models.Bracket) (float64, bool) {
	b, ok := FindThresholdCrossing(brackets, cumulativePercent, MedianPercent)
	if !ok {
		return 0, false
	}
	return b.AverageIncome, true
}

// RangeForPercent returns the first bracket whose cumulative percent reaches
// percent. Percent must lie strictly between 0 and 100.
func RangeForPercent(brackets []models.Bracket, percent float64) (models.Bracket, bool) {
	if percent <= 0 || percent >= 100 {
		return models.Bracket{}, false
	}
	return FindThresholdCrossing(brackets, cumulativePercent, percent)
}

// PercentForIncome returns the first bracket whose range contains income.
func PercentForIncome(brackets []models.Bracket, income float64) (models.Bracket, bool) {
	for _, b := range brackets {
		if b.Range.Contains(income) {
			return b, true
		}
	}
	return models.Bracket{}, false
}

// CumulativeSeries returns the chart series for the first limit brackets:
// the low bound of each range against its cumulative percent. A limit of
// zero or less uses DefaultPlotBrackets.
func CumulativeSeries(brackets []models.Bracket, limit int) (xs, ys []float64) {
	if limit <= 0 {
		limit = DefaultPlotBrackets
	}
	if limit > len(brackets) {
		limit = len(brackets)
	}
	xs = make([]float64, 0, limit)
	ys = make([]float64, 0, limit)
	for _, b := range brackets[:limit] {
		xs = append(xs, b.Range.Low)
		ys = append(ys, b.CumulativePercent)
	}
	return xs, ys
}
