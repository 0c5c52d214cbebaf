// Package report renders query results for the console and for notification
// sinks. Tables are drawn with go-pretty; money and counts are formatted with
// go-humanize. The package only formats: it never computes aggregates.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/query"
)

// Money formats v as dollars with cents and thousands separators.
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Dollars formats whole dollars with thousands separators.
func Dollars(v int) string {
	if v < 0 {
		return "-$" + humanize.Comma(int64(-v))
	}
	return "$" + humanize.Comma(int64(v))
}

// Number formats v with thousands separators and two decimals.
func Number(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// Renderer turns query results into text in one Mode.
type Renderer struct {
	mode Mode
}

// New creates a Renderer.
func New(mode Mode) *Renderer {
	return &Renderer{mode: mode}
}

// BracketSummary describes the average and median income of a year.
func (r *Renderer) BracketSummary(year int, average, median float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For the year %d:\n", year)
	fmt.Fprintf(&b, "The average income was %s\n", Money(average))
	fmt.Fprintf(&b, "The median income was %s\n", Money(median))
	return b.String()
}

// RangeLine answers a range-for-percent query.
func (r *Renderer) RangeLine(percent float64, b models.Bracket) string {
	return fmt.Sprintf("%.2f%% of incomes are below %s.\n", percent, Money(b.Range.Low))
}

// PercentLine answers a percent-for-income query.
func (r *Renderer) PercentLine(income float64, b models.Bracket) string {
	return fmt.Sprintf("An income of %s is in the top %.2f%% of incomes.\n", Money(income), b.CumulativePercent)
}

// Counties lists counties with their median income.
func (r *Renderer) Counties(title string, counties []models.County) string {
	t := r.table(title)
	t.header("State", "County", "Median Income")
	for _, c := range counties {
		t.row(c.State, c.Name, Dollars(c.MedianIncome))
	}
	t.alignRight(3)
	return t.String()
}

// StateAverage describes one state's average county income.
func (r *Renderer) StateAverage(code string, average float64) string {
	return fmt.Sprintf("The average median income for %s is %s.\n", code, Money(average))
}

// States lists state averages.
func (r *Renderer) States(title string, groups []query.GroupResult[string]) string {
	t := r.table(title)
	t.header("State", "Average Median Income", "Counties")
	for _, g := range groups {
		t.row(g.Key, Money(g.Average), g.Count)
	}
	t.alignRight(2, 3)
	return t.String()
}

// RegionExtremes describes the per-capita extremes of a region.
func (r *Renderer) RegionExtremes(region string, e query.Extremes) string {
	var b strings.Builder
	if region == models.AllRegions {
		b.WriteString("Data for all regions:\n\n")
	} else {
		fmt.Fprintf(&b, "Data for the %s region:\n\n", region)
	}
	fmt.Fprintf(&b, "%s has the highest GDP per capita at %s\n", e.MaxGDP.Name, Dollars(e.MaxGDP.GDPPerCapita))
	fmt.Fprintf(&b, "%s has the lowest GDP per capita at %s\n\n", e.MinGDP.Name, Dollars(e.MinGDP.GDPPerCapita))
	fmt.Fprintf(&b, "%s has the highest Income per capita at %s\n", e.MaxIncome.Name, Dollars(e.MaxIncome.IncomePerCapita))
	fmt.Fprintf(&b, "%s has the lowest Income per capita at %s\n", e.MinIncome.Name, Dollars(e.MinIncome.IncomePerCapita))
	return b.String()
}

// Region lists every state summary of a region.
func (r *Renderer) Region(region string, summaries []models.StateSummary) string {
	t := r.table(fmt.Sprintf("Data for all states in the %s region", region))
	header := []string{"State"}
	for _, m := range query.Metrics {
		header = append(header, m.Label())
	}
	t.header(header...)
	for _, s := range summaries {
		t.row(
			s.Display,
			Number(s.PopulationMillions),
			humanize.Comma(int64(s.GDP)),
			humanize.Comma(int64(s.Income)),
			humanize.Comma(int64(s.GDPPerCapita)),
			humanize.Comma(int64(s.IncomePerCapita)),
		)
	}
	t.alignRight(2, 3, 4, 5, 6)
	return t.String()
}

func (r *Renderer) table(title string) *tableBuilder {
	return newTable(r.mode, title)
}

// Exports lists stored exports, newest first.
func (r *Renderer) Exports(exports []models.Export) string {
	t := r.table("Exports")
	t.header("ID", "Created", "Year", "Brackets", "Counties", "States", "Source")
	for _, e := range exports {
		year := "-"
		if e.Year > 0 {
			year = fmt.Sprint(e.Year)
		}
		t.row(e.ID, humanize.Time(e.CreatedAt), year, e.Brackets, e.Counties, e.States, e.Source)
	}
	t.alignRight(4, 5, 6)
	return t.String()
}

// Changes lists county income changes between two exports.
func (r *Renderer) Changes(title string, changes []models.CountyChange) string {
	t := r.table(title)
	t.header("State", "County", "Before", "After", "Change", "Percent")
	for _, c := range changes {
		t.row(c.State, c.Name, Dollars(c.OldIncome), Dollars(c.NewIncome), Dollars(c.Delta), fmt.Sprintf("%+.2f%%", c.Percent))
	}
	t.alignRight(3, 4, 5, 6)
	return t.String()
}
