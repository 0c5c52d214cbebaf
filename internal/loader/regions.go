package loader

import (
	"io"
	"math"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
)

// LoadRegionIncome builds the state mapping from the personal income CSV.
// Region rows tag the states listed under them. Trailer lines (blank name or
// too few fields) are skipped; a state row whose income does not convert
// fails the load with a *ParseError.
func LoadRegionIncome(r io.Reader, layout Layout) (*models.StateMap, error) {
	if err := layout.require(requiredColumns[LayoutRegionIncome]...); err != nil {
		return nil, err
	}
	rows, err := Load(r, layout)
	if err != nil {
		return nil, err
	}

	states := models.NewStateMap()
	for _, row := range rows {
		name := row.Get("name").String()
		if name == "" || !row.Get("income").Present {
			logger.Debug("Line %d: skipping non-data row", row.Line)
			continue
		}

		income, err := requireInt(row, "income")
		if err != nil {
			return nil, err
		}
		states.Put(models.StateAggregate{
			Name:   name,
			Region: row.Group,
			Income: income,
		})
	}

	logger.Debug("Loaded income for %d states", states.Len())
	return states, nil
}

// EnrichGDP adds GDP to states already in m. Rows naming anything other than
// a state, or a state absent from m, are region subtotals and are skipped
// without error. It returns the number of states enriched.
func EnrichGDP(r io.Reader, layout Layout, m *models.StateMap) (int, error) {
	if err := layout.require(requiredColumns[LayoutGDP]...); err != nil {
		return 0, err
	}
	rows, err := Load(r, layout)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for _, row := range rows {
		name := row.Get("name").String()
		if !models.IsStateName(name) {
			continue
		}
		gdp, ok := row.Get("gdp").Int()
		if !ok {
			logger.Debug("Line %d: skipping %s with unparsable GDP %q", row.Line, name, row.Get("gdp").Raw)
			continue
		}
		if m.Enrich(name, func(s *models.StateAggregate) {
			s.GDP = int(gdp)
			s.HasGDP = true
		}) {
			enriched++
		}
	}

	logger.Debug("Enriched %d states with GDP", enriched)
	return enriched, nil
}

// EnrichPopulation adds population, in millions rounded to two decimals, to
// states already in m. Unknown names are skipped without error.
func EnrichPopulation(r io.Reader, layout Layout, m *models.StateMap) (int, error) {
	if err := layout.require(requiredColumns[LayoutPopulation]...); err != nil {
		return 0, err
	}
	rows, err := Load(r, layout)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for _, row := range rows {
		name := row.Get("name").String()
		pop, ok := row.Get("population").Int()
		if !ok {
			logger.Debug("Line %d: skipping %q with unparsable population %q", row.Line, name, row.Get("population").Raw)
			continue
		}
		millions := ToMillions(pop)
		if m.Enrich(name, func(s *models.StateAggregate) {
			s.PopulationMillions = millions
			s.HasPopulation = true
		}) {
			enriched++
		}
	}

	logger.Debug("Enriched %d states with population", enriched)
	return enriched, nil
}

// ToMillions converts a head count to millions rounded to two decimals,
// halves to even.
func ToMillions(n int64) float64 {
	return math.RoundToEven(float64(n)/1e4) / 100
}
