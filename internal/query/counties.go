package query

import "github.com/rewired-gh/incomelens/internal/models"

func countyIncome(c models.County) float64 { return float64(c.MedianIncome) }
func countyState(c models.County) string   { return c.State }

// TopCounties returns the n counties with the highest median income, highest
// first.
func TopCounties(counties []models.County, n int) []models.County {
	return RankTopN(counties, countyIncome, n, true)
}

// BottomCounties returns the n counties with the lowest median income. The
// list is ordered highest first, so the poorest county comes last.
func BottomCounties(counties []models.County, n int) []models.County {
	return RankBottomN(counties, countyIncome, n)
}

// StateAverages averages county median income per state code, one result
// per code in models.StateCodes.
func StateAverages(counties []models.County) GroupResults[string] {
	return GroupAverage(counties, countyState, countyIncome, models.StateCodes)
}

// StateAverage returns the average county median income of one state. ok is
// false for unknown codes and for states without counties.
func StateAverage(counties []models.County, code string) (float64, bool) {
	res := StateAverages(counties).Lookup(code)
	return res.Average, res.HasData
}

// TopStates returns the n states with the highest average, highest first.
func TopStates(counties []models.County, n int) []GroupResult[string] {
	return RankGroups(StateAverages(counties), n, true)
}

// BottomStates returns the n states with the lowest average, lowest first.
func BottomStates(counties []models.County, n int) []GroupResult[string] {
	return RankGroups(StateAverages(counties), n, false)
}

// CountiesInState returns the counties of one state sorted by county name.
func CountiesInState(counties []models.County, code string) []models.County {
	return FilterByKey(counties, countyState, code, func(a, b models.County) bool {
		return a.Name < b.Name
	})
}
