package loader

import (
	"io"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
)

// LoadCounties reads the county median income CSV. Rows whose income is blank
// or unparsable, or whose place does not end in a known state code, are
// dropped; they never enter the relation as nulls. The result keeps source
// order, which callers must not rely on for ranking.
func LoadCounties(r io.Reader, layout Layout) ([]models.County, error) {
	if err := layout.require(requiredColumns[LayoutCounties]...); err != nil {
		return nil, err
	}
	rows, err := Load(r, layout)
	if err != nil {
		return nil, err
	}

	counties := make([]models.County, 0, len(rows))
	noIncome, badPlace := 0, 0
	for _, row := range rows {
		income, ok := row.Get("median_income").Int()
		if !ok {
			noIncome++
			logger.Debug("Line %d: dropping county without income (%q)", row.Line, row.Get("median_income").Raw)
			continue
		}

		name, state, ok := models.SplitPlace(row.Get("place").String())
		c := models.County{State: state, Name: name, MedianIncome: int(income)}
		if !ok || c.Validate() != nil {
			badPlace++
			logger.Debug("Line %d: dropping county with unusable place %q", row.Line, row.Get("place").Raw)
			continue
		}
		counties = append(counties, c)
	}

	if noIncome > 0 || badPlace > 0 {
		logger.Info("Dropped %d counties without income and %d with unknown place", noIncome, badPlace)
	}
	logger.Debug("Loaded %d counties", len(counties))
	return counties, nil
}
