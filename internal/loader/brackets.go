package loader

import (
	"fmt"
	"io"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
)

// LoadBrackets reads an income distribution table. Every column is required:
// the range bounds in particular must both convert, so a malformed line fails
// the load with a *ParseError instead of producing a half-built interval.
// Brackets keep source order.
func LoadBrackets(r io.Reader, layout Layout) ([]models.Bracket, error) {
	if err := layout.require(requiredColumns[LayoutBrackets]...); err != nil {
		return nil, err
	}
	rows, err := Load(r, layout)
	if err != nil {
		return nil, err
	}

	brackets := make([]models.Bracket, 0, len(rows))
	for _, row := range rows {
		b, err := bracketFromRow(row)
		if err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}

	checkBrackets(brackets)
	logger.Debug("Loaded %d income brackets", len(brackets))
	return brackets, nil
}

func bracketFromRow(row Row) (models.Bracket, error) {
	var (
		b   models.Bracket
		err error
	)
	if b.Range.Low, err = requireFloat(row, "low"); err != nil {
		return b, err
	}
	if b.Range.High, err = requireFloat(row, "high"); err != nil {
		return b, err
	}
	if b.Count, err = requireInt(row, "count"); err != nil {
		return b, err
	}
	if b.CumulativeCount, err = requireInt(row, "cumulative_count"); err != nil {
		return b, err
	}
	if b.CumulativePercent, err = requireFloat(row, "cumulative_percent"); err != nil {
		return b, err
	}
	if b.AggregateIncome, err = requireFloat(row, "aggregate_income"); err != nil {
		return b, err
	}
	if b.AverageIncome, err = requireFloat(row, "average_income"); err != nil {
		return b, err
	}
	if err := b.Validate(); err != nil {
		return b, fmt.Errorf("line %d: invalid bracket: %w", row.Line, err)
	}
	return b, nil
}

// checkBrackets warns about relations that break the ordering the threshold
// lookups rely on. It never rejects the data.
func checkBrackets(brackets []models.Bracket) {
	if len(brackets) == 0 {
		return
	}
	total := 0
	for i, b := range brackets {
		total += b.Count
		if i > 0 && b.CumulativePercent < brackets[i-1].CumulativePercent {
			logger.Warn("Bracket %d: cumulative percent %.2f decreases from %.2f",
				i, b.CumulativePercent, brackets[i-1].CumulativePercent)
		}
	}
	if last := brackets[len(brackets)-1]; last.CumulativeCount != total {
		logger.Warn("Final cumulative count %d differs from summed bracket counts %d", last.CumulativeCount, total)
	}
}
