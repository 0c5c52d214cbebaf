// Package models defines the record types produced by the loader and consumed
// by the query engine. Records are plain values: once loaded they are never
// mutated, and every type carries a Validate method that the loaders call
// before a record enters a relation.
//
// Terminology:
//   - Bracket: one income range row of a yearly distribution table.
//   - County: one county row of the median household income table.
//   - StateAggregate: one state's income, GDP and population, joined by name.
package models

import (
	"errors"
	"fmt"
)

// Interval is a closed income range [Low, High].
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies within the interval, bounds included.
func (i Interval) Contains(v float64) bool {
	return i.Low <= v && v <= i.High
}

func (i Interval) String() string {
	return fmt.Sprintf("%.2f-%.2f", i.Low, i.High)
}

// Bracket is one row of an income distribution table. Brackets are stored in
// source order, which is ascending by CumulativePercent.
type Bracket struct {
	Range             Interval `json:"range"`
	Count             int      `json:"count"`              // Households in this bracket
	CumulativeCount   int      `json:"cumulative_count"`   // Households in this and all lower brackets
	CumulativePercent float64  `json:"cumulative_percent"` // Percent of households at or below this bracket
	AggregateIncome   float64  `json:"aggregate_income"`   // Summed income of the bracket
	AverageIncome     float64  `json:"average_income"`
}

// Validate checks that all bracket fields are valid.
func (b *Bracket) Validate() error {
	if b.Range.Low > b.Range.High {
		return errors.New("bracket low bound must be <= high bound")
	}
	if b.Count < 0 {
		return errors.New("bracket count must not be negative")
	}
	if b.CumulativeCount < b.Count {
		return errors.New("cumulative count must be >= bracket count")
	}
	if b.CumulativePercent < 0 || b.CumulativePercent > 100.0001 {
		return errors.New("cumulative percent must be between 0 and 100")
	}
	if b.AggregateIncome < 0 {
		return errors.New("aggregate income must not be negative")
	}
	return nil
}
