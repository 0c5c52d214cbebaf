package models

import (
	"errors"
	"strings"
)

// Regions lists the BEA regions that appear as marker rows in the state
// income table.
var Regions = []string{
	"Far West", "Great Lakes", "Mideast", "New England", "Plains",
	"Rocky Mountain", "Southeast", "Southwest",
}

// AllRegions selects every state regardless of region.
const AllRegions = "all"

// StateNames is the set of full state names (fifty states plus the District
// of Columbia) accepted by the GDP enrichment pass.
var StateNames = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "District of Columbia", "Florida",
	"Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
	"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
	"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island",
	"South Carolina", "South Dakota", "Tennessee", "Texas", "Utah",
	"Vermont", "Virginia", "Washington", "West Virginia", "Wisconsin",
	"Wyoming",
}

// IsRegion reports whether name is one of Regions.
func IsRegion(name string) bool {
	for _, r := range Regions {
		if r == name {
			return true
		}
	}
	return false
}

// IsStateName reports whether name is one of StateNames.
func IsStateName(name string) bool {
	for _, s := range StateNames {
		if s == name {
			return true
		}
	}
	return false
}

// DisplayName shortens names that do not fit a table column.
func DisplayName(state string) string {
	if state == "District of Columbia" {
		return "DC"
	}
	return state
}

// StateAggregate holds one state's figures, joined across the income, GDP
// and population files by state name. Income and GDP are in millions of
// dollars, population in millions of people.
type StateAggregate struct {
	Name               string  `json:"name"`
	Region             string  `json:"region"`
	Income             int     `json:"income"`
	GDP                int     `json:"gdp"`
	PopulationMillions float64 `json:"population_millions"`
	HasGDP             bool    `json:"has_gdp"`
	HasPopulation      bool    `json:"has_population"`
}

// Complete reports whether both enrichment passes reached this state.
func (s *StateAggregate) Complete() bool {
	return s.HasGDP && s.HasPopulation
}

// Validate checks that all state fields are valid.
func (s *StateAggregate) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("state name must not be empty")
	}
	if s.Income < 0 {
		return errors.New("income must not be negative")
	}
	if s.HasGDP && s.GDP < 0 {
		return errors.New("GDP must not be negative")
	}
	if s.HasPopulation && s.PopulationMillions < 0 {
		return errors.New("population must not be negative")
	}
	return nil
}

// StateSummary is the per-state row shown by the region tool, with
// per-capita values derived from a complete StateAggregate.
type StateSummary struct {
	Name               string  `json:"name"`    // Full state name
	Display            string  `json:"display"` // Name as shown in tables
	Region             string  `json:"region"`
	PopulationMillions float64 `json:"population_millions"`
	GDP                int     `json:"gdp"`
	Income             int     `json:"income"`
	GDPPerCapita       int     `json:"gdp_per_capita"`
	IncomePerCapita    int     `json:"income_per_capita"`
}
