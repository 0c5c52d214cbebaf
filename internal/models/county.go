package models

import (
	"errors"
	"fmt"
	"strings"
)

// StateCodes is the fixed set of two-letter codes a county may belong to:
// the fifty states plus DC, in the order the county tool ranks them.
var StateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DC", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

var stateCodeSet = func() map[string]bool {
	set := make(map[string]bool, len(StateCodes))
	for _, code := range StateCodes {
		set[code] = true
	}
	return set
}()

// IsStateCode reports whether code is one of StateCodes. The check is
// case sensitive; callers normalise user input first.
func IsStateCode(code string) bool {
	return stateCodeSet[code]
}

// County is one county's median household income.
type County struct {
	State        string `json:"state"`
	Name         string `json:"county"`
	MedianIncome int    `json:"median_income"`
}

// Validate checks that all county fields are valid.
func (c *County) Validate() error {
	if !IsStateCode(c.State) {
		return fmt.Errorf("unknown state code %q", c.State)
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("county name must not be empty")
	}
	if c.MedianIncome < 0 {
		return errors.New("median income must not be negative")
	}
	return nil
}

// SplitPlace splits a "County Name, ST" place string into county name and
// state code, trimming both. ok is false when there is no comma.
func SplitPlace(place string) (county, state string, ok bool) {
	idx := strings.LastIndex(place, ",")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(place[:idx]), strings.TrimSpace(place[idx+1:]), true
}
