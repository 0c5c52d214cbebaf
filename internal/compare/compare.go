// Package compare detects county median income changes between two stored
// exports.
//
// Counties are matched by state code and name. A change is reported when the
// relative move is at least the minimum percent; counties present in only one
// export come back as detection errors, never as changes.
//
// Use Rank to order changes by size and GroupByState to collect them per
// state.
package compare

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/query"
	"github.com/rewired-gh/incomelens/internal/storage"
)

var (
	// ErrAdded marks a county only the newer export has.
	ErrAdded = errors.New("county added")
	// ErrRemoved marks a county only the older export has.
	ErrRemoved = errors.New("county removed")
	// ErrZeroBase marks a county whose older income is zero.
	ErrZeroBase = errors.New("older income is zero")
)

// DetectionError is a per-county problem found while comparing.
type DetectionError struct {
	State string
	Name  string
	Err   error
}

func (e DetectionError) Error() string {
	return fmt.Sprintf("%s, %s: %v", e.Name, e.State, e.Err)
}

func (e DetectionError) Unwrap() error { return e.Err }

// Comparer compares exports held in a store.
type Comparer struct {
	storage *storage.Storage
}

// New creates a Comparer.
func New(s *storage.Storage) *Comparer {
	return &Comparer{storage: s}
}

// Counties compares the counties of two exports. Unknown export IDs are a
// fatal error; per-county problems are returned alongside the changes.
func (c *Comparer) Counties(oldID, newID string, minPercent float64) ([]models.CountyChange, []DetectionError, error) {
	for _, id := range []string{oldID, newID} {
		if _, err := c.storage.GetExport(id); err != nil {
			return nil, nil, err
		}
	}
	older, err := c.storage.Counties(oldID)
	if err != nil {
		return nil, nil, err
	}
	newer, err := c.storage.Counties(newID)
	if err != nil {
		return nil, nil, err
	}
	changes, errs := DetectCountyChanges(older, newer, minPercent)
	return changes, errs, nil
}

// Latest returns the IDs of the two newest exports, older first.
func (c *Comparer) Latest() (oldID, newID string, err error) {
	exports, err := c.storage.Exports()
	if err != nil {
		return "", "", err
	}
	if len(exports) < 2 {
		return "", "", fmt.Errorf("need two exports to compare, have %d", len(exports))
	}
	return exports[1].ID, exports[0].ID, nil
}

type countyKey struct{ state, name string }

// DetectCountyChanges matches counties by state and name and reports every
// county whose income moved by at least minPercent of its older value. A
// minPercent of zero keeps every county whose income moved at all. Changes
// follow the order of newer.
func DetectCountyChanges(older, newer []models.County, minPercent float64) ([]models.CountyChange, []DetectionError) {
	base := make(map[countyKey]models.County, len(older))
	for _, c := range older {
		base[countyKey{c.State, c.Name}] = c
	}

	changes := []models.CountyChange{}
	var errs []DetectionError
	seen := make(map[countyKey]bool, len(newer))
	belowFloor := 0

	for _, c := range newer {
		key := countyKey{c.State, c.Name}
		seen[key] = true
		old, ok := base[key]
		if !ok {
			errs = append(errs, DetectionError{State: c.State, Name: c.Name, Err: ErrAdded})
			continue
		}
		if old.MedianIncome == 0 {
			errs = append(errs, DetectionError{State: c.State, Name: c.Name, Err: ErrZeroBase})
			continue
		}

		delta := c.MedianIncome - old.MedianIncome
		if delta == 0 {
			continue
		}
		percent := query.Round2(float64(delta) / float64(old.MedianIncome) * 100)
		if math.Abs(percent) < minPercent {
			belowFloor++
			continue
		}

		direction := models.Increase
		if delta < 0 {
			direction = models.Decrease
		}
		changes = append(changes, models.CountyChange{
			State:     c.State,
			Name:      c.Name,
			OldIncome: old.MedianIncome,
			NewIncome: c.MedianIncome,
			Delta:     delta,
			Percent:   percent,
			Direction: direction,
		})
	}

	for _, c := range older {
		if !seen[countyKey{c.State, c.Name}] {
			errs = append(errs, DetectionError{State: c.State, Name: c.Name, Err: ErrRemoved})
		}
	}

	logger.Debug("DetectCountyChanges: %d changes, %d below floor, %d unmatched",
		len(changes), belowFloor, len(errs))
	return changes, errs
}

// Rank returns at most k changes ordered by absolute percent, largest first.
// Ties are broken by state then county name. The result is never nil.
func Rank(changes []models.CountyChange, k int) []models.CountyChange {
	if k <= 0 || len(changes) == 0 {
		return []models.CountyChange{}
	}
	ranked := make([]models.CountyChange, len(changes))
	copy(ranked, changes)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := math.Abs(ranked[i].Percent), math.Abs(ranked[j].Percent)
		if a != b {
			return a > b
		}
		if ranked[i].State != ranked[j].State {
			return ranked[i].State < ranked[j].State
		}
		return ranked[i].Name < ranked[j].Name
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// GroupByState collects changes per state. Changes within a group are ordered
// by absolute percent, largest first; groups keep the order in which their
// state first appears.
func GroupByState(changes []models.CountyChange) []models.StateChanges {
	groups := make(map[string]*models.StateChanges)
	var order []string

	for _, c := range changes {
		g, ok := groups[c.State]
		if !ok {
			g = &models.StateChanges{State: c.State, Changes: []models.CountyChange{}}
			groups[c.State] = g
			order = append(order, c.State)
		}
		g.Changes = append(g.Changes, c)
		if p := math.Abs(c.Percent); p > g.BestPercent {
			g.BestPercent = p
		}
	}

	result := make([]models.StateChanges, 0, len(order))
	for _, state := range order {
		g := *groups[state]
		g.Changes = Rank(g.Changes, len(g.Changes))
		result = append(result, g)
	}
	return result
}
