package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rewired-gh/incomelens/internal/loader"
	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/storage"
)

// withFile opens path, hands it to load and closes it again.
func withFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	v, err := load(f)
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return v, nil
}

func (a *app) loadBrackets(year int) ([]models.Bracket, error) {
	path := a.cfg.Data.BracketFile(year)
	brackets, err := withFile(path, func(r io.Reader) ([]models.Bracket, error) {
		return loader.LoadBrackets(r, a.layouts[loader.LayoutBrackets])
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d brackets from %s", len(brackets), path)
	return brackets, nil
}

func (a *app) loadCounties() ([]models.County, error) {
	path := a.cfg.Data.CountyFile
	counties, err := withFile(path, func(r io.Reader) ([]models.County, error) {
		return loader.LoadCounties(r, a.layouts[loader.LayoutCounties])
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d counties from %s", len(counties), path)
	return counties, nil
}

// loadStates runs the three region passes: income builds the keys, GDP and
// population enrich them.
func (a *app) loadStates() (*models.StateMap, error) {
	states, err := withFile(a.cfg.Data.IncomeFile, func(r io.Reader) (*models.StateMap, error) {
		return loader.LoadRegionIncome(r, a.layouts[loader.LayoutRegionIncome])
	})
	if err != nil {
		return nil, err
	}

	gdp, err := withFile(a.cfg.Data.GDPFile, func(r io.Reader) (int, error) {
		return loader.EnrichGDP(r, a.layouts[loader.LayoutGDP], states)
	})
	if err != nil {
		return nil, err
	}

	pop, err := withFile(a.cfg.Data.PopulationFile, func(r io.Reader) (int, error) {
		return loader.EnrichPopulation(r, a.layouts[loader.LayoutPopulation], states)
	})
	if err != nil {
		return nil, err
	}

	if gdp < states.Len() || pop < states.Len() {
		logger.Warn("Only %d of %d states have GDP and %d have population", gdp, states.Len(), pop)
	}
	logger.Info("Loaded %d states", states.Len())
	return states, nil
}

// withExport opens the store, checks that id names an export and hands both
// to load.
func withExport[T any](a *app, id string, load func(*storage.Storage, *models.Export) (T, error)) (T, error) {
	var zero T
	store, err := a.openStore()
	if err != nil {
		return zero, err
	}
	defer closeStore(store)

	export, err := store.GetExport(id)
	if err != nil {
		return zero, err
	}
	return load(store, export)
}

// exportBrackets reloads the brackets of a stored export and its year.
func (a *app) exportBrackets(id string) ([]models.Bracket, int, error) {
	var year int
	brackets, err := withExport(a, id, func(s *storage.Storage, e *models.Export) ([]models.Bracket, error) {
		if e.Brackets == 0 {
			return nil, fmt.Errorf("export %s holds no brackets", e.ID)
		}
		year = e.Year
		return s.Brackets(e.ID)
	})
	if err != nil {
		return nil, 0, err
	}
	logger.Info("Loaded %d brackets for %d from export %s", len(brackets), year, id)
	return brackets, year, nil
}

func (a *app) exportCounties(id string) ([]models.County, error) {
	counties, err := withExport(a, id, func(s *storage.Storage, e *models.Export) ([]models.County, error) {
		return s.Counties(e.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d counties from export %s", len(counties), id)
	return counties, nil
}

func (a *app) exportStates(id string) (*models.StateMap, error) {
	states, err := withExport(a, id, func(s *storage.Storage, e *models.Export) (*models.StateMap, error) {
		return s.States(e.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d states from export %s", states.Len(), id)
	return states, nil
}
