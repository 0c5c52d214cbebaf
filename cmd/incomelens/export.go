package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/storage"
)

func newExportCmd(a *app) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load every dataset and save it to the export database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = a.cfg.Data.MaxYear
			}
			if year < a.cfg.Data.MinYear || year > a.cfg.Data.MaxYear {
				return fmt.Errorf("year must be between %d and %d", a.cfg.Data.MinYear, a.cfg.Data.MaxYear)
			}

			brackets, err := a.loadBrackets(year)
			if err != nil {
				return err
			}
			counties, err := a.loadCounties()
			if err != nil {
				return err
			}
			states, err := a.loadStates()
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			export, err := store.SaveExport(storage.Snapshot{
				Source:   fmt.Sprintf("%s, %s, %s", a.cfg.Data.BracketFile(year), a.cfg.Data.CountyFile, a.cfg.Data.IncomeFile),
				Year:     year,
				Brackets: brackets,
				Counties: counties,
				States:   states,
			})
			if err != nil {
				return fmt.Errorf("failed to save export: %w", err)
			}
			logger.Info("Saved export %s to %s", export.ID, a.cfg.Storage.DBPath)
			a.emit("Export", a.render.Exports([]models.Export{*export}))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Bracket year to export (defaults to data.max_year)")
	return cmd
}

func newExportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List saved exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			exports, err := store.Exports()
			if err != nil {
				return err
			}
			a.say("%s", a.render.Exports(exports))
			return nil
		},
	}
}

func (a *app) openStore() (*storage.Storage, error) {
	store, err := storage.Open(a.cfg.Storage.DBPath, a.cfg.Storage.MaxExports)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.Storage) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}
