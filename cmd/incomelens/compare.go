package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/compare"
	"github.com/rewired-gh/incomelens/internal/logger"
)

func newCompareCmd(a *app) *cobra.Command {
	var byState bool

	cmd := &cobra.Command{
		Use:   "compare [old-export new-export]",
		Short: "Show the largest county income changes between two exports",
		Long: "compare matches counties across two stored exports and lists the\n" +
			"largest relative changes in median income. Without arguments the two\n" +
			"newest exports are compared.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("expected no arguments or two export IDs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			c := compare.New(store)
			var oldID, newID string
			if len(args) == 2 {
				oldID, newID = args[0], args[1]
			} else if oldID, newID, err = c.Latest(); err != nil {
				return err
			}

			changes, errs, err := c.Counties(oldID, newID, a.cfg.Query.MinChangePct)
			if err != nil {
				return fmt.Errorf("failed to compare exports: %w", err)
			}
			for _, e := range errs {
				logger.Debug("Compare: %v", e)
			}
			if len(errs) > 0 {
				logger.Info("%d counties could not be matched between exports", len(errs))
			}

			if len(changes) == 0 {
				a.say("No county moved by %.2f%% or more.\n", a.cfg.Query.MinChangePct)
				return nil
			}

			n := a.cfg.Query.TopN
			if !byState {
				title := fmt.Sprintf("Top %d County Income Changes", n)
				a.emit(title, a.render.Changes(title, compare.Rank(changes, n)))
				return nil
			}
			for _, g := range compare.GroupByState(compare.Rank(changes, len(changes))) {
				title := fmt.Sprintf("%s: largest change %.2f%%", g.State, g.BestPercent)
				a.emit(title, a.render.Changes(title, compare.Rank(g.Changes, n)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byState, "by-state", false, "Group changes by state")
	return cmd
}
