package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/plot"
	"github.com/rewired-gh/incomelens/internal/query"
)

func newRegionsCmd(a *app) *cobra.Command {
	var exportID string

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Per-capita income and GDP by BEA region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				states *models.StateMap
				err    error
			)
			if exportID != "" {
				states, err = a.exportStates(exportID)
			} else {
				states, err = a.loadStates()
			}
			if err != nil {
				return err
			}
			return a.runRegions(states)
		},
	}
	cmd.Flags().StringVar(&exportID, "export", "", "Read the states of a stored export instead of the data files")
	return cmd
}

func regionPrompt() string {
	return "\nSpecify a region from this list or 'q' to quit -- \n" +
		strings.Join(models.Regions, ", ") + ", " + models.AllRegions + ": "
}

func (a *app) runRegions(states *models.StateMap) error {
	for {
		region, ok := a.prompter.ask(regionPrompt())
		if !ok || strings.EqualFold(region, "q") {
			return nil
		}

		summaries, ok := query.RegionStates(states, region)
		if !ok {
			continue
		}
		extremes, ok := query.RegionExtremes(summaries)
		if !ok {
			a.say("No complete state data for the %s region.\n", region)
			continue
		}

		title := "Region " + region
		a.emit(title, a.render.RegionExtremes(region, extremes)+"\n"+a.render.Region(region, summaries))

		if a.cfg.Plot.Enabled && a.prompter.confirm("\nDo you want to create a plot? ") {
			if err := a.plotRegion(summaries); err != nil {
				return err
			}
		}
	}
}

// askMetrics prompts until two valid metric codes are given.
func (a *app) askMetrics() (x, y query.Metric, ok bool) {
	codes := make([]string, len(query.Metrics))
	for i, m := range query.Metrics {
		codes[i] = m.String()
	}
	question := "Specify x and y values, space separated from " + strings.Join(codes, ", ") + ": "

	for {
		answer, more := a.prompter.ask(question)
		if !more {
			return 0, 0, false
		}
		fields := strings.Fields(answer)
		if len(fields) == 2 {
			mx, okX := query.ParseMetric(fields[0])
			my, okY := query.ParseMetric(fields[1])
			if okX && okY {
				return mx, my, true
			}
		}
		a.say("Error in selection. Please try again.\n")
	}
}

func (a *app) plotRegion(summaries []models.StateSummary) error {
	x, y, ok := a.askMetrics()
	if !ok {
		return nil
	}
	xs, ys, labels := query.Series(summaries, x, y)
	fig := plot.Figure{
		Title:  x.Label() + " vs. " + y.Label(),
		XLabel: x.Label(),
		YLabel: y.Label(),
		X:      xs,
		Y:      ys,
		Labels: labels,
		Width:  a.cfg.Plot.Width,
		Height: a.cfg.Plot.Height,
	}
	path := a.cfg.Plot.RegionPath()
	err := plot.SaveFile(path, plot.Scatter, fig)
	switch {
	case errors.Is(err, plot.ErrTooFewPoints):
		a.say("A plot needs at least two states.\n")
		return nil
	case errors.Is(err, plot.ErrFlatSeries):
		a.say("Cannot plot %s vs. %s: every state has the same value on one axis.\n", x.Label(), y.Label())
		return nil
	case err != nil:
		return fmt.Errorf("failed to plot region: %w", err)
	}
	a.say("Plot saved to %s\n", path)
	return nil
}
