package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/plot"
	"github.com/rewired-gh/incomelens/internal/query"
)

func newBracketsCmd(a *app) *cobra.Command {
	var (
		year     int
		exportID string
	)

	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Average, median and percentile lookups over a year's income brackets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportID != "" {
				brackets, year, err := a.exportBrackets(exportID)
				if err != nil {
					return err
				}
				return a.runBrackets(brackets, year)
			}
			brackets, year, err := a.chooseYear(year)
			if err != nil || year == 0 {
				return err
			}
			return a.runBrackets(brackets, year)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Survey year; prompts when omitted")
	cmd.Flags().StringVar(&exportID, "export", "", "Read the brackets of a stored export instead of the data files")
	cmd.MarkFlagsMutuallyExclusive("year", "export")
	return cmd
}

// chooseYear loads the table for year, prompting until a year in range with
// a readable file is given. A zero year without error means the input ended.
func (a *app) chooseYear(year int) ([]models.Bracket, int, error) {
	d := a.cfg.Data
	if year != 0 {
		if year < d.MinYear || year > d.MaxYear {
			return nil, 0, fmt.Errorf("year must be between %d and %d", d.MinYear, d.MaxYear)
		}
		brackets, err := a.loadBrackets(year)
		return brackets, year, err
	}

	for {
		answer, ok := a.prompter.ask(fmt.Sprintf("Enter a year where %d <= year <= %d: ", d.MinYear, d.MaxYear))
		if !ok {
			return nil, 0, nil
		}
		y, err := strconv.Atoi(answer)
		if err != nil || y < d.MinYear || y > d.MaxYear {
			a.say("Error in year. Please try again.\n")
			continue
		}
		brackets, err := a.loadBrackets(y)
		if errors.Is(err, os.ErrNotExist) {
			a.say("Error in file name: %s Please try again.\n", d.BracketFile(y))
			continue
		}
		return brackets, y, err
	}
}

func (a *app) runBrackets(brackets []models.Bracket, year int) error {
	average, err := query.AverageIncome(brackets)
	if err != nil {
		return fmt.Errorf("failed to compute average income: %w", err)
	}
	median, ok := query.MedianIncome(brackets)
	if !ok {
		return errors.New("no bracket reaches the fiftieth percentile")
	}
	a.emit(fmt.Sprintf("Income %d", year), a.render.BracketSummary(year, average, median))

	if a.cfg.Plot.Enabled && a.prompter.confirm("Do you want to plot the data (yes/no): ") {
		if err := a.plotBrackets(brackets, year); err != nil {
			return err
		}
	}

	for {
		choice, ok := a.prompter.ask("Enter a choice to get (r)ange, (p)ercent, or nothing to stop: ")
		if !ok || choice == "" {
			return nil
		}
		switch strings.ToLower(choice) {
		case "r":
			a.askRange(brackets)
		case "p":
			a.askPercent(brackets)
		default:
			a.say("Error in selection.\n")
		}
	}
}

func (a *app) plotBrackets(brackets []models.Bracket, year int) error {
	xs, ys := query.CumulativeSeries(brackets, a.cfg.Query.PlotBrackets)
	path := a.cfg.Plot.BracketPath(year)
	fig := plot.Figure{
		Title:  fmt.Sprintf("Cumulative Percent for Income in %d", year),
		XLabel: "Income",
		YLabel: "Cumulative Percent",
		X:      xs,
		Y:      ys,
		Width:  a.cfg.Plot.Width,
		Height: a.cfg.Plot.Height,
	}
	if err := plot.SaveFile(path, plot.Line, fig); err != nil {
		return fmt.Errorf("failed to plot brackets: %w", err)
	}
	a.say("Plot saved to %s\n", path)
	return nil
}

func (a *app) askRange(brackets []models.Bracket) {
	for {
		answer, ok := a.prompter.ask("Enter a percent: ")
		if !ok {
			return
		}
		percent, err := strconv.ParseFloat(answer, 64)
		if err != nil || percent <= 0 || percent >= 100 {
			a.say("Error in percent. Please try again\n")
			continue
		}
		b, found := query.RangeForPercent(brackets, percent)
		if !found {
			a.say("No bracket reaches %.2f%%.\n", percent)
			return
		}
		a.emit("Income range", a.render.RangeLine(percent, b))
		return
	}
}

func (a *app) askPercent(brackets []models.Bracket) {
	for {
		answer, ok := a.prompter.ask("Enter an income: ")
		if !ok {
			return
		}
		income, err := strconv.Atoi(answer)
		if err != nil {
			a.say("Error in income. Please try again\n")
			continue
		}
		if income <= 0 {
			a.say("Error: income must be positive\n")
			continue
		}
		b, found := query.PercentForIncome(brackets, float64(income))
		if !found {
			a.say("No bracket contains an income of %d.\n", income)
			return
		}
		a.emit("Income percentile", a.render.PercentLine(float64(income), b))
		return
	}
}
