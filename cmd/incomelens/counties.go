package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/query"
)

const countyMenu = `
Menu
    1: Average median household income in a state
    2: Highest median household income counties
    3: Lowest median household income counties
    4: Highest average median household income states
    5: Lowest average median household income states
    6: List counties' median household income in a state
`

func newCountiesCmd(a *app) *cobra.Command {
	var exportID string

	cmd := &cobra.Command{
		Use:   "counties",
		Short: "Rank counties and states by median household income",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				counties []models.County
				err      error
			)
			if exportID != "" {
				counties, err = a.exportCounties(exportID)
			} else {
				counties, err = a.loadCounties()
			}
			if err != nil {
				return err
			}
			a.runCounties(counties)
			return nil
		},
	}
	cmd.Flags().StringVar(&exportID, "export", "", "Read the counties of a stored export instead of the data file")
	return cmd
}

func (a *app) runCounties(counties []models.County) {
	n := a.cfg.Query.TopN
	a.say("\nMedian Income Data\n")

	for {
		a.say("%s", countyMenu)
		option, ok := a.prompter.ask("Choose an option, q to quit: ")
		if !ok || strings.EqualFold(option, "q") {
			return
		}

		switch option {
		case "1":
			code, ok := a.askStateCode()
			if !ok {
				return
			}
			if avg, found := query.StateAverage(counties, code); found {
				a.emit("State average", a.render.StateAverage(code, avg))
			} else {
				a.say("There is no county data for %s.\n", code)
			}
		case "2":
			title := fmt.Sprintf("Top %d Counties by Median Household Income", n)
			a.emit(title, a.render.Counties(title, query.TopCounties(counties, n)))
		case "3":
			title := fmt.Sprintf("Bottom %d Counties by Median Household Income", n)
			a.emit(title, a.render.Counties(title, query.BottomCounties(counties, n)))
		case "4":
			title := fmt.Sprintf("Top %d States by Average Median Household Income", n)
			a.emit(title, a.render.States(title, query.TopStates(counties, n)))
		case "5":
			title := fmt.Sprintf("Bottom %d States by Average Median Household Income", n)
			a.emit(title, a.render.States(title, query.BottomStates(counties, n)))
		case "6":
			code, ok := a.askStateCode()
			if !ok {
				return
			}
			in := query.CountiesInState(counties, code)
			title := fmt.Sprintf("There are %d counties in %s", len(in), code)
			if len(in) == 0 {
				a.say("%s\n", title)
				continue
			}
			a.emit(title, a.render.Counties(title, in))
		default:
			a.say("Invalid choice, please try again\n")
		}
	}
}

// askStateCode prompts until a known two-letter code is entered.
func (a *app) askStateCode() (string, bool) {
	for {
		answer, ok := a.prompter.ask("Please enter a 2-letter state code: ")
		if !ok {
			return "", false
		}
		code := strings.ToUpper(answer)
		if models.IsStateCode(code) {
			return code, true
		}
		a.say("Please input a valid state\n")
	}
}
