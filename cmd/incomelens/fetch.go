package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/fetch"
	"github.com/rewired-gh/incomelens/internal/logger"
)

type download struct {
	url  string
	dest string
}

func newFetchCmd(a *app) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the configured source files into the data paths",
		Long: "fetch downloads every source file with a configured URL to the path\n" +
			"the other commands read it from. Bracket tables are fetched for every\n" +
			"year in range unless --year is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year != 0 && (year < a.cfg.Data.MinYear || year > a.cfg.Data.MaxYear) {
				return fmt.Errorf("year must be between %d and %d", a.cfg.Data.MinYear, a.cfg.Data.MaxYear)
			}
			downloads := a.downloads(year)
			if len(downloads) == 0 {
				a.say("No source URLs are configured.\n")
				return nil
			}

			f := a.cfg.Fetch
			client := fetch.NewClient(f.Timeout, f.MaxRetries, f.RetryDelayBase)
			failed := 0
			for _, d := range downloads {
				n, err := client.Download(cmd.Context(), d.url, d.dest)
				if err != nil {
					failed++
					logger.Error("%v", err)
					continue
				}
				a.say("%s: %s\n", d.dest, humanize.Bytes(uint64(n)))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(downloads))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Fetch only this year's bracket table")
	return cmd
}

// downloads lists every configured source with its destination path.
func (a *app) downloads(year int) []download {
	f, d := a.cfg.Fetch, a.cfg.Data
	var out []download

	if f.BracketURL != "" {
		from, to := d.MinYear, d.MaxYear
		if year != 0 {
			from, to = year, year
		}
		for y := from; y <= to; y++ {
			out = append(out, download{url: fmt.Sprintf(f.BracketURL, y), dest: d.BracketFile(y)})
		}
	}
	for _, s := range []download{
		{f.CountyURL, d.CountyFile},
		{f.IncomeURL, d.IncomeFile},
		{f.GDPURL, d.GDPFile},
		{f.PopulationURL, d.PopulationFile},
	} {
		if s.url != "" {
			out = append(out, s)
		}
	}
	return out
}
