package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/incomelens/internal/storage"
)

// writeConfig points every data file at testdata and every output at a
// fresh temp dir, then returns the config path and the temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	data, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatalf("failed to resolve testdata: %v", err)
	}
	dir := t.TempDir()

	cfg := fmt.Sprintf(`data:
  bracket_dir: %[1]s
  bracket_pattern: "year%%d.txt"
  min_year: 2018
  max_year: 2019
  county_file: %[1]s/counties.csv
  income_file: %[1]s/income.csv
  gdp_file: %[1]s/gdp.csv
  population_file: %[1]s/pop.csv
query:
  top_n: 3
plot:
  enabled: true
  output_dir: %[2]s/plots
  region_file: region.png
storage:
  db_path: %[2]s/incomelens.db
logging:
  level: error
`, data, dir)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path, dir
}

// run executes the root command with stdin and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n--- output ---\n%s", w, out)
		}
	}
}

func TestBracketsCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	stdin := strings.Join([]string{
		"2017", // out of range
		"2018", // no file for that year
		"2019",
		"yes",
		"x",
		"r", "150", "50",
		"p", "abc", "-5", "30000",
		"",
	}, "\n") + "\n"

	out, err := run(t, stdin, "brackets", "--config", cfgPath)
	if err != nil {
		t.Fatalf("brackets failed: %v", err)
	}

	assertContains(t, out,
		"Error in year. Please try again.",
		"Error in file name:",
		"For the year 2019:",
		"The average income was $35,450.00",
		"The median income was $17,500.00",
		"Error in selection.",
		"Error in percent. Please try again",
		"50.00% of incomes are below $10,000.00.",
		"Error in income. Please try again",
		"Error: income must be positive",
		"An income of $30,000.00 is in the top 80.00% of incomes.",
	)

	plot := filepath.Join(dir, "plots", "cumulative_2019.png")
	if _, err := os.Stat(plot); err != nil {
		t.Errorf("expected plot at %s: %v", plot, err)
	}
}

func TestBracketsYearFlag(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "no\n\n", "brackets", "--config", cfgPath, "--year", "2019")
	if err != nil {
		t.Fatalf("brackets failed: %v", err)
	}
	assertContains(t, out, "The median income was $17,500.00")

	if _, err := run(t, "", "brackets", "--config", cfgPath, "--year", "1800"); err == nil {
		t.Error("expected error for a year outside the configured range")
	}
}

func TestBracketsEndOfInput(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "", "brackets", "--config", cfgPath)
	if err != nil {
		t.Fatalf("brackets failed: %v", err)
	}
	if strings.Contains(out, "For the year") {
		t.Errorf("expected no summary without a year, got:\n%s", out)
	}
}

func TestCountiesCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	stdin := strings.Join([]string{
		"2", "3", "4", "5",
		"1", "zz", "mi",
		"6", "MI",
		"9",
		"q",
	}, "\n") + "\n"

	out, err := run(t, stdin, "counties", "--config", cfgPath)
	if err != nil {
		t.Fatalf("counties failed: %v", err)
	}

	assertContains(t, out,
		"Median Income Data",
		"Top 3 Counties by Median Household Income",
		"Loudoun County", "$142,299",
		"Bottom 3 Counties by Median Household Income",
		"Holmes County", "$22,045",
		"Top 3 States by Average Median Household Income",
		"$100,659.33",
		"Bottom 3 States by Average Median Household Income",
		"$32,583.50",
		"Please input a valid state",
		"The average median income for MI is $52,824.33.",
		"There are 3 counties in MI",
		"Alger County",
		"Invalid choice, please try again",
	)
	if strings.Contains(out, "Suppressed County") || strings.Contains(out, "United States") {
		t.Errorf("rows without income or state must be dropped:\n%s", out)
	}
}

func TestCountiesMarkdown(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "2\nq\n", "counties", "--config", cfgPath, "--format", "markdown")
	if err != nil {
		t.Fatalf("counties failed: %v", err)
	}
	assertContains(t, out,
		"**Top 3 Counties by Median Household Income**",
		"| State | County | Median Income |",
	)
}

func TestRegionsCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	stdin := strings.Join([]string{
		"Nowhere",
		"Great Lakes",
		"yes",
		"foo",
		"GDP PIp",
		"q",
	}, "\n") + "\n"

	out, err := run(t, stdin, "regions", "--config", cfgPath)
	if err != nil {
		t.Fatalf("regions failed: %v", err)
	}

	assertContains(t, out,
		"Data for the Great Lakes region:",
		"Ohio has the highest GDP per capita at $59,880",
		"Michigan has the lowest GDP per capita at $54,054",
		"Ohio has the highest Income per capita at $51,326",
		"Michigan has the lowest Income per capita at $50,050",
		"Error in selection. Please try again.",
		"Plot saved to",
	)
	if strings.Contains(out, "Iowa") {
		t.Errorf("Great Lakes output must not list Iowa:\n%s", out)
	}
	if strings.Count(out, "Specify a region") != 3 {
		t.Errorf("expected three region prompts, got:\n%s", out)
	}

	plot := filepath.Join(dir, "plots", "region.png")
	if _, err := os.Stat(plot); err != nil {
		t.Errorf("expected plot at %s: %v", plot, err)
	}
}

func TestRegionsFlatPlot(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	// Montana and Idaho both round to 1.07 million people.
	stdin := strings.Join([]string{
		"Rocky Mountain",
		"yes",
		"Pop GDP",
		"q",
	}, "\n") + "\n"

	out, err := run(t, stdin, "regions", "--config", cfgPath)
	if err != nil {
		t.Fatalf("regions must keep running after an unplottable request: %v", err)
	}
	assertContains(t, out,
		"Idaho has the highest GDP per capita at $57,944",
		"Montana has the lowest GDP per capita at $55,140",
		"Cannot plot Population(m) vs. GDP(m): every state has the same value on one axis.",
	)
	if strings.Count(out, "Specify a region") != 2 {
		t.Errorf("expected the region prompt again after the failed plot, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "plots", "region.png")); !os.IsNotExist(err) {
		t.Errorf("no plot file expected, stat error: %v", err)
	}
}

func TestRegionsAll(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Setenv("INCOMELENS_PLOT_ENABLED", "false")

	out, err := run(t, "all\nq\n", "regions", "--config", cfgPath)
	if err != nil {
		t.Fatalf("regions failed: %v", err)
	}
	assertContains(t, out,
		"Data for all regions:",
		"Iowa has the highest GDP per capita at $61,709",
		"Michigan has the lowest GDP per capita at $54,054",
	)
	if strings.Contains(out, "create a plot") {
		t.Errorf("plot prompt shown with plotting disabled:\n%s", out)
	}
}

func TestExportCommands(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	for i := 0; i < 2; i++ {
		out, err := run(t, "", "export", "--config", cfgPath, "--year", "2019")
		if err != nil {
			t.Fatalf("export %d failed: %v", i, err)
		}
		assertContains(t, out, "year2019.txt")
	}

	out, err := run(t, "", "exports", "--config", cfgPath)
	if err != nil {
		t.Fatalf("exports failed: %v", err)
	}
	if got := strings.Count(out, "year2019.txt"); got != 2 {
		t.Errorf("expected 2 stored exports, got %d:\n%s", got, out)
	}
}

func TestExportRotation(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Setenv("INCOMELENS_STORAGE_MAX_EXPORTS", "1")

	for i := 0; i < 3; i++ {
		if _, err := run(t, "", "export", "--config", cfgPath); err != nil {
			t.Fatalf("export %d failed: %v", i, err)
		}
	}
	out, err := run(t, "", "exports", "--config", cfgPath)
	if err != nil {
		t.Fatalf("exports failed: %v", err)
	}
	if got := strings.Count(out, "year2019.txt"); got != 1 {
		t.Errorf("expected rotation to keep 1 export, got %d:\n%s", got, out)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	if _, err := run(t, "", "counties", "--config", cfgPath, "--format", "html"); err == nil {
		t.Error("expected error for unknown report format")
	}
	if _, err := run(t, "", "counties", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

type fakeNotifier struct {
	titles []string
	err    error
}

func (f *fakeNotifier) SendReport(title, body string) error {
	f.titles = append(f.titles, title)
	return f.err
}

func TestEmitForwardsToNotifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"delivered", nil},
		{"delivery fails", errors.New("network down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			n := &fakeNotifier{err: tt.err}
			a := &app{out: &out, notify: n}

			a.emit("Income 2019", "body\n")
			a.say("not forwarded\n")

			if out.String() != "body\nnot forwarded\n" {
				t.Errorf("unexpected console output %q", out.String())
			}
			if diff := cmp.Diff([]string{"Income 2019"}, n.titles); diff != "" {
				t.Errorf("forwarded titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	if _, err := run(t, "", "compare", "--config", cfgPath); err == nil {
		t.Error("expected error without two exports")
	}

	if _, err := run(t, "", "export", "--config", cfgPath); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	next, err := filepath.Abs(filepath.Join("testdata", "counties_next.csv"))
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("INCOMELENS_DATA_COUNTY_FILE", next)
	if _, err := run(t, "", "export", "--config", cfgPath); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	out, err := run(t, "", "compare", "--config", cfgPath)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	assertContains(t, out,
		"Top 3 County Income Changes",
		"Holmes County", "-9.28%",
		"Loudoun County", "+6.11%",
		"Kent County", "+0.42%",
	)
	if strings.Contains(out, "Alger County") || strings.Contains(out, "Ionia County") {
		t.Errorf("unmatched counties must not be listed as changes:\n%s", out)
	}

	out, err = run(t, "", "compare", "--config", cfgPath, "--by-state")
	if err != nil {
		t.Fatalf("compare --by-state failed: %v", err)
	}
	assertContains(t, out, "MS: largest change 9.28%", "VA: largest change 6.11%")

	if _, err := run(t, "", "compare", "--config", cfgPath, "only-one"); err == nil {
		t.Error("expected error for a single export ID")
	}
}

func TestFetchCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	out, err := run(t, "", "fetch", "--config", cfgPath)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	assertContains(t, out, "No source URLs are configured.")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/year2019.txt":
			w.Write([]byte("brackets 2019\n"))
		case "/gdp.csv":
			w.Write([]byte("gdp\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetched := filepath.Join(dir, "fetched")
	t.Setenv("INCOMELENS_FETCH_BRACKET_URL", server.URL+"/year%d.txt")
	t.Setenv("INCOMELENS_FETCH_GDP_URL", server.URL+"/gdp.csv")
	t.Setenv("INCOMELENS_DATA_BRACKET_DIR", fetched)
	t.Setenv("INCOMELENS_DATA_GDP_FILE", filepath.Join(fetched, "gdp.csv"))
	t.Setenv("INCOMELENS_FETCH_RETRY_DELAY_BASE", "1ms")

	out, err = run(t, "", "fetch", "--config", cfgPath, "--year", "2019")
	if err != nil {
		t.Fatalf("fetch --year failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(fetched, "year2019.txt"))
	if err != nil || string(got) != "brackets 2019\n" {
		t.Errorf("unexpected bracket download %q: %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(fetched, "gdp.csv")); err != nil {
		t.Errorf("gdp.csv not downloaded: %v", err)
	}
	assertContains(t, out, "year2019.txt: 14 B")

	// 2018 is missing on the server.
	if _, err := run(t, "", "fetch", "--config", cfgPath); err == nil {
		t.Error("expected error when one year is missing")
	}
}

func TestReloadFromExport(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	if _, err := run(t, "", "export", "--config", cfgPath); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	store, err := storage.Open(filepath.Join(dir, "incomelens.db"), 20)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	exports, err := store.Exports()
	store.Close()
	if err != nil || len(exports) != 1 {
		t.Fatalf("expected one export, got %d: %v", len(exports), err)
	}
	id := exports[0].ID

	// Point every data file somewhere empty so only the export can answer.
	empty := t.TempDir()
	t.Setenv("INCOMELENS_DATA_BRACKET_DIR", empty)
	t.Setenv("INCOMELENS_DATA_COUNTY_FILE", filepath.Join(empty, "counties.csv"))
	t.Setenv("INCOMELENS_DATA_INCOME_FILE", filepath.Join(empty, "income.csv"))
	t.Setenv("INCOMELENS_PLOT_ENABLED", "false")

	if _, err := run(t, "", "counties", "--config", cfgPath); err == nil {
		t.Fatal("expected the data files to be gone")
	}

	out, err := run(t, "\n", "brackets", "--config", cfgPath, "--export", id)
	if err != nil {
		t.Fatalf("brackets --export failed: %v", err)
	}
	assertContains(t, out, "For the year 2019:", "The average income was $35,450.00", "The median income was $17,500.00")

	out, err = run(t, "2\nq\n", "counties", "--config", cfgPath, "--export", id)
	if err != nil {
		t.Fatalf("counties --export failed: %v", err)
	}
	assertContains(t, out, "Loudoun County", "$142,299")

	out, err = run(t, "Great Lakes\nq\n", "regions", "--config", cfgPath, "--export", id)
	if err != nil {
		t.Fatalf("regions --export failed: %v", err)
	}
	assertContains(t, out, "Ohio has the highest GDP per capita at $59,880")

	if _, err := run(t, "", "brackets", "--config", cfgPath, "--export", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for an unknown export, got %v", err)
	}
	if _, err := run(t, "", "brackets", "--config", cfgPath, "--export", id, "--year", "2019"); err == nil {
		t.Error("expected --export and --year to be rejected together")
	}
}
