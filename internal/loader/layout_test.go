package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultLayoutsAreValid(t *testing.T) {
	for name, l := range DefaultLayouts() {
		if err := l.Validate(); err != nil {
			t.Errorf("layout %s invalid: %v", name, err)
		}
		if err := l.require(requiredColumns[name]...); err != nil {
			t.Errorf("layout %s: %v", name, err)
		}
		if l.Name != name {
			t.Errorf("layout keyed %s is named %s", name, l.Name)
		}
	}
}

func TestParseLayoutsOverrides(t *testing.T) {
	data := []byte(`
layouts:
  counties:
    skip: 2
    columns:
      - {index: 0, name: place, type: string}
      - {index: 3, name: median_income, type: int}
  gdp:
    skip: 0
`)
	layouts, err := ParseLayouts(data, DefaultLayouts())
	if err != nil {
		t.Fatalf("ParseLayouts failed: %v", err)
	}

	counties := layouts[LayoutCounties]
	if counties.Skip != 2 || counties.Delimiter != Comma {
		t.Errorf("unexpected counties layout: %+v", counties)
	}
	want := []Column{
		{Index: 0, Name: "place", Type: TypeString},
		{Index: 3, Name: "median_income", Type: TypeInt},
	}
	if diff := cmp.Diff(want, counties.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	// An explicit zero skip overrides the default of 7.
	if layouts[LayoutGDP].Skip != 0 {
		t.Errorf("gdp skip = %d, want 0", layouts[LayoutGDP].Skip)
	}
	if diff := cmp.Diff(GDPLayout().Columns, layouts[LayoutGDP].Columns); diff != "" {
		t.Errorf("gdp columns should keep defaults (-want +got):\n%s", diff)
	}

	// Untouched layouts keep their marker groups.
	if layouts[LayoutRegionIncome].Group == nil {
		t.Error("region income layout lost its group spec")
	}
}

func TestParseLayoutsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown layout", "layouts:\n  weather:\n    skip: 1\n"},
		{"unknown type", "layouts:\n  counties:\n    columns:\n      - {index: 1, name: place, type: date}\n"},
		{"missing required column", "layouts:\n  counties:\n    columns:\n      - {index: 1, name: place, type: string}\n"},
		{"bad delimiter", "layouts:\n  brackets:\n    delimiter: pipe\n"},
		{"malformed yaml", "layouts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLayouts([]byte(tt.data), DefaultLayouts()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadLayoutsFromFile(t *testing.T) {
	layouts, err := LoadLayouts("")
	if err != nil {
		t.Fatalf("LoadLayouts(\"\") failed: %v", err)
	}
	if len(layouts) != 5 {
		t.Errorf("expected 5 default layouts, got %d", len(layouts))
	}

	path := filepath.Join(t.TempDir(), "layouts.yaml")
	if err := os.WriteFile(path, []byte("layouts:\n  population:\n    skip: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	layouts, err = LoadLayouts(path)
	if err != nil {
		t.Fatalf("LoadLayouts failed: %v", err)
	}
	if layouts[LayoutPopulation].Skip != 3 {
		t.Errorf("population skip = %d, want 3", layouts[LayoutPopulation].Skip)
	}

	if _, err := LoadLayouts(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSampleLayoutFile(t *testing.T) {
	layouts, err := LoadLayouts(filepath.Join("..", "..", "configs", "layouts.yaml"))
	if err != nil {
		t.Fatalf("sample layout file rejected: %v", err)
	}

	counties := layouts[LayoutCounties]
	if counties.Skip != 2 {
		t.Errorf("counties skip = %d, want 2", counties.Skip)
	}
	col, ok := counties.Column("median_income")
	if !ok || col.Index != 12 || col.Type != TypeInt {
		t.Errorf("unexpected median_income column: %+v (found %v)", col, ok)
	}
	if diff := cmp.Diff(BracketLayout(), layouts[LayoutBrackets]); diff != "" {
		t.Errorf("brackets layout should keep its default (-want +got):\n%s", diff)
	}
}
