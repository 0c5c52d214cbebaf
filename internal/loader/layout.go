package loader

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/incomelens/internal/models"
)

// Delimiter selects how a line is split into fields.
type Delimiter string

const (
	// Comma splits CSV lines, honouring quoted fields.
	Comma Delimiter = "comma"
	// Whitespace splits on runs of spaces and tabs.
	Whitespace Delimiter = "whitespace"
)

// Layout names used by the typed loaders and by layout override files.
const (
	LayoutBrackets     = "brackets"
	LayoutCounties     = "counties"
	LayoutRegionIncome = "region_income"
	LayoutGDP          = "gdp"
	LayoutPopulation   = "population"
)

// Column maps a positional field to a semantic name and type.
type Column struct {
	Index int        `yaml:"index"`
	Name  string     `yaml:"name"`
	Type  ColumnType `yaml:"type"`
}

// GroupSpec describes marker rows: a row whose field at Column equals one of
// Names starts a new group and produces no record.
type GroupSpec struct {
	Column int      `yaml:"column"`
	Names  []string `yaml:"names"`
}

// Layout is a declarative description of a fixed-layout input file.
type Layout struct {
	Name      string     `yaml:"-"`
	Skip      int        `yaml:"skip"`
	Delimiter Delimiter  `yaml:"delimiter"`
	Columns   []Column   `yaml:"columns"`
	Group     *GroupSpec `yaml:"group,omitempty"`
}

// Validate checks that the layout can be applied to a file.
func (l Layout) Validate() error {
	if l.Skip < 0 {
		return errors.New("skip must not be negative")
	}
	if l.Delimiter != Comma && l.Delimiter != Whitespace {
		return fmt.Errorf("delimiter must be one of: %s, %s", Comma, Whitespace)
	}
	if len(l.Columns) == 0 {
		return errors.New("layout must define at least one column")
	}
	seen := make(map[string]bool, len(l.Columns))
	for _, c := range l.Columns {
		if c.Index < 0 {
			return fmt.Errorf("column %s: index must not be negative", c.Name)
		}
		if c.Name == "" {
			return fmt.Errorf("column %d: name must not be empty", c.Index)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column name %s", c.Name)
		}
		if c.Type < TypeString || c.Type > TypeFloat {
			return fmt.Errorf("column %s: unknown type %v", c.Name, c.Type)
		}
		seen[c.Name] = true
	}
	if l.Group != nil {
		if l.Group.Column < 0 {
			return errors.New("group column must not be negative")
		}
		if len(l.Group.Names) == 0 {
			return errors.New("group must list at least one name")
		}
	}
	return nil
}

// Column returns the column with the given semantic name.
func (l Layout) Column(name string) (Column, bool) {
	for _, c := range l.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// require checks that every named column is part of the layout.
func (l Layout) require(names ...string) error {
	for _, n := range names {
		if _, ok := l.Column(n); !ok {
			return fmt.Errorf("layout %s: missing required column %s", l.Name, n)
		}
	}
	return nil
}

// BracketLayout describes the yearly income distribution tables: two header
// lines, whitespace separated, with a "-" field between the range bounds.
func BracketLayout() Layout {
	return Layout{
		Name:      LayoutBrackets,
		Skip:      2,
		Delimiter: Whitespace,
		Columns: []Column{
			{Index: 0, Name: "low", Type: TypeFloat},
			{Index: 2, Name: "high", Type: TypeFloat},
			{Index: 3, Name: "count", Type: TypeInt},
			{Index: 4, Name: "cumulative_count", Type: TypeInt},
			{Index: 5, Name: "cumulative_percent", Type: TypeFloat},
			{Index: 6, Name: "aggregate_income", Type: TypeFloat},
			{Index: 7, Name: "average_income", Type: TypeFloat},
		},
	}
}

// CountyLayout describes the county median household income CSV.
func CountyLayout() Layout {
	return Layout{
		Name:      LayoutCounties,
		Skip:      1,
		Delimiter: Comma,
		Columns: []Column{
			{Index: 1, Name: "place", Type: TypeString},
			{Index: 10, Name: "median_income", Type: TypeInt},
		},
	}
}

// RegionIncomeLayout describes the BEA personal income by state CSV, where
// region name rows precede the states that belong to them.
func RegionIncomeLayout() Layout {
	return Layout{
		Name:      LayoutRegionIncome,
		Skip:      6,
		Delimiter: Comma,
		Columns: []Column{
			{Index: 0, Name: "name", Type: TypeString},
			{Index: 6, Name: "income", Type: TypeInt},
		},
		Group: &GroupSpec{Column: 0, Names: append([]string(nil), models.Regions...)},
	}
}

// GDPLayout describes the BEA GDP by state CSV.
func GDPLayout() Layout {
	return Layout{
		Name:      LayoutGDP,
		Skip:      7,
		Delimiter: Comma,
		Columns: []Column{
			{Index: 0, Name: "name", Type: TypeString},
			{Index: 7, Name: "gdp", Type: TypeInt},
		},
	}
}

// PopulationLayout describes the census population estimates CSV.
func PopulationLayout() Layout {
	return Layout{
		Name:      LayoutPopulation,
		Skip:      1,
		Delimiter: Comma,
		Columns: []Column{
			{Index: 1, Name: "name", Type: TypeString},
			{Index: 2, Name: "population", Type: TypeInt},
		},
	}
}

// Layouts holds one layout per input file kind, keyed by layout name.
type Layouts map[string]Layout

// DefaultLayouts returns the built-in layouts for all five input files.
func DefaultLayouts() Layouts {
	return Layouts{
		LayoutBrackets:     BracketLayout(),
		LayoutCounties:     CountyLayout(),
		LayoutRegionIncome: RegionIncomeLayout(),
		LayoutGDP:          GDPLayout(),
		LayoutPopulation:   PopulationLayout(),
	}
}

// layoutFile is the on-disk shape of a layout override file.
type layoutFile struct {
	Layouts map[string]layoutOverride `yaml:"layouts"`
}

type layoutOverride struct {
	Skip      *int       `yaml:"skip"`
	Delimiter Delimiter  `yaml:"delimiter"`
	Columns   []Column   `yaml:"columns"`
	Group     *GroupSpec `yaml:"group"`
}

var requiredColumns = map[string][]string{
	LayoutBrackets:     {"low", "high", "count", "cumulative_count", "cumulative_percent", "aggregate_income", "average_income"},
	LayoutCounties:     {"place", "median_income"},
	LayoutRegionIncome: {"name", "income"},
	LayoutGDP:          {"name", "gdp"},
	LayoutPopulation:   {"name", "population"},
}

// LoadLayouts reads a YAML layout override file and merges it over the
// defaults. Fields left out of an override keep their default value. An
// empty path returns the defaults.
func LoadLayouts(path string) (Layouts, error) {
	layouts := DefaultLayouts()
	if path == "" {
		return layouts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayouts(data, layouts)
}

// ParseLayouts merges YAML overrides over base.
func ParseLayouts(data []byte, base Layouts) (Layouts, error) {
	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse layout file: %w", err)
	}

	merged := make(Layouts, len(base))
	for name, l := range base {
		merged[name] = l
	}

	for name, o := range file.Layouts {
		l, ok := base[name]
		if !ok {
			return nil, fmt.Errorf("unknown layout %q", name)
		}
		if o.Skip != nil {
			l.Skip = *o.Skip
		}
		if o.Delimiter != "" {
			l.Delimiter = o.Delimiter
		}
		if len(o.Columns) > 0 {
			l.Columns = o.Columns
		}
		if o.Group != nil {
			l.Group = o.Group
		}
		l.Name = name
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("layout %s: %w", name, err)
		}
		if err := l.require(requiredColumns[name]...); err != nil {
			return nil, err
		}
		merged[name] = l
	}
	return merged, nil
}
