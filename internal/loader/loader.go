// Package loader turns fixed-layout text and CSV files into typed records.
//
// Load is layout driven and agnostic to the file it reads: it skips a fixed
// number of header lines, splits each line, trims fields, strips thousands
// separators and coerces numbers into nullable Values. Marker rows (a region
// name heading the states that follow it) are handled by carrying the current
// group through the scan. The typed loaders in this package decide which null
// fields drop a row and which abort the load with a ParseError.
package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row is one data line after splitting and coercion.
type Row struct {
	Line   int    // 1-based line number in the source file
	Group  string // Current marker group, empty before the first marker row
	Width  int    // Number of fields on the source line
	values map[string]Value
}

// Get returns the value of the named column. Unknown names yield a null Value.
func (r Row) Get(name string) Value {
	return r.values[name]
}

// fieldSource yields split lines with their 1-based line numbers.
type fieldSource interface {
	next() (fields []string, line int, err error)
}

type csvSource struct {
	r      *csv.Reader
	offset int
}

func (s *csvSource) next() ([]string, int, error) {
	fields, err := s.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, 0, fmt.Errorf("failed to read line %d: %w", perr.StartLine+s.offset, err)
		}
		return nil, 0, err
	}
	line, _ := s.r.FieldPos(0)
	return fields, line + s.offset, nil
}

type whitespaceSource struct {
	sc   *bufio.Scanner
	line int
}

func (s *whitespaceSource) next() ([]string, int, error) {
	for s.sc.Scan() {
		s.line++
		fields := strings.Fields(s.sc.Text())
		if len(fields) == 0 {
			continue
		}
		return fields, s.line, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, 0, err
	}
	return nil, 0, io.EOF
}

// skipLines discards n lines without looking at them.
func skipLines(br *bufio.Reader, n int) (bool, error) {
	for i := 0; i < n; i++ {
		_, err := br.ReadString('\n')
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to skip header line %d: %w", i+1, err)
		}
	}
	return true, nil
}

// Load reads every data line of r according to layout. It returns the rows
// in source order; marker rows produce no row but set Group on the rows that
// follow them. Blank lines are ignored. Errors are returned only for an
// invalid layout or an unreadable input; unconvertible fields become null
// Values.
func Load(r io.Reader, layout Layout) ([]Row, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout %s: %w", layout.Name, err)
	}

	br := bufio.NewReader(r)
	more, err := skipLines(br, layout.Skip)
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, nil
	}

	var src fieldSource
	switch layout.Delimiter {
	case Whitespace:
		src = &whitespaceSource{sc: bufio.NewScanner(br), line: layout.Skip}
	default:
		cr := csv.NewReader(br)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = true
		src = &csvSource{r: cr, offset: layout.Skip}
	}

	var groups map[string]bool
	if layout.Group != nil {
		groups = make(map[string]bool, len(layout.Group.Names))
		for _, n := range layout.Group.Names {
			groups[n] = true
		}
	}

	var rows []Row
	current := ""
	for {
		fields, line, err := src.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if groups != nil && layout.Group.Column < len(fields) {
			if name := strings.TrimSpace(fields[layout.Group.Column]); groups[name] {
				current = name
				continue
			}
		}

		row := Row{
			Line:   line,
			Group:  current,
			Width:  len(fields),
			values: make(map[string]Value, len(layout.Columns)),
		}
		for _, c := range layout.Columns {
			if c.Index >= len(fields) {
				row.values[c.Name] = Value{Type: c.Type}
				continue
			}
			row.values[c.Name] = Coerce(fields[c.Index], c.Type)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// requireInt returns the named integer field or a ParseError.
func requireInt(row Row, name string) (int, error) {
	v := row.Get(name)
	n, ok := v.Int()
	if !ok {
		return 0, fieldError(row, name, v)
	}
	return int(n), nil
}

// requireFloat returns the named numeric field or a ParseError.
func requireFloat(row Row, name string) (float64, error) {
	v := row.Get(name)
	f, ok := v.Float()
	if !ok {
		return 0, fieldError(row, name, v)
	}
	return f, nil
}

func fieldError(row Row, name string, v Value) *ParseError {
	cause := ErrInvalidNumber
	if !v.Present {
		cause = ErrMissingField
	}
	return &ParseError{Line: row.Line, Column: name, Value: v.Raw, Err: cause}
}
