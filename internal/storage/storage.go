// Package storage persists snapshots of loaded relations to a SQLite
// database. Each call to SaveExport writes the brackets, counties and state
// aggregates of one run under a fresh export ID, so later runs can compare
// against or reload earlier data without re-reading the source files.
//
// Exports are rotated: once more than maxExports exist, the oldest are
// deleted together with their rows.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/models"
)

// ErrNotFound is returned when an export ID is unknown.
var ErrNotFound = errors.New("export not found")

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS exports (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	year       INTEGER NOT NULL,
	brackets   INTEGER NOT NULL,
	counties   INTEGER NOT NULL,
	states     INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS brackets (
	export_id          TEXT NOT NULL,
	seq                INTEGER NOT NULL,
	low                REAL NOT NULL,
	high               REAL NOT NULL,
	count              INTEGER NOT NULL,
	cumulative_count   INTEGER NOT NULL,
	cumulative_percent REAL NOT NULL,
	aggregate_income   REAL NOT NULL,
	average_income     REAL NOT NULL,
	PRIMARY KEY (export_id, seq)
);
CREATE TABLE IF NOT EXISTS counties (
	export_id     TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	state         TEXT NOT NULL,
	name          TEXT NOT NULL,
	median_income INTEGER NOT NULL,
	PRIMARY KEY (export_id, seq)
);
CREATE TABLE IF NOT EXISTS states (
	export_id           TEXT NOT NULL,
	seq                 INTEGER NOT NULL,
	name                TEXT NOT NULL,
	region              TEXT NOT NULL,
	income              INTEGER NOT NULL,
	gdp                 INTEGER NOT NULL,
	has_gdp             INTEGER NOT NULL,
	population_millions REAL NOT NULL,
	has_population      INTEGER NOT NULL,
	PRIMARY KEY (export_id, seq)
);
`

// Snapshot is the set of relations written by one export.
type Snapshot struct {
	Source   string
	Year     int
	Brackets []models.Bracket
	Counties []models.County
	States   *models.StateMap
}

// Storage is a SQLite-backed export store.
type Storage struct {
	db         *sql.DB
	maxExports int
}

// Open opens or creates the database at path and applies the schema. The
// parent directory is created when missing.
func Open(path string, maxExports int) (*Storage, error) {
	if maxExports < 1 {
		return nil, fmt.Errorf("max exports must be at least 1, got %d", maxExports)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db, maxExports: maxExports}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unsupported schema version %d", v)
	}
	return nil
}

// SaveExport writes snap under a new export ID and rotates old exports.
func (s *Storage) SaveExport(snap Snapshot) (*models.Export, error) {
	var states []models.StateAggregate
	if snap.States != nil {
		states = snap.States.States()
	}

	export := &models.Export{
		ID:        uuid.New().String(),
		Source:    snap.Source,
		Year:      snap.Year,
		Brackets:  len(snap.Brackets),
		Counties:  len(snap.Counties),
		States:    len(states),
		CreatedAt: time.Now().UTC(),
	}
	if err := export.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		"INSERT INTO exports(id, source, year, brackets, counties, states, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		export.ID, export.Source, export.Year, export.Brackets, export.Counties, export.States,
		export.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("failed to insert export: %w", err)
	}

	for i, b := range snap.Brackets {
		if _, err := tx.Exec(
			`INSERT INTO brackets(export_id, seq, low, high, count, cumulative_count, cumulative_percent, aggregate_income, average_income)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			export.ID, i, b.Range.Low, b.Range.High, b.Count, b.CumulativeCount,
			b.CumulativePercent, b.AggregateIncome, b.AverageIncome,
		); err != nil {
			return nil, fmt.Errorf("failed to insert bracket %d: %w", i, err)
		}
	}

	for i, c := range snap.Counties {
		if _, err := tx.Exec(
			"INSERT INTO counties(export_id, seq, state, name, median_income) VALUES(?, ?, ?, ?, ?)",
			export.ID, i, c.State, c.Name, c.MedianIncome,
		); err != nil {
			return nil, fmt.Errorf("failed to insert county %d: %w", i, err)
		}
	}

	for i, st := range states {
		if _, err := tx.Exec(
			`INSERT INTO states(export_id, seq, name, region, income, gdp, has_gdp, population_millions, has_population)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			export.ID, i, st.Name, st.Region, st.Income, st.GDP, st.HasGDP,
			st.PopulationMillions, st.HasPopulation,
		); err != nil {
			return nil, fmt.Errorf("failed to insert state %s: %w", st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit export: %w", err)
	}
	logger.Debug("Saved export %s (%d brackets, %d counties, %d states)",
		export.ID, export.Brackets, export.Counties, export.States)

	if err := s.RotateExports(); err != nil {
		return export, err
	}
	return export, nil
}

// Exports lists all exports, newest first.
func (s *Storage) Exports() ([]models.Export, error) {
	rows, err := s.db.Query(
		"SELECT id, source, year, brackets, counties, states, created_at FROM exports ORDER BY rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []models.Export{}
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return exports, nil
}

// GetExport returns one export by ID.
func (s *Storage) GetExport(id string) (*models.Export, error) {
	row := s.db.QueryRow(
		"SELECT id, source, year, brackets, counties, states, created_at FROM exports WHERE id = ?", id,
	)
	e, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(row scanner) (*models.Export, error) {
	var e models.Export
	var created string
	if err := row.Scan(&e.ID, &e.Source, &e.Year, &e.Brackets, &e.Counties, &e.States, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export time %q: %w", created, err)
	}
	e.CreatedAt = t
	return &e, nil
}

// Brackets returns the brackets of an export in their original order.
func (s *Storage) Brackets(exportID string) ([]models.Bracket, error) {
	rows, err := s.db.Query(
		`SELECT low, high, count, cumulative_count, cumulative_percent, aggregate_income, average_income
		 FROM brackets WHERE export_id = ? ORDER BY seq`, exportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets: %w", err)
	}
	defer rows.Close()

	brackets := []models.Bracket{}
	for rows.Next() {
		var b models.Bracket
		if err := rows.Scan(&b.Range.Low, &b.Range.High, &b.Count, &b.CumulativeCount,
			&b.CumulativePercent, &b.AggregateIncome, &b.AverageIncome); err != nil {
			return nil, fmt.Errorf("failed to scan bracket: %w", err)
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

// Counties returns the counties of an export in their original order.
func (s *Storage) Counties(exportID string) ([]models.County, error) {
	rows, err := s.db.Query(
		"SELECT state, name, median_income FROM counties WHERE export_id = ? ORDER BY seq", exportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query counties: %w", err)
	}
	defer rows.Close()

	counties := []models.County{}
	for rows.Next() {
		var c models.County
		if err := rows.Scan(&c.State, &c.Name, &c.MedianIncome); err != nil {
			return nil, fmt.Errorf("failed to scan county: %w", err)
		}
		counties = append(counties, c)
	}
	return counties, rows.Err()
}

// States rebuilds the state mapping of an export in its original order.
func (s *Storage) States(exportID string) (*models.StateMap, error) {
	rows, err := s.db.Query(
		`SELECT name, region, income, gdp, has_gdp, population_millions, has_population
		 FROM states WHERE export_id = ? ORDER BY seq`, exportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	m := models.NewStateMap()
	for rows.Next() {
		var st models.StateAggregate
		if err := rows.Scan(&st.Name, &st.Region, &st.Income, &st.GDP, &st.HasGDP,
			&st.PopulationMillions, &st.HasPopulation); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		m.Put(st)
	}
	return m, rows.Err()
}

// RotateExports deletes the oldest exports beyond the configured maximum.
func (s *Storage) RotateExports() error {
	rows, err := s.db.Query("SELECT id FROM exports ORDER BY rowid DESC LIMIT -1 OFFSET ?", s.maxExports)
	if err != nil {
		return fmt.Errorf("failed to find old exports: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan export id: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to find old exports: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range stale {
		for _, table := range []string{"brackets", "counties", "states", "exports"} {
			col := "export_id"
			if table == "exports" {
				col = "id"
			}
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE "+col+" = ?", id); err != nil {
				return fmt.Errorf("failed to delete export %s from %s: %w", id, table, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}

	logger.Info("Rotated %d old exports", len(stale))
	return nil
}
