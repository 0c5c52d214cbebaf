package models

import (
	"errors"
	"time"
)

// Export describes one snapshot of loaded relations written to the store.
type Export struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // Human readable description of the input files
	Year      int       `json:"year"`   // Survey year of the brackets, 0 when none were exported
	Brackets  int       `json:"brackets"`
	Counties  int       `json:"counties"`
	States    int       `json:"states"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that all export fields are valid.
func (e *Export) Validate() error {
	if e.ID == "" {
		return errors.New("export ID must not be empty")
	}
	if e.Year < 0 {
		return errors.New("year must not be negative")
	}
	if e.Brackets < 0 || e.Counties < 0 || e.States < 0 {
		return errors.New("record counts must not be negative")
	}
	if e.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
