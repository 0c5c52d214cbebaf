package compare

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rewired-gh/incomelens/internal/models"
	"github.com/rewired-gh/incomelens/internal/storage"
)

var (
	olderCounties = []models.County{
		{State: "VA", Name: "Loudoun County", MedianIncome: 140000},
		{State: "MI", Name: "Kent County", MedianIncome: 60000},
		{State: "MI", Name: "Wayne County", MedianIncome: 47301},
		{State: "AL", Name: "Gone County", MedianIncome: 30000},
		{State: "MS", Name: "Zero County", MedianIncome: 0},
	}
	newerCounties = []models.County{
		{State: "VA", Name: "Loudoun County", MedianIncome: 142800},
		{State: "MI", Name: "Kent County", MedianIncome: 57000},
		{State: "MI", Name: "Wayne County", MedianIncome: 47320},
		{State: "VA", Name: "New County", MedianIncome: 50000},
		{State: "MS", Name: "Zero County", MedianIncome: 10000},
	}
)

func TestDetectCountyChanges(t *testing.T) {
	changes, errs := DetectCountyChanges(olderCounties, newerCounties, 0.1)

	want := []models.CountyChange{
		{State: "VA", Name: "Loudoun County", OldIncome: 140000, NewIncome: 142800, Delta: 2800, Percent: 2, Direction: models.Increase},
		{State: "MI", Name: "Kent County", OldIncome: 60000, NewIncome: 57000, Delta: -3000, Percent: -5, Direction: models.Decrease},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	wantErrs := []error{ErrAdded, ErrZeroBase, ErrRemoved}
	if len(errs) != len(wantErrs) {
		t.Fatalf("expected %d detection errors, got %d: %v", len(wantErrs), len(errs), errs)
	}
	for i, want := range wantErrs {
		if !errors.Is(errs[i], want) {
			t.Errorf("error %d = %v, want %v", i, errs[i], want)
		}
	}
	if errs[2].Name != "Gone County" || errs[2].State != "AL" {
		t.Errorf("unexpected removed county: %+v", errs[2])
	}
}

func TestDetectCountyChangesMinPercent(t *testing.T) {
	tests := []struct {
		name       string
		minPercent float64
		wantCount  int
	}{
		{"zero floor keeps every move", 0, 3},
		{"small floor drops rounding noise", 0.1, 2},
		{"floor above smaller move", 3, 1},
		{"floor above every move", 10, 0},
		{"floor equal to move is kept", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, _ := DetectCountyChanges(olderCounties, newerCounties, tt.minPercent)
			if len(changes) != tt.wantCount {
				t.Errorf("expected %d changes, got %d: %+v", tt.wantCount, len(changes), changes)
			}
			if changes == nil {
				t.Error("changes must never be nil")
			}
		})
	}
}

func TestRank(t *testing.T) {
	changes := []models.CountyChange{
		{State: "VA", Name: "B", Percent: 3},
		{State: "MI", Name: "C", Percent: -7.5},
		{State: "AL", Name: "Z", Percent: -3},
		{State: "VA", Name: "A", Percent: 3},
	}

	got := Rank(changes, 10)
	var names []string
	for _, c := range got {
		names = append(names, c.State+" "+c.Name)
	}
	want := []string{"MI C", "AL Z", "VA A", "VA B"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}
	if changes[0].Name != "B" {
		t.Error("Rank must not reorder its input")
	}

	if got := Rank(changes, 1); len(got) != 1 || got[0].Name != "C" {
		t.Errorf("Rank(1) = %+v", got)
	}
	for _, k := range []int{0, -1} {
		if got := Rank(changes, k); got == nil || len(got) != 0 {
			t.Errorf("Rank(%d) = %#v, want empty non-nil", k, got)
		}
	}
	if got := Rank(nil, 3); got == nil || len(got) != 0 {
		t.Errorf("Rank(nil) = %#v, want empty non-nil", got)
	}
}

func TestGroupByState(t *testing.T) {
	changes := []models.CountyChange{
		{State: "VA", Name: "a", Percent: 1},
		{State: "MI", Name: "b", Percent: -4},
		{State: "VA", Name: "c", Percent: -3},
	}

	got := GroupByState(changes)
	want := []models.StateChanges{
		{State: "VA", BestPercent: 3, Changes: []models.CountyChange{
			{State: "VA", Name: "c", Percent: -3},
			{State: "VA", Name: "a", Percent: 1},
		}},
		{State: "MI", BestPercent: 4, Changes: []models.CountyChange{
			{State: "MI", Name: "b", Percent: -4},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	if got := GroupByState(nil); got == nil || len(got) != 0 {
		t.Errorf("GroupByState(nil) = %#v, want empty non-nil", got)
	}
}

func TestComparerAgainstStorage(t *testing.T) {
	s, err := storage.Open(filepath.Join(t.TempDir(), "incomelens.db"), 5)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := New(s)

	if _, _, err := c.Latest(); err == nil {
		t.Error("expected error with no exports")
	}

	older, err := s.SaveExport(storage.Snapshot{Source: "older", Counties: olderCounties})
	if err != nil {
		t.Fatalf("SaveExport failed: %v", err)
	}
	newer, err := s.SaveExport(storage.Snapshot{Source: "newer", Counties: newerCounties})
	if err != nil {
		t.Fatalf("SaveExport failed: %v", err)
	}

	oldID, newID, err := c.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if oldID != older.ID || newID != newer.ID {
		t.Errorf("Latest() = %s, %s; want %s, %s", oldID, newID, older.ID, newer.ID)
	}

	changes, errs, err := c.Counties(oldID, newID, 0.1)
	if err != nil {
		t.Fatalf("Counties failed: %v", err)
	}
	if len(changes) != 2 || len(errs) != 3 {
		t.Errorf("expected 2 changes and 3 detection errors, got %d and %d", len(changes), len(errs))
	}

	if _, _, err := c.Counties("missing", newID, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
