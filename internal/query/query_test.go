package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type item struct {
	id    int
	key   string
	value float64
}

func itemValue(i item) float64 { return i.value }
func itemKey(i item) string    { return i.key }

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestAverage(t *testing.T) {
	items := []item{{1, "a", 10}, {2, "a", 20}, {3, "b", 31}}
	weights := func(i item) float64 { return float64(i.id) }
	zero := func(item) float64 { return 0 }

	tests := []struct {
		name    string
		records []item
		weight  Field[item]
		want    float64
		wantErr error
	}{
		{"simple mean", items, nil, 20.33, nil},
		{"weighted", items, weights, 10.17, nil},
		{"empty", nil, nil, 0, ErrEmptyRelation},
		{"empty weighted", []item{}, weights, 0, ErrEmptyRelation},
		{"zero weight", items, zero, 0, ErrZeroWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Average(tt.records, itemValue, tt.weight)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Average() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{20.333, 20.33},
		{0.125, 0.12},
		{0.375, 0.38},
		{-0.125, -0.12},
		{32583.5, 32583.5},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFindThresholdCrossing(t *testing.T) {
	items := []item{{1, "", 10}, {2, "", 30}, {3, "", 55}, {4, "", 80}, {5, "", 100}}

	tests := []struct {
		threshold float64
		wantID    int
		wantOK    bool
	}{
		{50, 3, true},
		{55, 3, true},
		{0, 1, true},
		{100, 5, true},
		{100.5, 0, false},
	}
	for _, tt := range tests {
		got, ok := FindThresholdCrossing(items, itemValue, tt.threshold)
		if ok != tt.wantOK || got.id != tt.wantID {
			t.Errorf("threshold %v: got (%d, %v), want (%d, %v)", tt.threshold, got.id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestRankTopNStable(t *testing.T) {
	items := []item{{1, "", 5}, {2, "", 9}, {3, "", 5}, {4, "", 9}, {5, "", 1}}

	if diff := cmp.Diff([]int{2, 4, 1, 3}, ids(RankTopN(items, itemValue, 4, true))); diff != "" {
		t.Errorf("descending mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5, 1, 3}, ids(RankTopN(items, itemValue, 3, false))); diff != "" {
		t.Errorf("ascending mismatch (-want +got):\n%s", diff)
	}
	if got := RankTopN(items, itemValue, 50, true); len(got) != len(items) {
		t.Errorf("n beyond length returned %d records", len(got))
	}
	if got := RankTopN(items, itemValue, 0, true); got == nil || len(got) != 0 {
		t.Errorf("n=0 should return an empty non-nil slice, got %v", got)
	}

	// Input order is untouched.
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, ids(items)); diff != "" {
		t.Errorf("input was reordered (-want +got):\n%s", diff)
	}
}

func TestRankBottomNStaysDescending(t *testing.T) {
	items := []item{{1, "", 5}, {2, "", 9}, {3, "", 1}, {4, "", 7}, {5, "", 1}}

	got := RankBottomN(items, itemValue, 3)
	if diff := cmp.Diff([]int{1, 3, 5}, ids(got)); diff != "" {
		t.Errorf("bottom mismatch (-want +got):\n%s", diff)
	}
	if got := RankBottomN(items, itemValue, 10); len(got) != 5 {
		t.Errorf("n beyond length returned %d records", len(got))
	}
	if got := RankBottomN([]item{}, itemValue, 3); len(got) != 0 {
		t.Errorf("empty input returned %v", got)
	}
}

func TestGroupAverage(t *testing.T) {
	items := []item{{1, "a", 10}, {2, "b", 5}, {3, "a", 21}, {4, "z", 100}}

	got := GroupAverage(items, itemKey, itemValue, []string{"a", "b", "c"})
	want := GroupResults[string]{
		{Key: "a", Average: 15.5, Count: 2, HasData: true},
		{Key: "b", Average: 5, Count: 1, HasData: true},
		{Key: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupAverage mismatch (-want +got):\n%s", diff)
	}

	if r := got.Lookup("z"); r.HasData {
		t.Errorf("unknown key should have no data, got %+v", r)
	}
	if r := got.Lookup("a"); !r.HasData || r.Average != 15.5 {
		t.Errorf("Lookup(a) = %+v", r)
	}

	ranked := RankGroups(got, 10, false)
	if len(ranked) != 2 || ranked[0].Key != "b" || ranked[1].Key != "a" {
		t.Errorf("RankGroups = %+v", ranked)
	}
}

func TestFilterByKey(t *testing.T) {
	items := []item{{1, "a", 3}, {2, "b", 1}, {3, "a", 1}, {4, "a", 2}}

	byValue := func(x, y item) bool { return x.value < y.value }
	if diff := cmp.Diff([]int{3, 4, 1}, ids(FilterByKey(items, itemKey, "a", byValue))); diff != "" {
		t.Errorf("sorted filter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 3, 4}, ids(FilterByKey(items, itemKey, "a", nil))); diff != "" {
		t.Errorf("unsorted filter mismatch (-want +got):\n%s", diff)
	}
	if got := FilterByKey(items, itemKey, "q", byValue); got == nil || len(got) != 0 {
		t.Errorf("no match should return an empty non-nil slice, got %v", got)
	}
}

func TestMinMaxBy(t *testing.T) {
	items := []item{{1, "", 3}, {2, "", 1}, {3, "", 5}, {4, "", 1}, {5, "", 5}}

	lo, hi, ok := MinMaxBy(items, itemValue)
	if !ok {
		t.Fatal("expected ok")
	}
	if lo.id != 2 || hi.id != 3 {
		t.Errorf("MinMaxBy = (%d, %d), want (2, 3)", lo.id, hi.id)
	}

	if _, _, ok := MinMaxBy([]item{}, itemValue); ok {
		t.Error("empty input should not be ok")
	}
}
