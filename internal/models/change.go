package models

// Direction of a county income change between two exports.
const (
	Increase = "increase"
	Decrease = "decrease"
)

// CountyChange is one county whose median income moved between two exports.
type CountyChange struct {
	State     string  `json:"state"`
	Name      string  `json:"name"`
	OldIncome int     `json:"old_income"`
	NewIncome int     `json:"new_income"`
	Delta     int     `json:"delta"`
	Percent   float64 `json:"percent"` // Delta relative to OldIncome, in percent
	Direction string  `json:"direction"`
}

// StateChanges groups the county changes of one state.
type StateChanges struct {
	State       string         `json:"state"`
	Changes     []CountyChange `json:"changes"`
	BestPercent float64        `json:"best_percent"` // Largest absolute Percent in Changes
}
