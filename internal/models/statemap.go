package models

// StateMap is the region relation: state aggregates keyed by state name,
// iterated in first-insertion order.
type StateMap struct {
	order  []string
	states map[string]*StateAggregate
}

// NewStateMap creates an empty StateMap.
func NewStateMap() *StateMap {
	return &StateMap{states: make(map[string]*StateAggregate)}
}

// Put stores s under s.Name. Replacing an existing key keeps its position.
func (m *StateMap) Put(s StateAggregate) {
	if _, exists := m.states[s.Name]; !exists {
		m.order = append(m.order, s.Name)
	}
	m.states[s.Name] = &s
}

// Get returns a copy of the aggregate stored under name.
func (m *StateMap) Get(name string) (StateAggregate, bool) {
	s, ok := m.states[name]
	if !ok {
		return StateAggregate{}, false
	}
	return *s, true
}

// Enrich applies fn to the aggregate stored under name. It reports false and
// does nothing when name is not a key; enrichment never creates keys.
func (m *StateMap) Enrich(name string, fn func(*StateAggregate)) bool {
	s, ok := m.states[name]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// Len returns the number of keys.
func (m *StateMap) Len() int {
	return len(m.order)
}

// States returns copies of all aggregates in insertion order.
func (m *StateMap) States() []StateAggregate {
	out := make([]StateAggregate, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.states[name])
	}
	return out
}
