package entity

// Mapping is the session-scoped bidirectional entity index used by the
// demasking engine: id → entity and name → entity, plus placeholder label →
// entity for simple-token lookups. A Mapping is created empty per masking
// call and passed around explicitly; it is not safe for concurrent mutation
// and is never shared as a process-wide singleton.
type Mapping struct {
	byID    map[string]SensitiveEntity
	byName  map[string]SensitiveEntity
	byLabel map[string]SensitiveEntity
	order   []string
}

// NewMapping creates an empty mapping, optionally seeded with entities in
// the given order.
func NewMapping(entities ...SensitiveEntity) *Mapping {
	m := &Mapping{
		byID:    make(map[string]SensitiveEntity),
		byName:  make(map[string]SensitiveEntity),
		byLabel: make(map[string]SensitiveEntity),
	}
	m.Merge(entities...)
	return m
}

// Add registers an entity. A repeated id overwrites the previous entry
// without disturbing insertion order.
func (m *Mapping) Add(e SensitiveEntity) {
	if _, seen := m.byID[e.ID]; !seen {
		m.order = append(m.order, e.ID)
	}
	m.byID[e.ID] = e
	m.byName[e.Name] = e
	if e.Placeholder != "" {
		m.byLabel[e.Placeholder] = e
	}
}

// Merge adds all given entities in order.
func (m *Mapping) Merge(entities ...SensitiveEntity) {
	for _, e := range entities {
		m.Add(e)
	}
}

// ByID looks up an entity by its session identifier.
func (m *Mapping) ByID(id string) (SensitiveEntity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// ByName looks up an entity by its original value.
func (m *Mapping) ByName(name string) (SensitiveEntity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// ByLabel looks up an entity by its placeholder label. Simple tokens resolve
// through this index.
func (m *Mapping) ByLabel(label string) (SensitiveEntity, bool) {
	e, ok := m.byLabel[label]
	return e, ok
}

// Entities returns all entities in first-insertion order.
func (m *Mapping) Entities() []SensitiveEntity {
	out := make([]SensitiveEntity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// Len returns the number of distinct entities.
func (m *Mapping) Len() int { return len(m.order) }
