package universe

import "fmt"

// Entity is a single ranked artist. Entities are immutable once loaded.
type Entity struct {
	Name        string `json:"name"`
	MetricCount int64  `json:"scrobble_count"`
	ImagePath   string `json:"local_image_path,omitempty"`
}

// Dataset is the structure produced by the data fetch collaborator.
type Dataset struct {
	Entities []Entity `json:"current_user_artists"`
}

// Total returns the sum of all metric counts in the dataset.
func (d Dataset) Total() int64 {
	var total int64
	for _, e := range d.Entities {
		total += e.MetricCount
	}
	return total
}

// RankedEntitySet is an ordered, name-unique sequence of entities.
//
// Insertion order is kept as given. Nothing in this package relies on the set
// being sorted by count.
type RankedEntitySet struct {
	entities []Entity
	byName   map[string]int
}

// NewRankedEntitySet validates entities and builds the name index.
func NewRankedEntitySet(entities []Entity) (*RankedEntitySet, error) {
	s := &RankedEntitySet{
		entities: make([]Entity, len(entities)),
		byName:   make(map[string]int, len(entities)),
	}

	for i, e := range entities {
		if e.MetricCount < 0 {
			return nil, fmt.Errorf("%w: %q has %d", ErrNegativeCount, e.Name, e.MetricCount)
		}
		if _, ok := s.byName[e.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		s.byName[e.Name] = i
		s.entities[i] = e
	}

	return s, nil
}

// Len returns the number of entities.
func (s *RankedEntitySet) Len() int { return len(s.entities) }

// Empty reports whether the set has no entities.
func (s *RankedEntitySet) Empty() bool { return len(s.entities) == 0 }

// At returns the entity at index i.
func (s *RankedEntitySet) At(i int) (Entity, error) {
	if i < 0 || i >= len(s.entities) {
		return Entity{}, fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, i, len(s.entities))
	}
	return s.entities[i], nil
}

// IndexOf returns the position of the entity with the given name.
func (s *RankedEntitySet) IndexOf(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// ByName looks up an entity by name.
func (s *RankedEntitySet) ByName(name string) (Entity, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Entity{}, false
	}
	return s.entities[i], true
}

// Entities returns a copy of the ordered entities.
func (s *RankedEntitySet) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// MaxCount returns the largest metric count in the set, or 0 when empty.
func (s *RankedEntitySet) MaxCount() int64 {
	var m int64
	for _, e := range s.entities {
		m = max(m, e.MetricCount)
	}
	return m
}

// Total returns the sum of all metric counts.
func (s *RankedEntitySet) Total() int64 {
	return Dataset{Entities: s.entities}.Total()
}
