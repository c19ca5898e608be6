package areas

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Set holds the editable area configuration. Every mutation is checked
// against the full invariant set before it is applied.
type Set struct {
	mu    sync.RWMutex
	areas []Area
}

// NewSet creates a set from an initial list, which must already be valid
func NewSet(initial ...Area) (*Set, error) {
	s := &Set{}
	for _, a := range initial {
		if _, err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends an area. A missing ID is generated and a zero Order places
// the area after the existing ones.
func (s *Set) Add(a Area) (Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Type = normalizeType(a.Type)
	if a.Order == 0 {
		a.Order = s.nextOrder()
	}
	if s.indexOf(a.ID) >= 0 {
		return Area{}, fmt.Errorf("area %s already exists", a.ID)
	}

	candidate := append(s.snapshot(), a)
	if err := Validate(candidate); err != nil {
		return Area{}, err
	}

	s.areas = candidate
	return a, nil
}

// Update replaces the area with the same ID
func (s *Set) Update(a Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(a.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	a.Type = normalizeType(a.Type)

	candidate := s.snapshot()
	candidate[idx] = a
	if err := Validate(candidate); err != nil {
		return err
	}

	s.areas = candidate
	return nil
}

// Remove deletes the area with the given ID
func (s *Set) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.areas = append(s.areas[:idx:idx], s.areas[idx+1:]...)
	return nil
}

// Get returns the area with the given ID
func (s *Set) Get(id uuid.UUID) (Area, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Area{}, false
	}
	return s.areas[idx], true
}

// Rename changes an area's display name
func (s *Set) Rename(id uuid.UUID, name string) error {
	return s.modify(id, func(a *Area) { a.Name = name })
}

// SetRegion replaces an area's selection rectangle; nil clears it
func (s *Set) SetRegion(id uuid.UUID, r *Rect) error {
	return s.modify(id, func(a *Area) {
		if r == nil {
			a.Region = nil
			return
		}
		copied := *r
		a.Region = &copied
	})
}

// SetType changes an area's field type
func (s *Set) SetType(id uuid.UUID, t FieldType) error {
	return s.modify(id, func(a *Area) { a.Type = t })
}

// List returns a copy of all areas sorted by display order
func (s *Set) List() []Area {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshot()
	sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	return list
}

// Len returns the number of areas
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.areas)
}

func (s *Set) modify(id uuid.UUID, fn func(*Area)) error {
	s.mu.RLock()
	idx := s.indexOf(id)
	var a Area
	if idx >= 0 {
		a = s.areas[idx]
	}
	s.mu.RUnlock()

	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&a)
	return s.Update(a)
}

func (s *Set) indexOf(id uuid.UUID) int {
	for i := range s.areas {
		if s.areas[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Set) nextOrder() int {
	maxOrder := 0
	for _, a := range s.areas {
		if a.Order > maxOrder {
			maxOrder = a.Order
		}
	}
	return maxOrder + 1
}

func (s *Set) snapshot() []Area {
	out := make([]Area, len(s.areas))
	copy(out, s.areas)
	return out
}
