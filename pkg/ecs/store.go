package ecs

import (
	"github.com/goccy/go-json"
	"github.com/nexus-engine/nexus/pkg/assert"
	"github.com/rotisserie/eris"
)

// storeFactory creates a store sized for the given number of entities.
type storeFactory func(capacity int) abstractStore

func newStoreFactory[T Component]() storeFactory {
	return func(capacity int) abstractStore {
		return newComponentStore[T](capacity)
	}
}

// abstractStore is the type-erased view of a componentStore used by the component manager.
type abstractStore interface {
	name() string
	len() int
	has(eid EntityID) bool
	accepts(component Component) bool
	insertAbstract(eid EntityID, component Component) error
	onEntityDestroyed(eid EntityID)
	getAbstract(eid EntityID) (Component, bool)
	encode(eid EntityID) (json.RawMessage, error)
}

var _ abstractStore = &componentStore[Component]{}

// componentStore is a dense, gap-free array of one component kind. Entry i of components belongs to
// entities[i], and slots maps the other way. The two are kept exact inverses over [0, len).
type componentStore[T Component] struct {
	compName   string
	components []T        // Dense component values
	entities   []EntityID // Slot -> entity ID
	slots      sparseSet  // Entity ID -> slot
}

// newComponentStore creates a store that can hold one value for each of capacity entities. The dense
// array is allocated up front so appends never move existing values.
func newComponentStore[T Component](capacity int) *componentStore[T] {
	var zero T
	return &componentStore[T]{
		compName:   zero.Name(),
		components: make([]T, 0, capacity),
		entities:   make([]EntityID, 0, capacity),
		slots:      newSparseSet(capacity),
	}
}

func (s *componentStore[T]) name() string {
	return s.compName
}

func (s *componentStore[T]) len() int {
	return len(s.components)
}

func (s *componentStore[T]) has(eid EntityID) bool {
	_, ok := s.slots.get(eid)
	return ok
}

// insert appends a value for an entity that doesn't hold one yet.
func (s *componentStore[T]) insert(eid EntityID, component T) error {
	if s.has(eid) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d already has component %s", eid, s.compName)
	}

	slot := len(s.components)
	s.components = append(s.components, component)
	s.entities = append(s.entities, eid)
	s.slots.set(eid, slot)
	return nil
}

// accepts reports whether the component has the store's Go type.
func (s *componentStore[T]) accepts(component Component) bool {
	_, ok := component.(T)
	return ok
}

func (s *componentStore[T]) insertAbstract(eid EntityID, component Component) error {
	value, ok := component.(T)
	assert.That(ok, "component %s stored as %T, got %T", s.compName, value, component)
	return s.insert(eid, value)
}

// remove deletes an entity's value by moving the last value into its slot.
func (s *componentStore[T]) remove(eid EntityID) error {
	slot, ok := s.slots.get(eid)
	if !ok {
		return eris.Wrapf(ErrComponentNotFound, "entity %d has no component %s", eid, s.compName)
	}

	last := len(s.components) - 1
	moved := s.entities[last]
	assert.That(s.entities[slot] == eid, "store %s slot %d maps to the wrong entity", s.compName, slot)

	s.components[slot] = s.components[last]
	s.entities[slot] = moved

	var zero T
	s.components[last] = zero // drop references held by the vacated slot
	s.components = s.components[:last]
	s.entities = s.entities[:last]

	s.slots.remove(eid)
	if moved != eid {
		s.slots.set(moved, slot)
	}
	return nil
}

// get returns a pointer into the dense array. It stays valid until the next insert or remove.
func (s *componentStore[T]) get(eid EntityID) (*T, error) {
	slot, ok := s.slots.get(eid)
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotFound, "entity %d has no component %s", eid, s.compName)
	}
	return &s.components[slot], nil
}

func (s *componentStore[T]) getAbstract(eid EntityID) (Component, bool) {
	slot, ok := s.slots.get(eid)
	if !ok {
		return nil, false
	}
	return s.components[slot], true
}

// onEntityDestroyed removes the entity's value if it has one.
func (s *componentStore[T]) onEntityDestroyed(eid EntityID) {
	if s.has(eid) {
		err := s.remove(eid)
		assert.That(err == nil, "store %s failed to remove entity %d", s.compName, eid)
	}
}

// entityAt returns the entity that owns the value at a slot.
func (s *componentStore[T]) entityAt(slot int) EntityID {
	assert.That(slot >= 0 && slot < len(s.entities), "slot %d out of range", slot)
	return s.entities[slot]
}

// each calls fn for every value in slot order until fn returns false.
func (s *componentStore[T]) each(fn func(EntityID, *T) bool) {
	for i := range s.components {
		if !fn(s.entities[i], &s.components[i]) {
			return
		}
	}
}

func (s *componentStore[T]) encode(eid EntityID) (json.RawMessage, error) {
	value, err := s.get(eid)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to marshal component %s", s.compName)
	}
	return data, nil
}
