package ecs

import "github.com/nexus-engine/nexus/pkg/assert"

// sparseSet maps entity IDs to dense slot indices. Entity IDs are bounded by the coordinator's
// MaxEntities, so the set is a flat slice sized once, with sparseTombstone marking empty keys.
type sparseSet []int

const sparseTombstone = -1

// newSparseSet creates a sparse set that can hold keys in [0, capacity).
func newSparseSet(capacity int) sparseSet {
	s := make(sparseSet, capacity)
	for i := range s {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the value for a key and whether it exists.
func (s sparseSet) get(key EntityID) (int, bool) {
	if int(key) >= len(s) {
		return 0, false
	}

	value := s[key]
	if value == sparseTombstone {
		return 0, false
	}

	return value, true
}

// set stores a value for a key.
func (s sparseSet) set(key EntityID, value int) {
	assert.That(value >= 0, "value must be a non-negative slot index")
	assert.That(int(key) < len(s), "key %d outside sparse set of size %d", key, len(s))
	s[key] = value
}

// remove sets a key's value to tombstone. Returns true if the key existed.
func (s sparseSet) remove(key EntityID) bool {
	if int(key) >= len(s) {
		return false
	}

	if s[key] == sparseTombstone {
		return false
	}

	s[key] = sparseTombstone
	return true
}
