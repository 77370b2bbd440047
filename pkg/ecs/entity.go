package ecs

import (
	"math"

	"github.com/kelindar/bitmap"
	"github.com/nexus-engine/nexus/pkg/assert"
	"github.com/rotisserie/eris"
)

// EntityID is a unique identifier for an entity. IDs are unique among live entities and are reused
// in FIFO order once destroyed.
type EntityID uint32

// maxEntityCapacity bounds MaxEntities so every ID fits in an EntityID and a bitmap index.
const maxEntityCapacity = math.MaxInt32

// entityManager hands out entity IDs and stores each entity's signature.
type entityManager struct {
	free       []EntityID    // Ring buffer of available IDs
	head       int           // Index of the next ID to hand out
	freeCount  int           // Number of IDs in the ring
	signatures []Signature   // Entity ID -> signature
	alive      bitmap.Bitmap // Set of live entity IDs
}

// newEntityManager creates an entity manager with every ID in [0, capacity) available, in order.
func newEntityManager(capacity int) entityManager {
	assert.That(capacity > 0, "entity capacity must be positive")

	free := make([]EntityID, capacity)
	for i := range free {
		free[i] = EntityID(i) //nolint:gosec // capacity fits in EntityID
	}

	alive := bitmap.Bitmap{}
	alive.Grow(uint32(capacity - 1)) //nolint:gosec // capacity fits in uint32

	return entityManager{
		free:       free,
		freeCount:  capacity,
		signatures: make([]Signature, capacity),
		alive:      alive,
	}
}

// create takes the oldest available ID.
func (em *entityManager) create() (EntityID, error) {
	if em.freeCount == 0 {
		return 0, eris.Wrapf(ErrCapacityExceeded, "all %d entities are alive", len(em.free))
	}

	id := em.free[em.head]
	em.head = (em.head + 1) % len(em.free)
	em.freeCount--

	assert.That(!em.alive.Contains(uint32(id)), "entity %d handed out while alive", id)
	em.alive.Set(uint32(id))
	return id, nil
}

// destroy clears the entity's signature and queues its ID for reuse.
func (em *entityManager) destroy(id EntityID) error {
	if !em.isAlive(id) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}

	em.signatures[id] = 0
	em.alive.Remove(uint32(id))

	tail := (em.head + em.freeCount) % len(em.free)
	em.free[tail] = id
	em.freeCount++
	return nil
}

// isAlive reports whether an ID is in range and currently handed out.
func (em *entityManager) isAlive(id EntityID) bool {
	return int(id) < len(em.signatures) && em.alive.Contains(uint32(id))
}

func (em *entityManager) signature(id EntityID) Signature {
	assert.That(int(id) < len(em.signatures), "entity %d out of range", id)
	return em.signatures[id]
}

func (em *entityManager) setSignature(id EntityID, sig Signature) {
	assert.That(int(id) < len(em.signatures), "entity %d out of range", id)
	em.signatures[id] = sig
}

// count returns the number of live entities.
func (em *entityManager) count() int {
	return len(em.free) - em.freeCount
}

func (em *entityManager) capacity() int {
	return len(em.free)
}

// each calls fn for every live entity in ascending ID order.
func (em *entityManager) each(fn func(EntityID)) {
	em.alive.Range(func(x uint32) {
		fn(EntityID(x))
	})
}
