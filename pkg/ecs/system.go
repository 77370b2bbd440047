package ecs

import (
	"errors"
	"iter"
	"math/bits"
	"time"

	"github.com/kelindar/bitmap"
	"github.com/nexus-engine/nexus/pkg/log"
	"github.com/nexus-engine/nexus/pkg/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// System is a unit of per-frame logic that runs over every entity holding its required components.
type System interface {
	// Name returns a unique name for the system. It tags the system's logs and metrics.
	Name() string

	// Requires returns the component kinds an entity must hold to be matched by the system.
	Requires() []Component

	// Update runs one frame of the system over the entities it currently matches.
	Update(c *Coordinator, entities EntitySet, dt time.Duration) error
}

// EntitySet is a read-only view of the entities a system matches. It reflects membership changes
// immediately, including those made while iterating.
type EntitySet struct {
	bits bitmap.Bitmap
}

// Contains reports whether the entity is in the set.
func (s EntitySet) Contains(eid EntityID) bool {
	return s.bits.Contains(uint32(eid))
}

// Len returns the number of entities in the set.
func (s EntitySet) Len() int {
	return s.bits.Count()
}

// Each calls fn for every entity in ascending ID order until fn returns false.
func (s EntitySet) Each(fn func(EntityID) bool) {
	for blkAt, blk := range s.bits {
		for blk != 0 {
			offset := bits.TrailingZeros64(blk)
			if !fn(EntityID(blkAt<<6 + offset)) { //nolint:gosec // bounded by MaxEntities
				return
			}
			blk &= blk - 1
		}
	}
}

// All returns an iterator over the entities in ascending ID order.
func (s EntitySet) All() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		s.Each(yield)
	}
}

// Slice returns a snapshot of the set in ascending ID order. Unlike Each, the snapshot is safe to
// iterate while changing the system's membership.
func (s EntitySet) Slice() []EntityID {
	out := make([]EntityID, 0, s.Len())
	s.bits.Range(func(x uint32) {
		out = append(out, EntityID(x))
	})
	return out
}

type systemEntry struct {
	name     string
	system   System
	required Signature
	matched  bitmap.Bitmap
	logger   *zerolog.Logger
}

// systemManager keeps, for every registered system, the set of live entities whose signature is a
// superset of the system's required signature.
type systemManager struct {
	systems  []systemEntry
	index    map[string]int // System name -> position in systems
	capacity int
}

func newSystemManager(capacity int) systemManager {
	return systemManager{
		systems:  make([]systemEntry, 0),
		index:    make(map[string]int),
		capacity: capacity,
	}
}

// register appends a system. matching lists the live entities whose signature already satisfies
// required; they seed the system's matched set.
func (m *systemManager) register(
	sys System, required Signature, logger *zerolog.Logger, matching func(func(EntityID)),
) error {
	name := sys.Name()
	if _, exists := m.index[name]; exists {
		return eris.Errorf("system %s is already registered", name)
	}

	// Grow once up front so membership updates never reallocate a set a system may be ranging over.
	matched := bitmap.Bitmap{}
	matched.Grow(uint32(m.capacity - 1)) //nolint:gosec // capacity fits in uint32
	matching(func(eid EntityID) {
		matched.Set(uint32(eid))
	})

	m.index[name] = len(m.systems)
	m.systems = append(m.systems, systemEntry{
		name:     name,
		system:   sys,
		required: required,
		matched:  matched,
		logger:   log.CreateSystemLogger(logger, name),
	})
	return nil
}

// entityDestroyed drops the entity from every matched set.
func (m *systemManager) entityDestroyed(eid EntityID) {
	for i := range m.systems {
		m.systems[i].matched.Remove(uint32(eid))
	}
}

// entitySignatureChanged re-evaluates the entity against every system.
func (m *systemManager) entitySignatureChanged(eid EntityID, sig Signature) {
	for i := range m.systems {
		entry := &m.systems[i]
		if sig.Test(entry.required) {
			entry.matched.Set(uint32(eid))
		} else {
			entry.matched.Remove(uint32(eid))
		}
	}
}

// update runs every system once, in registration order. A failing system doesn't stop the
// systems after it; all errors are returned together.
func (m *systemManager) update(c *Coordinator, dt time.Duration) error {
	allSystemStartTime := time.Now()
	var errs []error
	defer func() { c.current = nil }()

	for i := range m.systems {
		entry := &m.systems[i]
		c.current = entry

		systemStartTime := time.Now()
		err := entry.system.Update(c, EntitySet{bits: entry.matched}, dt)
		statsd.EmitFrameStat(systemStartTime, entry.name)

		if err != nil {
			entry.logger.Error().Err(err).Msg("system failed")
			errs = append(errs, eris.Wrapf(err, "system %s failed", entry.name))
		}
	}

	statsd.EmitFrameStat(allSystemStartTime, statsd.StageAllSystems)

	if len(errs) > 0 {
		return eris.Wrap(errors.Join(errs...), "frame update failed")
	}
	return nil
}

// matchedSet returns the view of a system's matched set.
func (m *systemManager) matchedSet(name string) (EntitySet, bool) {
	i, ok := m.index[name]
	if !ok {
		return EntitySet{}, false
	}
	return EntitySet{bits: m.systems[i].matched}, true
}

// names returns the system names in registration order.
func (m *systemManager) names() []string {
	out := make([]string, len(m.systems))
	for i, entry := range m.systems {
		out[i] = entry.name
	}
	return out
}
