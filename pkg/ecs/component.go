package ecs

import (
	"github.com/nexus-engine/nexus/pkg/assert"
	"github.com/nexus-engine/nexus/pkg/log"
	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
// Components are plain data records attached to entities; the runtime never inspects their fields.
type Component interface { //nolint:iface // We may add more methods in the future.
	// Name returns a unique string identifier for the component kind.
	// This should be consistent across program executions.
	Name() string
}

// componentID is the position of a component kind in the configured kind list. It doubles as the
// kind's bit index in a Signature.
type componentID = uint32

// ComponentKind is one entry of the closed list of component kinds a Coordinator is built with.
// Create it with Kind.
type ComponentKind struct {
	name    string
	factory storeFactory
}

// Kind returns the ComponentKind for T.
func Kind[T Component]() ComponentKind {
	var zero T
	return ComponentKind{name: zero.Name(), factory: newStoreFactory[T]()}
}

// Name returns the component kind's name.
func (k ComponentKind) Name() string {
	return k.name
}

// ComponentMetadata identifies a configured component kind by ID and name.
type ComponentMetadata struct {
	id   componentID
	name string
}

var _ log.ComponentMetadata = ComponentMetadata{}

// ID returns the kind's bit index.
func (m ComponentMetadata) ID() uint32 { return m.id }

// Name returns the kind's name.
func (m ComponentMetadata) Name() string { return m.name }

// componentManager owns one store per configured component kind and routes calls by kind.
type componentManager struct {
	catalog map[string]componentID // Component name -> component ID
	stores  []abstractStore        // Component ID -> store
}

// newComponentManager creates a store for every kind. The kind list must already be validated by
// the signature mapper, so duplicates here are a programming error.
func newComponentManager(capacity int, kinds []ComponentKind) componentManager {
	cm := componentManager{
		catalog: make(map[string]componentID, len(kinds)),
		stores:  make([]abstractStore, 0, len(kinds)),
	}
	for _, kind := range kinds {
		_, exists := cm.catalog[kind.name]
		assert.That(!exists, "component %s configured twice", kind.name)

		cm.catalog[kind.name] = componentID(len(cm.stores)) //nolint:gosec // bounded by SignatureWidth
		cm.stores = append(cm.stores, kind.factory(capacity))
	}
	return cm
}

// getID returns a component's ID given a name.
func (cm *componentManager) getID(name string) (componentID, error) {
	id, exists := cm.catalog[name]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", name)
	}
	return id, nil
}

// getStore returns the store of the given component name.
func (cm *componentManager) getStore(name string) (abstractStore, componentID, error) {
	id, err := cm.getID(name)
	if err != nil {
		return nil, 0, err
	}
	return cm.stores[id], id, nil
}

// entityDestroyed purges the entity from every store. Stores are disjoint so the order is irrelevant.
func (cm *componentManager) entityDestroyed(eid EntityID) {
	for _, store := range cm.stores {
		store.onEntityDestroyed(eid)
	}
}

// metadata returns the metadata of every configured kind, in ID order.
func (cm *componentManager) metadata() []ComponentMetadata {
	out := make([]ComponentMetadata, len(cm.stores))
	for i, store := range cm.stores {
		out[i] = ComponentMetadata{id: componentID(i), name: store.name()} //nolint:gosec // bounded
	}
	return out
}

// components returns the metadata of the kinds the entity currently holds, in ID order.
func (cm *componentManager) components(eid EntityID) []ComponentMetadata {
	var out []ComponentMetadata
	for i, store := range cm.stores {
		if store.has(eid) {
			out = append(out, ComponentMetadata{id: componentID(i), name: store.name()}) //nolint:gosec // bounded
		}
	}
	return out
}

// typedStore returns the concrete store for T. A T whose name collides with a configured kind of a
// different Go type is treated as unregistered.
func typedStore[T Component](cm *componentManager) (*componentStore[T], componentID, error) {
	var zero T
	abstract, id, err := cm.getStore(zero.Name())
	if err != nil {
		return nil, 0, err
	}
	store, ok := abstract.(*componentStore[T])
	if !ok {
		return nil, 0, eris.Wrapf(ErrComponentNotRegistered,
			"component %s is configured with a different type than %T", zero.Name(), zero)
	}
	return store, id, nil
}

func addComponent[T Component](cm *componentManager, eid EntityID, component T) (componentID, error) {
	store, id, err := typedStore[T](cm)
	if err != nil {
		return 0, err
	}
	if err := store.insert(eid, component); err != nil {
		return 0, err
	}
	return id, nil
}

func removeComponent[T Component](cm *componentManager, eid EntityID) (componentID, error) {
	store, id, err := typedStore[T](cm)
	if err != nil {
		return 0, err
	}
	if err := store.remove(eid); err != nil {
		return 0, err
	}
	return id, nil
}

func getComponent[T Component](cm *componentManager, eid EntityID) (*T, error) {
	store, _, err := typedStore[T](cm)
	if err != nil {
		return nil, err
	}
	return store.get(eid)
}

func hasComponent[T Component](cm *componentManager, eid EntityID) bool {
	store, _, err := typedStore[T](cm)
	if err != nil {
		return false
	}
	return store.has(eid)
}
