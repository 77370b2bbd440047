// Package ecs is an Entity-Component-System runtime.
//
// Entities are plain IDs. Components are plain data records stored densely per kind. Systems declare
// the component kinds they need and, every frame, run over exactly the entities that hold all of
// them. The Coordinator keeps the three in sync.
//
//	c, err := ecs.NewCoordinator(ecs.Options{}, ecs.Kind[Position](), ecs.Kind[Velocity]())
//	eid, err := c.CreateEntity()
//	err = ecs.AddComponent(c, eid, Position{})
package ecs

import (
	"github.com/rotisserie/eris"
)

// AddComponent attaches a component to a live entity that doesn't hold one of its kind yet, then
// updates the entity's signature and system memberships.
func AddComponent[T Component](c *Coordinator, eid EntityID, component T) error {
	if !c.entities.isAlive(eid) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	bit, err := MapKind[T](c.mapper)
	if err != nil {
		return err
	}
	if _, err := addComponent(&c.components, eid, component); err != nil {
		return err
	}

	c.signatureChanged(eid, c.entities.signature(eid).Set(bit))
	return nil
}

// RemoveComponent detaches the entity's component of kind T, then updates the entity's signature
// and system memberships.
func RemoveComponent[T Component](c *Coordinator, eid EntityID) error {
	if !c.entities.isAlive(eid) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	bit, err := MapKind[T](c.mapper)
	if err != nil {
		return err
	}
	if _, err := removeComponent[T](&c.components, eid); err != nil {
		return err
	}

	c.signatureChanged(eid, c.entities.signature(eid).Reset(bit))
	return nil
}

// GetComponent returns a pointer to the entity's component of kind T. Writes through the pointer
// update the stored value. The pointer is invalidated by the next add or remove of kind T.
func GetComponent[T Component](c *Coordinator, eid EntityID) (*T, error) {
	if !c.entities.isAlive(eid) {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	return getComponent[T](&c.components, eid)
}

// HasComponent reports whether a live entity holds a component of kind T.
func HasComponent[T Component](c *Coordinator, eid EntityID) bool {
	return c.entities.isAlive(eid) && hasComponent[T](&c.components, eid)
}

// GetComponents2 returns the entity's components of kinds A and B.
func GetComponents2[A, B Component](c *Coordinator, eid EntityID) (*A, *B, error) {
	a, err := GetComponent[A](c, eid)
	if err != nil {
		return nil, nil, err
	}
	b, err := GetComponent[B](c, eid)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// GetComponents3 returns the entity's components of kinds A, B and C.
func GetComponents3[A, B, C Component](c *Coordinator, eid EntityID) (*A, *B, *C, error) {
	a, b, err := GetComponents2[A, B](c, eid)
	if err != nil {
		return nil, nil, nil, err
	}
	cc, err := GetComponent[C](c, eid)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, b, cc, nil
}

// Create creates an entity holding the given components. Either the entity is created with all of
// them or nothing changes.
func Create(c *Coordinator, components ...Component) (EntityID, error) {
	sig, err := c.mapper.MapMultiple(components...)
	if err != nil {
		return 0, err
	}
	if sig.Count() != len(components) {
		return 0, eris.Wrap(ErrDuplicateComponent, "components passed to create must be of distinct kinds")
	}

	// Every kind is registered, so the type check is all that can still fail before mutating.
	stores := make([]abstractStore, len(components))
	for i, component := range components {
		store, _, err := c.components.getStore(component.Name())
		if err != nil {
			return 0, err
		}
		if !store.accepts(component) {
			return 0, eris.Wrapf(ErrComponentNotRegistered,
				"component %s is configured with a different type than %T", component.Name(), component)
		}
		stores[i] = store
	}

	eid, err := c.CreateEntity()
	if err != nil {
		return 0, err
	}
	for i, component := range components {
		if err := stores[i].insertAbstract(eid, component); err != nil {
			return 0, eris.Wrapf(err, "failed to insert component into new entity %d", eid)
		}
	}

	c.signatureChanged(eid, sig)
	return eid, nil
}

// signatureChanged stores the entity's new signature and re-evaluates its system memberships.
func (c *Coordinator) signatureChanged(eid EntityID, sig Signature) {
	c.entities.setSignature(eid, sig)
	c.systems.entitySignatureChanged(eid, sig)
}
